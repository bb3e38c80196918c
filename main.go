/*
Copyright © 2022 Pasi Huuhka pasi@huuhka.net
*/
package main

import "github.com/drbushytop/ado-pipeline-preview/cmd"

func main() {
	cmd.Execute()
}
