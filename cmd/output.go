package cmd

import (
	"encoding/json"
	"fmt"
	"github.com/drbushytop/ado-pipeline-preview/ado"
	"gopkg.in/yaml.v3"
	"io"
)

const (
	outputText = "text"
	outputJson = "json"
	outputYaml = "yaml"

	successMessage = "Pipeline validated successfully!"
)

// PreviewReport is the machine readable form of a preview outcome.
type PreviewReport struct {
	Pipeline   string `json:"pipeline" yaml:"pipeline"`
	PipelineId int    `json:"pipelineId" yaml:"pipelineId"`
	Valid      bool   `json:"valid" yaml:"valid"`
	FinalYaml  string `json:"finalYaml,omitempty" yaml:"finalYaml,omitempty"`
	TypeKey    string `json:"typeKey,omitempty" yaml:"typeKey,omitempty"`
	TypeName   string `json:"typeName,omitempty" yaml:"typeName,omitempty"`
	Message    string `json:"message,omitempty" yaml:"message,omitempty"`
}

func newPreviewReport(pipeline ado.Pipeline, result ado.PreviewResult, withFinalYaml bool) PreviewReport {
	report := PreviewReport{
		Pipeline:   pipeline.Name,
		PipelineId: pipeline.Id,
		Valid:      result.Valid(),
	}
	switch r := result.(type) {
	case ado.PreviewSucceeded:
		if withFinalYaml {
			report.FinalYaml = r.FinalYaml
		}
	case ado.PreviewFailed:
		report.TypeKey = r.TypeKey
		report.TypeName = r.TypeName
		report.Message = r.Message
	}
	return report
}

func renderResult(w io.Writer, format string, pipeline ado.Pipeline, result ado.PreviewResult, showFinalYaml bool) error {
	switch format {
	case outputJson:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(newPreviewReport(pipeline, result, showFinalYaml))
	case outputYaml:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(newPreviewReport(pipeline, result, showFinalYaml)); err != nil {
			return err
		}
		return enc.Close()
	}

	var err error
	switch r := result.(type) {
	case ado.PreviewSucceeded:
		_, err = fmt.Fprintln(w, successMessage)
		if err == nil && showFinalYaml {
			_, err = io.WriteString(w, r.FinalYaml)
		}
	case ado.PreviewFailed:
		_, err = fmt.Fprintf(w, "%s\n%s\n%s\n", r.TypeKey, r.TypeName, r.Message)
	default:
		err = fmt.Errorf("unknown preview result %T", result)
	}
	return err
}
