package cmd

import (
	"errors"
	"fmt"
	"github.com/drbushytop/ado-pipeline-preview/ado"
	"github.com/microsoft/azure-devops-go-api/azuredevops"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"time"
)

const (
	pipelineNameKey    = "pipeline-name"
	fileNameKey        = "file-name"
	patTokenKey        = "pat-token"
	bearerKey          = "bearer"
	organizationKey    = "organization"
	projectKey         = "project"
	baseUrlKey         = "base-url"
	branchKey          = "branch"
	pipelineVersionKey = "pipeline-version"
	encodePatKey       = "encode-pat"
	outputKey          = "output"
	showFinalYamlKey   = "show-final-yaml"
	failOnInvalidKey   = "fail-on-invalid"
	timeoutKey         = "timeout"
	watchKey           = "watch"
	verboseKey         = "verbose"
)

var ErrMissingPatToken = errors.New("no access token given: pass --pat-token or set PAT_TOKEN")

type Config struct {
	PipelineName    string
	FileName        string
	PatToken        string
	BearerToken     string
	Organization    string
	Project         string
	BaseUrl         string
	Branch          string
	// PipelineVersion selects the pipeline revision to preview; 0 means latest.
	PipelineVersion int
	EncodePat       bool

	Output        string
	ShowFinalYaml bool
	FailOnInvalid bool
	Timeout       time.Duration
	Watch         bool
	Verbose       bool
}

func addPreviewFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String(pipelineNameKey, "", "name of the pipeline within Azure DevOps")
	flags.String(fileNameKey, "", "local pipeline .yaml file to preview")
	flags.String(patTokenKey, "", "Azure DevOps personal access token (defaults to $PAT_TOKEN)")
	flags.String(bearerKey, "", "oAuth token for Azure DevOps, used when no PAT is given. Use $(System.AccessToken) in pipelines.")
	flags.String(organizationKey, "", "name of the organization within Azure DevOps")
	flags.String(projectKey, "", "name of the project within Azure DevOps")
	flags.String(baseUrlKey, ado.DefaultBaseUrl, "Azure DevOps service root (defaults to $ADO_BASE_URL)")
	flags.String(branchKey, "", "branch or ref the self repository and templates are resolved from")
	flags.Int(pipelineVersionKey, 0, "pipeline version to preview, 0 for latest")
	flags.Bool(encodePatKey, false, "send the PAT base64 encoded as \":<pat>\" instead of verbatim")
	flags.StringP(outputKey, "o", outputText, "output format: text, json or yaml")
	flags.Bool(showFinalYamlKey, false, "print the expanded YAML returned by a successful preview")
	flags.Bool(failOnInvalidKey, false, "exit non-zero when the pipeline does not validate")
	flags.Duration(timeoutKey, 0, "per-request timeout, 0 for none")
	flags.BoolP(watchKey, "w", false, "preview again every time the file changes")
	flags.BoolP(verboseKey, "v", false, "log requests to stderr")

	_ = cmd.MarkFlagRequired(pipelineNameKey)
	_ = cmd.MarkFlagRequired(fileNameKey)
	_ = cmd.MarkFlagRequired(organizationKey)
	_ = cmd.MarkFlagRequired(projectKey)
	_ = cmd.MarkFlagFilename(fileNameKey, "yaml", "yml")
}

// bindConfig makes flags win over the environment, and the environment win
// over flag defaults.
func bindConfig(cmd *cobra.Command, v *viper.Viper) error {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}
	if err := v.BindEnv(patTokenKey, "PAT_TOKEN"); err != nil {
		return fmt.Errorf("bind PAT_TOKEN: %w", err)
	}
	if err := v.BindEnv(bearerKey, "SYSTEM_ACCESSTOKEN"); err != nil {
		return fmt.Errorf("bind SYSTEM_ACCESSTOKEN: %w", err)
	}
	if err := v.BindEnv(baseUrlKey, "ADO_BASE_URL"); err != nil {
		return fmt.Errorf("bind ADO_BASE_URL: %w", err)
	}
	return nil
}

func loadConfig(v *viper.Viper) (Config, error) {
	c := Config{
		PipelineName:    v.GetString(pipelineNameKey),
		FileName:        v.GetString(fileNameKey),
		PatToken:        v.GetString(patTokenKey),
		BearerToken:     v.GetString(bearerKey),
		Organization:    v.GetString(organizationKey),
		Project:         v.GetString(projectKey),
		BaseUrl:         v.GetString(baseUrlKey),
		Branch:          v.GetString(branchKey),
		PipelineVersion: v.GetInt(pipelineVersionKey),
		EncodePat:       v.GetBool(encodePatKey),
		Output:          v.GetString(outputKey),
		ShowFinalYaml:   v.GetBool(showFinalYamlKey),
		FailOnInvalid:   v.GetBool(failOnInvalidKey),
		Timeout:         v.GetDuration(timeoutKey),
		Watch:           v.GetBool(watchKey),
		Verbose:         v.GetBool(verboseKey),
	}

	required := []struct{ key, value string }{
		{pipelineNameKey, c.PipelineName},
		{fileNameKey, c.FileName},
		{organizationKey, c.Organization},
		{projectKey, c.Project},
	}
	for _, r := range required {
		if r.value == "" {
			return c, fmt.Errorf("--%s must not be empty", r.key)
		}
	}

	if c.PatToken == "" && c.BearerToken == "" {
		return c, ErrMissingPatToken
	}

	if c.BaseUrl == "" {
		c.BaseUrl = ado.DefaultBaseUrl
	}

	switch c.Output {
	case outputText, outputJson, outputYaml:
	default:
		return c, fmt.Errorf("unsupported output format %q", c.Output)
	}

	if c.PipelineVersion < 0 {
		return c, fmt.Errorf("--%s must not be negative", pipelineVersionKey)
	}

	if c.Timeout < 0 {
		return c, fmt.Errorf("--%s must not be negative", timeoutKey)
	}

	return c, nil
}

// connection prefers the PAT over a bearer token.
func (c Config) connection() *azuredevops.Connection {
	orgUrl := ado.OrganizationUrl(c.BaseUrl, c.Organization)
	switch {
	case c.PatToken != "" && c.EncodePat:
		return ado.NewEncodedPatConnection(orgUrl, c.PatToken)
	case c.PatToken != "":
		return ado.NewBasicConnection(orgUrl, c.PatToken)
	default:
		return ado.NewOauthConnection(orgUrl, c.BearerToken)
	}
}
