package ado

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"github.com/microsoft/azure-devops-go-api/azuredevops"
	"github.com/microsoft/azure-devops-go-api/azuredevops/pipelines"
	"go.uber.org/zap"
	"net/http"
	"net/url"
	"strconv"
	"unicode/utf8"
)

// PreviewResult is either PreviewSucceeded or PreviewFailed.
type PreviewResult interface {
	Valid() bool
}

type PreviewSucceeded struct {
	FinalYaml string
}

func (PreviewSucceeded) Valid() bool { return true }

// PreviewFailed carries the error payload the service returns when the
// pipeline does not validate.
type PreviewFailed struct {
	TypeKey  string
	TypeName string
	Message  string
}

func (PreviewFailed) Valid() bool { return false }

// previewParameters are the Body parameters for the Preview call: https://learn.microsoft.com/en-us/rest/api/azure/devops/pipelines/preview/preview?view=azure-devops-rest-7.0#request-body
type previewParameters struct {
	PreviewRun   *bool                             `json:"previewRun,omitempty"`
	YamlOverride *string                           `json:"yamlOverride,omitempty"`
	Resources    *pipelines.RunResourcesParameters `json:"resources,omitempty"`
}

// Arguments for the callPreviewApi function
type previewPipelineArgs struct {
	// (required) Body parameters for the Preview call
	PreviewParameters *previewParameters
	// (required) Project ID or project name
	Project *string
	// (required) The pipeline id
	PipelineId *int
	// (optional) The pipeline version
	PipelineVersion *int
}

func (c ValidationClient) newPreviewPipelineArgs(pipelineId int, opts ...PreviewOption) previewPipelineArgs {
	args := previewPipelineArgs{
		PipelineId: Pointer(pipelineId),
		PreviewParameters: &previewParameters{
			PreviewRun: Pointer(true),
		},
		Project: Pointer(c.environment.project),
	}

	for _, opt := range opts {
		opt(&args)
	}

	return args
}

type PreviewOption func(*previewPipelineArgs)

func WithYamlOverride(yamlOverride string) PreviewOption {
	return func(args *previewPipelineArgs) {
		args.PreviewParameters.YamlOverride = Pointer(yamlOverride)
	}
}

// WithRefName resolves the self repository, and with it any templates the
// override references, from the given branch or ref.
func WithRefName(refName string) PreviewOption {
	return func(args *previewPipelineArgs) {
		if refName == "" {
			return
		}
		repoMap := make(map[string]pipelines.RepositoryResourceParameters)
		repoMap["self"] = pipelines.RepositoryResourceParameters{
			RefName: Pointer(refName),
		}
		args.PreviewParameters.Resources = &pipelines.RunResourcesParameters{
			Repositories: &repoMap,
		}
	}
}

func WithPipelineVersion(version int) PreviewOption {
	return func(args *previewPipelineArgs) {
		args.PipelineVersion = Pointer(version)
	}
}

// PreviewPipeline submits a preview-only run of the pipeline and reports
// whether the service accepted the definition.
func (c ValidationClient) PreviewPipeline(ctx context.Context, pipelineId int, opts ...PreviewOption) (PreviewResult, error) {
	args := c.newPreviewPipelineArgs(pipelineId, opts...)

	result, err := c.callPreviewApi(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("PreviewPipeline: %w", err)
	}

	c.environment.logger.Debug("preview finished",
		zap.Int("pipelineId", pipelineId),
		zap.Bool("valid", result.Valid()),
	)

	return result, nil
}

type previewRun struct {
	FinalYaml *string `json:"finalYaml"`
}

func (c ValidationClient) callPreviewApi(ctx context.Context, args previewPipelineArgs) (PreviewResult, error) {
	if args.Project == nil || *args.Project == "" {
		return nil, &azuredevops.ArgumentNilOrEmptyError{ArgumentName: "args.Project"}
	}
	if args.PipelineId == nil {
		return nil, &azuredevops.ArgumentNilError{ArgumentName: "args.PipelineId"}
	}
	if args.PreviewParameters == nil {
		return nil, &azuredevops.ArgumentNilError{ArgumentName: "args.PreviewParameters"}
	}

	queryParams := url.Values{}
	if args.PipelineVersion != nil {
		queryParams.Add("pipelineVersion", strconv.Itoa(*args.PipelineVersion))
	}
	body, err := json.Marshal(*args.PreviewParameters)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preview parameters: %w", err)
	}

	path := fmt.Sprintf("pipelines/%d/preview", *args.PipelineId)
	_, responseBody, err := c.send(ctx, http.MethodPost, c.apiUrl(path, queryParams), bytes.NewReader(body))
	if err != nil {
		// The service answers an invalid definition with a non-2xx status and
		// its error payload; that is a result, not a failure to preview.
		if wrapped, ok := asWrappedError(err); ok && wrapped.TypeKey != nil {
			return PreviewFailed{
				TypeKey:  deref(wrapped.TypeKey),
				TypeName: deref(wrapped.TypeName),
				Message:  deref(wrapped.Message),
			}, nil
		}
		return nil, err
	}

	return decodePreviewResponse(responseBody)
}

// decodePreviewResponse treats the presence of finalYaml as success and
// anything else as the service's error payload.
func decodePreviewResponse(body []byte) (PreviewResult, error) {
	var fields map[string]json.RawMessage
	err := json.Unmarshal(body, &fields)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal response body: %w", err)
	}

	if _, ok := fields["finalYaml"]; ok {
		var run previewRun
		err = json.Unmarshal(body, &run)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal preview run: %w", err)
		}
		return PreviewSucceeded{FinalYaml: deref(run.FinalYaml)}, nil
	}

	var wrapped azuredevops.WrappedError
	err = json.Unmarshal(body, &wrapped)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal error payload: %w", err)
	}
	if wrapped.TypeKey == nil && wrapped.TypeName == nil && wrapped.Message == nil {
		return nil, fmt.Errorf("unrecognized preview response: %s", truncate(string(body), 200))
	}

	return PreviewFailed{
		TypeKey:  deref(wrapped.TypeKey),
		TypeName: deref(wrapped.TypeName),
		Message:  deref(wrapped.Message),
	}, nil
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
