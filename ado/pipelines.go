package ado

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"github.com/microsoft/azure-devops-go-api/azuredevops"
	"github.com/microsoft/azure-devops-go-api/azuredevops/pipelines"
	"go.uber.org/zap"
	"net/http"
	"net/url"
)

const continuationTokenHeader = "X-MS-ContinuationToken"

var ErrPipelineNotFound = errors.New("pipeline not found")

type Pipeline struct {
	Name string
	Id   int
}

// Resolution is the outcome of a name lookup: either a pipeline was found or
// it was not. Callers must check Pipeline's second return before using it.
type Resolution struct {
	pipeline Pipeline
	found    bool
}

func found(pipeline Pipeline) Resolution {
	return Resolution{pipeline: pipeline, found: true}
}

func notFound() Resolution {
	return Resolution{}
}

func (r Resolution) Pipeline() (Pipeline, bool) {
	return r.pipeline, r.found
}

type restListPipelinesResponse struct {
	Count int                  `json:"count"`
	Value []pipelines.Pipeline `json:"value"`
}

// ResolvePipeline returns the first pipeline in the project whose name equals
// pipelineName exactly. Pages are only fetched until a match is seen.
func (c ValidationClient) ResolvePipeline(ctx context.Context, pipelineName string) (Resolution, error) {
	if pipelineName == "" {
		return notFound(), &azuredevops.ArgumentNilOrEmptyError{ArgumentName: "pipelineName"}
	}

	continuationToken := ""
	for page := 1; ; page++ {
		listResult, nextToken, err := c.listPipelinesPage(ctx, continuationToken)
		if err != nil {
			return notFound(), fmt.Errorf("ResolvePipeline: %w", err)
		}

		c.environment.logger.Debug("listed pipelines",
			zap.String("project", c.environment.project),
			zap.Int("page", page),
			zap.Int("count", len(listResult.Value)),
		)

		for _, pipeline := range listResult.Value {
			if pipeline.Name == nil || pipeline.Id == nil {
				continue
			}
			if *pipeline.Name == pipelineName {
				return found(Pipeline{Name: *pipeline.Name, Id: *pipeline.Id}), nil
			}
		}

		if nextToken == "" {
			return notFound(), nil
		}
		// A token that does not advance would page forever.
		if nextToken == continuationToken {
			c.environment.logger.Warn("continuation token did not advance, stopping",
				zap.String("project", c.environment.project),
				zap.Int("page", page),
			)
			return notFound(), nil
		}
		continuationToken = nextToken
	}
}

func (c ValidationClient) listPipelinesPage(ctx context.Context, continuationToken string) (*restListPipelinesResponse, string, error) {
	query := url.Values{}
	if continuationToken != "" {
		query.Set("continuationToken", continuationToken)
	}

	response, body, err := c.send(ctx, http.MethodGet, c.apiUrl("pipelines", query), nil)
	if err != nil {
		return nil, "", err
	}

	var listResult restListPipelinesResponse
	err = json.Unmarshal(body, &listResult)
	if err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal response body: %w", err)
	}

	return &listResult, response.Header.Get(continuationTokenHeader), nil
}
