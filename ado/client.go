package ado

import (
	"context"
	"errors"
	"fmt"
	"github.com/microsoft/azure-devops-go-api/azuredevops"
	"io"
	"net/http"
	"net/url"
)

const (
	apiVersion    = "7.0"
	mediaTypeJson = "application/json"
)

// ValidationClient talks to the pipelines REST area of a single project.
type ValidationClient struct {
	environment AzureDevOpsEnvironment
	client      *azuredevops.Client
}

func NewValidationClient(environment AzureDevOpsEnvironment) *ValidationClient {
	return &ValidationClient{
		environment: environment,
		client:      environment.connection.GetClientByUrl(environment.connection.BaseUrl),
	}
}

// apiUrl builds {organizationUrl}/{project}/_apis/{path}?api-version=7.0.
func (c ValidationClient) apiUrl(path string, query url.Values) string {
	if query == nil {
		query = url.Values{}
	}
	query.Set("api-version", apiVersion)
	return fmt.Sprintf("%s/%s/_apis/%s?%s", c.environment.organizationUrl, url.PathEscape(c.environment.project), path, query.Encode())
}

// send issues the request through the SDK client and returns the response
// with its body fully read. Non-2xx answers come back as the SDK's
// WrappedError together with the response.
func (c ValidationClient) send(ctx context.Context, method string, requestUrl string, body io.Reader) (*http.Response, []byte, error) {
	mediaType := ""
	if body != nil {
		mediaType = mediaTypeJson
	}
	req, err := c.client.CreateRequestMessage(ctx, method, requestUrl, apiVersion, body, mediaType, mediaTypeJson, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}

	response, err := c.client.SendRequest(req)
	if response == nil {
		return nil, nil, fmt.Errorf("failed to get response: %w", err)
	}
	if err != nil {
		_ = response.Body.Close()
		return response, nil, err
	}

	responseBody, err := io.ReadAll(response.Body)
	_ = response.Body.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return response, responseBody, nil
}

// asWrappedError finds the service error payload in err, if there is one.
func asWrappedError(err error) (*azuredevops.WrappedError, bool) {
	var wrapped azuredevops.WrappedError
	if errors.As(err, &wrapped) {
		return &wrapped, true
	}
	var wrappedPtr *azuredevops.WrappedError
	if errors.As(err, &wrappedPtr) && wrappedPtr != nil {
		return wrappedPtr, true
	}
	return nil, false
}
