package ado

import (
	"github.com/microsoft/azure-devops-go-api/azuredevops"
	"go.uber.org/zap"
	"time"
)

// AzureDevOpsEnvironment holds everything needed to talk to one project of
// one organization.
type AzureDevOpsEnvironment struct {
	organizationUrl string
	project         string
	connection      *azuredevops.Connection
	logger          *zap.Logger
}

func NewAzureDevOpsEnvironment(conn *azuredevops.Connection, project string, opts ...EnvOption) (*AzureDevOpsEnvironment, error) {
	if conn == nil {
		return nil, &azuredevops.ArgumentNilError{ArgumentName: "conn"}
	}
	if project == "" {
		return nil, &azuredevops.ArgumentNilOrEmptyError{ArgumentName: "project"}
	}

	env := &AzureDevOpsEnvironment{
		organizationUrl: conn.BaseUrl,
		project:         project,
		connection:      conn,
		logger:          zap.NewNop(),
	}

	for _, opt := range opts {
		err := opt(env)
		if err != nil {
			return nil, err
		}
	}

	return env, nil
}

type EnvOption func(*AzureDevOpsEnvironment) error

// WithTimeout bounds every request. Zero leaves requests unbounded. The
// connection caches its clients, so this has to be applied before the first
// ValidationClient is built from it.
func WithTimeout(timeout time.Duration) EnvOption {
	return func(env *AzureDevOpsEnvironment) error {
		if timeout > 0 {
			env.connection.Timeout = &timeout
		}
		return nil
	}
}

func WithLogger(logger *zap.Logger) EnvOption {
	return func(env *AzureDevOpsEnvironment) error {
		if logger != nil {
			env.logger = logger
		}
		return nil
	}
}
