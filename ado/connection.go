package ado

import (
	"github.com/microsoft/azure-devops-go-api/azuredevops"
	"strings"
)

const DefaultBaseUrl = "https://dev.azure.com"

// NewBasicConnection sends the PAT as-is after the Basic scheme, without the
// base64 encoding HTTP Basic normally requires. Use NewEncodedPatConnection
// for the standard form.
func NewBasicConnection(organizationUrl string, pat string) *azuredevops.Connection {
	return &azuredevops.Connection{
		AuthorizationString:     "Basic " + pat,
		BaseUrl:                 normalizeUrl(organizationUrl),
		SuppressFedAuthRedirect: true,
	}
}

// NewEncodedPatConnection builds the "Basic base64(:pat)" header Azure DevOps
// documents for personal access tokens.
func NewEncodedPatConnection(organizationUrl string, pat string) *azuredevops.Connection {
	return &azuredevops.Connection{
		AuthorizationString:     azuredevops.CreateBasicAuthHeaderValue("", pat),
		BaseUrl:                 normalizeUrl(organizationUrl),
		SuppressFedAuthRedirect: true,
	}
}

func NewOauthConnection(organizationUrl string, accessToken string) *azuredevops.Connection {
	return &azuredevops.Connection{
		AuthorizationString:     "Bearer " + accessToken,
		BaseUrl:                 normalizeUrl(organizationUrl),
		SuppressFedAuthRedirect: true,
	}
}

// OrganizationUrl joins the service root and the organization name.
func OrganizationUrl(baseUrl string, organization string) string {
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	return strings.TrimRight(baseUrl, "/") + "/" + strings.Trim(organization, "/")
}

func normalizeUrl(url string) string {
	return strings.ToLower(strings.TrimRight(url, "/"))
}
