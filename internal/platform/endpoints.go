package platform

import (
	"context"
	"errors"
	"net/url"
)

// API paths.
const (
	SubscriptionsPath = "/api/platform/subscriptions"
	ProjectsPath      = "/api/projects"
)

// Subscriptions calls the subscriptions endpoint on the accounts host.
func (c *Client) Subscriptions(ctx context.Context, method string, body any) (*Response, error) {
	return c.AccountsRequest(ctx, SubscriptionsPath, method, body)
}

// Environments calls an environment of a project on the regional hosts.
// An empty environment addresses the project's environment collection.
func (c *Client) Environments(ctx context.Context, project, environment, method string, body any) (*Response, error) {
	if project == "" {
		return nil, newError(KindInvalidRequest, "build environments path", "", errors.New("project id is required"))
	}
	return c.PlatformRequest(ctx, EnvironmentPath(project, environment), method, body, RegionAuto)
}

// EnvironmentPath returns /api/projects/{project}/environments/{environment}.
// An empty environment yields the collection path with a trailing slash.
func EnvironmentPath(project, environment string) string {
	return ProjectsPath + "/" + url.PathEscape(project) + "/environments/" + url.PathEscape(environment)
}
