// Package auth implements bearer token verification for the container API.
//
// Tokens are JWTs signed with HS256 (shared secret) or RS256 (PEM public
// key). Claims carry a subject, roles, and scopes; the middleware stores
// verified claims in the request context and gates handlers by scope.
// Roles: viewer (read and telemetry) and operator (viewer plus command
// ingress and lifecycle control). The health endpoint is always exempt.
package auth
