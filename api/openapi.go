// Package api holds the HTTP API description served and enforced by the server.
package api

import _ "embed"

// OpenAPI is the OpenAPI 3 document for the public HTTP API.
//
//go:embed openapi.yaml
var OpenAPI []byte
