// Package docs embeds the OpenAPI specification so the server can
// serve it without reading the filesystem at runtime.
package docs

import _ "embed"

// OpenAPIYAML contains the OpenAPI 3.0 document.
// Served at: GET /docs/openapi.yaml
//
//go:embed api/openapi.yaml
var OpenAPIYAML []byte
