package handler

import "net/http"

// docsPage renders Swagger UI against the embedded spec.
const docsPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Project Management API</title>
  <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    window.onload = function() {
      SwaggerUIBundle({
        url: "/docs/openapi.yaml",
        dom_id: "#swagger-ui",
        deepLinking: true,
        presets: [SwaggerUIBundle.presets.apis],
      });
    };
  </script>
</body>
</html>
`

// docsCSP relaxes the API-wide policy for this one HTML page. Swagger
// UI needs the CDN assets, its inline bootstrap and data: images.
const docsCSP = "default-src 'none'; " +
	"script-src https://cdn.jsdelivr.net 'unsafe-inline'; " +
	"style-src https://cdn.jsdelivr.net 'unsafe-inline'; " +
	"img-src data: https:; " +
	"connect-src 'self'; " +
	"frame-ancestors 'none'"

// DocsHandler serves the interactive API reference and the raw spec.
type DocsHandler struct {
	spec []byte
}

// NewDocsHandler creates a DocsHandler around the embedded OpenAPI
// document.
func NewDocsHandler(spec []byte) *DocsHandler {
	return &DocsHandler{spec: spec}
}

// Page handles GET /docs.
func (h *DocsHandler) Page(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Security-Policy", docsCSP)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(docsPage))
}

// Spec handles GET /docs/openapi.yaml.
func (h *DocsHandler) Spec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.spec)
}
