package docs

import (
	_ "embed"
	"fmt"
	"html/template"
	"net/http"

	"gopkg.in/yaml.v3"

	"github.com/branchplay/branchplay/internal/httputil"
)

//go:embed openapi.yaml
var specYAML []byte

// Handler serves the OpenAPI document and a reference page that renders it.
type Handler struct {
	spec []byte
}

// NewHandler points the document's server entry at baseURL.
func NewHandler(baseURL string) (*Handler, error) {
	if baseURL == "" {
		return &Handler{spec: specYAML}, nil
	}
	spec, err := withServerURL(specYAML, baseURL)
	if err != nil {
		return nil, err
	}
	return &Handler{spec: spec}, nil
}

func withServerURL(spec []byte, url string) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(spec, &doc); err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse openapi document: not a mapping")
	}
	root := doc.Content[0]
	servers := &yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Value: "url"},
			{Kind: yaml.ScalarNode, Value: url},
		},
	}}}
	replaced := false
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value == "servers" {
			root.Content[i+1] = servers
			replaced = true
		}
	}
	if !replaced {
		root.Content = append(root.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: "servers"}, servers)
	}
	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("encode openapi document: %w", err)
	}
	return out, nil
}

func (h *Handler) Spec(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(h.spec)
}

var docsTemplate = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html><head>
  <title>Branchplay API Reference</title>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
</head><body>
  <script id="api-reference" type="application/json" data-url="/api/docs/openapi.yaml"></script>
  <script nonce="{{.}}" src="https://cdn.jsdelivr.net/npm/@scalar/api-reference"></script>
</body></html>`))

// Page renders the reference UI from a CDN, so it replaces the default CSP.
// The UI injects its own styles, which a nonce cannot cover.
func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	nonce := httputil.NonceFromContext(r.Context())
	w.Header().Set("Content-Security-Policy",
		"default-src 'self'; "+
			"script-src 'self' https://cdn.jsdelivr.net 'nonce-"+nonce+"'; "+
			"style-src 'self' https://cdn.jsdelivr.net 'unsafe-inline'; "+
			"font-src 'self' https://cdn.jsdelivr.net data:; "+
			"img-src 'self' data:; connect-src 'self'; frame-ancestors 'self';")
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = docsTemplate.Execute(w, nonce)
}
