package gateway

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

// docsGuide is the static part of the catalog page. The front matter title is
// rendered into the page header; the tool list is appended at request time.
const docsGuide = `---
Title: sheetbridge
---

# sheetbridge :sparkles:

Google Sheets and Drive operations exposed as HTTP-invokable tools. Discover
the catalog at ` + "`GET /manifest`" + `, then dispatch by name:

` + "```json" + `
POST /invoke
Authorization: Bearer <google-access-token>

{
  "tool": "sheets_values_get",
  "arguments": {
    "spreadsheet_id": "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms",
    "range": "Sheet1!A1:B2"
  }
}
` + "```" + `

Errors carry a machine-readable kind:

` + "```json" + `
{"error": {"kind": "malformed_range", "message": "range must be like A1:B2"}}
` + "```" + `

Obtain an access token with the OAuth parameters from the manifest, or trade
an authorization code at ` + "`POST /oauth/token`" + `.

## Tools
`

var docsMarkdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		meta.Meta,
		emoji.Emoji,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
)

// handleDocs renders the human-readable catalog page.
func (g *Gateway) handleDocs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.writeError(w, fmt.Errorf("method not allowed"), http.StatusMethodNotAllowed)
		return
	}

	var source bytes.Buffer
	source.WriteString(docsGuide)

	tools := g.Tools()
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	for _, tool := range tools {
		fmt.Fprintf(&source, "\n### `%s`\n\n%s\n", tool.Name, tool.Description)
		if len(tool.InputSchema.Required) > 0 {
			source.WriteString("\nRequired arguments: ")
			for i, name := range tool.InputSchema.Required {
				if i > 0 {
					source.WriteString(", ")
				}
				fmt.Fprintf(&source, "`%s`", name)
			}
			source.WriteString("\n")
		}
	}

	var body bytes.Buffer
	context := parser.NewContext()
	if err := docsMarkdown.Convert(source.Bytes(), &body, parser.WithContext(context)); err != nil {
		g.writeError(w, fmt.Errorf("failed to render docs: %w", err), http.StatusInternalServerError)
		return
	}

	title := "sheetbridge"
	if t, ok := meta.Get(context)["Title"].(string); ok {
		title = t
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "<!DOCTYPE html><html><head><title>%s</title></head><body>\n", title)
	_, _ = w.Write(body.Bytes())
	_, _ = fmt.Fprint(w, "</body></html>\n")
}
