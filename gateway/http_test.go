package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, g *Gateway, method, path, bearer, body string) *httptest.ResponseRecorder {
	t.Helper()

	r := httptest.NewRequest(method, path, strings.NewReader(body))
	if bearer != "" {
		r.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	g.HTTPHandler().ServeHTTP(w, r)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) (kind, message string) {
	t.Helper()

	var body struct {
		Error struct {
			Kind    string `json:"kind"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error.Kind, body.Error.Message
}

func TestManifestEndpoint(t *testing.T) {
	g := testGateway(map[string]ServiceHandler{
		"fake": &fakeHandler{tools: []Tool{{
			Name:        "fake_tool",
			Description: "a fake tool",
			InputSchema: InputSchema{Type: "object"},
		}}},
	})

	w := doRequest(t, g, http.MethodGet, "/manifest", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var manifest Manifest
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &manifest))
	assert.Equal(t, "sheetbridge", manifest.Name)
	require.Len(t, manifest.Tools, 1)
	assert.Equal(t, "fake_tool", manifest.Tools[0].Name)
	assert.NotEmpty(t, manifest.OAuth.Scopes)
	assert.NotContains(t, w.Body.String(), "test-client-secret")
}

func TestInvokeRequiresCredential(t *testing.T) {
	handler := &fakeHandler{tools: []Tool{{Name: "fake_tool"}}}
	g := testGateway(map[string]ServiceHandler{"fake": handler})

	w := doRequest(t, g, http.MethodPost, "/invoke", "", `{"tool":"fake_tool"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	kind, _ := decodeError(t, w)
	assert.Equal(t, "missing_credential", kind)
	assert.Equal(t, 0, handler.calls)
}

func TestInvokeMalformedCredential(t *testing.T) {
	g := testGateway(map[string]ServiceHandler{
		"fake": &fakeHandler{tools: []Tool{{Name: "fake_tool"}}},
	})

	r := httptest.NewRequest(http.MethodPost, "/invoke", strings.NewReader(`{"tool":"fake_tool"}`))
	r.Header.Set("Authorization", "Token abc")
	w := httptest.NewRecorder()
	g.HTTPHandler().ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	kind, _ := decodeError(t, w)
	assert.Equal(t, "malformed_credential", kind)
}

func TestInvokeUnknownTool(t *testing.T) {
	handler := &fakeHandler{tools: []Tool{{Name: "fake_tool"}}}
	g := testGateway(map[string]ServiceHandler{"fake": handler})

	w := doRequest(t, g, http.MethodPost, "/invoke", "tok", `{"tool":"missing_tool"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	kind, message := decodeError(t, w)
	assert.Equal(t, "unknown_tool", kind)
	assert.Contains(t, message, "missing_tool")
	assert.Equal(t, 0, handler.calls)
}

func TestInvokeSuccess(t *testing.T) {
	handler := &fakeHandler{
		tools:  []Tool{{Name: "fake_tool"}},
		result: map[string]interface{}{"values": []interface{}{"a", "b"}},
	}
	g := testGateway(map[string]ServiceHandler{"fake": handler})

	w := doRequest(t, g, http.MethodPost, "/invoke", "tok", `{"tool":"fake_tool","arguments":{"x":1}}`)
	require.Equal(t, http.StatusOK, w.Code)

	// The handler result is returned verbatim, with no envelope.
	var result map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, []interface{}{"a", "b"}, result["values"])
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
}

func TestInvokeUpstreamFailure(t *testing.T) {
	handler := &fakeHandler{
		tools: []Tool{{Name: "fake_tool"}},
		err:   errors.New("googleapi: Error 403: quota exceeded"),
	}
	g := testGateway(map[string]ServiceHandler{"fake": handler})

	w := doRequest(t, g, http.MethodPost, "/invoke", "tok", `{"tool":"fake_tool"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	kind, message := decodeError(t, w)
	assert.Equal(t, "upstream", kind)
	assert.Contains(t, message, "quota exceeded")
}

func TestInvokeRejectsBadBody(t *testing.T) {
	g := testGateway(map[string]ServiceHandler{
		"fake": &fakeHandler{tools: []Tool{{Name: "fake_tool"}}},
	})

	w := doRequest(t, g, http.MethodPost, "/invoke", "tok", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(t, g, http.MethodPost, "/invoke", "tok", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	g := testGateway(nil)

	w := doRequest(t, g, http.MethodOptions, "/invoke", "", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestDocsPage(t *testing.T) {
	g := testGateway(map[string]ServiceHandler{
		"fake": &fakeHandler{tools: []Tool{{
			Name:        "fake_tool",
			Description: "a fake tool",
			InputSchema: InputSchema{Type: "object", Required: []string{"spreadsheet_id"}},
		}}},
	})

	w := doRequest(t, g, http.MethodGet, "/docs", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, w.Body.String(), "fake_tool")
	assert.Contains(t, w.Body.String(), "spreadsheet_id")
}

func TestHealthz(t *testing.T) {
	g := testGateway(nil)
	w := doRequest(t, g, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
