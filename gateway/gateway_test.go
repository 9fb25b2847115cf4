package gateway

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetbridge/apierr"
	"sheetbridge/auth"
	"sheetbridge/config"
)

// fakeHandler records calls and returns a canned result.
type fakeHandler struct {
	tools  []Tool
	calls  int
	result interface{}
	err    error
}

func (f *fakeHandler) GetTools() []Tool { return f.tools }

func (f *fakeHandler) HandleToolCall(ctx context.Context, call *ToolCall) (interface{}, error) {
	f.calls++
	return f.result, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		OAuth: auth.OAuthConfig{
			ClientID:     "test-client-id",
			ClientSecret: "test-client-secret",
			AuthURI:      "https://accounts.google.com/o/oauth2/auth",
			TokenURI:     "https://oauth2.googleapis.com/token",
			RedirectURIs: []string{"http://localhost:8080/callback"},
			Scopes:       auth.DefaultScopes(),
		},
		Server: config.ServerConfig{Addr: ":0", MaxUploadBytes: 10 * 1024 * 1024},
		Global: config.GlobalConfig{LogLevel: "info", Timeout: 5},
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testGateway(handlers map[string]ServiceHandler) *Gateway {
	g := New(testConfig(), testLogger())
	for name, handler := range handlers {
		g.RegisterService(name, handler)
	}
	return g
}

func TestDispatch(t *testing.T) {
	handler := &fakeHandler{
		tools:  []Tool{{Name: "fake_tool", Description: "a fake tool"}},
		result: map[string]interface{}{"ok": true},
	}
	g := testGateway(map[string]ServiceHandler{"fake": handler})

	result, err := g.Dispatch(context.Background(), &ToolCall{
		Name:      "fake_tool",
		Arguments: json.RawMessage(`{}`),
		Token:     "tok",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"ok": true}, result)
	assert.Equal(t, 1, handler.calls)
}

func TestDispatchUnknownTool(t *testing.T) {
	handler := &fakeHandler{tools: []Tool{{Name: "fake_tool"}}}
	g := testGateway(map[string]ServiceHandler{"fake": handler})

	_, err := g.Dispatch(context.Background(), &ToolCall{Name: "missing_tool"})
	require.Error(t, err)
	assert.Equal(t, apierr.KindUnknownTool, apierr.KindOf(err))
	// The handler must not run for an unregistered name.
	assert.Equal(t, 0, handler.calls)
}

func TestToolsAggregation(t *testing.T) {
	g := testGateway(map[string]ServiceHandler{
		"a": &fakeHandler{tools: []Tool{{Name: "a_one"}, {Name: "a_two"}}},
		"b": &fakeHandler{tools: []Tool{{Name: "b_one"}}},
	})

	tools := g.Tools()
	names := make(map[string]bool, len(tools))
	for _, tool := range tools {
		names[tool.Name] = true
	}
	assert.Len(t, tools, 3)
	assert.True(t, names["a_one"] && names["a_two"] && names["b_one"])
}

func TestManifestOmitsClientSecret(t *testing.T) {
	g := testGateway(map[string]ServiceHandler{
		"fake": &fakeHandler{tools: []Tool{{Name: "fake_tool"}}},
	})

	manifest := g.BuildManifest()
	assert.Equal(t, "test-client-id", manifest.OAuth.ClientID)
	assert.Equal(t, auth.DefaultScopes(), manifest.OAuth.Scopes)

	encoded, err := json.Marshal(manifest)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "test-client-secret")
}
