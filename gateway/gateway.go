// Package gateway exposes registered tool handlers over two transports: an
// HTTP manifest/dispatch surface with per-request bearer credentials, and a
// newline-delimited JSON-RPC stdio surface.
package gateway

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sirupsen/logrus"

	"sheetbridge/apierr"
	"sheetbridge/config"
)

// VERSION is the gateway version reported by both transports.
const VERSION = "0.1.0"

// Tool describes an invokable operation.
type Tool struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"inputSchema"`
}

// InputSchema represents the JSON schema for tool input.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Property represents a property in the input schema.
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Items       *Property `json:"items,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
}

// ToolCall carries one invocation: the tool name, its JSON arguments, and
// the caller's access token. Handlers build their own Google clients from the
// token; nothing is shared between calls.
type ToolCall struct {
	Name      string
	Arguments json.RawMessage
	Token     string
}

// ServiceHandler represents a service that provides tools.
type ServiceHandler interface {
	GetTools() []Tool
	HandleToolCall(ctx context.Context, call *ToolCall) (interface{}, error)
}

// Gateway routes tool calls to registered service handlers.
type Gateway struct {
	config   *config.Config
	logger   *logrus.Logger
	mu       sync.RWMutex
	services map[string]ServiceHandler
	byTool   map[string]ServiceHandler
	tools    []Tool
}

// New creates a gateway with an explicit configuration; no ambient state is
// consulted after this point.
func New(cfg *config.Config, logger *logrus.Logger) *Gateway {
	return &Gateway{
		config:   cfg,
		logger:   logger,
		services: make(map[string]ServiceHandler),
		byTool:   make(map[string]ServiceHandler),
	}
}

// RegisterService registers a service handler and indexes its tools.
func (g *Gateway) RegisterService(name string, handler ServiceHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.services[name] = handler
	for _, tool := range handler.GetTools() {
		g.byTool[tool.Name] = handler
		g.tools = append(g.tools, tool)
	}
	g.logger.WithField("service", name).Debug("service registered")
}

// Tools returns every registered tool.
func (g *Gateway) Tools() []Tool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]Tool(nil), g.tools...)
}

// Dispatch looks up the named tool and executes it. Unknown names fail before
// any external call is made.
func (g *Gateway) Dispatch(ctx context.Context, call *ToolCall) (interface{}, error) {
	g.mu.RLock()
	handler, ok := g.byTool[call.Name]
	g.mu.RUnlock()

	if !ok {
		return nil, apierr.UnknownTool(call.Name)
	}

	return handler.HandleToolCall(ctx, call)
}

// Manifest is the static catalog served to tool discoverers.
type Manifest struct {
	Name    string        `json:"name"`
	Version string        `json:"version"`
	Tools   []Tool        `json:"tools"`
	OAuth   ManifestOAuth `json:"oauth"`
}

// ManifestOAuth lists the parameters a caller needs to obtain credentials.
// The client secret is never disclosed.
type ManifestOAuth struct {
	ClientID     string   `json:"client_id"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
	RedirectURIs []string `json:"redirect_uris"`
	Scopes       []string `json:"scopes"`
}

// BuildManifest assembles the manifest from the registry and OAuth config.
func (g *Gateway) BuildManifest() Manifest {
	return Manifest{
		Name:    "sheetbridge",
		Version: VERSION,
		Tools:   g.Tools(),
		OAuth: ManifestOAuth{
			ClientID:     g.config.OAuth.ClientID,
			AuthURI:      g.config.OAuth.AuthURI,
			TokenURI:     g.config.OAuth.TokenURI,
			RedirectURIs: g.config.OAuth.RedirectURIs,
			Scopes:       g.config.OAuth.Scopes,
		},
	}
}
