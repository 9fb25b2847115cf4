package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sourcegraph/jsonrpc2"
)

// ServeStdio runs the JSON-RPC transport over stdin/stdout until the peer
// disconnects. Every tool call uses the given access token, obtained from the
// local login flow before startup.
func (g *Gateway) ServeStdio(ctx context.Context, accessToken string) error {
	handler := &stdioHandler{gateway: g, token: accessToken}
	stream := NewNewlineDelimitedStream(os.Stdin, os.Stdout)

	conn := jsonrpc2.NewConn(ctx, stream, handler)

	select {
	case <-conn.DisconnectNotify():
		return nil
	case <-ctx.Done():
		_ = conn.Close()
		return ctx.Err()
	}
}

// NewlineDelimitedStream implements jsonrpc2.ObjectStream for
// newline-delimited JSON.
type NewlineDelimitedStream struct {
	reader *bufio.Reader
	writer io.Writer
	mu     sync.Mutex
}

// NewNewlineDelimitedStream creates a new newline-delimited JSON stream.
func NewNewlineDelimitedStream(r io.Reader, w io.Writer) *NewlineDelimitedStream {
	return &NewlineDelimitedStream{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// ReadObject reads a newline-delimited JSON object.
func (s *NewlineDelimitedStream) ReadObject(v interface{}) error {
	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		return err
	}
	return json.Unmarshal(line, v)
}

// WriteObject writes a newline-delimited JSON object.
func (s *NewlineDelimitedStream) WriteObject(v interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	if _, err = s.writer.Write(data); err != nil {
		return err
	}

	_, err = s.writer.Write([]byte("\n"))
	return err
}

// Close closes the stream.
func (s *NewlineDelimitedStream) Close() error {
	// Don't close stdin/stdout
	return nil
}

// stdioHandler handles JSON-RPC requests.
type stdioHandler struct {
	gateway *Gateway
	token   string
}

func (h *stdioHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	switch req.Method {
	case "initialize":
		h.handleInitialize(ctx, conn, req)
	case "initialized":
		// Client confirms initialization
	case "tools/list":
		h.handleToolsList(ctx, conn, req)
	case "tools/call":
		h.handleToolCall(ctx, conn, req)
	default:
		_ = conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeMethodNotFound,
			Message: fmt.Sprintf("method not found: %s", req.Method),
		})
	}
}

func (h *stdioHandler) handleInitialize(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	response := struct {
		ProtocolVersion string `json:"protocolVersion"`
		Capabilities    struct {
			Tools interface{} `json:"tools,omitempty"`
		} `json:"capabilities"`
		ServerInfo struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		} `json:"serverInfo"`
	}{
		ProtocolVersion: "2024-11-05",
		ServerInfo: struct {
			Name    string `json:"name"`
			Version string `json:"version"`
		}{
			Name:    "sheetbridge",
			Version: VERSION,
		},
	}
	response.Capabilities.Tools = struct{}{}

	_ = conn.Reply(ctx, req.ID, response)
}

func (h *stdioHandler) handleToolsList(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	response := struct {
		Tools []Tool `json:"tools"`
	}{
		Tools: h.gateway.Tools(),
	}

	_ = conn.Reply(ctx, req.ID, response)
}

func (h *stdioHandler) handleToolCall(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	var params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}

	if req.Params == nil {
		_ = conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInvalidParams,
			Message: "invalid parameters",
		})
		return
	}
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		_ = conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInvalidParams,
			Message: "invalid parameters",
		})
		return
	}

	result, err := h.gateway.Dispatch(ctx, &ToolCall{
		Name:      params.Name,
		Arguments: params.Arguments,
		Token:     h.token,
	})
	if err != nil {
		_ = conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
			Code:    jsonrpc2.CodeInternalError,
			Message: err.Error(),
		})
		return
	}

	var responseText string
	switch v := result.(type) {
	case string:
		responseText = v
	case []byte:
		responseText = string(v)
	default:
		jsonBytes, err := json.Marshal(result)
		if err != nil {
			responseText = fmt.Sprintf("%v", result)
		} else {
			responseText = string(jsonBytes)
		}
	}

	response := struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content"`
		IsError bool `json:"isError,omitempty"`
	}{
		Content: []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		}{
			{
				Type: "text",
				Text: responseText,
			},
		},
	}

	_ = conn.Reply(ctx, req.ID, response)
}
