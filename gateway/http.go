package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"sheetbridge/apierr"
	"sheetbridge/auth"
)

// invokeRequest is the dispatch request body.
type invokeRequest struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
}

// errorBody is the failure envelope shared by every endpoint.
type errorBody struct {
	Error struct {
		Kind    apierr.Kind `json:"kind"`
		Message string      `json:"message"`
	} `json:"error"`
}

// ListenAndServe runs the HTTP transport until the context is canceled.
func (g *Gateway) ListenAndServe(ctx context.Context) error {
	server := &http.Server{
		Addr:    g.config.Server.Addr,
		Handler: g.HTTPHandler(),
	}

	errChan := make(chan error, 1)
	go func() {
		g.logger.WithField("addr", g.config.Server.Addr).Info("http gateway listening")
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// HTTPHandler builds the route table.
func (g *Gateway) HTTPHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/manifest", g.handleManifest)
	mux.HandleFunc("/invoke", g.handleInvoke)
	mux.HandleFunc("/oauth/token", g.handleOAuthToken)
	mux.HandleFunc("/docs", g.handleDocs)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return g.withMiddleware(mux)
}

// withMiddleware wraps the mux with CORS, a body size cap, a per-request
// deadline, request ids, and access logging.
func (g *Gateway) withMiddleware(next http.Handler) http.Handler {
	// Base64 inflates uploads by 4/3 plus envelope overhead.
	bodyLimit := int64(g.config.Server.MaxUploadBytes)*2 + 64*1024
	timeout := time.Duration(g.config.Global.Timeout) * time.Second

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		requestID := uuid.NewString()
		w.Header().Set("X-Request-Id", requestID)
		r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		g.logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"duration":   time.Since(start).String(),
		}).Info("request handled")
	})
}

func (g *Gateway) handleManifest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		g.writeError(w, fmt.Errorf("method not allowed"), http.StatusMethodNotAllowed)
		return
	}
	g.writeJSON(w, http.StatusOK, g.BuildManifest())
}

func (g *Gateway) handleInvoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.writeError(w, fmt.Errorf("method not allowed"), http.StatusMethodNotAllowed)
		return
	}

	// Credential failures must never reach Google, so the token comes first.
	token, err := auth.TokenFromRequest(r)
	if err != nil {
		g.writeError(w, err, 0)
		return
	}

	var req invokeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		g.writeError(w, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}
	if req.Tool == "" {
		g.writeError(w, fmt.Errorf("tool name is required"), http.StatusBadRequest)
		return
	}

	result, err := g.Dispatch(r.Context(), &ToolCall{
		Name:      req.Tool,
		Arguments: req.Arguments,
		Token:     token,
	})
	if err != nil {
		g.logger.WithFields(logrus.Fields{
			"tool": req.Tool,
			"kind": apierr.KindOf(err),
		}).Warn(err.Error())
		g.writeError(w, err, 0)
		return
	}

	g.writeJSON(w, http.StatusOK, result)
}

// handleOAuthToken exchanges an authorization code for a token. The response
// is the oauth2 token verbatim; the client secret stays server-side.
func (g *Gateway) handleOAuthToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.writeError(w, fmt.Errorf("method not allowed"), http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		g.writeError(w, fmt.Errorf("authorization code is required"), http.StatusBadRequest)
		return
	}

	token, err := auth.Exchange(r.Context(), g.config.OAuth, req.Code)
	if err != nil {
		g.writeError(w, err, 0)
		return
	}

	g.writeJSON(w, http.StatusOK, token)
}

func (g *Gateway) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		g.logger.WithError(err).Error("failed to encode response")
	}
}

// writeError emits the failure envelope. A zero status derives the status
// from the error kind.
func (g *Gateway) writeError(w http.ResponseWriter, err error, status int) {
	kind := apierr.KindOf(err)
	if status == 0 {
		status = apierr.HTTPStatus(kind)
	}

	var body errorBody
	body.Error.Kind = kind
	body.Error.Message = err.Error()
	g.writeJSON(w, status, body)
}
