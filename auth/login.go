package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/browser"
	"golang.org/x/oauth2"
)

// Login performs the interactive OAuth2 flow for the stdio transport: opens
// the authorization URL in a browser, waits for the redirect on a local
// callback server, exchanges the code, and persists the token file.
func Login(ctx context.Context, cfg OAuthConfig) (*oauth2.Token, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("client ID and client secret are required")
	}

	authURL := AuthCodeURL(cfg, "state-token")

	fmt.Printf("Opening browser for authentication...\n")
	fmt.Printf("If browser doesn't open, visit this URL:\n%s\n", authURL)

	if err := browser.OpenURL(authURL); err != nil {
		fmt.Printf("Failed to open browser: %v\n", err)
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	server := &http.Server{
		Addr: ":8080",
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := r.URL.Query().Get("code")
			if code == "" {
				errChan <- fmt.Errorf("no authorization code received")
				http.Error(w, "No authorization code received", http.StatusBadRequest)
				return
			}

			codeChan <- code
			w.Header().Set("Content-Type", "text/html")
			_, _ = fmt.Fprintf(w, `<html><body>
				<h1>Authentication successful!</h1>
				<p>You can close this window and return to the terminal.</p>
				<script>window.close()</script>
			</body></html>`)
		}),
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	var code string
	select {
	case code = <-codeChan:
		// Success
	case err := <-errChan:
		return nil, err
	case <-time.After(5 * time.Minute):
		return nil, fmt.Errorf("authentication timeout")
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if err := server.Shutdown(ctx); err != nil {
		fmt.Printf("Warning: failed to shutdown callback server: %v\n", err)
	}

	token, err := Exchange(ctx, cfg, code)
	if err != nil {
		return nil, err
	}

	if err := SaveToken(cfg, token); err != nil {
		fmt.Printf("Warning: failed to save token: %v\n", err)
	}

	fmt.Println("Authentication successful!")
	return token, nil
}

// tokenFilePath resolves the token file, defaulting to the home directory.
func tokenFilePath(cfg OAuthConfig) (string, error) {
	if cfg.TokenFile != "" {
		return cfg.TokenFile, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".sheetbridge-token.json"), nil
}

// SaveToken persists the OAuth token to the token file.
func SaveToken(cfg OAuthConfig, token *oauth2.Token) error {
	path, err := tokenFilePath(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create token file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if err := json.NewEncoder(file).Encode(token); err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	return nil
}

// LoadToken reads the persisted OAuth token. Expired tokens with no refresh
// token are rejected so the stdio transport fails at startup instead of on
// the first tool call.
func LoadToken(cfg OAuthConfig) (*oauth2.Token, error) {
	path, err := tokenFilePath(cfg)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open token file (run 'sheetbridge login' first): %w", err)
	}
	defer func() { _ = file.Close() }()

	token := &oauth2.Token{}
	if err := json.NewDecoder(file).Decode(token); err != nil {
		return nil, fmt.Errorf("failed to decode token file: %w", err)
	}

	if token.Expiry.Before(time.Now()) && token.RefreshToken == "" {
		return nil, fmt.Errorf("token expired and no refresh token available")
	}

	return token, nil
}
