// Package auth shapes OAuth2 credentials for the gateway: the code-for-token
// exchange against Google's authorization server, bearer token extraction for
// per-request dispatch, and a local browser login flow for the stdio
// transport.
package auth

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// OAuthConfig holds OAuth configuration.
type OAuthConfig struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	AuthURI      string   `json:"auth_uri"`
	TokenURI     string   `json:"token_uri"`
	RedirectURIs []string `json:"redirect_uris"`
	TokenFile    string   `json:"token_file"`
	Scopes       []string `json:"scopes"`
}

// DefaultScopes returns the fixed set of OAuth scopes the gateway requests.
func DefaultScopes() []string {
	return []string{
		"https://www.googleapis.com/auth/spreadsheets",
		"https://www.googleapis.com/auth/drive",
		"https://www.googleapis.com/auth/drive.file",
	}
}

// oauth2Config builds the oauth2 configuration from recognized fields.
func (c OAuthConfig) oauth2Config() *oauth2.Config {
	redirect := ""
	if len(c.RedirectURIs) > 0 {
		redirect = c.RedirectURIs[0]
	}
	return &oauth2.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		RedirectURL:  redirect,
		Scopes:       c.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.AuthURI,
			TokenURL: c.TokenURI,
		},
	}
}

// AuthCodeURL returns the authorization URL a user visits to grant access.
func AuthCodeURL(cfg OAuthConfig, state string) string {
	return cfg.oauth2Config().AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades an authorization code for a token.
func Exchange(ctx context.Context, cfg OAuthConfig, code string) (*oauth2.Token, error) {
	token, err := cfg.oauth2Config().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
	}
	return token, nil
}
