package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"enroute-service/pkg/logger"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// DefaultOpenSkyTokenURL is the OpenSky Network keycloak token endpoint.
const DefaultOpenSkyTokenURL = "https://auth.opensky-network.org/auth/realms/opensky-network/protocol/openid-connect/token"

// OpenSkyOAuth handles client-credentials authentication with OpenSky
type OpenSkyOAuth struct {
	config *clientcredentials.Config
	logger logger.Logger
}

// NewOpenSkyOAuth creates a new OpenSky OAuth handler. An empty tokenURL uses
// DefaultOpenSkyTokenURL.
func NewOpenSkyOAuth(clientID, clientSecret, tokenURL string, logger logger.Logger) *OpenSkyOAuth {
	if tokenURL == "" {
		tokenURL = DefaultOpenSkyTokenURL
	}
	return &OpenSkyOAuth{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
		},
		logger: logger,
	}
}

// Configured reports whether client credentials were provided.
func (o *OpenSkyOAuth) Configured() bool {
	return o.config.ClientID != "" && o.config.ClientSecret != ""
}

// GetTokenSource returns a token source that refreshes itself before expiry
func (o *OpenSkyOAuth) GetTokenSource(ctx context.Context) oauth2.TokenSource {
	return o.config.TokenSource(ctx)
}

// HTTPClient returns a client that authenticates every request. Without
// credentials it returns an anonymous client.
func (o *OpenSkyOAuth) HTTPClient(ctx context.Context, timeout time.Duration) *http.Client {
	if !o.Configured() {
		o.logger.Warn("OpenSky credentials not set, using anonymous access")
		return &http.Client{Timeout: timeout}
	}
	client := oauth2.NewClient(ctx, o.GetTokenSource(ctx))
	client.Timeout = timeout
	return client
}

// Token fetches a fresh access token
func (o *OpenSkyOAuth) Token(ctx context.Context) (*oauth2.Token, error) {
	token, err := o.config.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to obtain token: %w", err)
	}
	o.logger.Info("Access token obtained", "expiry", token.Expiry)
	return token, nil
}

// TokenToJSON converts a token to JSON
func (o *OpenSkyOAuth) TokenToJSON(token *oauth2.Token) (string, error) {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
