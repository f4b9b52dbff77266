// Package auth validates bearer tokens against the upstream directory API.
// A token is valid exactly when the upstream accepts it for the profile
// endpoint; the gateway holds no secrets of its own.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/autoaudit/compliance-gateway/pkg/graph"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// UserInfo describes the token owner as reported by the upstream.
type UserInfo struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
}

// TokenResult is the outcome of a validation attempt.
type TokenResult struct {
	Valid bool      `json:"valid"`
	User  *UserInfo `json:"user_info,omitempty"`
}

// Validator checks tokens by resolving them to an upstream user profile.
type Validator struct {
	graph  *graph.Client
	logger zerolog.Logger
}

// NewValidator creates a token validator over the given upstream client.
func NewValidator(graphClient *graph.Client) *Validator {
	if graphClient == nil {
		panic("graph client cannot be nil")
	}
	return &Validator{
		graph:  graphClient,
		logger: log.With().Str("component", "auth").Logger(),
	}
}

// ValidateToken resolves the token via the upstream profile endpoint. A
// rejected token yields Valid=false with a nil error; only transport-level
// failures surface as errors.
func (v *Validator) ValidateToken(ctx context.Context, token string) (*TokenResult, error) {
	if token == "" {
		return &TokenResult{Valid: false}, nil
	}

	user, err := v.graph.Me(ctx, token)
	if err != nil {
		var upstreamErr *graph.UpstreamError
		if errors.As(err, &upstreamErr) && upstreamErr.StatusCode == http.StatusUnauthorized {
			v.logger.Warn().Msg("Token validation failed")
			return &TokenResult{Valid: false}, nil
		}
		return nil, err
	}

	v.logger.Info().Str("user_id", user.ID).Msg("Token validated successfully")

	email := user.Mail
	if email == "" {
		email = user.UserPrincipalName
	}

	return &TokenResult{
		Valid: true,
		User: &UserInfo{
			UserID:      user.ID,
			Email:       email,
			Name:        user.DisplayName,
			DisplayName: user.DisplayName,
		},
	}, nil
}
