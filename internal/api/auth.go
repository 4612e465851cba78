package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"shareit/internal/config"
)

const (
	apiKeyHeaderDefault   = "x-api-key"
	apiExtraHeaderDefault = "x-api-extra"
)

var errInvalidAPIKey = errors.New("invalid api key")

// APIKeyAuth admits only callers holding the shared key pair, so identities
// can be asserted through the gateway alone.
type APIKeyAuth struct {
	cfg config.APIAuthConfig
}

func NewAPIKeyAuth(cfg config.APIAuthConfig) *APIKeyAuth {
	return &APIKeyAuth{cfg: cfg}
}

func (a *APIKeyAuth) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.cfg.Enabled || r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		if err := a.checkAuth(r); err != nil {
			writeJSON(w, http.StatusUnauthorized, ErrorResponse{ErrorType: "Unauthenticated", Message: err.Error()})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *APIKeyAuth) checkAuth(r *http.Request) error {
	apiKey := strings.TrimSpace(r.Header.Get(headerOrDefault(a.cfg.HeaderAPIKey, apiKeyHeaderDefault)))
	extra := strings.TrimSpace(r.Header.Get(headerOrDefault(a.cfg.HeaderExtra, apiExtraHeaderDefault)))
	if apiKey == "" {
		return errors.New("missing api key headers")
	}

	if subtle.ConstantTimeCompare([]byte(a.cfg.Key), []byte(apiKey)) != 1 {
		return errInvalidAPIKey
	}
	if a.cfg.Extra != "" && subtle.ConstantTimeCompare([]byte(a.cfg.Extra), []byte(extra)) != 1 {
		return errors.New("invalid extra header")
	}
	return nil
}

func headerOrDefault(name, def string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return def
}
