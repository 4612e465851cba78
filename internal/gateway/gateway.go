package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/models"
)

const maxRequestBody = 1 << 20

// Gateway validates client requests and forwards the valid ones to the
// business server.
type Gateway struct {
	client  *serverClient
	limiter *callerLimiter
	server  *http.Server
	handler http.Handler
	logger  *zerolog.Logger
	now     func() time.Time
}

func NewGateway(cfg *config.Config, logger *zerolog.Logger) *Gateway {
	g := &Gateway{
		client:  newServerClient(cfg.Gateway.ServerURL, cfg.Gateway.RequestTimeout, cfg.APIAuth),
		limiter: newCallerLimiter(cfg.Gateway.RPS, cfg.Gateway.Burst),
		logger:  logger,
		now:     time.Now,
	}

	mux := http.NewServeMux()
	g.routes(mux)
	g.handler = api.LoggingMiddleware("gateway", logger, mux)

	g.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Gateway.Port),
		Handler:           g.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}
	return g
}

func (g *Gateway) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", g.handleHealth)

	mux.Handle("POST /users", g.forward(jsonBody[models.UserInput]()))
	mux.Handle("GET /users", g.forward(paging))
	mux.Handle("GET /users/{id}", g.forward(pathID("id")))
	mux.Handle("PATCH /users/{id}", g.forward(all(pathID("id"), jsonBody[models.UserPatch]())))
	mux.Handle("DELETE /users/{id}", g.forward(pathID("id")))

	mux.Handle("POST /items", g.forward(all(requireUser, jsonBody[models.ItemInput]())))
	mux.Handle("GET /items", g.forward(all(requireUser, paging)))
	mux.Handle("GET /items/search", g.forward(all(requireUser, searchText, paging)))
	mux.Handle("GET /items/{id}", g.forward(all(requireUser, pathID("id"))))
	mux.Handle("PATCH /items/{id}", g.forward(all(requireUser, pathID("id"), jsonBody[models.ItemPatch]())))
	mux.Handle("DELETE /items/{id}", g.forward(all(requireUser, pathID("id"))))
	mux.Handle("POST /items/{id}/comment", g.forward(all(requireUser, pathID("id"), jsonBody[models.CommentInput]())))

	mux.Handle("POST /requests", g.forward(all(requireUser, jsonBody[models.ItemRequestInput]())))
	mux.Handle("GET /requests", g.forward(requireUser))
	mux.Handle("GET /requests/all", g.forward(all(requireUser, paging)))
	mux.Handle("GET /requests/{id}", g.forward(all(requireUser, pathID("id"))))

	mux.Handle("POST /bookings", g.forward(all(requireUser, bookingBody)))
	mux.Handle("PATCH /bookings/{id}", g.forward(all(requireUser, pathID("id"), approvedParam)))
	mux.Handle("GET /bookings/{id}", g.forward(all(requireUser, pathID("id"))))
	mux.Handle("GET /bookings", g.forward(all(requireUser, bookingState, paging)))
	mux.Handle("GET /bookings/owner", g.forward(all(requireUser, bookingState, paging)))
	mux.Handle("GET /bookings/owner/export", g.forward(all(requireUser, bookingState)))
}

func (g *Gateway) Handler() http.Handler {
	return g.handler
}

func (g *Gateway) Start() error {
	g.logger.Info().Str("addr", g.server.Addr).Str("server_url", g.client.baseURL).Msg("Gateway listening")
	if err := g.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (g *Gateway) Shutdown(ctx context.Context) error {
	return g.server.Shutdown(ctx)
}

// forward validates a request, throttles its caller and relays it to the
// server.
func (g *Gateway) forward(check validator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBody))
		if err != nil {
			writeJSON(w, http.StatusRequestEntityTooLarge, api.ErrorResponse{ErrorType: "ValidationError", Message: "request body too large"})
			return
		}

		if err := check(r, body, g.now()); err != nil {
			g.reject(w, r, err)
			return
		}

		if !g.limiter.Allow(callerKey(r)) {
			writeJSON(w, http.StatusTooManyRequests, api.ErrorResponse{ErrorType: "TooManyRequests", Message: "rate limit exceeded"})
			return
		}

		resp, err := g.client.Forward(r.Context(), r, body, w.Header().Get("X-Request-Id"))
		if err != nil {
			zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("Forward to server failed")
			writeJSON(w, http.StatusBadGateway, api.ErrorResponse{ErrorType: "BadGateway", Message: "server unavailable"})
			return
		}

		for name, values := range resp.Header {
			for _, v := range values {
				w.Header().Add(name, v)
			}
		}
		w.WriteHeader(resp.Status)
		_, _ = w.Write(resp.Body)
	})
}

func (g *Gateway) reject(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	if !errors.As(err, &reqErr) {
		reqErr = &requestError{typ: "ValidationError", msg: err.Error()}
	}
	zerolog.Ctx(r.Context()).Warn().Str("error_type", reqErr.typ).Str("path", r.URL.Path).Msg(reqErr.msg)
	writeJSON(w, http.StatusBadRequest, api.ErrorResponse{ErrorType: reqErr.typ, Message: reqErr.msg})
}

func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := g.client.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "server": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// callerKey identifies the caller for throttling: the asserted user id, or
// the client address for anonymous endpoints.
func callerKey(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(models.HeaderUserID)); id != "" {
		return "user:" + id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
