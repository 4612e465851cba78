package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"shareit/internal/models"
	"shareit/internal/service"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	ErrorType string `json:"errorType"`
	Message   string `json:"message"`
}

// requestError is a malformed request caught before any service call.
type requestError struct {
	typ string
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(typ, format string, args ...interface{}) error {
	return &requestError{typ: typ, msg: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError renders err with the status of its kind. Internal failures are
// logged and reported with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var reqErr *requestError
	if errors.As(err, &reqErr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{ErrorType: reqErr.typ, Message: reqErr.msg})
		return
	}

	var se *service.Error
	if !errors.As(err, &se) {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			ErrorType: "InternalError",
			Message:   "internal server error",
		})
		return
	}

	writeJSON(w, statusFor(se), ErrorResponse{ErrorType: se.Type, Message: se.Message})
}

func statusFor(se *service.Error) int {
	if se.Hidden {
		return http.StatusNotFound
	}
	switch se.Kind {
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindInvalidInput, service.KindPrecondition:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusForbidden
	case service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return badRequest("ValidationError", "invalid JSON body: %v", err)
	}
	return nil
}

// sharerID reads the client-asserted identity header.
func sharerID(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(models.HeaderUserID))
	if raw == "" {
		return 0, badRequest("MissingHeader", "header %s is required", models.HeaderUserID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("MissingHeader", "header %s must be a positive integer", models.HeaderUserID)
	}
	return id, nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, badRequest("ValidationError", "%s must be an integer", name)
	}
	return id, nil
}

// pageParams reads from/size with the defaults 0 and 10.
func pageParams(r *http.Request) (models.Page, error) {
	q := r.URL.Query()
	from, err := intParam(q.Get("from"), 0)
	if err != nil {
		return models.Page{}, badRequest("ValidationError", "from must be an integer")
	}
	size, err := intParam(q.Get("size"), models.DefaultPageSize)
	if err != nil {
		return models.Page{}, badRequest("ValidationError", "size must be an integer")
	}
	return service.NewPage(from, size)
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// stateParam returns the state token, ALL when absent.
func stateParam(r *http.Request) string {
	if s := r.URL.Query().Get("state"); s != "" {
		return s
	}
	return string(models.StateAll)
}
