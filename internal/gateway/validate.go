package gateway

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"shareit/internal/models"
	"shareit/internal/validation"
)

// validator checks one request before it is forwarded. body is the raw
// request body, already read.
type validator func(r *http.Request, body []byte, now time.Time) error

// requestError is a request the gateway refuses to forward.
type requestError struct {
	typ string
	msg string
}

func (e *requestError) Error() string { return e.msg }

func invalid(format string, args ...interface{}) error {
	return &requestError{typ: "ValidationError", msg: fmt.Sprintf(format, args...)}
}

// all runs checks in order and stops at the first failure.
func all(checks ...validator) validator {
	return func(r *http.Request, body []byte, now time.Time) error {
		for _, check := range checks {
			if err := check(r, body, now); err != nil {
				return err
			}
		}
		return nil
	}
}

func requireUser(r *http.Request, _ []byte, _ time.Time) error {
	raw := strings.TrimSpace(r.Header.Get(models.HeaderUserID))
	if raw == "" {
		return &requestError{typ: "MissingHeader", msg: fmt.Sprintf("header %s is required", models.HeaderUserID)}
	}
	if id, err := strconv.ParseInt(raw, 10, 64); err != nil || id <= 0 {
		return &requestError{typ: "MissingHeader", msg: fmt.Sprintf("header %s must be a positive integer", models.HeaderUserID)}
	}
	return nil
}

func pathID(name string) validator {
	return func(r *http.Request, _ []byte, _ time.Time) error {
		if _, err := strconv.ParseInt(r.PathValue(name), 10, 64); err != nil {
			return invalid("%s must be an integer", name)
		}
		return nil
	}
}

func paging(r *http.Request, _ []byte, _ time.Time) error {
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		from, err := strconv.Atoi(raw)
		if err != nil || from < 0 {
			return invalid("from must be a non-negative integer")
		}
	}
	if raw := q.Get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return invalid("size must be a positive integer")
		}
	}
	return nil
}

func bookingState(r *http.Request, _ []byte, _ time.Time) error {
	if _, err := models.ParseBookingState(r.URL.Query().Get("state")); err != nil {
		return &requestError{typ: "UnsupportedState", msg: err.Error()}
	}
	return nil
}

func searchText(r *http.Request, _ []byte, _ time.Time) error {
	if !r.URL.Query().Has("text") {
		return invalid("text parameter is required")
	}
	return nil
}

func approvedParam(r *http.Request, _ []byte, _ time.Time) error {
	if _, err := strconv.ParseBool(r.URL.Query().Get("approved")); err != nil {
		return invalid("approved must be true or false")
	}
	return nil
}

// jsonBody decodes the body into a fresh T and runs its validate tags.
func jsonBody[T any]() validator {
	return func(_ *http.Request, body []byte, _ time.Time) error {
		_, err := decodeBody[T](body)
		return err
	}
}

func decodeBody[T any](body []byte) (*T, error) {
	var dst T
	if err := json.Unmarshal(body, &dst); err != nil {
		return nil, invalid("invalid JSON body: %v", err)
	}
	if err := validation.Struct(dst); err != nil {
		return nil, invalid("%s", err.Error())
	}
	return &dst, nil
}

// bookingBody also requires a start that is not in the past and an end in
// the future.
func bookingBody(_ *http.Request, body []byte, now time.Time) error {
	in, err := decodeBody[models.BookingInput](body)
	if err != nil {
		return err
	}
	now = now.UTC().Truncate(time.Second)
	if in.Start.Before(now) {
		return invalid("start must not be in the past")
	}
	if !in.End.After(now) {
		return invalid("end must be in the future")
	}
	return nil
}
