// Package api exposes warden's HTTP surface: policy ingestion,
// compliance checks, and a health probe (spec.md §6).
package api

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// ProblemDetail is an RFC 7807 Problem Detail response, extended with
// a machine-readable Code field the spec's test scenarios assert on
// (e.g. "INVALID_REQUEST", "EMPLOYEE_NOT_FOUND", "PARSE_ERROR").
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	Code     string `json:"code"`
	TraceID  string `json:"trace_id,omitempty"`
}

func (p *ProblemDetail) Error() string {
	return fmt.Sprintf("%s: %s", p.Title, p.Detail)
}

// WriteError writes an RFC 7807 + code JSON error response.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, title, detail string) {
	problem := &ProblemDetail{
		Type:     fmt.Sprintf("https://warden.dev/errors/%s", code),
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: r.URL.Path,
		Code:     code,
		TraceID:  w.Header().Get("X-Request-ID"),
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(problem)
}

func WriteBadRequest(w http.ResponseWriter, r *http.Request, code, detail string) {
	WriteError(w, r, http.StatusBadRequest, code, "Bad Request", detail)
}

func WriteNotFound(w http.ResponseWriter, r *http.Request, code, detail string) {
	WriteError(w, r, http.StatusNotFound, code, "Not Found", detail)
}

func WriteTooManyRequests(w http.ResponseWriter, r *http.Request, retryAfterSecs int) {
	w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfterSecs))
	WriteError(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "Too Many Requests", "rate limit exceeded")
}

// WriteInternal logs err (never exposed to the client) and writes a
// generic 500.
func WriteInternal(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("internal server error", "error", err, "path", r.URL.Path)
	WriteError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal Server Error", "an unexpected error occurred")
}
