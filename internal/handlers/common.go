package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yyyyyan/wonderline-server/internal/apperr"

	"github.com/rs/zerolog/log"
)

// defaultPageNb is the page size used when a nested-listing request leaves
// its nb parameter out.
const defaultPageNb = 6

// APIError is one entry of the response envelope's error list.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Feedback is one entry of the response envelope's feedback list.
type Feedback struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Response is the uniform envelope every endpoint returns: the payload plus
// error and feedback lists and the server timestamp in epoch milliseconds.
type Response struct {
	Payload   interface{} `json:"payload"`
	Errors    []APIError  `json:"errors"`
	Feedbacks []Feedback  `json:"feedbacks"`
	Timestamp int64       `json:"timestamp"`
}

func writeEnvelope(w http.ResponseWriter, statusCode int, resp Response) {
	if resp.Errors == nil {
		resp.Errors = []APIError{}
	}
	if resp.Feedbacks == nil {
		resp.Feedbacks = []Feedback{}
	}
	resp.Timestamp = time.Now().UnixMilli()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(resp)
}

// respondOK sends a 200 envelope with the payload.
func respondOK(w http.ResponseWriter, payload interface{}) {
	writeEnvelope(w, http.StatusOK, Response{Payload: payload})
}

// respondCreated sends a 201 envelope with a creation feedback entry.
func respondCreated(w http.ResponseWriter, payload interface{}) {
	writeEnvelope(w, http.StatusCreated, Response{
		Payload:   payload,
		Feedbacks: []Feedback{{Code: http.StatusCreated, Message: "created"}},
	})
}

// respondError sends an error envelope with the given status code.
func respondError(w http.ResponseWriter, message string, statusCode int) {
	writeEnvelope(w, statusCode, Response{
		Errors: []APIError{{Code: statusCode, Message: message}},
	})
}

// respondAppError maps a service error onto the envelope using the typed
// error taxonomy; unknown errors become 500 without leaking details.
func respondAppError(w http.ResponseWriter, err error) {
	status := apperr.StatusCode(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Request failed")
		message = "internal server error"
	}
	respondError(w, message, status)
}

// queryInt parses an integer query parameter with a default.
func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

// queryIntPtr parses an optional integer query parameter; absent or invalid
// values yield nil, meaning unbounded.
func queryIntPtr(r *http.Request, name string) *int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	return &value
}

// queryIntPtrDefault parses an optional integer query parameter; absent or
// invalid values fall back to the given page size instead of unbounded.
func queryIntPtrDefault(r *http.Request, name string, fallback int) *int {
	if value := queryIntPtr(r, name); value != nil {
		return value
	}
	return &fallback
}

// querySortKeys parses the comma-separated sortType parameter.
func querySortKeys(r *http.Request) []string {
	raw := r.URL.Query().Get("sortType")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}
