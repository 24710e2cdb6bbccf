// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response. The type URI
// classifies the failure for clients that dispatch on it rather than on
// the human-readable title.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Type:   problemType(status),
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

func problemType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "urn:meridian:problem:invalid-request"
	case http.StatusUnauthorized:
		return "urn:meridian:problem:unauthorized"
	case http.StatusForbidden:
		return "urn:meridian:problem:forbidden"
	case http.StatusNotFound:
		return "urn:meridian:problem:not-found"
	case http.StatusConflict:
		return "urn:meridian:problem:conflict"
	case http.StatusServiceUnavailable:
		return "urn:meridian:problem:unavailable"
	default:
		return "urn:meridian:problem:internal"
	}
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
