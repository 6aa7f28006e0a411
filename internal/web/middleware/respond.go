// Package middleware provides HTTP middleware for the web server.
package middleware

import (
	"net/http"

	"github.com/go-chi/render"
)

// errorBody mirrors the web package's error response so clients see one
// shape whether a request failed in middleware or in a handler.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, msg, action string) {
	render.Status(r, status)
	render.JSON(w, r, errorBody{Error: msg, Message: msg, Action: action, Code: code})
}
