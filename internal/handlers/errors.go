package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/lojf/ministry/internal/apperr"
)

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code     apperr.Code       `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// writeError renders err as {"error": {...}} with the status its code maps
// to. Errors without a domain code are reported as UNKNOWN and logged.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Wrap(apperr.CodeUnknown, "internal error", err)
	}
	status := e.Code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Printf("[%s] %s %s: %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
	}

	msg := e.Message
	if status >= http.StatusInternalServerError {
		msg = "internal error"
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: e.Code, Message: msg, Metadata: e.Metadata}})
}
