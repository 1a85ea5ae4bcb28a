package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/lojf/ministry/internal/apperr"
)

const (
	HeaderOrganization = "X-Organization-ID"
	HeaderActor        = "X-Actor-ID"
)

type ctxKey int

const (
	orgKey ctxKey = iota
	actorKey
)

// RequireOrganization is middleware: every /api request carries the
// organization it acts for. The identity layer in front of this service
// sets the headers; they are not authenticated here.
func RequireOrganization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		org := strings.TrimSpace(r.Header.Get(HeaderOrganization))
		if org == "" {
			writeError(w, r, apperr.New(apperr.CodeInvalidArgument, "missing "+HeaderOrganization+" header"))
			return
		}
		ctx := context.WithValue(r.Context(), orgKey, org)
		ctx = context.WithValue(ctx, actorKey, strings.TrimSpace(r.Header.Get(HeaderActor)))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func orgID(r *http.Request) string {
	s, _ := r.Context().Value(orgKey).(string)
	return s
}

func actorID(r *http.Request) string {
	s, _ := r.Context().Value(actorKey).(string)
	return s
}
