package middleware

import (
	"net/http"

	"github.com/google/uuid"

	pkgmw "github.com/orderline/orderline/pkg/middleware"
)

// SessionHeader carries the conversation session ID.
const SessionHeader = "X-Session-Id"

// SessionExtractor reads the session ID from the X-Session-Id header,
// generating one for new conversations, and echoes it on the response so
// clients can carry it forward.
func SessionExtractor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(SessionHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(SessionHeader, id)
		ctx := pkgmw.SetSessionID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
