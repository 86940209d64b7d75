package httpx

import (
	"context"
	"net/http"
	"strconv"
)

// HeaderUserID carries the caller identity, set by the authenticating gateway.
const HeaderUserID = "X-User-ID"

type ctxKey int

const userKey ctxKey = iota

// RequireUser rejects requests without a valid caller identity.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.Header.Get(HeaderUserID), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid user identity", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, id)))
	})
}

func userID(ctx context.Context) int64 {
	id, _ := ctx.Value(userKey).(int64)
	return id
}
