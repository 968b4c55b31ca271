package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/branchplay/branchplay/internal/httputil"
)

type contextKey string

const claimsKey contextKey = "playbackClaims"

type Handler struct {
	secret        string
	adminUser     string
	adminPassHash []byte
}

// NewHandler builds the auth middlewares. An empty adminUser or
// adminPasswordHash disables the admin API.
func NewHandler(secret, adminUser, adminPasswordHash string) *Handler {
	return &Handler{secret: secret, adminUser: adminUser, adminPassHash: []byte(adminPasswordHash)}
}

func (h *Handler) Secret() string { return h.secret }

func (h *Handler) AdminEnabled() bool {
	return h.adminUser != "" && len(h.adminPassHash) > 0
}

// Middleware requires a playback token, taken from the Authorization header
// or, for browsers opening a WebSocket, the token query parameter.
func (h *Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, errMsg := bearerToken(r)
		if errMsg != "" {
			httputil.WriteError(w, http.StatusUnauthorized, errMsg)
			return
		}

		claims, err := ValidateToken(h.secret, tokenStr)
		if err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		if claims.TokenType != TokenTypePlayback {
			httputil.WriteError(w, http.StatusUnauthorized, "invalid token type")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) (string, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if q := r.URL.Query().Get("token"); q != "" {
			return q, ""
		}
		return "", "authorization header required"
	}
	tokenStr, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found {
		return "", "invalid authorization header format"
	}
	return tokenStr, ""
}

func ClaimsFromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}

// SessionIDFromContext returns the playback session the request is
// authorized for, or "" when unauthenticated.
func SessionIDFromContext(ctx context.Context) string {
	if c := ClaimsFromContext(ctx); c != nil {
		return c.SessionID
	}
	return ""
}

// AdminMiddleware checks HTTP basic credentials against the configured user
// and bcrypt hash.
func (h *Handler) AdminMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.AdminEnabled() {
			httputil.WriteError(w, http.StatusForbidden, "admin API is disabled")
			return
		}

		user, pass, ok := r.BasicAuth()
		if !ok || !h.checkAdmin(user, pass) {
			w.Header().Set("WWW-Authenticate", `Basic realm="branchplay admin", charset="UTF-8"`)
			httputil.WriteError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) checkAdmin(user, pass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(h.adminUser)) == 1
	passOK := bcrypt.CompareHashAndPassword(h.adminPassHash, []byte(pass)) == nil
	return userOK && passOK
}
