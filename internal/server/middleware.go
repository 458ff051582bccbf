package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/claude/swimtrack/internal/storage"
	"tailscale.com/client/tailscale/apitype"
)

type contextKey int

const (
	userIDKey contextKey = iota
	userInfoKey
)

// UserInfo identifies the caller.
type UserInfo struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

var localUser = UserInfo{Login: "local", DisplayName: "Local Dev User"}

// WhoIsClient resolves a tailnet peer address. *local.Client from tsnet satisfies it.
type WhoIsClient interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// APIKeyAuth returns middleware that validates the X-API-Key header.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				http.Error(w, `{"error":"missing API key"}`, http.StatusUnauthorized)
				return
			}
			if key != apiKey {
				http.Error(w, `{"error":"invalid API key"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DevIdentity assigns every request to the local user (ID 1).
func DevIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), userIDKey, storage.LocalUserID)
		ctx = context.WithValue(ctx, userInfoKey, localUser)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TailscaleIdentity resolves the caller's tailnet login and maps it to a user row.
func TailscaleIdentity(lc WhoIsClient, users interface {
	GetOrCreateUser(ctx context.Context, login, displayName string) (int, error)
}, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			who, err := lc.WhoIs(r.Context(), r.RemoteAddr)
			if err != nil || who.UserProfile == nil {
				log.Warn("tailscale whois failed", "remote", r.RemoteAddr, "error", err)
				http.Error(w, `{"error":"unknown tailnet peer"}`, http.StatusForbidden)
				return
			}
			info := UserInfo{Login: who.UserProfile.LoginName, DisplayName: who.UserProfile.DisplayName}
			uid, err := users.GetOrCreateUser(r.Context(), info.Login, info.DisplayName)
			if err != nil {
				log.Error("resolving user", "login", info.Login, "error", err)
				http.Error(w, `{"error":"user lookup failed"}`, http.StatusInternalServerError)
				return
			}
			ctx := context.WithValue(r.Context(), userIDKey, uid)
			ctx = context.WithValue(ctx, userInfoKey, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// identity picks Tailscale or dev identity depending on how the server was started.
func (s *Server) identity(next http.Handler) http.Handler {
	dev := DevIdentity(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.whois == nil {
			dev.ServeHTTP(w, r)
			return
		}
		TailscaleIdentity(s.whois, s.db, s.log)(next).ServeHTTP(w, r)
	})
}

func userIDFromContext(r *http.Request) int {
	if id, ok := r.Context().Value(userIDKey).(int); ok {
		return id
	}
	return storage.LocalUserID
}

func userInfoFromContext(r *http.Request) UserInfo {
	if info, ok := r.Context().Value(userInfoKey).(UserInfo); ok {
		return info
	}
	return localUser
}

// RequestLogging returns middleware that logs each request.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// CORS adds permissive CORS headers for local development.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush passes through so streamed MCP responses are not buffered.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// RequestUserID returns the user resolved by the identity middleware. Used to
// hand the identity to the MCP transport.
func RequestUserID(r *http.Request) int {
	return userIDFromContext(r)
}
