package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gatehouse/visitgate/internal/domain"
	"github.com/gatehouse/visitgate/internal/repository"
	"github.com/gatehouse/visitgate/internal/service"
	"github.com/gatehouse/visitgate/pkg/auth"
	"github.com/gatehouse/visitgate/pkg/config"
	"github.com/gatehouse/visitgate/pkg/logger"
)

type Handlers struct {
	authService    service.AuthService
	visitorService service.VisitorService
	rateLimitRepo  repository.RateLimitRepository
	config         *config.Config
}

func New(
	authService service.AuthService,
	visitorService service.VisitorService,
	rateLimitRepo repository.RateLimitRepository,
	config *config.Config,
) *Handlers {
	return &Handlers{
		authService:    authService,
		visitorService: visitorService,
		rateLimitRepo:  rateLimitRepo,
		config:         config,
	}
}

// Routes builds the /api route tree with its per-route role allow-lists.
func (h *Handlers) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(h.LoginRateLimit()).Post("/login", h.Login)
		})

		r.Route("/users", func(r chi.Router) {
			r.With(h.RequireRoles(domain.RoleAdmin)).Post("/", h.CreateUser)
			r.With(h.RequireRoles(domain.RoleAdmin, domain.RoleSecurity)).Get("/", h.ListUsers)
		})

		r.Route("/visitors", func(r chi.Router) {
			r.With(h.RequireRoles(domain.RoleAdmin, domain.RoleSecurity)).Post("/", h.CreateVisitor)
			r.With(h.RequireRoles(domain.RoleAdmin, domain.RoleSecurity)).Get("/", h.ListVisitors)
			r.With(h.RequireRoles(domain.RoleManager, domain.RoleHR)).Get("/my", h.ListMyVisitors)
			r.With(h.RequireRoles(domain.RoleSecurity)).Patch("/{id}/in", h.CheckInVisitor)
			r.With(h.RequireRoles(domain.RoleSecurity)).Patch("/{id}/out", h.CheckOutVisitor)
			r.With(h.RequireRoles(domain.RoleManager, domain.RoleHR)).Patch("/{id}/meeting", h.UpdateMeeting)
		})
	})

	return r
}

type claimsKey struct{}

// RequireRoles verifies the bearer token and checks the caller's role
// against the route's allow-list.
func (h *Handlers) RequireRoles(allowed ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeAuthError(w, http.StatusUnauthorized, "Missing or invalid authorization header")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			claims, err := auth.Parse(token, h.config.Auth.JWTSecret)
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			role := domain.Role(claims.Role)
			permitted := false
			for _, a := range allowed {
				if role == a {
					permitted = true
					break
				}
			}
			if !permitted {
				writeAuthError(w, http.StatusForbidden, "Insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), logger.UserIDKey, claims.Sub)
			ctx = context.WithValue(ctx, logger.RoleKey, claims.Role)
			ctx = context.WithValue(ctx, claimsKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LoginRateLimit throttles login attempts by client IP, fail-open.
func (h *Handlers) LoginRateLimit() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if h.rateLimitRepo == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := "login:" + getClientIP(r)
			allowed, err := h.rateLimitRepo.Allow(r.Context(), key)
			if err != nil {
				logger.ErrorContext(r.Context(), "Rate limit check failed", "error", err)
			} else if !allowed {
				writeAuthError(w, http.StatusTooManyRequests, "Too many login attempts. Please try again later.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func getClaims(r *http.Request) *auth.Claims {
	if claims, ok := r.Context().Value(claimsKey{}).(*auth.Claims); ok {
		return claims
	}
	return nil
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

type apiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

func writeData(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	writeJSON(w, statusCode, apiResponse{Success: true, Message: message, Data: data})
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, apiResponse{Success: false, Message: message, Data: nil})
}

// writeAuthError uses the bare {message} shape of the auth endpoints.
func writeAuthError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"message": message})
}

// writeServiceError maps the domain error taxonomy onto HTTP statuses.
// Unexpected errors are logged and surfaced as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logger.ErrorContext(r.Context(), "Unexpected service error", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
