package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/crewtask/crewtask/internal/api/service"
	"github.com/crewtask/crewtask/internal/api/store"
	"github.com/crewtask/crewtask/pkg/httpx"
	"github.com/crewtask/crewtask/pkg/jwtx"
	"github.com/crewtask/crewtask/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier     *jwtx.Verifier
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store       store.Store
	AuthService *service.AuthService
	MFAService  *service.MFAService
	UserService *service.UserService
	TeamService *service.TeamService
	TodoService *service.TodoService
}

func NewRouter(
	verifier *jwtx.Verifier,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		verifier:     verifier,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerMFA()
	r.registerUsers()
	r.registerTeams()
	r.registerTodos()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{AuthService: r.AuthService}

	// POST /register - strict rate limit by IP (public signup endpoint)
	r.Mux.Handle("POST /v1/auth/register",
		httpx.Chain(http.HandlerFunc(h.HandleRegister),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /login - strict rate limit by IP; per-identity lockout is
	// enforced inside the service on top of this
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(http.HandlerFunc(h.HandleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerMFA() {
	h := &MFAHandler{MFAService: r.MFAService}

	// POST /mfa/setup - moderate rate limit
	securedSetup := httpx.Chain(http.HandlerFunc(h.HandleSetup),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByIP(httpx.ModerateLimit),
	)

	// POST /mfa/verify - strict rate limit (prevent brute force of codes)
	securedVerify := httpx.Chain(http.HandlerFunc(h.HandleVerify),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByIP(httpx.StrictLimit),
	)

	// POST /mfa/reset - moderate rate limit
	securedReset := httpx.Chain(http.HandlerFunc(h.HandleReset),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByIP(httpx.ModerateLimit),
	)

	// GET /mfa/qr - moderate rate limit; renders the enrollment QR code
	securedQR := httpx.Chain(http.HandlerFunc(h.HandleQR),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByIP(httpx.ModerateLimit),
	)

	r.Mux.Handle("POST /v1/mfa/setup", securedSetup)
	r.Mux.Handle("POST /v1/mfa/verify", securedVerify)
	r.Mux.Handle("POST /v1/mfa/reset", securedReset)
	r.Mux.Handle("GET /v1/mfa/qr", securedQR)
}

func (r *Router) registerUsers() {
	h := &UsersHandler{UserService: r.UserService}

	securedMe := httpx.Chain(http.HandlerFunc(h.HandleMe),
		httpx.AuthnMiddleware(r.verifier),
		httpx.RateLimitByIP(httpx.LenientLimit),
	)

	// Account management is admin only
	adminOnly := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RequireRole("system_admin"),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		)
	}

	r.Mux.Handle("GET /v1/users/me", securedMe)
	r.Mux.Handle("GET /v1/users", adminOnly(h.HandleList))
	r.Mux.Handle("DELETE /v1/users/{id}", adminOnly(h.HandleDelete))
	r.Mux.Handle("POST /v1/users/{id}/roles", adminOnly(h.HandlePromote))
}

func (r *Router) registerTeams() {
	h := &TeamsHandler{TeamService: r.TeamService}

	secured := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByIP(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("GET /v1/teams", secured(h.HandleList))
	r.Mux.Handle("POST /v1/teams", secured(h.HandleCreate))
	r.Mux.Handle("GET /v1/teams/{id}", secured(h.HandleGet))
	r.Mux.Handle("PUT /v1/teams/{id}", secured(h.HandleUpdate))
	r.Mux.Handle("DELETE /v1/teams/{id}", secured(h.HandleDelete))
	r.Mux.Handle("GET /v1/teams/{id}/members", secured(h.HandleListMembers))
	r.Mux.Handle("POST /v1/teams/{id}/members", secured(h.HandleAddMember))
	r.Mux.Handle("DELETE /v1/teams/{id}/members/{userID}", secured(h.HandleRemoveMember))
}

func (r *Router) registerTodos() {
	h := &TodosHandler{TodoService: r.TodoService}

	secured := func(next http.HandlerFunc) http.Handler {
		return httpx.Chain(next,
			httpx.AuthnMiddleware(r.verifier),
			httpx.RateLimitByIP(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("GET /v1/todos", secured(h.HandleList))
	r.Mux.Handle("POST /v1/todos", secured(h.HandleCreate))
	r.Mux.Handle("GET /v1/todos/statuses", secured(h.HandleListStatuses))
	r.Mux.Handle("GET /v1/todos/{id}", secured(h.HandleGet))
	r.Mux.Handle("PUT /v1/todos/{id}", secured(h.HandleUpdate))
	r.Mux.Handle("DELETE /v1/todos/{id}", secured(h.HandleDelete))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
