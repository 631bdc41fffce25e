package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/nitrolabs/nitro/internal/metrics"
	"github.com/nitrolabs/nitro/internal/service"
	"github.com/nitrolabs/nitro/internal/store"
	"github.com/nitrolabs/nitro/pkg/httpx"
	"github.com/nitrolabs/nitro/pkg/slogx"

	"github.com/prometheus/client_golang/prometheus"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store      store.Store
	gatherer   prometheus.Gatherer
	collector  metrics.MetricsCollector
	gateRoutes []ProtectedRoute

	AuthService    *service.AuthService
	SessionService *service.SessionService
	TokenService   *service.TokenService
	AccountService *service.AccountService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
	collector metrics.MetricsCollector,
	gatherer prometheus.Gatherer,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
		collector:    collector,
		gatherer:     gatherer,
		gateRoutes:   DefaultProtectedRoutes(),
	}

	return r
}

// SetProtectedRoutes overrides the default protected prefixes. Must be
// called before ApplyRoutes.
func (r *Router) SetProtectedRoutes(routes []ProtectedRoute) {
	r.gateRoutes = routes
}

func (r *Router) ApplyRoutes() {
	// The gate runs in the global middleware chain so it intercepts every
	// protected prefix before mux dispatch.
	gate := &Gate{
		Tokens:  r.TokenService,
		Routes:  r.gateRoutes,
		Metrics: r.collector,
	}
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		gate.Middleware(),
	}

	r.registerAuth()
	r.registerAccount()
	r.registerPages()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// POST /v1/auth/login - strict rate limit (authentication attempts)
	loginHandler := &LoginHandler{
		AuthService:    r.AuthService,
		SessionService: r.SessionService,
		TokenService:   r.TokenService,
		Metrics:        r.collector,
	}
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /v1/auth/logout - moderate rate limit; works without a live session
	logoutHandler := &LogoutHandler{
		SessionService: r.SessionService,
		TokenService:   r.TokenService,
	}
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(logoutHandler,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /v1/auth/session - session status and the explicit terminate signal.
	// Behind the gate, so claims are already in context.
	sessionHandler := &SessionHandler{SessionService: r.SessionService}
	r.Mux.Handle("POST /v1/auth/session",
		httpx.Chain(sessionHandler,
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)

	// GET /v1/userinfo - authenticated profile endpoint
	userinfoHandler := &UserInfoHandler{AccountService: r.AccountService}
	r.Mux.Handle("GET /v1/userinfo",
		httpx.Chain(userinfoHandler,
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerAccount() {
	// POST /v1/account/change-password - strict rate limit (password guessing)
	h := &ChangePasswordHandler{AccountService: r.AccountService}
	r.Mux.Handle("POST /v1/account/change-password",
		httpx.Chain(h,
			httpx.RateLimitByUser(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerPages() {
	r.Mux.HandleFunc("GET /dashboard", DashboardPage)
	r.Mux.HandleFunc("GET /dashboard/admin", AdminDashboardPage)
	r.Mux.HandleFunc("GET /account", AccountPage)
	r.Mux.HandleFunc("GET "+LoginPath, LoginPage)
	r.Mux.HandleFunc("GET "+AccessDeniedPath, AccessDeniedPage)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.TokenService.Signer),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /metrics",
		httpx.Chain(metrics.Handler(r.gatherer),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
