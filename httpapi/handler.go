package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/MrEthical07/goAccount/internal/logging"
	"github.com/MrEthical07/goAccount/middleware"
)

const (
	defaultMaxBodyBytes = 1 << 20
	defaultReadyTimeout = 3 * time.Second
)

// Options configures a Handler. The zero value is usable.
type Options struct {
	Logger logging.Logger
	// Metrics is mounted at GET /metrics when non-nil.
	Metrics http.Handler
	// TrustProxy takes the client IP from X-Forwarded-For.
	TrustProxy   bool
	MaxBodyBytes int64
	ReadyTimeout time.Duration
	Now          func() time.Time
}

// Handler routes HTTP requests to an Engine.
type Handler struct {
	engine  *goAccount.Engine
	log     logging.Logger
	maxBody int64
	ready   time.Duration
	now     func() time.Time
	root    http.Handler
}

func New(engine *goAccount.Engine, opts Options) *Handler {
	h := &Handler{
		engine:  engine,
		log:     opts.Logger,
		maxBody: opts.MaxBodyBytes,
		ready:   opts.ReadyTimeout,
		now:     opts.Now,
	}
	if h.log == nil {
		h.log = logging.Nop()
	}
	h.log = h.log.With("component", "httpapi")
	if h.maxBody <= 0 {
		h.maxBody = defaultMaxBodyBytes
	}
	if h.ready <= 0 {
		h.ready = defaultReadyTimeout
	}
	if h.now == nil {
		h.now = time.Now
	}

	mux := http.NewServeMux()
	h.register(mux, opts.Metrics)
	h.root = middleware.RequestContext(opts.TrustProxy)(mux)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.root.ServeHTTP(w, r)
}

func (h *Handler) register(mux *http.ServeMux, metrics http.Handler) {
	bearer := middleware.Guard(h.engine, middleware.WithErrorHandler(h.unauthorized))

	mux.Handle("POST /api/auth/register", h.route("register", h.handleRegister))
	mux.Handle("POST /api/auth/resend-verification", h.route("resend_verification", h.handleResend))
	mux.Handle("GET /api/auth/verify/{code}", h.route("verify", h.handleVerifyLink))
	mux.Handle("POST /api/auth/login", h.route("login", h.handleLogin))
	mux.Handle("POST /api/auth/forgot-password", h.route("forgot_password", h.handleForgotPassword))
	mux.Handle("POST /api/auth/reset-password", h.route("reset_password", h.handleResetPassword))
	mux.Handle("POST /api/auth/refresh-token", h.route("refresh_token", h.handleRefresh))
	mux.Handle("POST /api/auth/logout", h.route("logout", bearerFunc(bearer, h.handleLogout)))
	mux.Handle("PUT /api/auth/change-password", h.route("change_password", bearerFunc(bearer, h.handleChangePassword)))
	mux.Handle("GET /api/auth/profile", h.route("profile", bearerFunc(bearer, h.handleProfile)))
	mux.Handle("PUT /api/auth/profile", h.route("update_profile", bearerFunc(bearer, h.handleUpdateProfile)))

	mux.Handle("GET /api/verification/verify/{code}", h.route("verify", h.handleVerifyLink))
	mux.Handle("POST /api/verification/verify-code", h.route("verify_code", h.handleVerifyCode))
	mux.Handle("GET /api/verification/status/{email}", h.route("verification_status", h.handleVerificationStatus))

	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /health/ready", h.handleReady)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	mux.HandleFunc("/", h.handleNotFound)
}

func bearerFunc(guard func(http.Handler) http.Handler, fn http.HandlerFunc) http.HandlerFunc {
	return guard(fn).ServeHTTP
}

// statusWriter remembers the status for the access log line.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (s *statusWriter) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusWriter) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

func (h *Handler) route(name string, fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := h.now()
		sw := &statusWriter{ResponseWriter: w}
		fn(sw, r)

		args := []any{"route", name, "status", sw.status, "duration", h.now().Sub(start)}
		switch {
		case sw.status >= http.StatusInternalServerError:
			h.log.Error(r.Context(), "request failed", args...)
		case sw.status >= http.StatusBadRequest:
			h.log.Warn(r.Context(), "request rejected", args...)
		default:
			h.log.Info(r.Context(), "request handled", args...)
		}
	})
}

// fail writes the envelope for an engine error. Server-side failures are
// logged with the underlying error.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, kind tokenKind) {
	status, msg := statusFor(err, kind)
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "engine error", "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, Response{Success: false, Message: msg, Errors: fieldsOf(err)})
}

func (h *Handler) unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, goAccount.ErrEngineNotReady) {
		h.fail(w, r, err, tokenBearer)
		return
	}
	writeJSON(w, http.StatusUnauthorized, Response{Success: false, Message: "Not authorized"})
}

func (h *Handler) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, Response{Success: false, Message: "Route not found"})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, "Server is running properly", map[string]string{
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.ready)
	defer cancel()
	if err := h.engine.CheckDependencies(ctx); err != nil {
		h.log.Warn(r.Context(), "readiness check failed", "err", err)
		writeJSON(w, http.StatusServiceUnavailable, Response{Success: false, Message: "Dependencies unavailable"})
		return
	}
	writeSuccess(w, http.StatusOK, "Ready", nil)
}
