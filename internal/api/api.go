package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"taskhub/internal/auth"
	"taskhub/internal/bus"
	"taskhub/internal/db"
	"taskhub/internal/invitation"
	"taskhub/internal/models"
	"taskhub/internal/store"
)

// InvitationGate is the invitation lifecycle surface the handlers consume.
// Implemented by invitation.Gate.
type InvitationGate interface {
	IsAuthorized(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, email string, invitedBy uuid.UUID) (invitation.Record, error)
	Accept(ctx context.Context, email, externalID string) (bool, error)
	Revoke(ctx context.Context, email string) (bool, error)
	Pending(ctx context.Context) ([]invitation.Record, error)
}

// UserDirectory resolves user records for the auth middleware and handlers.
type UserDirectory interface {
	UserByEmail(ctx context.Context, email string) (models.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (models.User, error)
}

// SessionManager issues and clears browser sessions. In header auth mode the
// upstream proxy owns the session and the API runs without one.
type SessionManager interface {
	IssueSession(p auth.Principal) (string, time.Time, error)
	SessionCookie(token string, expires time.Time) *http.Cookie
	ClearSessionCookie() *http.Cookie
}

// Config controls runtime behaviour for the API handlers.
type Config struct {
	AllowedOrigins []string
	RateLimit      int
}

// Options bundles the collaborators wired into an API.
type Options struct {
	Store     *store.Store
	Gate      InvitationGate
	Users     UserDirectory
	Validator auth.Validator
	Sessions  SessionManager
	Bus       *bus.Bus
	Pool      *pgxpool.Pool
	Config    Config
}

// API wires dependencies and configuration for the HTTP handlers.
type API struct {
	store     *store.Store
	gate      InvitationGate
	users     UserDirectory
	validator auth.Validator
	sessions  SessionManager
	bus       *bus.Bus
	pool      *pgxpool.Pool
	config    Config
}

// New initialises the API layer with sane defaults applied to the provided
// options. Users falls back to the store when not set separately.
func New(opts Options) (*API, error) {
	if opts.Gate == nil {
		return nil, errors.New("gate is required")
	}
	if opts.Validator == nil {
		return nil, errors.New("auth validator is required")
	}
	if opts.Users == nil {
		if opts.Store == nil {
			return nil, errors.New("user directory is required")
		}
		opts.Users = opts.Store
	}
	if opts.Config.RateLimit <= 0 {
		opts.Config.RateLimit = 100
	}

	return &API{
		store:     opts.Store,
		gate:      opts.Gate,
		users:     opts.Users,
		validator: opts.Validator,
		sessions:  opts.Sessions,
		bus:       opts.Bus,
		pool:      opts.Pool,
		config:    opts.Config,
	}, nil
}

// Routes constructs the chi router containing all API endpoints.
func (a *API) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Browsers refuse a wildcard origin combined with credentials, so the
	// open fallback runs without them; cookie sessions need explicit origins.
	allowed := a.config.AllowedOrigins
	withCredentials := true
	if len(allowed) == 0 {
		allowed = []string{"*"}
		withCredentials = false
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: withCredentials,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))
	r.Use(httprate.Limit(a.config.RateLimit, time.Minute))
	r.Use(countRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", a.handleReadyz)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login-callback", a.handleLoginCallback)
		r.Post("/logout", a.handleLogout)
		r.Get("/user", a.handleCurrentUser)
		r.Get("/status", a.handleAuthStatus)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(a.requireUser)

		r.Route("/invitations", func(r chi.Router) {
			r.Post("/", a.handleCreateInvitation)
			r.Get("/pending", a.handleListPendingInvitations)
			r.Delete("/{email}", a.handleRevokeInvitation)
			r.Get("/{email}/status", a.handleInvitationStatus)
		})

		r.Route("/projects", func(r chi.Router) {
			r.Get("/", a.handleListProjects)
			r.Post("/", a.handleCreateProject)
			r.Get("/{id}", a.handleGetProject)
			r.Put("/{id}", a.handleUpdateProject)
			r.Delete("/{id}", a.handleDeleteProject)
			r.Get("/{id}/tasks", a.handleListTasks)
			r.Post("/{id}/tasks", a.handleCreateTask)
			r.Post("/{id}/members", a.handleAddMember)
			r.Delete("/{id}/members/{userID}", a.handleRemoveMember)
		})

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/{id}", a.handleGetTask)
			r.Put("/{id}", a.handleUpdateTask)
			r.Delete("/{id}", a.handleDeleteTask)
		})

		r.Get("/reports/summary", a.handleReportSummary)
	})

	return r
}

func (a *API) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if a.pool != nil {
		if err := db.Ping(r.Context(), a.pool); err != nil {
			respondError(w, http.StatusServiceUnavailable, errors.New("database unreachable"))
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

type ctxKey int

const userKey ctxKey = iota

// requireUser authenticates the request and resolves the principal to an
// existing user record. Principals without an accepted account get 401; the
// login callback is the only door for first-time users.
func (a *API) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := a.validator.Principal(r)
		if err != nil {
			respondError(w, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}

		email := invitation.NormalizeEmail(p.Email)
		if email == "" {
			respondError(w, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}

		user, err := a.users.UserByEmail(r.Context(), email)
		if errors.Is(err, invitation.ErrNotFound) {
			respondError(w, http.StatusUnauthorized, errors.New("unauthorized"))
			return
		}
		if err != nil {
			respondError(w, http.StatusInternalServerError, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, user)))
	})
}

func currentUser(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

// publishJSON sends a domain event, logging failures instead of surfacing
// them; event delivery is best effort.
func (a *API) publishJSON(ctx context.Context, subject string, v any) {
	if err := a.bus.Publish(ctx, subject, v); err != nil {
		logPublishError(subject, err)
	}
}
