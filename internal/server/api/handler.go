// Package api is the HTTP surface of cityfix, served under /api/v1.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/cityfix/internal/logging"
	"github.com/dmitrijs2005/cityfix/internal/server/auth"
	"github.com/dmitrijs2005/cityfix/internal/server/classify"
	"github.com/dmitrijs2005/cityfix/internal/server/models"
	"github.com/dmitrijs2005/cityfix/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// UserService is satisfied by *services.UserService.
type UserService interface {
	Register(ctx context.Context, name, email, password string, role models.Role) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
	Get(ctx context.Context, id string) (*models.User, error)
}

// IssueService is satisfied by *services.IssueService.
type IssueService interface {
	CreateIssue(ctx context.Context, p auth.Principal, in services.NewIssue) (*models.Issue, error)
	GetIssue(ctx context.Context, id string) (*models.Issue, error)
	UpdateStatus(ctx context.Context, p auth.Principal, issueID string, change services.StatusChange) (*models.Issue, error)
	DeleteIssue(ctx context.Context, p auth.Principal, issueID string) error
	ListIssues(ctx context.Context, filter models.IssueFilter, page, pageSize int) ([]*models.Issue, error)
	History(ctx context.Context, issueID string) ([]*models.StatusUpdate, error)
	Analytics(ctx context.Context) (models.StatusCounts, error)
}

// ImageService is satisfied by *services.ImageService.
type ImageService interface {
	UploadBase64(ctx context.Context, prefix, encoded string) (string, error)
	URL(ctx context.Context, key string) (string, error)
	PresignUpload(ctx context.Context, contentType string) (*models.ImageUpload, error)
}

type Handler struct {
	users      UserService
	issues     IssueService
	images     ImageService
	classifier classify.Classifier
	logger     logging.Logger
	timeout    time.Duration
}

type Option func(*Handler)

// WithTimeout bounds the handling time of every request. Default 60s.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

func NewHandler(users UserService, issues IssueService, images ImageService, classifier classify.Classifier, logger logging.Logger, opts ...Option) *Handler {
	h := &Handler{
		users:      users,
		issues:     issues,
		images:     images,
		classifier: classifier,
		logger:     logger.With("module", "http"),
		timeout:    60 * time.Second,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Router builds the chi route tree.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(h.timeout))

	r.Get("/health", h.health)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Get("/health", h.health)

		v1.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.register)
			r.Post("/login", h.login)
			r.With(h.authenticator).Get("/me", h.me)
		})

		v1.Route("/issues", func(r chi.Router) {
			r.Get("/", h.listIssues)
			r.Get("/{id}", h.getIssue)
			r.Get("/{id}/updates", h.issueUpdates)
			r.Get("/{id}/image", h.issueImage)

			r.Group(func(r chi.Router) {
				r.Use(h.authenticator)
				r.Post("/", h.createIssue)
				r.Delete("/{id}", h.deleteIssue)
				r.With(requireAuthority).Patch("/{id}/status", h.updateStatus)
			})
		})

		v1.With(h.authenticator).Post("/images/presign", h.presignImage)
		v1.Get("/dashboard/analytics", h.analytics)
		v1.Post("/ml/predict", h.predict)
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
