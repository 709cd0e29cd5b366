// Package web is the HTML front end of YelpCamp. It maps routes onto the
// services, keeps the session in a signed cookie and turns service errors
// into flash messages and redirects.
package web

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/yelpcamp/internal/logging"
	"github.com/dmitrijs2005/yelpcamp/internal/server/config"
	"github.com/dmitrijs2005/yelpcamp/internal/server/models"
	"github.com/dmitrijs2005/yelpcamp/internal/server/services"
	"github.com/gorilla/mux"
)

const (
	shutdownTimeout = 10 * time.Second

	// maxUploadSize bounds a multipart campground form, image included.
	maxUploadSize = 10 << 20
)

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	IssueSession(userID string) (string, time.Time, error)
	ResolveSession(ctx context.Context, token string) (*models.User, error)
	Profile(ctx context.Context, id string) (*models.User, []*models.Campground, error)
}

type ResetService interface {
	Issue(ctx context.Context, email string, link func(token string) string) (services.IssueOutcome, error)
	Check(ctx context.Context, token string) error
	Redeem(ctx context.Context, token, password, confirm string) (services.RedeemOutcome, *models.User, error)
}

type CampgroundService interface {
	List(ctx context.Context, search string) ([]*models.Campground, error)
	Get(ctx context.Context, id string) (*models.Campground, error)
	GetForEdit(ctx context.Context, actor *models.User, id string) (*models.Campground, error)
	Create(ctx context.Context, actor *models.User, in services.CampgroundInput) (*models.Campground, error)
	Update(ctx context.Context, actor *models.User, id string, in services.CampgroundInput) (*models.Campground, error)
	Delete(ctx context.Context, actor *models.User, id string) error
}

type CommentService interface {
	GetForEdit(ctx context.Context, actor *models.User, campgroundID, commentID string) (*models.Comment, error)
	Create(ctx context.Context, actor *models.User, campgroundID, text string) (*models.Comment, error)
	Update(ctx context.Context, actor *models.User, campgroundID, commentID, text string) (*models.Comment, error)
	Delete(ctx context.Context, actor *models.User, campgroundID, commentID string) error
}

type Server struct {
	address       string
	baseURL       string
	secureCookies bool
	logger        logging.Logger
	renderer      Renderer
	limiter       *ipRateLimiter

	users       UserService
	resets      ResetService
	campgrounds CampgroundService
	comments    CommentService
}

func NewServer(cfg *config.Config, l logging.Logger, r Renderer,
	us UserService, rs ResetService, cs CampgroundService, ms CommentService) *Server {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	return &Server{
		address:       cfg.HTTPAddr,
		baseURL:       baseURL,
		secureCookies: strings.HasPrefix(baseURL, "https://"),
		logger:        l.With("module", "web"),
		renderer:      r,
		limiter:       newIPRateLimiter(authRequestsPerMinute, authBurst, cfg.TrustProxyHeaders),
		users:         us,
		resets:        rs,
		campgrounds:   cs,
		comments:      ms,
	}
}

// Handler returns the full middleware chain around the router. Method
// override has to run before routing, so it wraps the router instead of
// being registered with Use.
func (s *Server) Handler() http.Handler {
	return s.logRequests(methodOverride(s.loadSession(s.routes())))
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", s.landing).Methods(http.MethodGet)
	r.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)

	r.HandleFunc("/register", s.registerForm).Methods(http.MethodGet)
	r.HandleFunc("/register", s.register).Methods(http.MethodPost)
	r.HandleFunc("/login", s.loginForm).Methods(http.MethodGet)
	r.Handle("/login", s.limiter.limit(http.HandlerFunc(s.login))).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.logout).Methods(http.MethodPost)
	r.HandleFunc("/forgot", s.forgotForm).Methods(http.MethodGet)
	r.Handle("/forgot", s.limiter.limit(http.HandlerFunc(s.forgot))).Methods(http.MethodPost)
	r.HandleFunc("/reset/{token}", s.resetForm).Methods(http.MethodGet)
	r.Handle("/reset/{token}", s.limiter.limit(http.HandlerFunc(s.reset))).Methods(http.MethodPost)
	r.HandleFunc("/users/{id}", s.profile).Methods(http.MethodGet)

	c := r.PathPrefix("/campgrounds").Subrouter()
	c.HandleFunc("", s.listCampgrounds).Methods(http.MethodGet)
	c.HandleFunc("", s.createCampground).Methods(http.MethodPost)
	c.HandleFunc("/new", s.newCampground).Methods(http.MethodGet)
	c.HandleFunc("/{id}", s.showCampground).Methods(http.MethodGet)
	c.HandleFunc("/{id}", s.updateCampground).Methods(http.MethodPut)
	c.HandleFunc("/{id}", s.deleteCampground).Methods(http.MethodDelete)
	c.HandleFunc("/{id}/edit", s.editCampground).Methods(http.MethodGet)

	c.HandleFunc("/{id}/comments", s.createComment).Methods(http.MethodPost)
	c.HandleFunc("/{id}/comments/new", s.newComment).Methods(http.MethodGet)
	c.HandleFunc("/{id}/comments/{comment_id}", s.updateComment).Methods(http.MethodPut)
	c.HandleFunc("/{id}/comments/{comment_id}", s.deleteComment).Methods(http.MethodDelete)
	c.HandleFunc("/{id}/comments/{comment_id}/edit", s.editComment).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(s.notFoundPage)

	return r
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.limiter.cleanup(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(shutdownCtx, "HTTP server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("OK"))
}
