package mockapi

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"vidash/internal/api"
	"vidash/internal/logging"
)

// Prefix is the path the API routes are mounted under.
const Prefix = "/api/v1"

const defaultTokenTTL = time.Hour

// Option customises a Server.
type Option func(*Server)

// WithLogger routes request logs to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logging.NewComponentLogger(logger, "mockapi") }
}

// WithSecret sets the HS256 signing secret.
func WithSecret(secret string) Option {
	return func(s *Server) { s.secret = []byte(secret) }
}

// WithTokenTTL sets the lifetime of issued access tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) { s.tokenTTL = ttl }
}

// WithClock overrides the server's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithFixture seeds the server with fixture instead of DefaultFixture.
func WithFixture(fixture Fixture) Option {
	return func(s *Server) { s.seed(fixture) }
}

// Server is the in-memory Remote API.
type Server struct {
	mu          sync.Mutex
	accounts    []Account
	videos      []api.Video
	assignments []api.Assignment
	activity    []api.ActivityLogEntry

	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
	logger   *slog.Logger
	validate *validator.Validate
	seeded   bool
}

// New constructs a server seeded with DefaultFixture unless WithFixture is
// given.
func New(opts ...Option) *Server {
	s := &Server{
		secret:   []byte("vidash-mock-secret"),
		tokenTTL: defaultTokenTTL,
		now:      time.Now,
		logger:   logging.NewComponentLogger(nil, "mockapi"),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if !s.seeded {
		s.seed(DefaultFixture())
	}
	return s
}

func (s *Server) seed(fixture Fixture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts = slices.Clone(fixture.Accounts)
	s.videos = slices.Clone(fixture.Videos)
	s.assignments = slices.Clone(fixture.Assignments)
	s.activity = slices.Clone(fixture.Activity)
	for i := range s.videos {
		s.videos[i].AssignedUserID = nil
	}
	for _, a := range s.assignments {
		if idx := s.videoIndexLocked(a.VideoID); idx >= 0 {
			userID := a.UserID
			s.videos[idx].AssignedUserID = &userID
		}
	}
	s.seeded = true
}

// Handler returns the HTTP handler with every route mounted under Prefix.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recoverer, s.logRequests)
	r.Mount(Prefix, s.routes())
	return r
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Post("/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/videos/user-videos", s.handleUserVideos)
		r.Get("/videos/{id}", s.handleGetVideo)
		r.Post("/activity-logs", s.handleRecordActivity)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth, requireAdmin)
		r.Get("/videos", s.handleListVideos)
		r.Get("/videos/assignments", s.handleListAssignments)
		r.Put("/videos/{id}", s.handleUpdateVideo)
		r.Delete("/videos/{id}", s.handleDeleteVideo)
		r.Post("/videos/{id}/assign", s.handleAssign)
		r.Delete("/videos/remove-assignment/{id}", s.handleRemoveAssignment)
		r.Get("/activity-logs", s.handleListActivity)
		r.Get("/users", s.handleListUsers)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		started := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("mock api request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Int("status", ww.Status()),
			logging.Duration("elapsed", time.Since(started)),
			logging.String(logging.FieldRequestID, middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

func (s *Server) timestamp() string {
	return api.FormatTimestamp(s.now())
}

func (s *Server) videoIndexLocked(id string) int {
	return slices.IndexFunc(s.videos, func(v api.Video) bool { return v.ID == id })
}

func (s *Server) accountByIDLocked(id api.UserID) (Account, bool) {
	idx := slices.IndexFunc(s.accounts, func(a Account) bool { return a.ID == id })
	if idx < 0 {
		return Account{}, false
	}
	return s.accounts[idx], true
}

func (s *Server) accountByNameLocked(username string) (Account, bool) {
	idx := slices.IndexFunc(s.accounts, func(a Account) bool { return strings.EqualFold(a.Username, username) })
	if idx < 0 {
		return Account{}, false
	}
	return s.accounts[idx], true
}

func (s *Server) recordLocked(userID api.UserID, videoID string, action api.Action) {
	entry := api.ActivityLogEntry{
		ID:        s.newID("log"),
		UserID:    userID,
		VideoID:   videoID,
		Action:    action,
		Timestamp: s.timestamp(),
	}
	if account, ok := s.accountByIDLocked(userID); ok {
		entry.Username = account.Username
	}
	if idx := s.videoIndexLocked(videoID); idx >= 0 {
		entry.VideoTitle = s.videos[idx].Title
	}
	s.activity = append(s.activity, entry)
}

// Activity returns a copy of the recorded activity, oldest first.
func (s *Server) Activity() []api.ActivityLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.activity)
}

// Assignments returns a copy of the current assignments.
func (s *Server) Assignments() []api.Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.assignments)
}
