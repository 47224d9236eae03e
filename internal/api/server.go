package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"Postline/internal/models"
	"Postline/internal/ratelimit"
	"Postline/internal/service"
)

type UserService interface {
	Register(ctx context.Context, in service.RegisterInput) (*models.User, error)
	Login(ctx context.Context, in service.LoginInput) (*service.TokenResponse, error)
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type ProfileService interface {
	Create(ctx context.Context, userID int64, in service.ProfileInput) (*models.UserProfile, error)
	Get(ctx context.Context, userID int64) (*models.UserProfile, error)
	Update(ctx context.Context, userID int64, in service.ProfileUpdate) (*models.UserProfile, error)
	Delete(ctx context.Context, userID int64) (*models.UserProfile, error)
}

type PostService interface {
	Create(ctx context.Context, userID int64, in service.PostInput, up *service.Upload) (*models.Post, error)
	Update(ctx context.Context, postID int64, in service.PostInput, up *service.Upload) (*models.Post, error)
	List(ctx context.Context) ([]models.Post, error)
	Get(ctx context.Context, postID int64) (*models.Post, error)
	Delete(ctx context.Context, postID int64) (*models.Post, error)
}

type HotelService interface {
	Sync(ctx context.Context, hotelID string) (*models.Hotel, error)
}

type TaskMessageService interface {
	Fetch(ctx context.Context, taskID int64) (*models.TaskMessages, error)
}

type BroadcastService interface {
	Enqueue(ctx context.Context, in service.BroadcastInput, recipients io.Reader) (*service.BroadcastResult, error)
}

// Server wires HTTP handlers onto the services.
type Server struct {
	Users        UserService
	Profiles     ProfileService
	Posts        PostService
	Hotels       HotelService
	TaskMessages TaskMessageService
	Broadcasts   BroadcastService

	// AuthLimiter throttles register and login when set.
	AuthLimiter    ratelimit.Limiter
	MaxUploadBytes int64
	Log            *zap.Logger
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/users", func(r chi.Router) {
		if s.AuthLimiter != nil {
			r.Use(ratelimit.Middleware(s.AuthLimiter, "auth", s.Log))
		}
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", s.handleListPosts)
			r.Post("/user/{userID}", s.handleCreatePost)
			r.Get("/{postID}", s.handleGetPost)
			r.Put("/{postID}", s.handleUpdatePost)
			r.Delete("/{postID}", s.handleDeletePost)
		})

		r.Route("/profiles/{userID}", func(r chi.Router) {
			r.Post("/", s.handleCreateProfile)
			r.Get("/", s.handleGetProfile)
			r.Put("/", s.handleUpdateProfile)
			r.Delete("/", s.handleDeleteProfile)
		})

		r.Post("/emails/broadcast", s.handleBroadcast)
		r.Post("/task-messages", s.handleTaskMessages)
		r.Get("/hotels/sync/{hotelID}", s.handleSyncHotel)
	})

	return r
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}
