package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"gaman_backend/internal/handler"
	"gaman_backend/internal/httputil"
	authmw "gaman_backend/internal/transport/http/middleware"
)

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	ActorHandler        *handler.ActorHandler
	FollowHandler       *handler.FollowHandler
	PostHandler         *handler.PostHandler
	CommentHandler      *handler.CommentHandler
	EventHandler        *handler.EventHandler
	NotificationHandler *handler.NotificationHandler
	MediaHandler        *handler.MediaHandler
	MembershipHandler   *handler.MembershipHandler
	JWTSecret           string
	Logger              zerolog.Logger
	HealthChecks        map[string]HealthCheck
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(authmw.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(cfg.HealthChecks))

	// Every other route needs a caller: visibility is always decided
	// relative to the requester.
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.JWTSecret))

		r.Patch("/me/privacy", cfg.ActorHandler.SetPrivacy)
		r.Post("/brands", cfg.ActorHandler.CreateBrand)
		r.Post("/clubs", cfg.ActorHandler.CreateClub)

		r.Route("/clubs/{id}", func(r chi.Router) {
			r.Get("/members", cfg.MembershipHandler.Members)
			r.Delete("/members/{userID}", cfg.MembershipHandler.RemoveMember)
			r.Post("/invitations", cfg.MembershipHandler.Invite)
		})

		r.Route("/club-invitations", func(r chi.Router) {
			r.Get("/", cfg.MembershipHandler.PendingInvitations)
			r.Post("/{id}/confirm", cfg.MembershipHandler.Confirm)
		})

		r.Route("/actors/{kind}/{id}", func(r chi.Router) {
			r.Get("/", cfg.ActorHandler.Profile)
			r.Post("/photo", cfg.ActorHandler.UploadPhoto)

			r.Get("/follow", cfg.FollowHandler.Status)
			r.Post("/follow", cfg.FollowHandler.Toggle)
			r.Get("/followers", cfg.FollowHandler.Followers)
			r.Delete("/followers/{followerID}", cfg.FollowHandler.RemoveFollower)

			r.Get("/posts", cfg.PostHandler.ListByOwner)
			r.Get("/events", cfg.EventHandler.ListByOwner)
		})

		r.Get("/users/{id}/following", cfg.FollowHandler.Following)

		r.Route("/follow-requests", func(r chi.Router) {
			r.Get("/", cfg.FollowHandler.PendingRequests)
			r.Post("/{id}/accept", cfg.FollowHandler.Accept)
			r.Delete("/{id}", cfg.FollowHandler.Withdraw)
		})

		r.Route("/posts", func(r chi.Router) {
			r.Post("/", cfg.PostHandler.Create)
			r.Get("/{id}", cfg.PostHandler.GetByID)
			r.Patch("/{id}", cfg.PostHandler.Update)
			r.Delete("/{id}", cfg.PostHandler.Delete)
			r.Post("/{id}/share", cfg.PostHandler.Share)
			r.Get("/{id}/reactions", cfg.PostHandler.Reactions)
			r.Post("/{id}/reactions", cfg.PostHandler.React)
			r.Get("/{id}/comments", cfg.CommentHandler.List)
			r.Post("/{id}/comments", cfg.CommentHandler.Create)
		})

		r.Route("/comments/{id}", func(r chi.Router) {
			r.Patch("/", cfg.CommentHandler.Update)
			r.Delete("/", cfg.CommentHandler.Delete)
			r.Post("/reactions", cfg.CommentHandler.React)
		})

		r.Route("/events", func(r chi.Router) {
			r.Post("/", cfg.EventHandler.Create)
			r.Get("/{id}", cfg.EventHandler.GetByID)
			r.Patch("/{id}", cfg.EventHandler.Update)
			r.Delete("/{id}", cfg.EventHandler.Delete)
			r.Post("/{id}/reactions", cfg.EventHandler.React)
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", cfg.NotificationHandler.List)
			r.Patch("/read", cfg.NotificationHandler.MarkRead)
		})

		// Media endpoints (direct-to-R2 uploads)
		r.Post("/media/posts/presign", cfg.MediaHandler.PresignPostUpload)
	})

	return r
}

func healthHandler(checks map[string]HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok"}
		code := http.StatusOK
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status[name] = err.Error()
				status["status"] = "degraded"
				code = http.StatusServiceUnavailable
				continue
			}
			status[name] = "ok"
		}
		httputil.WriteJSON(w, code, status)
	}
}
