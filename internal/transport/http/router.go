package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/taptone-api/internal/application/auth"
	"github.com/taptone-api/internal/application/claim"
	"github.com/taptone-api/internal/application/command"
	"github.com/taptone-api/internal/application/event"
	"github.com/taptone-api/internal/application/kiosk"
	"github.com/taptone-api/internal/application/playlist"
	"github.com/taptone-api/internal/application/session"
	"github.com/taptone-api/internal/application/song"
	"github.com/taptone-api/internal/application/tag"
	"github.com/taptone-api/internal/application/user"
	"github.com/taptone-api/internal/config"
	"github.com/taptone-api/internal/domain"
	googleinfra "github.com/taptone-api/internal/infrastructure/google"
	jwtinfra "github.com/taptone-api/internal/infrastructure/jwt"
	"github.com/taptone-api/internal/infrastructure/smtp"
	"github.com/taptone-api/internal/infrastructure/sns"
	"github.com/taptone-api/internal/transport/http/handler"
	appmiddleware "github.com/taptone-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo         UserRepository
	SessionRepo      SessionRepository
	DeviceRepo       DeviceRepository
	ClaimCodeRepo    ClaimCodeRepository
	CommandRepo      CommandRepository
	TagRepo          TagRepository
	PlaylistRepo     PlaylistRepository
	SongRepo         SongRepository
	PurchaseRepo     PurchaseRepository
	VerificationRepo VerificationRepository
	S3Store          ObjectStore
	Mailer           smtp.Mailer
	SMSSender        sns.SMSSender
	GoogleVerifier   *googleinfra.Verifier
	JWTProvider      *jwtinfra.Provider
	Logger           *slog.Logger
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	// Kiosks poll every few seconds; hardware endpoints get more headroom.
	hardwareRL := appmiddleware.NewRateLimiter(rate.Limit(20), 40)

	sessionDeps := session.ServiceDeps{
		SessionRepo:     deps.SessionRepo,
		UserRepo:        deps.UserRepo,
		JWTProvider:     deps.JWTProvider,
		RefreshTokenDur: cfg.RefreshTokenDur,
	}
	// A nil *Verifier must not end up inside the interface field, or the
	// nil check in the service would pass a typed nil.
	if deps.GoogleVerifier != nil {
		sessionDeps.GoogleVerifier = deps.GoogleVerifier
	}
	sessionSvc := session.NewService(sessionDeps)
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:    deps.UserRepo,
		SessionRepo: deps.SessionRepo,
	})
	authSvc := auth.NewService(auth.ServiceDeps{
		VerificationRepo: deps.VerificationRepo,
		UserRepo:         deps.UserRepo,
		SessionRepo:      deps.SessionRepo,
		Mailer:           deps.Mailer,
		SMSSender:        deps.SMSSender,
		JWTProvider:      deps.JWTProvider,
		RefreshTokenDur:  cfg.RefreshTokenDur,
		Logger:           deps.Logger,
	})
	kioskSvc := kiosk.NewService(kiosk.ServiceDeps{
		DeviceRepo:    deps.DeviceRepo,
		CommandRepo:   deps.CommandRepo,
		ClaimCodeRepo: deps.ClaimCodeRepo,
		Logger:        deps.Logger,
	})
	claimSvc := claim.NewService(claim.ServiceDeps{
		ClaimCodeRepo: deps.ClaimCodeRepo,
		DeviceRepo:    deps.DeviceRepo,
		Logger:        deps.Logger,
	})
	commandSvc := command.NewService(command.ServiceDeps{
		CommandRepo: deps.CommandRepo,
		DeviceRepo:  deps.DeviceRepo,
		Logger:      deps.Logger,
	})
	eventSvc := event.NewService(event.ServiceDeps{
		Commands:   commandSvc,
		TagRepo:    deps.TagRepo,
		DeviceRepo: deps.DeviceRepo,
		Logger:     deps.Logger,
	})
	tagSvc := tag.NewService(tag.ServiceDeps{
		TagRepo:      deps.TagRepo,
		PlaylistRepo: deps.PlaylistRepo,
		SongRepo:     deps.SongRepo,
		FileStore:    deps.S3Store,
		StreamURLTTL: cfg.StreamURLTTL,
		Logger:       deps.Logger,
	})
	playlistSvc := playlist.NewService(playlist.ServiceDeps{
		PlaylistRepo: deps.PlaylistRepo,
		PurchaseRepo: deps.PurchaseRepo,
	})
	songSvc := song.NewService(song.ServiceDeps{
		SongRepo:     deps.SongRepo,
		PurchaseRepo: deps.PurchaseRepo,
		FileStore:    deps.S3Store,
		StreamURLTTL: cfg.StreamURLTTL,
		Logger:       deps.Logger,
	})

	healthH := handler.NewHealthHandler()
	sessionH := handler.NewSessionHandler(sessionSvc)
	userH := handler.NewUserHandler(userSvc)
	pwH := handler.NewPasswordRecoveryHandler(authSvc)
	emailH := handler.NewEmailConfirmHandler(authSvc)
	phoneH := handler.NewPhoneConfirmHandler(authSvc)
	deviceH := handler.NewDeviceHandler(kioskSvc, claimSvc)
	eventH := handler.NewEventHandler(eventSvc)
	hardwareH := handler.NewHardwareHandler(kioskSvc, claimSvc, commandSvc, tagSvc)
	tagH := handler.NewTagHandler(tagSvc)
	playlistH := handler.NewPlaylistHandler(playlistSvc)
	songH := handler.NewSongHandler(songSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.With(sensitiveRL.Limit).Post("/sessions/google", sessionH.LoginWithGoogle)
		r.Post("/sessions/refresh", sessionH.Refresh)
		r.With(sensitiveRL.Limit).Post("/users", userH.Register)
		r.With(sensitiveRL.Limit).Post("/password-recovery/{action}", pwH.Action)

		// ── Hardware routes (kiosk protocol, no user session) ────────────────
		r.Route("/hardware", func(r chi.Router) {
			r.Use(hardwareRL.Limit)

			r.Post("/devices/register", hardwareH.Register)
			r.Post("/devices/{id}/heartbeat", hardwareH.Heartbeat)
			r.Post("/devices/{id}/claim-code", hardwareH.ClaimCode)
			r.Get("/devices/{id}/commands", hardwareH.Commands)
			r.Post("/commands/{id}/ack", hardwareH.Ack)
			r.Get("/sync/{tagUID}", hardwareH.Sync)
		})

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/sessions", sessionH.GetCurrent)
			r.Post("/sessions/logout", sessionH.Logout)

			r.Get("/users/{id}", userH.Get)
			r.Put("/users/{id}", userH.Update)
			r.Post("/users/change-password", userH.ChangePassword)
			r.Post("/password-recovery/change-password", pwH.ChangePassword)
			r.Post("/confirm-email/{action}", emailH.Action)
			r.Post("/confirm-phone/{action}", phoneH.Action)

			r.Get("/devices", deviceH.List)
			r.Post("/devices/claim", deviceH.Claim)
			r.Put("/devices/{id}", deviceH.Rename)
			r.Delete("/devices/{id}", deviceH.Delete)

			r.Post("/events/nfc", eventH.NFC)
			r.Post("/events/button", eventH.Button)
			r.Post("/events/encoder", eventH.Encoder)

			r.Get("/tags", tagH.List)
			r.Post("/tags", tagH.Register)
			r.Put("/tags/{uid}", tagH.Rename)
			r.Put("/tags/{uid}/playlist", tagH.SetPlaylist)
			r.Delete("/tags/{uid}", tagH.Delete)

			r.Get("/playlists", playlistH.List)
			r.Post("/playlists", playlistH.Create)
			r.Get("/playlists/{id}", playlistH.Get)
			r.Put("/playlists/{id}", playlistH.Rename)
			r.Put("/playlists/{id}/songs", playlistH.SetSongs)
			r.Delete("/playlists/{id}", playlistH.Delete)

			r.Get("/songs", songH.Catalog)
			r.Get("/songs/{id}", songH.Get)
			r.Post("/songs/{id}/purchase", songH.Purchase)
			r.Get("/collection", songH.Collection)
			r.Get("/songs/{id}/stream", songH.Stream)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))

				r.Get("/users", userH.List)
				r.Delete("/users/{id}", userH.Delete)

				r.Post("/songs", songH.Upload)
				r.Put("/songs/{id}", songH.Update)
				r.Delete("/songs/{id}", songH.Delete)
			})
		})
	})

	return r
}
