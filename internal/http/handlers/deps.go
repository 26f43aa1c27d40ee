package handlers

import (
	"time"

	"bricpa/internal/advisory"
	"bricpa/internal/config"
	applog "bricpa/internal/log"
	"bricpa/internal/photos"
	"bricpa/internal/repos"
	"bricpa/internal/services"
	"bricpa/internal/session"
	"bricpa/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/jmoiron/sqlx"
)

type Deps struct {
	Roles  *services.RoleService
	Quotes *services.QuoteService
	Cfg    config.Config

	RoleHandler         *RoleHandler
	ClientHandler       *ClientHandler
	CraftspersonHandler *CraftspersonHandler
	PhotoHandler        *PhotoHandler
}

func NewDeps(st *store.Store, db *sqlx.DB, ph photos.Store, adv *advisory.Advisor, cfg config.Config) *Deps {
	reqRepo := repos.NewRequestRepo(st)
	quoteRepo := repos.NewQuoteRepo(st)
	profRepo := repos.NewProfileRepo(st)
	sessRepo := repos.NewSessionRepo(db)
	chatRepo := repos.NewChatRepo(db)

	roleSvc := services.NewRoleService(sessRepo)
	reqSvc := services.NewRequestService(reqRepo, quoteRepo, profRepo, ph, adv)
	profSvc := services.NewProfileService(profRepo, reqRepo, quoteRepo, sessRepo)
	quoteSvc := services.NewQuoteService(reqRepo, quoteRepo, profRepo)
	chatSvc := services.NewAssistantService(chatRepo, adv)

	return &Deps{
		Roles:               roleSvc,
		Quotes:              quoteSvc,
		Cfg:                 cfg,
		RoleHandler:         &RoleHandler{Roles: roleSvc},
		ClientHandler:       &ClientHandler{Requests: reqSvc, Assistant: chatSvc},
		CraftspersonHandler: &CraftspersonHandler{Profiles: profSvc, Quotes: quoteSvc},
		PhotoHandler:        &PhotoHandler{Photos: ph},
	}
}

// Mount registers the session middleware and every page route on app.
// Global middleware (csrf, helmet, limiter) is the caller's.
func (d *Deps) Mount(app *fiber.App) {
	app.Get("/photos/:name", d.PhotoHandler.Serve)

	app.Use(LoadSession(d.Roles, d.Cfg.Secure))

	app.Get("/", d.RoleHandler.Home)
	app.Post("/role", d.RoleHandler.Choose)
	app.Post("/role/reset", d.RoleHandler.Reset)

	client := app.Group("/client", RequirePhase(session.Client))
	client.Get("/", d.ClientHandler.Space)
	client.Post("/requests", d.ClientHandler.PostRequest)
	askLimiter := limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|assistant"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.assistant.hit", nil)
			return message(c, fiber.StatusTooManyRequests, "Trop de questions, réessayez dans une minute.")
		},
	})
	client.Post("/assistant", askLimiter, d.ClientHandler.Ask)
	client.Post("/assistant/reset", d.ClientHandler.ResetChat)

	artisan := app.Group("/artisan", RequirePhase(session.CraftspersonUnregistered, session.CraftspersonRegistered))
	artisan.Get("/", d.CraftspersonHandler.Space)
	artisan.Post("/register", RequirePhase(session.CraftspersonUnregistered), d.CraftspersonHandler.Register)
	artisan.Post("/requests/:id/quote", RequirePhase(session.CraftspersonRegistered), d.CraftspersonHandler.SubmitQuote)
}
