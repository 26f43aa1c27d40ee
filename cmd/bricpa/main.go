package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"bricpa/internal/advisory"
	"bricpa/internal/config"
	"bricpa/internal/http/handlers"
	applog "bricpa/internal/log"
	"bricpa/internal/photos"
	"bricpa/internal/repos"
	"bricpa/internal/services"
	"bricpa/internal/store"
)

func main() {
	reconcileOnly := flag.Bool("reconcile", false, "recompute quote counters and exit")
	flag.Parse()
	os.Exit(run(*reconcileOnly))
}

// run returns the process exit code; deferred closes run before main exits.
func run(reconcileOnly bool) int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("[config] %v", err)
		return 1
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Printf("[store] data dir: %v", err)
		return 1
	}

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}

	st, err := openStore(cfg)
	if err != nil {
		log.Printf("[store] %v", err)
		return 1
	}
	defer st.Close()
	if err := repos.RegisterSchemas(st); err != nil {
		log.Printf("[store] %v", err)
		return 1
	}

	db, err := repos.OpenSessionDB(cfg.SessionDSN)
	if err != nil {
		log.Printf("[sessions] %v", err)
		return 1
	}
	defer db.Close()

	ph, err := openPhotos(cfg)
	if err != nil {
		log.Printf("[photos] %v", err)
		return 1
	}
	adv := advisory.New(openGenerator(cfg), cfg.AI.Timeout)

	deps := handlers.NewDeps(st, db, ph, adv, cfg)
	ok := reconcile(deps.Quotes)
	if reconcileOnly {
		if !ok {
			return 1
		}
		return 0
	}

	app := fiber.New(fiber.Config{
		Views:        handlers.NewEngine(cfg.TemplateDir),
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    cfg.MaxUpload,
		ReadTimeout:  cfg.ReadTimeout,
	})

	// ---------- Middlewares ----------
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/photos/")
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.global.hit", nil)
			return fiber.ErrTooManyRequests
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.Secure,
		ContextKey:     "csrf",
		ErrorHandler:   handlers.CSRFError,
	}))
	app.Use(handlers.CSRFLocals)

	// ---------- Static assets ----------
	log.Printf("[static] /static -> %s", cfg.StaticDir)
	app.Static("/static", cfg.StaticDir)

	// ---------- App handlers ----------
	deps.Mount(app)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true, "ai": adv.Provider(), "store": cfg.StoreBack, "photos": cfg.PhotoBack})
	})
	app.Use(handlers.NotFound)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("[server] %v", err)
		return 1
	}
	return 0
}

func openStore(cfg config.Config) (*store.Store, error) {
	if cfg.StoreBack == "badger" {
		b, err := store.OpenBadger(filepath.Join(cfg.DataDir, "badger"))
		if err != nil {
			return nil, err
		}
		return store.New(b), nil
	}
	b, err := store.NewFileBackend(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	return store.New(b), nil
}

func openPhotos(cfg config.Config) (photos.Store, error) {
	if cfg.PhotoBack == "s3" {
		return photos.NewS3Store(cfg.S3.Endpoint, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Bucket, cfg.S3.UseSSL)
	}
	return photos.NewFSStore(cfg.PhotoDir)
}

func openGenerator(cfg config.Config) advisory.Generator {
	client := &http.Client{Timeout: cfg.AI.Timeout}
	switch cfg.AI.Provider {
	case "gemini":
		g, err := advisory.NewGemini(cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel, client)
		if err == nil {
			return g
		}
		applog.Failure("advisory.init", err, map[string]any{"provider": "gemini"})
	case "ollama":
		o, err := advisory.NewOllama(cfg.AI.OllamaURL, cfg.AI.OllamaModel, client)
		if err == nil {
			return o
		}
		applog.Failure("advisory.init", err, map[string]any{"provider": "ollama"})
	}
	return advisory.Disabled{}
}

// reconcile rewrites drifted quote counters; it reports whether it succeeded.
func reconcile(q *services.QuoteService) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	rep, err := q.Reconcile(ctx)
	if err != nil {
		applog.Failure("counters.reconcile", err, nil)
		return false
	}
	applog.Event("counters.reconcile", map[string]any{"requests": rep.Requests, "profiles": rep.Profiles})
	return true
}
