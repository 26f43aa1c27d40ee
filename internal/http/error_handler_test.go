package handlers_test

import (
	"io"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"bricpa/internal/http/handlers"
)

func TestErrorHandlerFriendlyMessage(t *testing.T) {
	app := fiber.New(fiber.Config{
		Views:        handlers.NewEngine("../../web/templates"),
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(requestid.New())

	app.Get("/err", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusInternalServerError, "collection requests: corrupt: secret trace")
	})

	entries := captureLogs(t, func() {
		r, err := app.Test(httptest.NewRequest("GET", "/err", nil))
		if err != nil {
			t.Fatalf("test request failed: %v", err)
		}
		if r.StatusCode != fiber.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", r.StatusCode)
		}
		body, _ := io.ReadAll(r.Body)
		s := string(body)
		if !strings.Contains(s, "Une erreur est survenue") {
			t.Fatalf("friendly message missing; body=%s", s)
		}
		if strings.Contains(s, "corrupt") || strings.Contains(s, "secret") {
			t.Fatalf("internal details leaked to user; body=%s", s)
		}
	})
	e, ok := findLog(entries, "server.error")
	if !ok || e.Level != "error" {
		t.Fatalf("server.error entry = %+v", e)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	ta := newTestApp(t, nil)
	r := ta.browser(t).get("/nope")
	if r.status != 404 || !strings.Contains(r.body, "Page introuvable") {
		t.Fatalf("unknown route: %d %s", r.status, r.body)
	}
}

func TestErrorHandlerMessagePerStatus(t *testing.T) {
	app := fiber.New(fiber.Config{
		Views:        handlers.NewEngine("../../web/templates"),
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Get("/code/:n", func(c *fiber.Ctx) error {
		n, _ := c.ParamsInt("n")
		return fiber.NewError(n)
	})

	cases := []struct {
		code int
		want string
	}{
		{fiber.StatusBadRequest, "Requête invalide."},
		{fiber.StatusNotFound, "Page introuvable."},
		{fiber.StatusMethodNotAllowed, "Action non autorisée"},
		{fiber.StatusRequestEntityTooLarge, "Fichiers trop volumineux."},
		{fiber.StatusTooManyRequests, "Trop de requêtes."},
		{fiber.StatusTeapot, "Requête refusée."},
	}
	captureLogs(t, func() {
		for _, tc := range cases {
			r, err := app.Test(httptest.NewRequest("GET", "/code/"+strconv.Itoa(tc.code), nil))
			if err != nil {
				t.Fatal(err)
			}
			body, _ := io.ReadAll(r.Body)
			if r.StatusCode != tc.code || !strings.Contains(string(body), tc.want) {
				t.Errorf("code %d: status=%d body=%s", tc.code, r.StatusCode, body)
			}
			if tc.code != fiber.StatusNotFound && strings.Contains(string(body), "Page introuvable") {
				t.Errorf("code %d rendered as not found", tc.code)
			}
		}
	})
}
