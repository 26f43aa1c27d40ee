package handlers

import (
	"errors"

	applog "bricpa/internal/log"

	"github.com/gofiber/fiber/v2"
)

var clientMessages = map[int]string{
	fiber.StatusBadRequest:            "Requête invalide.",
	fiber.StatusNotFound:              "Page introuvable.",
	fiber.StatusMethodNotAllowed:      "Action non autorisée sur cette page.",
	fiber.StatusRequestEntityTooLarge: "Fichiers trop volumineux.",
	fiber.StatusTooManyRequests:       "Trop de requêtes. Patientez une minute avant de réessayer.",
}

// ErrorHandler logs the error and shows a friendly page without internals.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Une erreur est survenue. Merci de réessayer."
	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < 500 {
		code = fe.Code
		msg = "Requête refusée."
		if m, ok := clientMessages[code]; ok {
			msg = m
		}
	}
	if code >= 500 {
		applog.Error(c, "server.error", err, nil)
	} else {
		applog.Security(c, "request.reject", map[string]any{"code": code})
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// CSRFError is the csrf middleware's failure handler.
func CSRFError(c *fiber.Ctx, err error) error {
	applog.Security(c, "csrf.fail", map[string]any{"err": err.Error()})
	return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Contrôle de sécurité échoué. Rechargez la page et réessayez."})
}

// CSRFLocals exposes the csrf token to templates.
func CSRFLocals(c *fiber.Ctx) error {
	if tok, ok := c.Locals("csrf").(string); ok {
		c.Locals("CSRFToken", tok)
	}
	return c.Next()
}

// NotFound is the final catch-all route.
func NotFound(c *fiber.Ctx) error {
	return message(c, fiber.StatusNotFound, "Page introuvable.")
}
