package handlers

import (
	"errors"

	applog "bricpa/internal/log"
	"bricpa/internal/services"
	"bricpa/internal/session"

	"github.com/gofiber/fiber/v2"
)

type RoleHandler struct {
	Roles *services.RoleService
}

// Home shows role selection, or sends a session that already has a role to
// its space.
func (h *RoleHandler) Home(c *fiber.Ctx) error {
	_, st := current(c)
	switch st.Phase() {
	case session.Client:
		return c.Redirect("/client")
	case session.CraftspersonUnregistered, session.CraftspersonRegistered:
		return c.Redirect("/artisan")
	}
	return render(c, "home", nil)
}

func (h *RoleHandler) Choose(c *fiber.Ctx) error {
	sid, st := current(c)
	role := session.Role(c.FormValue("role"))
	next, err := h.Roles.Choose(sid, st, role)
	if errors.Is(err, session.ErrTransition) {
		applog.Security(c, "role.choose.reject", map[string]any{"role": string(role), "phase": st.Phase().String()})
		return message(c, fiber.StatusBadRequest, "Choisissez un rôle depuis l'accueil.")
	}
	if err != nil {
		return err
	}
	setState(c, next)
	applog.Audit(c, "role.choose", map[string]any{"role": string(role)})
	return c.Redirect("/")
}

func (h *RoleHandler) Reset(c *fiber.Ctx) error {
	sid, st := current(c)
	next, err := h.Roles.Reset(sid)
	if err != nil {
		return err
	}
	applog.Audit(c, "role.reset", map[string]any{"from": st.Phase().String()})
	setState(c, next)
	return c.Redirect("/")
}
