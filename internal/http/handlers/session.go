package handlers

import (
	applog "bricpa/internal/log"
	"bricpa/internal/services"
	"bricpa/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const (
	localsSID   = "sid"
	localsState = "session"
)

// LoadSession makes sure the browser carries a sid cookie and puts the
// stored role state of that sid into Locals for the handlers.
func LoadSession(roles *services.RoleService, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			c.Cookie(&fiber.Cookie{Name: "sid", Value: sid, Path: "/", HTTPOnly: true, Secure: secure, SameSite: fiber.CookieSameSiteLaxMode})
		}
		st, err := roles.Load(sid)
		if err != nil {
			return err
		}
		c.Locals(localsSID, sid)
		c.Locals(localsState, st)
		c.Locals(applog.LocalsUserID, st.UserID())
		return c.Next()
	}
}

func current(c *fiber.Ctx) (string, session.State) {
	sid, _ := c.Locals(localsSID).(string)
	st, _ := c.Locals(localsState).(session.State)
	return sid, st
}

func setState(c *fiber.Ctx, st session.State) {
	c.Locals(localsState, st)
	c.Locals(applog.LocalsUserID, st.UserID())
}

// RequirePhase lets the request through only in one of the given phases;
// anything else goes back to role selection.
func RequirePhase(phases ...session.Phase) fiber.Handler {
	return func(c *fiber.Ctx) error {
		_, st := current(c)
		for _, p := range phases {
			if st.Phase() == p {
				return c.Next()
			}
		}
		applog.Security(c, "access.denied.role", map[string]any{"phase": st.Phase().String()})
		return c.Redirect("/")
	}
}
