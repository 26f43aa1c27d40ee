package handlers

import (
	"errors"
	"strconv"

	"bricpa/internal/domain"
	applog "bricpa/internal/log"
	"bricpa/internal/services"
	"bricpa/internal/session"
	"bricpa/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type CraftspersonHandler struct {
	Profiles *services.ProfileService
	Quotes   *services.QuoteService
}

func itoa(n int) string { return strconv.Itoa(n) }

// Space shows the registration form or, once registered, the dashboard.
func (h *CraftspersonHandler) Space(c *fiber.Ctx) error {
	_, st := current(c)
	if st.Phase() == session.CraftspersonUnregistered {
		return h.registerForm(c, profileForm(domain.NewProfile{}), nil)
	}
	data := fiber.Map{}
	if id, ok := validate.ID(c.Query("sent")); ok {
		data["SentFor"] = id
	}
	return h.dashboard(c, data)
}

func profileForm(n domain.NewProfile) fiber.Map {
	return fiber.Map{
		"name": n.Name, "trade_category": n.TradeCategory, "service_area": n.ServiceArea,
		"description": n.Description, "phone": n.Phone,
	}
}

func (h *CraftspersonHandler) registerForm(c *fiber.Ctx, form fiber.Map, errs map[string]string) error {
	return render(c, "register", fiber.Map{"Trades": domain.TradeCategories, "Form": form, "Errors": errs})
}

func (h *CraftspersonHandler) dashboard(c *fiber.Ctx, data fiber.Map) error {
	_, st := current(c)
	d, err := h.Profiles.Dashboard(c.UserContext(), st.ProfileKey)
	if errors.Is(err, domain.ErrProfileNotFound) {
		applog.Security(c, "profile.missing", map[string]any{"key": st.ProfileKey})
		return message(c, fiber.StatusNotFound, "Profil introuvable. Revenez à l'accueil pour recommencer.")
	}
	if err != nil {
		applog.Error(c, "dashboard.load", err, nil)
		return message(c, fiber.StatusInternalServerError, "Impossible de charger le tableau de bord.")
	}
	data["Dash"] = d
	if _, ok := data["QuoteFor"]; !ok {
		data["QuoteFor"] = 0
	}
	return render(c, "dashboard", data)
}

func (h *CraftspersonHandler) Register(c *fiber.Ctx) error {
	sid, st := current(c)
	n := domain.NewProfile{
		Name:          c.FormValue("name"),
		TradeCategory: c.FormValue("trade_category"),
		ServiceArea:   c.FormValue("service_area"),
		Description:   c.FormValue("description"),
		Phone:         c.FormValue("phone"),
	}
	phone, phoneOK := validate.Phone(n.Phone)
	n.Phone = phone
	form := profileForm(n)
	if !phoneOK {
		applog.Security(c, "profile.register.invalid", map[string]any{"fields": []string{"phone"}})
		return h.registerForm(c.Status(fiber.StatusBadRequest), form, map[string]string{"phone": "numéro invalide"})
	}

	p, next, err := h.Profiles.Register(c.UserContext(), sid, st, n)
	if ve, ok := domain.AsValidation(err); ok {
		applog.Security(c, "profile.register.invalid", map[string]any{"fields": ve.Messages()})
		return h.registerForm(c.Status(fiber.StatusBadRequest), form, ve.Messages())
	}
	if errors.Is(err, session.ErrTransition) {
		applog.Security(c, "profile.register.reject", map[string]any{"phase": st.Phase().String()})
		return c.Redirect("/artisan")
	}
	if err != nil {
		applog.Error(c, "profile.register", err, nil)
		return err
	}
	setState(c, next)
	applog.Audit(c, "profile.register", map[string]any{"profile_id": p.ID, "trade": p.TradeCategory})
	return c.Redirect("/artisan")
}

// SubmitQuote handles the quote form under one matching request.
func (h *CraftspersonHandler) SubmitQuote(c *fiber.Ctx) error {
	_, st := current(c)
	reqID, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "quote.bad_request_id", map[string]any{"id": c.Params("id")})
		return message(c, fiber.StatusNotFound, "Demande introuvable.")
	}
	p, err := h.Profiles.Profiles.FindBySessionKey(c.UserContext(), st.ProfileKey)
	if err != nil {
		applog.Security(c, "profile.missing", map[string]any{"key": st.ProfileKey})
		return message(c, fiber.StatusNotFound, "Profil introuvable.")
	}

	price, priceOK := validate.Price(c.FormValue("price"))
	n := domain.NewQuote{
		RequestID: reqID, CraftspersonID: p.ID, Price: price,
		LeadTime: c.FormValue("lead_time"), Message: c.FormValue("message"),
	}
	ve := &domain.ValidationError{}
	if !priceOK {
		ve.Add("price", "montant entier positif attendu")
	}
	if v, isVE := domain.AsValidation(n.Validate()); isVE {
		ve.Fields = append(ve.Fields, v.Fields...)
	}
	var q domain.Quote
	if len(ve.Fields) == 0 {
		q, err = h.Quotes.Submit(c.UserContext(), n)
		if v, isVE := domain.AsValidation(err); isVE {
			ve = v
		}
	}
	if len(ve.Fields) > 0 {
		applog.Security(c, "quote.submit.invalid", map[string]any{"request_id": reqID, "fields": ve.Messages()})
		c.Status(fiber.StatusBadRequest)
		return h.dashboard(c, fiber.Map{"QuoteErrors": ve.Messages(), "QuoteFor": reqID})
	}
	switch {
	case errors.Is(err, domain.ErrDuplicateQuote):
		applog.Security(c, "quote.submit.duplicate", map[string]any{"request_id": reqID})
		c.Status(fiber.StatusConflict)
		return h.dashboard(c, fiber.Map{"Flash": "Vous avez déjà envoyé un devis pour cette demande."})
	case errors.Is(err, domain.ErrRequestNotFound), errors.Is(err, domain.ErrRequestClosed):
		applog.Security(c, "quote.submit.unavailable", map[string]any{"request_id": reqID})
		return message(c, fiber.StatusNotFound, "Cette demande n'est plus disponible.")
	case err != nil:
		applog.Error(c, "quote.submit", err, map[string]any{"request_id": reqID})
		return err
	}
	applog.Audit(c, "quote.submit", map[string]any{"quote_id": q.ID, "request_id": reqID, "price": q.Price})
	return c.Redirect("/artisan?sent=" + itoa(reqID))
}
