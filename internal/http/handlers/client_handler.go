package handlers

import (
	"errors"
	"io"
	"strings"

	"bricpa/internal/domain"
	applog "bricpa/internal/log"
	"bricpa/internal/services"
	"bricpa/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ClientHandler struct {
	Requests  *services.RequestService
	Assistant *services.AssistantService
}

var clientTabs = map[string]bool{"new": true, "mine": true, "assistant": true}

// Space renders the client page with one of its tabs.
func (h *ClientHandler) Space(c *fiber.Ctx) error {
	tab := c.Query("tab", "new")
	if !clientTabs[tab] {
		tab = "new"
	}
	data := fiber.Map{"Form": requestForm(domain.NewRequest{Urgency: string(domain.UrgencyNormal)})}
	if id, ok := validate.ID(c.Query("posted")); ok {
		data["PostedID"] = id
	}
	return h.page(c, tab, data)
}

func (h *ClientHandler) page(c *fiber.Ctx, tab string, data fiber.Map) error {
	sid, st := current(c)
	data["Tab"] = tab
	data["Categories"] = domain.RequestCategories
	switch tab {
	case "mine":
		views, err := h.Requests.MyRequests(c.UserContext(), st.ClientID)
		if err != nil {
			applog.Error(c, "request.list", err, nil)
			return message(c, fiber.StatusInternalServerError, "Impossible de charger vos demandes.")
		}
		data["Requests"] = views
	case "assistant":
		hist, err := h.Assistant.History(sid)
		if err != nil {
			applog.Error(c, "assistant.history", err, nil)
			return message(c, fiber.StatusInternalServerError, "Impossible de charger la conversation.")
		}
		data["History"] = hist
		data["Provider"] = h.Requests.Advisor.Provider()
	}
	return render(c, "client", data)
}

// PostRequest handles the multipart new-request form.
func (h *ClientHandler) PostRequest(c *fiber.Ctx) error {
	_, st := current(c)
	n := domain.NewRequest{
		ClientID:    st.ClientID,
		Category:    c.FormValue("category"),
		Description: c.FormValue("description"),
		Location:    c.FormValue("location"),
		Urgency:     c.FormValue("urgency"),
		Budget:      c.FormValue("budget"),
	}
	uploads, err := readPhotos(c)
	if err != nil {
		applog.Security(c, "request.photos.unreadable", map[string]any{"err": err.Error()})
		return message(c, fiber.StatusBadRequest, "Les photos n'ont pas pu être lues.")
	}

	posted, err := h.Requests.Post(c.UserContext(), n, uploads)
	if ve, ok := domain.AsValidation(err); ok {
		applog.Security(c, "request.create.invalid", map[string]any{"fields": ve.Messages()})
		c.Status(fiber.StatusBadRequest)
		return h.page(c, "new", fiber.Map{
			"Errors": ve.Messages(),
			"Form":   requestForm(n),
		})
	}
	if err != nil {
		applog.Error(c, "request.create", err, nil)
		return err
	}

	fields := map[string]any{"request_id": posted.Request.ID, "photos": len(posted.Request.PhotoRefs)}
	if len(uploads) > 0 {
		fields["ai_ok"] = posted.Analysis.OK
		if !posted.Analysis.OK {
			fields["ai_reason"] = posted.Analysis.Reason
		}
	}
	applog.Audit(c, "request.create", fields)
	return c.Redirect("/client?tab=mine&posted=" + itoa(posted.Request.ID))
}

func requestForm(n domain.NewRequest) fiber.Map {
	return fiber.Map{
		"category": n.Category, "description": n.Description, "location": n.Location,
		"urgency": n.Urgency, "budget": n.Budget,
	}
}

func readPhotos(c *fiber.Ctx) ([][]byte, error) {
	if !strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	var out [][]byte
	for _, fh := range form.File["photos"] {
		if fh.Size == 0 && fh.Filename == "" {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	return out, nil
}

func (h *ClientHandler) Ask(c *fiber.Ctx) error {
	sid, _ := current(c)
	ans, err := h.Assistant.Ask(c.UserContext(), sid, c.FormValue("question"))
	if ve, ok := domain.AsValidation(err); ok {
		c.Status(fiber.StatusBadRequest)
		return h.page(c, "assistant", fiber.Map{"Errors": ve.Messages()})
	}
	if err != nil {
		applog.Error(c, "assistant.ask", err, nil)
		return err
	}
	if !ans.OK {
		applog.Error(c, "assistant.answer", errors.New(ans.Content), nil)
	} else {
		applog.Info(c, "assistant.answer", map[string]any{"chars": len(ans.Content)})
	}
	return c.Redirect("/client?tab=assistant")
}

func (h *ClientHandler) ResetChat(c *fiber.Ctx) error {
	sid, _ := current(c)
	if err := h.Assistant.Reset(sid); err != nil {
		return err
	}
	applog.Info(c, "assistant.reset", nil)
	return c.Redirect("/client?tab=assistant")
}
