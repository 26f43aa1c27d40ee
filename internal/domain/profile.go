package domain

import "time"

// CraftspersonProfile is a registered service provider bound to a session key.
type CraftspersonProfile struct {
	ID              int       `json:"id"`
	SessionKey      string    `json:"session_key"`
	Name            string    `json:"name"`
	TradeCategory   string    `json:"trade_category"`
	ServiceArea     string    `json:"service_area"`
	Description     string    `json:"description"`
	Phone           string    `json:"phone"`
	RegisteredAt    time.Time `json:"registered_at"`
	QuotesSentCount int       `json:"quotes_sent_count"`
}

func (p CraftspersonProfile) RecordID() int { return p.ID }

// ResponseRate is the dashboard's engagement figure: ten points per quote, capped at 100.
func (p CraftspersonProfile) ResponseRate() int {
	return min(100, p.QuotesSentCount*10)
}

type NewProfile struct {
	SessionKey    string
	Name          string
	TradeCategory string
	ServiceArea   string
	Description   string
	Phone         string
}

func (n *NewProfile) Validate() error {
	ve := &ValidationError{}
	n.SessionKey = trim(n.SessionKey)
	if n.SessionKey == "" {
		ve.Add("session_key", "missing session key")
	}
	requireText(ve, &n.Name, "name")
	if c, ok := CanonicalCategory(n.TradeCategory, TradeCategories); ok {
		n.TradeCategory = c
	} else {
		ve.Add("trade_category", "choose a trade")
	}
	requireText(ve, &n.ServiceArea, "service_area")
	requireText(ve, &n.Description, "description")
	n.Phone = trim(n.Phone)
	return ve.orNil()
}
