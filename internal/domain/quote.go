package domain

import "time"

type QuoteStatus string

const QuoteSent QuoteStatus = "sent"

// Quote is a craftsperson's priced offer against a Request.
type Quote struct {
	ID             int         `json:"id"`
	RequestID      int         `json:"request_id"`
	CraftspersonID int         `json:"craftsperson_id"`
	Price          int         `json:"price"`
	LeadTime       string      `json:"lead_time"`
	Message        string      `json:"message"`
	SentAt         time.Time   `json:"sent_at"`
	Status         QuoteStatus `json:"status"`
}

func (q Quote) RecordID() int { return q.ID }

type NewQuote struct {
	RequestID      int
	CraftspersonID int
	Price          int
	LeadTime       string
	Message        string
}

func (n *NewQuote) Validate() error {
	ve := &ValidationError{}
	if n.RequestID <= 0 {
		ve.Add("request_id", "unknown request")
	}
	if n.CraftspersonID <= 0 {
		ve.Add("craftsperson_id", "unknown craftsperson")
	}
	if n.Price < 0 {
		ve.Add("price", "must not be negative")
	}
	requireText(ve, &n.LeadTime, "lead_time")
	requireText(ve, &n.Message, "message")
	return ve.orNil()
}
