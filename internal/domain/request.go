package domain

import "time"

type RequestStatus string

const RequestActive RequestStatus = "active"

// MaxPhotos bounds Request.PhotoRefs.
const MaxPhotos = 5

// Request is a work order posted by a client.
type Request struct {
	ID           int           `json:"id"`
	ClientID     string        `json:"client_id"`
	Category     string        `json:"category"`
	Description  string        `json:"description"`
	Location     string        `json:"location"`
	Urgency      Urgency       `json:"urgency"`
	Budget       string        `json:"budget"`
	PhotoRefs    []string      `json:"photo_refs"`
	AIAnalysis   string        `json:"ai_analysis"`
	AIAnalysisOK bool          `json:"ai_analysis_ok"`
	CreatedAt    time.Time     `json:"created_at"`
	Status       RequestStatus `json:"status"`
	QuoteCount   int           `json:"quote_count"`
}

func (r Request) RecordID() int { return r.ID }

func (r Request) Active() bool { return r.Status == RequestActive }

func (r Request) Urgent() bool { return r.Urgency == UrgencyUrgent }

// NewRequest holds the client-supplied fields of a Request.
type NewRequest struct {
	ClientID     string
	Category     string
	Description  string
	Location     string
	Urgency      string
	Budget       string
	PhotoRefs    []string
	AIAnalysis   string
	AIAnalysisOK bool
}

// Validate trims and checks every field, normalizing n in place.
func (n *NewRequest) Validate() error {
	ve := &ValidationError{}
	n.ClientID = trim(n.ClientID)
	if n.ClientID == "" {
		ve.Add("client_id", "missing client identifier")
	}
	if c, ok := CanonicalCategory(n.Category, RequestCategories); ok {
		n.Category = c
	} else {
		ve.Add("category", "choose a type of work")
	}
	requireText(ve, &n.Description, "description")
	requireText(ve, &n.Location, "location")
	if u, ok := ParseUrgency(n.Urgency); ok {
		n.Urgency = string(u)
	} else {
		ve.Add("urgency", "must be Normal or Urgent")
	}
	n.Budget = trim(n.Budget)
	if len(n.PhotoRefs) > MaxPhotos {
		ve.Add("photos", "at most 5 photos")
	}
	return ve.orNil()
}
