package repos

import (
	"bricpa/internal/store"
)

const (
	CollRequests = "requests"
	CollQuotes   = "quotes"
	CollProfiles = "craftsperson_profiles"
)

const requestsSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "client_id", "category", "description", "location", "urgency", "created_at", "status", "quote_count"],
    "properties": {
      "id": {"type": "integer", "minimum": 1},
      "client_id": {"type": "string"},
      "category": {"type": "string", "minLength": 1},
      "description": {"type": "string", "minLength": 1},
      "location": {"type": "string", "minLength": 1},
      "urgency": {"enum": ["Normal", "Urgent"]},
      "budget": {"type": "string"},
      "photo_refs": {"type": ["array", "null"], "maxItems": 5, "items": {"type": "string"}},
      "ai_analysis": {"type": "string"},
      "ai_analysis_ok": {"type": "boolean"},
      "created_at": {"type": "string"},
      "status": {"type": "string"},
      "quote_count": {"type": "integer", "minimum": 0}
    }
  }
}`

const quotesSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "request_id", "craftsperson_id", "price", "lead_time", "message", "sent_at", "status"],
    "properties": {
      "id": {"type": "integer", "minimum": 1},
      "request_id": {"type": "integer", "minimum": 1},
      "craftsperson_id": {"type": "integer", "minimum": 1},
      "price": {"type": "integer", "minimum": 0},
      "lead_time": {"type": "string", "minLength": 1},
      "message": {"type": "string", "minLength": 1},
      "sent_at": {"type": "string"},
      "status": {"type": "string"}
    }
  }
}`

const profilesSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["id", "session_key", "name", "trade_category", "service_area", "description", "registered_at", "quotes_sent_count"],
    "properties": {
      "id": {"type": "integer", "minimum": 1},
      "session_key": {"type": "string", "minLength": 1},
      "name": {"type": "string", "minLength": 1},
      "trade_category": {"type": "string", "minLength": 1},
      "service_area": {"type": "string", "minLength": 1},
      "description": {"type": "string", "minLength": 1},
      "phone": {"type": "string"},
      "registered_at": {"type": "string"},
      "quotes_sent_count": {"type": "integer", "minimum": 0}
    }
  }
}`

// RegisterSchemas attaches the three collection schemas to s.
func RegisterSchemas(s *store.Store) error {
	for coll, schema := range map[string]string{
		CollRequests: requestsSchema,
		CollQuotes:   quotesSchema,
		CollProfiles: profilesSchema,
	} {
		if err := s.RegisterSchema(coll, []byte(schema)); err != nil {
			return err
		}
	}
	return nil
}
