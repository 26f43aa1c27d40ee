package domain

import "strings"

// RequestCategories are the trades a client can post work for.
var RequestCategories = []string{
	"Peinture", "Plomberie", "Électricité", "Rénovation complète",
	"Fenêtres/Portes", "Sol/Carrelage", "Maçonnerie", "Menuiserie", "Autre",
}

// TradeCategories are the trades a craftsperson can register under.
var TradeCategories = []string{
	"Peinture", "Plomberie", "Électricité", "Rénovation générale",
	"Maçonnerie", "Menuiserie", "Sol/Carrelage", "Multi-services",
}

// English names accepted on input and stored as the canonical French label.
var categoryAliases = map[string]string{
	"painting":           "Peinture",
	"plumbing":           "Plomberie",
	"electrical":         "Électricité",
	"full renovation":    "Rénovation complète",
	"general renovation": "Rénovation générale",
	"windows/doors":      "Fenêtres/Portes",
	"flooring/tiling":    "Sol/Carrelage",
	"masonry":            "Maçonnerie",
	"carpentry":          "Menuiserie",
	"multi-services":     "Multi-services",
	"other":              "Autre",
}

// CanonicalCategory maps s onto one of allowed, case-insensitively and
// through the English aliases.
func CanonicalCategory(s string, allowed []string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if alias, ok := categoryAliases[strings.ToLower(s)]; ok {
		s = alias
	}
	for _, c := range allowed {
		if strings.EqualFold(c, s) {
			return c, true
		}
	}
	return "", false
}

type Urgency string

const (
	UrgencyNormal Urgency = "Normal"
	UrgencyUrgent Urgency = "Urgent"
)

// ParseUrgency defaults an empty value to Normal.
func ParseUrgency(s string) (Urgency, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "normal":
		return UrgencyNormal, true
	case "urgent":
		return UrgencyUrgent, true
	}
	return "", false
}
