// Package session holds the role state of one browser session.
//
//	Unselected ─► Client
//	Unselected ─► CraftspersonUnregistered ─► CraftspersonRegistered
//	any        ─► Unselected (Reset)
package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrTransition = errors.New("role change not allowed from this state")

type Role string

const (
	RoleNone         Role = ""
	RoleClient       Role = "client"
	RoleCraftsperson Role = "craftsperson"
)

type Phase int

const (
	Unselected Phase = iota
	Client
	CraftspersonUnregistered
	CraftspersonRegistered
)

func (p Phase) String() string {
	switch p {
	case Client:
		return "client"
	case CraftspersonUnregistered:
		return "craftsperson_unregistered"
	case CraftspersonRegistered:
		return "craftsperson_registered"
	}
	return "unselected"
}

// State is what a session remembers between requests.
type State struct {
	Role       Role   `db:"role"`
	ClientID   string `db:"client_id"`
	ProfileKey string `db:"profile_key"`
}

func (s State) Phase() Phase {
	switch s.Role {
	case RoleClient:
		return Client
	case RoleCraftsperson:
		if s.ProfileKey != "" {
			return CraftspersonRegistered
		}
		return CraftspersonUnregistered
	}
	return Unselected
}

// ChooseClient assigns a fresh client identifier derived from now.
func (s *State) ChooseClient(now time.Time) error {
	if s.Phase() != Unselected {
		return fmt.Errorf("%w: %s -> client", ErrTransition, s.Phase())
	}
	s.Role = RoleClient
	s.ClientID = stampID("client", now)
	return nil
}

func (s *State) ChooseCraftsperson() error {
	if s.Phase() != Unselected {
		return fmt.Errorf("%w: %s -> craftsperson", ErrTransition, s.Phase())
	}
	s.Role = RoleCraftsperson
	return nil
}

// BindProfile records the session key of a freshly registered profile.
func (s *State) BindProfile(key string) error {
	if s.Phase() != CraftspersonUnregistered {
		return fmt.Errorf("%w: %s -> craftsperson_registered", ErrTransition, s.Phase())
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: empty profile key", ErrTransition)
	}
	s.ProfileKey = key
	return nil
}

// Reset forgets everything. Stored profiles are untouched.
func (s *State) Reset() { *s = State{} }

// UserID is the identifier logged for this session.
func (s State) UserID() string {
	if s.ClientID != "" {
		return s.ClientID
	}
	return s.ProfileKey
}

// NewProfileKey mints the session key a craftsperson profile is bound by.
func NewProfileKey(now time.Time) string { return stampID("craftsperson", now) }

// stampID is prefix_YYYYMMDDhhmmss_xxxxxxxx; the random tail keeps two
// sessions created in the same second apart.
func stampID(prefix string, now time.Time) string {
	return prefix + "_" + now.UTC().Format("20060102150405") + "_" + uuid.NewString()[:8]
}
