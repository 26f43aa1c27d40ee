package services

import (
	"time"

	"bricpa/internal/repos"
	"bricpa/internal/session"
)

// RoleService applies role transitions and persists the result.
type RoleService struct {
	Sessions *repos.SessionRepo
	Now      func() time.Time
}

func NewRoleService(sessions *repos.SessionRepo) *RoleService {
	return &RoleService{Sessions: sessions, Now: time.Now}
}

func (s *RoleService) Load(sid string) (session.State, error) { return s.Sessions.Get(sid) }

// Choose moves an unselected session to role.
func (s *RoleService) Choose(sid string, st session.State, role session.Role) (session.State, error) {
	var err error
	switch role {
	case session.RoleClient:
		err = st.ChooseClient(s.Now())
	case session.RoleCraftsperson:
		err = st.ChooseCraftsperson()
	default:
		err = session.ErrTransition
	}
	if err != nil {
		return st, err
	}
	return st, s.Sessions.Put(sid, st)
}

// Reset returns the session to role selection and drops its chat history.
// Stored requests and profiles stay.
func (s *RoleService) Reset(sid string) (session.State, error) {
	var st session.State
	st.Reset()
	return st, s.Sessions.Clear(sid)
}
