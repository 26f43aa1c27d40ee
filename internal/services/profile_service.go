package services

import (
	"context"
	"fmt"
	"time"

	"bricpa/internal/domain"
	applog "bricpa/internal/log"
	"bricpa/internal/repos"
	"bricpa/internal/session"
)

type ProfileService struct {
	Profiles *repos.ProfileRepo
	Requests *repos.RequestRepo
	Quotes   *repos.QuoteRepo
	Sessions *repos.SessionRepo
	Now      func() time.Time
}

func NewProfileService(profiles *repos.ProfileRepo, reqs *repos.RequestRepo, quotes *repos.QuoteRepo, sessions *repos.SessionRepo) *ProfileService {
	return &ProfileService{Profiles: profiles, Requests: reqs, Quotes: quotes, Sessions: sessions, Now: time.Now}
}

// Register creates a profile under a fresh session key and binds the
// session to it. The binding is permanent for that session.
func (s *ProfileService) Register(ctx context.Context, sid string, st session.State, n domain.NewProfile) (domain.CraftspersonProfile, session.State, error) {
	if st.Phase() != session.CraftspersonUnregistered {
		return domain.CraftspersonProfile{}, st, fmt.Errorf("register: %w", session.ErrTransition)
	}
	n.SessionKey = session.NewProfileKey(s.Now())
	p, err := s.Profiles.Create(ctx, n)
	if err != nil {
		return domain.CraftspersonProfile{}, st, err
	}
	if err := st.BindProfile(p.SessionKey); err != nil {
		return domain.CraftspersonProfile{}, st, err
	}
	if err := s.Sessions.Put(sid, st); err != nil {
		// the profile exists but no session points at it
		applog.Failure("profile.bind", err, map[string]any{"profile_id": p.ID, "session_key": p.SessionKey})
		return domain.CraftspersonProfile{}, st, fmt.Errorf("bind session: %w", err)
	}
	return p, st, nil
}

type MatchingRequest struct {
	domain.Request
	AlreadyQuoted bool
}

type Dashboard struct {
	Profile      domain.CraftspersonProfile
	Requests     []MatchingRequest
	Available    int
	QuotesSent   int
	ResponseRate int
}

// Dashboard gathers what the craftsperson bound to key sees: active
// requests of their trade, newest first, and their counters.
func (s *ProfileService) Dashboard(ctx context.Context, key string) (Dashboard, error) {
	p, err := s.Profiles.FindBySessionKey(ctx, key)
	if err != nil {
		return Dashboard{}, err
	}
	reqs, err := s.Requests.AllActiveByCategory(ctx, p.TradeCategory)
	if err != nil {
		return Dashboard{}, err
	}
	quotes, err := s.Quotes.All(ctx)
	if err != nil {
		return Dashboard{}, err
	}
	quoted := make(map[int]bool)
	for _, q := range quotes {
		if q.CraftspersonID == p.ID {
			quoted[q.RequestID] = true
		}
	}
	out := make([]MatchingRequest, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, MatchingRequest{Request: r, AlreadyQuoted: quoted[r.ID]})
	}
	newestFirst(out, func(m MatchingRequest) (time.Time, int) { return m.CreatedAt, m.ID })

	return Dashboard{
		Profile:      p,
		Requests:     out,
		Available:    len(out),
		QuotesSent:   p.QuotesSentCount,
		ResponseRate: p.ResponseRate(),
	}, nil
}
