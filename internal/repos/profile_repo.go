package repos

import (
	"context"
	"fmt"
	"time"

	"bricpa/internal/domain"
	"bricpa/internal/store"
)

type ProfileRepo struct {
	s   *store.Store
	Now func() time.Time
}

func NewProfileRepo(s *store.Store) *ProfileRepo { return &ProfileRepo{s: s, Now: time.Now} }

func (r *ProfileRepo) All(ctx context.Context) ([]domain.CraftspersonProfile, error) {
	return store.Load[domain.CraftspersonProfile](ctx, r.s, CollProfiles)
}

func (r *ProfileRepo) FindBySessionKey(ctx context.Context, key string) (domain.CraftspersonProfile, error) {
	all, err := r.All(ctx)
	if err != nil {
		return domain.CraftspersonProfile{}, err
	}
	if key != "" {
		for _, p := range all {
			if p.SessionKey == key {
				return p, nil
			}
		}
	}
	return domain.CraftspersonProfile{}, fmt.Errorf("session key %q: %w", key, domain.ErrProfileNotFound)
}

func (r *ProfileRepo) FindByID(ctx context.Context, id int) (domain.CraftspersonProfile, error) {
	all, err := r.All(ctx)
	if err != nil {
		return domain.CraftspersonProfile{}, err
	}
	for _, p := range all {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.CraftspersonProfile{}, fmt.Errorf("profile %d: %w", id, domain.ErrProfileNotFound)
}

// Create validates n and appends a profile with no quotes sent. A session
// key can be bound to one profile only.
func (r *ProfileRepo) Create(ctx context.Context, n domain.NewProfile) (domain.CraftspersonProfile, error) {
	if err := n.Validate(); err != nil {
		return domain.CraftspersonProfile{}, err
	}
	var created domain.CraftspersonProfile
	err := store.Update(ctx, r.s, CollProfiles, func(all []domain.CraftspersonProfile) ([]domain.CraftspersonProfile, error) {
		for _, p := range all {
			if p.SessionKey == n.SessionKey {
				ve := &domain.ValidationError{}
				ve.Add("session_key", "already registered")
				return nil, ve
			}
		}
		created = domain.CraftspersonProfile{
			ID:              store.NextID(all),
			SessionKey:      n.SessionKey,
			Name:            n.Name,
			TradeCategory:   n.TradeCategory,
			ServiceArea:     n.ServiceArea,
			Description:     n.Description,
			Phone:           n.Phone,
			RegisteredAt:    r.Now().UTC(),
			QuotesSentCount: 0,
		}
		return append(all, created), nil
	})
	if err != nil {
		return domain.CraftspersonProfile{}, err
	}
	return created, nil
}

func (r *ProfileRepo) IncrementQuotesSent(ctx context.Context, id int) error {
	return store.Update(ctx, r.s, CollProfiles, func(all []domain.CraftspersonProfile) ([]domain.CraftspersonProfile, error) {
		for i := range all {
			if all[i].ID == id {
				all[i].QuotesSentCount++
				return all, nil
			}
		}
		return nil, fmt.Errorf("profile %d: %w", id, domain.ErrProfileNotFound)
	})
}

// SetQuotesSent overwrites quotes_sent_count from counts and reports the
// ids whose stored value changed.
func (r *ProfileRepo) SetQuotesSent(ctx context.Context, counts map[int]int) ([]int, error) {
	var changed []int
	err := store.Update(ctx, r.s, CollProfiles, func(all []domain.CraftspersonProfile) ([]domain.CraftspersonProfile, error) {
		changed = changed[:0]
		for i := range all {
			if want := counts[all[i].ID]; all[i].QuotesSentCount != want {
				all[i].QuotesSentCount = want
				changed = append(changed, all[i].ID)
			}
		}
		return all, nil
	})
	return changed, err
}
