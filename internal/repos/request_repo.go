package repos

import (
	"context"
	"fmt"
	"time"

	"bricpa/internal/domain"
	"bricpa/internal/store"
)

type RequestRepo struct {
	s   *store.Store
	Now func() time.Time
}

func NewRequestRepo(s *store.Store) *RequestRepo { return &RequestRepo{s: s, Now: time.Now} }

func (r *RequestRepo) All(ctx context.Context) ([]domain.Request, error) {
	return store.Load[domain.Request](ctx, r.s, CollRequests)
}

func (r *RequestRepo) ByID(ctx context.Context, id int) (domain.Request, error) {
	all, err := r.All(ctx)
	if err != nil {
		return domain.Request{}, err
	}
	for _, req := range all {
		if req.ID == id {
			return req, nil
		}
	}
	return domain.Request{}, fmt.Errorf("request %d: %w", id, domain.ErrRequestNotFound)
}

// AllByClient returns the client's requests in creation order.
func (r *RequestRepo) AllByClient(ctx context.Context, clientID string) ([]domain.Request, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.Request{}
	for _, req := range all {
		if req.ClientID == clientID {
			out = append(out, req)
		}
	}
	return out, nil
}

// AllActiveByCategory is what a craftsperson of that trade gets to see.
func (r *RequestRepo) AllActiveByCategory(ctx context.Context, category string) ([]domain.Request, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.Request{}
	for _, req := range all {
		if req.Category == category && req.Active() {
			out = append(out, req)
		}
	}
	return out, nil
}

// Create validates n and appends a new active request with no quotes.
func (r *RequestRepo) Create(ctx context.Context, n domain.NewRequest) (domain.Request, error) {
	if err := n.Validate(); err != nil {
		return domain.Request{}, err
	}
	photos := append([]string{}, n.PhotoRefs...)
	var created domain.Request
	err := store.Update(ctx, r.s, CollRequests, func(all []domain.Request) ([]domain.Request, error) {
		created = domain.Request{
			ID:           store.NextID(all),
			ClientID:     n.ClientID,
			Category:     n.Category,
			Description:  n.Description,
			Location:     n.Location,
			Urgency:      domain.Urgency(n.Urgency),
			Budget:       n.Budget,
			PhotoRefs:    photos,
			AIAnalysis:   n.AIAnalysis,
			AIAnalysisOK: n.AIAnalysisOK,
			CreatedAt:    r.Now().UTC(),
			Status:       domain.RequestActive,
			QuoteCount:   0,
		}
		return append(all, created), nil
	})
	if err != nil {
		return domain.Request{}, err
	}
	return created, nil
}

func (r *RequestRepo) IncrementQuoteCount(ctx context.Context, id int) error {
	return store.Update(ctx, r.s, CollRequests, func(all []domain.Request) ([]domain.Request, error) {
		for i := range all {
			if all[i].ID == id {
				all[i].QuoteCount++
				return all, nil
			}
		}
		return nil, fmt.Errorf("request %d: %w", id, domain.ErrRequestNotFound)
	})
}

// SetQuoteCounts overwrites quote_count from counts (missing ids mean zero)
// and reports the ids whose stored value changed.
func (r *RequestRepo) SetQuoteCounts(ctx context.Context, counts map[int]int) ([]int, error) {
	var changed []int
	err := store.Update(ctx, r.s, CollRequests, func(all []domain.Request) ([]domain.Request, error) {
		changed = changed[:0]
		for i := range all {
			if want := counts[all[i].ID]; all[i].QuoteCount != want {
				all[i].QuoteCount = want
				changed = append(changed, all[i].ID)
			}
		}
		return all, nil
	})
	return changed, err
}
