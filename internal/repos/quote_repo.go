package repos

import (
	"context"
	"time"

	"bricpa/internal/domain"
	"bricpa/internal/store"
)

type QuoteRepo struct {
	s   *store.Store
	Now func() time.Time
}

func NewQuoteRepo(s *store.Store) *QuoteRepo { return &QuoteRepo{s: s, Now: time.Now} }

func (r *QuoteRepo) All(ctx context.Context) ([]domain.Quote, error) {
	return store.Load[domain.Quote](ctx, r.s, CollQuotes)
}

func (r *QuoteRepo) AllForRequest(ctx context.Context, requestID int) ([]domain.Quote, error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.Quote{}
	for _, q := range all {
		if q.RequestID == requestID {
			out = append(out, q)
		}
	}
	return out, nil
}

// ExistsFor reports whether the craftsperson already quoted the request.
func (r *QuoteRepo) ExistsFor(ctx context.Context, requestID, craftspersonID int) (bool, error) {
	all, err := r.All(ctx)
	if err != nil {
		return false, err
	}
	for _, q := range all {
		if q.RequestID == requestID && q.CraftspersonID == craftspersonID {
			return true, nil
		}
	}
	return false, nil
}

// Create validates n and appends a sent quote. Uniqueness per
// (request, craftsperson) is the caller's check.
func (r *QuoteRepo) Create(ctx context.Context, n domain.NewQuote) (domain.Quote, error) {
	if err := n.Validate(); err != nil {
		return domain.Quote{}, err
	}
	var created domain.Quote
	err := store.Update(ctx, r.s, CollQuotes, func(all []domain.Quote) ([]domain.Quote, error) {
		created = domain.Quote{
			ID:             store.NextID(all),
			RequestID:      n.RequestID,
			CraftspersonID: n.CraftspersonID,
			Price:          n.Price,
			LeadTime:       n.LeadTime,
			Message:        n.Message,
			SentAt:         r.Now().UTC(),
			Status:         domain.QuoteSent,
		}
		return append(all, created), nil
	})
	if err != nil {
		return domain.Quote{}, err
	}
	return created, nil
}

// Counts tallies quotes per request id and per craftsperson id.
func (r *QuoteRepo) Counts(ctx context.Context) (byRequest, byCraftsperson map[int]int, err error) {
	all, err := r.All(ctx)
	if err != nil {
		return nil, nil, err
	}
	byRequest = make(map[int]int)
	byCraftsperson = make(map[int]int)
	for _, q := range all {
		byRequest[q.RequestID]++
		byCraftsperson[q.CraftspersonID]++
	}
	return byRequest, byCraftsperson, nil
}
