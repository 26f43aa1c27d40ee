package services

import (
	"context"
	"fmt"
	"sync"

	"bricpa/internal/domain"
	"bricpa/internal/repos"
)

type QuoteService struct {
	Requests *repos.RequestRepo
	Quotes   *repos.QuoteRepo
	Profiles *repos.ProfileRepo

	// mu serializes every read-check-write over the three collections.
	mu sync.Mutex
}

func NewQuoteService(reqs *repos.RequestRepo, quotes *repos.QuoteRepo, profiles *repos.ProfileRepo) *QuoteService {
	return &QuoteService{Requests: reqs, Quotes: quotes, Profiles: profiles}
}

// Submit records a quote and bumps both counters. A craftsperson may quote
// a request once. The three writes are not atomic on disk; Reconcile repairs
// counters left behind by a crash between them.
func (s *QuoteService) Submit(ctx context.Context, n domain.NewQuote) (domain.Quote, error) {
	if err := n.Validate(); err != nil {
		return domain.Quote{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.Profiles.FindByID(ctx, n.CraftspersonID); err != nil {
		return domain.Quote{}, err
	}
	req, err := s.Requests.ByID(ctx, n.RequestID)
	if err != nil {
		return domain.Quote{}, err
	}
	if !req.Active() {
		return domain.Quote{}, fmt.Errorf("request %d: %w", req.ID, domain.ErrRequestClosed)
	}
	exists, err := s.Quotes.ExistsFor(ctx, n.RequestID, n.CraftspersonID)
	if err != nil {
		return domain.Quote{}, err
	}
	if exists {
		return domain.Quote{}, fmt.Errorf("request %d by craftsperson %d: %w", n.RequestID, n.CraftspersonID, domain.ErrDuplicateQuote)
	}

	q, err := s.Quotes.Create(ctx, n)
	if err != nil {
		return domain.Quote{}, err
	}
	if err := s.Requests.IncrementQuoteCount(ctx, q.RequestID); err != nil {
		return q, fmt.Errorf("quote %d saved, request counter not updated: %w", q.ID, err)
	}
	if err := s.Profiles.IncrementQuotesSent(ctx, q.CraftspersonID); err != nil {
		return q, fmt.Errorf("quote %d saved, profile counter not updated: %w", q.ID, err)
	}
	return q, nil
}

// ReconcileReport lists the ids whose counters were rewritten.
type ReconcileReport struct {
	Requests []int
	Profiles []int
}

func (r ReconcileReport) Changed() int { return len(r.Requests) + len(r.Profiles) }

// Reconcile recomputes quote_count and quotes_sent_count from the quotes
// collection, holding off submissions while it runs.
func (s *QuoteService) Reconcile(ctx context.Context) (ReconcileReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byRequest, byCraftsperson, err := s.Quotes.Counts(ctx)
	if err != nil {
		return ReconcileReport{}, err
	}
	var rep ReconcileReport
	if rep.Requests, err = s.Requests.SetQuoteCounts(ctx, byRequest); err != nil {
		return rep, err
	}
	if rep.Profiles, err = s.Profiles.SetQuotesSent(ctx, byCraftsperson); err != nil {
		return rep, err
	}
	return rep, nil
}
