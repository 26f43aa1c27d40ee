package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"bricpa/internal/advisory"
	"bricpa/internal/domain"
	"bricpa/internal/photos"
	"bricpa/internal/repos"
)

// UnknownCraftsperson labels a quote whose profile cannot be found.
const UnknownCraftsperson = "Artisan"

type RequestService struct {
	Requests *repos.RequestRepo
	Quotes   *repos.QuoteRepo
	Profiles *repos.ProfileRepo
	Photos   photos.Store
	Advisor  *advisory.Advisor
	Now      func() time.Time
}

func NewRequestService(reqs *repos.RequestRepo, quotes *repos.QuoteRepo, profiles *repos.ProfileRepo, ph photos.Store, adv *advisory.Advisor) *RequestService {
	return &RequestService{Requests: reqs, Quotes: quotes, Profiles: profiles, Photos: ph, Advisor: adv, Now: time.Now}
}

// Posted is the outcome of a successful Post. Analysis is the zero Result
// when no photo was supplied.
type Posted struct {
	Request  domain.Request
	Analysis advisory.Result
}

// Post validates the form and the photos, stores the photos, analyses the
// first one and creates the request. Nothing is written when validation fails.
func (s *RequestService) Post(ctx context.Context, n domain.NewRequest, uploads [][]byte) (Posted, error) {
	check := n
	ve := &domain.ValidationError{}
	if err := check.Validate(); err != nil {
		if v, ok := domain.AsValidation(err); ok {
			ve = v
		} else {
			return Posted{}, err
		}
	}
	if len(uploads) > domain.MaxPhotos {
		if !ve.Has("photos") {
			ve.Add("photos", "at most 5 photos")
		}
	}
	exts := make([]string, 0, len(uploads))
	mimes := make([]string, 0, len(uploads))
	for _, data := range uploads {
		ext, mime, err := photos.Sniff(data)
		if err != nil {
			if !ve.Has("photos") {
				ve.Add("photos", "only jpg and png photos are accepted")
			}
			continue
		}
		exts = append(exts, ext)
		mimes = append(mimes, mime)
	}
	if len(ve.Fields) > 0 {
		return Posted{}, ve
	}

	names := photos.Names(s.Now(), exts)
	stored := make([]string, 0, len(names))
	for i, name := range names {
		if err := s.Photos.Put(ctx, name, uploads[i], mimes[i]); err != nil {
			s.dropPhotos(ctx, stored)
			return Posted{}, fmt.Errorf("store photo: %w", err)
		}
		stored = append(stored, name)
	}

	var analysis advisory.Result
	if len(uploads) > 0 {
		analysis = s.Advisor.AnalyzeJobPhoto(ctx, advisory.Image{MIME: mimes[0], Data: uploads[0]}, check.Category)
		n.AIAnalysis = analysis.Text
		n.AIAnalysisOK = analysis.OK
	}
	n.PhotoRefs = stored

	req, err := s.Requests.Create(ctx, n)
	if err != nil {
		s.dropPhotos(ctx, stored)
		return Posted{}, err
	}
	return Posted{Request: req, Analysis: analysis}, nil
}

func (s *RequestService) dropPhotos(ctx context.Context, names []string) {
	for _, name := range names {
		_ = s.Photos.Delete(ctx, name)
	}
}

// ReceivedQuote is a quote as shown to the client who owns the request.
type ReceivedQuote struct {
	domain.Quote
	CraftspersonName string
}

type RequestView struct {
	domain.Request
	Quotes []ReceivedQuote
}

// MyRequests lists a client's requests newest first, each with its quotes.
func (s *RequestService) MyRequests(ctx context.Context, clientID string) ([]RequestView, error) {
	reqs, err := s.Requests.AllByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	quotes, err := s.Quotes.All(ctx)
	if err != nil {
		return nil, err
	}
	profiles, err := s.Profiles.All(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[int]string, len(profiles))
	for _, p := range profiles {
		names[p.ID] = p.Name
	}
	byRequest := make(map[int][]ReceivedQuote)
	for _, q := range quotes {
		name, ok := names[q.CraftspersonID]
		if !ok {
			name = UnknownCraftsperson
		}
		byRequest[q.RequestID] = append(byRequest[q.RequestID], ReceivedQuote{Quote: q, CraftspersonName: name})
	}

	out := make([]RequestView, 0, len(reqs))
	for _, r := range reqs {
		out = append(out, RequestView{Request: r, Quotes: byRequest[r.ID]})
	}
	newestFirst(out, func(v RequestView) (time.Time, int) { return v.CreatedAt, v.ID })
	return out, nil
}

func newestFirst[T any](xs []T, key func(T) (time.Time, int)) {
	sort.SliceStable(xs, func(i, j int) bool {
		ti, idi := key(xs[i])
		tj, idj := key(xs[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return idi > idj
	})
}
