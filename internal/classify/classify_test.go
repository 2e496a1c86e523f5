package classify_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mydehq/mediasort/internal/classify"
	"github.com/mydehq/mediasort/internal/types"
)

// stubResolver returns canned matches per media type.
type stubResolver struct {
	matches map[types.MediaType]*types.MetadataMatch
	errs    map[types.MediaType]error
	calls   []types.MediaType
}

func (s *stubResolver) Resolve(ctx context.Context, cand types.ParsedCandidate, mediaType types.MediaType) (*types.MetadataMatch, error) {
	s.calls = append(s.calls, mediaType)
	if err := s.errs[mediaType]; err != nil {
		return nil, err
	}
	m := s.matches[mediaType]
	if m == nil {
		return nil, types.ErrNoMatch{Term: cand.NormalizedTitle}
	}
	return m, nil
}

func TestClassifyForcedWins(t *testing.T) {
	res := &stubResolver{}
	cand := types.ParsedCandidate{NormalizedTitle: "the wire", TypeHint: types.MediaTypeTV}

	mediaType, match, err := classify.Classify(context.Background(), cand, types.MediaTypeMovie, res)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if mediaType != types.MediaTypeMovie {
		t.Errorf("mediaType = %q; want movie despite tv hint", mediaType)
	}
	if match != nil {
		t.Errorf("match = %+v; want nil for forced type", match)
	}
	if len(res.calls) != 0 {
		t.Errorf("resolver called %d times; want 0", len(res.calls))
	}
}

func TestClassifyHintTrusted(t *testing.T) {
	res := &stubResolver{}
	cand := types.ParsedCandidate{NormalizedTitle: "inception", TypeHint: types.MediaTypeMovie}

	mediaType, _, err := classify.Classify(context.Background(), cand, types.MediaTypeUnknown, res)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if mediaType != types.MediaTypeMovie {
		t.Errorf("mediaType = %q; want movie", mediaType)
	}
	if len(res.calls) != 0 {
		t.Errorf("resolver called %d times; want 0 when hint present", len(res.calls))
	}
}

func TestClassifyAmbiguousComparesScores(t *testing.T) {
	res := &stubResolver{
		matches: map[types.MediaType]*types.MetadataMatch{
			types.MediaTypeMovie: {Title: "Fargo", Type: types.MediaTypeMovie, Score: 0.7},
			types.MediaTypeTV:    {Title: "Fargo", Type: types.MediaTypeTV, Score: 0.9},
		},
	}
	cand := types.ParsedCandidate{NormalizedTitle: "fargo", TypeHint: types.MediaTypeUnknown}

	mediaType, match, err := classify.Classify(context.Background(), cand, types.MediaTypeUnknown, res)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if mediaType != types.MediaTypeTV {
		t.Errorf("mediaType = %q; want tv", mediaType)
	}
	if match == nil || match.Score != 0.9 {
		t.Errorf("match = %+v; want the winning tv match", match)
	}
	if len(res.calls) != 2 {
		t.Errorf("resolver called %d times; want both domains", len(res.calls))
	}
}

func TestClassifyBothLookupsFailed(t *testing.T) {
	lookupErr := types.ErrProvider{Provider: "tmdb", Kind: types.ProviderErrHTTP}
	res := &stubResolver{
		errs: map[types.MediaType]error{
			types.MediaTypeMovie: lookupErr,
			types.MediaTypeTV:    lookupErr,
		},
	}
	cand := types.ParsedCandidate{NormalizedTitle: "ghost", TypeHint: types.MediaTypeUnknown}

	mediaType, _, err := classify.Classify(context.Background(), cand, types.MediaTypeUnknown, res)
	if mediaType != types.MediaTypeUnknown {
		t.Errorf("mediaType = %q; want unknown", mediaType)
	}
	var provErr types.ErrProvider
	if !errors.As(err, &provErr) {
		t.Errorf("err = %v; want the lookup failure surfaced", err)
	}
}

func TestDecide(t *testing.T) {
	movie := &types.MetadataMatch{Type: types.MediaTypeMovie, Score: 0.8}
	tv := &types.MetadataMatch{Type: types.MediaTypeTV, Score: 0.8}
	tvBetter := &types.MetadataMatch{Type: types.MediaTypeTV, Score: 0.95}

	tests := []struct {
		name  string
		movie *types.MetadataMatch
		tv    *types.MetadataMatch
		want  types.MediaType
		ok    bool
	}{
		{"both absent", nil, nil, types.MediaTypeUnknown, false},
		{"movie only", movie, nil, types.MediaTypeMovie, true},
		{"tv only", nil, tv, types.MediaTypeTV, true},
		{"tv scores higher", movie, tvBetter, types.MediaTypeTV, true},
		{"exact tie", movie, tv, types.MediaTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := classify.Decide(tt.movie, tt.tv)
			if got != tt.want || ok != tt.ok {
				t.Errorf("Decide() = (%q, %v); want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}
}
