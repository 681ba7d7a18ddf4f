package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clipforge/config"
	"clipforge/internal/mocks"
	"clipforge/internal/types"
)

func TestResolveOverlapsKeepsDisjointDropsConflicting(t *testing.T) {
	// b overlaps both a and c; a and c are disjoint. b wins on score, so a
	// and c must both go regardless of their mutual compatibility order.
	candidates := map[string]types.Candidate{
		"a": {Start: 0, End: 30, Score: 80},
		"b": {Start: 25, End: 55, Score: 90},
		"c": {Start: 50, End: 80, Score: 70},
	}

	kept := ResolveOverlaps(candidates)
	require.Len(t, kept, 1)
	assert.Contains(t, kept, "b")

	// Flip the scores: a and c now outrank b and survive together.
	candidates["a"] = types.Candidate{Start: 0, End: 30, Score: 95}
	candidates["c"] = types.Candidate{Start: 50, End: 80, Score: 92}
	kept = ResolveOverlaps(candidates)
	require.Len(t, kept, 2)
	assert.Contains(t, kept, "a")
	assert.Contains(t, kept, "c")
}

func TestResolveOverlapsToleratesSmallOverlap(t *testing.T) {
	// 0.4s of true overlap is under the tolerance; both stay.
	candidates := map[string]types.Candidate{
		"first":  {Start: 0, End: 30.4, Score: 50},
		"second": {Start: 30, End: 60, Score: 40},
	}
	kept := ResolveOverlaps(candidates)
	assert.Len(t, kept, 2)

	// 0.6s of overlap is over it; the lower score goes.
	candidates["first"] = types.Candidate{Start: 0, End: 30.6, Score: 50}
	kept = ResolveOverlaps(candidates)
	require.Len(t, kept, 1)
	assert.Contains(t, kept, "first")
}

func TestResolveOverlapsPrefersLongerOnEqualScore(t *testing.T) {
	candidates := map[string]types.Candidate{
		"short": {Start: 0, End: 30, Score: 50},
		"long":  {Start: 10, End: 70, Score: 50},
	}
	kept := ResolveOverlaps(candidates)
	require.Len(t, kept, 1)
	assert.Contains(t, kept, "long")
}

func TestResolveOverlapsDeterministicOnFullTie(t *testing.T) {
	// Identical score and duration: the key ordering breaks the tie, so
	// repeated runs agree despite random map iteration.
	candidates := map[string]types.Candidate{
		"zz": {Start: 0, End: 30, Score: 50},
		"aa": {Start: 10, End: 40, Score: 50},
	}
	for i := 0; i < 20; i++ {
		kept := ResolveOverlaps(candidates)
		require.Len(t, kept, 1)
		assert.Contains(t, kept, "aa")
	}
}

func TestResolveOverlapsIdempotent(t *testing.T) {
	candidates := map[string]types.Candidate{
		"a": {Start: 0, End: 30, Score: 80},
		"b": {Start: 25, End: 55, Score: 90},
		"c": {Start: 50, End: 80, Score: 70},
		"d": {Start: 100, End: 130, Score: 10},
	}
	once := ResolveOverlaps(candidates)
	twice := ResolveOverlaps(once)
	assert.Equal(t, once, twice)
}

func TestResolveOverlapsEmpty(t *testing.T) {
	assert.Empty(t, ResolveOverlaps(nil))
	assert.Empty(t, ResolveOverlaps(map[string]types.Candidate{}))
}

func analysisTestChunks() []types.Chunk {
	return []types.Chunk{
		{{Id: "1", StartSeconds: 0, Text: "first", RawBlock: "1\n00:00:00,000 --> 00:00:05,000\nfirst"}},
		{{Id: "2", StartSeconds: 700, Text: "second", RawBlock: "2\n00:11:40,000 --> 00:11:45,000\nsecond"}},
	}
}

func TestAnalyzeChunksNamespacesKeys(t *testing.T) {
	config.Conf.Clipper.MinClipDuration = 20
	config.Conf.Clipper.MaxClipDuration = 90

	completer := new(mocks.MockChatCompleter)
	completer.On("ChatCompletion", mock.AnythingOfType("string")).
		Return(`{"hook": {"start": 1.0, "end": 25.0, "title": "Hook", "score": 70}}`, nil).Once()
	completer.On("ChatCompletion", mock.AnythingOfType("string")).
		Return(`{"hook": {"start": 705.0, "end": 730.0, "title": "Later hook", "score": 60}}`, nil).Once()

	svc := &Service{ChatCompleter: completer}
	merged := svc.AnalyzeChunks(analysisTestChunks())

	require.Len(t, merged, 2)
	assert.Contains(t, merged, "chunk0_hook")
	assert.Contains(t, merged, "chunk1_hook")
	assert.Equal(t, "Later hook", merged["chunk1_hook"].Title)
	completer.AssertExpectations(t)
}

func TestAnalyzeChunksFailedChunkIsSkipped(t *testing.T) {
	config.Conf.Clipper.MinClipDuration = 20
	config.Conf.Clipper.MaxClipDuration = 90

	completer := new(mocks.MockChatCompleter)
	completer.On("ChatCompletion", mock.AnythingOfType("string")).
		Return("", errors.New("rate limited")).Once()
	completer.On("ChatCompletion", mock.AnythingOfType("string")).
		Return(`{"only": {"start": 710.0, "end": 740.0, "title": "Only", "score": 55}}`, nil).Once()

	svc := &Service{ChatCompleter: completer}
	merged := svc.AnalyzeChunks(analysisTestChunks())

	// The failed chunk contributes nothing; the good one still lands.
	require.Len(t, merged, 1)
	assert.Contains(t, merged, "chunk1_only")
}

func TestProposeChunkMomentsDefaultsAndValidation(t *testing.T) {
	config.Conf.Clipper.MinClipDuration = 20
	config.Conf.Clipper.MaxClipDuration = 90

	reply := "Here you go:\n```json\n" + `{
		"good":      {"start": 5.0, "end": 35.0},
		"inverted":  {"start": 50.0, "end": 40.0, "title": "bad range"},
		"no_start":  {"end": 60.0, "title": "missing start"},
		"scored":    {"start": 100.0, "end": 130.0, "title": "Scored", "score": 88}
	}` + "\n```"

	completer := new(mocks.MockChatCompleter)
	completer.On("ChatCompletion", mock.AnythingOfType("string")).Return(reply, nil).Once()

	svc := &Service{ChatCompleter: completer}
	candidates, err := svc.proposeChunkMoments(analysisTestChunks()[0])
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	// Missing title and score fall back to defaults at the boundary.
	assert.Equal(t, defaultClipTitle, candidates["good"].Title)
	assert.Equal(t, 0.0, candidates["good"].Score)
	assert.Equal(t, 88.0, candidates["scored"].Score)
}

func TestProposeChunkMomentsEmptyObject(t *testing.T) {
	completer := new(mocks.MockChatCompleter)
	completer.On("ChatCompletion", mock.AnythingOfType("string")).Return("{}", nil).Once()

	svc := &Service{ChatCompleter: completer}
	candidates, err := svc.proposeChunkMoments(analysisTestChunks()[0])
	require.NoError(t, err)
	assert.Empty(t, candidates)
}

func TestProposeChunkMomentsUnparseableReply(t *testing.T) {
	completer := new(mocks.MockChatCompleter)
	completer.On("ChatCompletion", mock.AnythingOfType("string")).Return("I cannot help with that.", nil).Once()

	svc := &Service{ChatCompleter: completer}
	_, err := svc.proposeChunkMoments(analysisTestChunks()[0])
	assert.Error(t, err)
}
