package service

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"clipforge/config"
	"clipforge/internal/types"
	"clipforge/log"
	"clipforge/pkg/util"
)

// overlapTolerance is the true overlap, in seconds, below which two candidate
// clips are treated as non-conflicting.
const overlapTolerance = 0.5

const defaultClipTitle = "Untitled clip"

// proposalPayload is the wire shape of one proposed moment. Score and title
// are optional on the wire and defaulted here, at the boundary, so selection
// logic never sees absent fields.
type proposalPayload struct {
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
	Title string   `json:"title"`
	Score *float64 `json:"score"`
}

// AnalyzeChunks asks the LLM for moment proposals chunk by chunk and merges
// the results under chunk-namespaced keys. A failed chunk is logged and
// contributes nothing; one bad chunk never aborts the rest.
func (s *Service) AnalyzeChunks(chunks []types.Chunk) map[string]types.Candidate {
	merged := make(map[string]types.Candidate)
	for i, chunk := range chunks {
		proposals, err := s.proposeChunkMoments(chunk)
		if err != nil {
			log.GetLogger().Error("AnalyzeChunks chunk proposal failed",
				zap.Int("chunk", i), zap.Error(err))
			continue
		}
		for key, cand := range proposals {
			merged[fmt.Sprintf("chunk%d_%s", i, key)] = cand
		}
	}
	return merged
}

// proposeChunkMoments prompts the model with the chunk's raw SRT blocks and
// parses the keyed JSON reply.
func (s *Service) proposeChunkMoments(chunk types.Chunk) (map[string]types.Candidate, error) {
	blocks := make([]string, 0, len(chunk))
	for _, entry := range chunk {
		blocks = append(blocks, entry.RawBlock)
	}
	prompt := fmt.Sprintf(types.MomentProposalPrompt,
		config.Conf.Clipper.MinClipDuration,
		config.Conf.Clipper.MaxClipDuration,
		strings.Join(blocks, "\n\n"))

	reply, err := s.ChatCompleter.ChatCompletion(prompt)
	if err != nil {
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	jsonStr := util.ExtractJSONFromText(reply)
	var payload map[string]proposalPayload
	if err := json.Unmarshal([]byte(jsonStr), &payload); err != nil {
		return nil, fmt.Errorf("parse proposal response %q: %w", jsonStr, err)
	}

	candidates := make(map[string]types.Candidate, len(payload))
	for key, p := range payload {
		if p.Start == nil || p.End == nil || *p.End <= *p.Start {
			log.GetLogger().Warn("proposeChunkMoments dropping malformed proposal",
				zap.String("key", key))
			continue
		}
		cand := types.Candidate{Start: *p.Start, End: *p.End, Title: p.Title}
		if cand.Title == "" {
			cand.Title = defaultClipTitle
		}
		if p.Score != nil {
			cand.Score = *p.Score
		}
		candidates[key] = cand
	}
	return candidates, nil
}

// ResolveOverlaps greedily keeps a pairwise non-overlapping subset of the
// candidates. Priority is score descending, then duration descending; the
// greedy pass prefers higher-priority clips but makes no optimality claim
// beyond that. Candidates whose ranges overlap by less than the tolerance are
// both kept.
func ResolveOverlaps(candidates map[string]types.Candidate) map[string]types.Candidate {
	type keyedCandidate struct {
		key  string
		cand types.Candidate
	}

	order := make([]keyedCandidate, 0, len(candidates))
	for key, cand := range candidates {
		order = append(order, keyedCandidate{key: key, cand: cand})
	}
	sort.Slice(order, func(i, j int) bool {
		a, b := order[i].cand, order[j].cand
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Duration() != b.Duration() {
			return a.Duration() > b.Duration()
		}
		// Map iteration order is random; the key tiebreak keeps the selection
		// stable across runs.
		return order[i].key < order[j].key
	})

	accepted := make(map[string]types.Candidate, len(order))
	kept := make([]types.Candidate, 0, len(order))
	rejected := 0
	for _, kc := range order {
		conflict := false
		for _, a := range kept {
			if kc.cand.Start < a.End-overlapTolerance && a.Start < kc.cand.End-overlapTolerance {
				conflict = true
				break
			}
		}
		if conflict {
			rejected++
			continue
		}
		accepted[kc.key] = kc.cand
		kept = append(kept, kc.cand)
	}

	if rejected > 0 {
		log.GetLogger().Info("ResolveOverlaps dropped overlapping candidates",
			zap.Int("kept", len(accepted)), zap.Int("dropped", rejected))
	}
	return accepted
}
