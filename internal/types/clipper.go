package types

// SubtitleEntry is one parsed SRT block. Entries are never mutated after
// parsing; the chunker and analyzer only read them.
type SubtitleEntry struct {
	Id           string
	StartSeconds float64
	Text         string
	// RawBlock keeps the original block text (id, time line, text lines) so the
	// proposal prompt can show the model real timestamps.
	RawBlock string
}

// Chunk is a contiguous, time-bounded run of subtitle entries analyzed in one
// LLM call.
type Chunk []SubtitleEntry

// Span returns lastEntry.start - firstEntry.start. Zero for chunks with fewer
// than two entries.
func (c Chunk) Span() float64 {
	if len(c) < 2 {
		return 0
	}
	return c[len(c)-1].StartSeconds - c[0].StartSeconds
}

// SilenceInterval is a detected span of near-silence, start < end. The
// detector emits them sorted by start and non-overlapping.
type SilenceInterval struct {
	Start float64
	End   float64
}

// SoundSegment is the padded complement of silence, clipped to the media
// duration. One segment becomes one trim instruction on the video track and
// the matching audio track.
type SoundSegment struct {
	Start float64
	End   float64
}

// Candidate is a proposed clip. The identifying key lives in the surrounding
// map; score defaults to 0 when the proposal omits it.
type Candidate struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// Duration is derived, not persisted.
func (c Candidate) Duration() float64 {
	return c.End - c.Start
}

// MomentProposalPrompt asks the model for viral clip candidates within one
// transcript chunk. The reply must be a JSON object keyed by a short slug;
// timestamps are absolute seconds on the same time base as the subtitles shown.
var MomentProposalPrompt = `You are a short-form video editor. Below is an excerpt of a subtitle transcript (SRT blocks with absolute timestamps).

Find the moments most likely to perform well as standalone vertical clips. For each moment return:
- "start": clip start in absolute seconds (must fall inside this excerpt)
- "end": clip end in absolute seconds
- "title": a punchy title for the clip
- "score": virality estimate from 0 to 100

Rules:
1. Each clip must contain a complete thought; never cut mid-sentence.
2. Aim for clips between %d and %d seconds.
3. Reply with a strict JSON object mapping a short key to the clip, for example:
{"hook_intro": {"start": 12.5, "end": 48.0, "title": "...", "score": 87}}
4. Reply with {} if nothing in this excerpt stands out.

Transcript excerpt:
%s
`
