package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clipforge/internal/types"
	"clipforge/log"
)

func init() {
	log.Logger = zap.NewNop()
}

func TestParseTimestamp(t *testing.T) {
	testCases := []struct {
		input string
		want  float64
	}{
		{"00:00:00,000", 0},
		{"00:01:05,250", 65.25},
		{"01:00:00,000", 3600},
		{"02:30:45,500", 9045.5},
		{"  00:00:01,000  ", 1},
		// Malformed input folds into 0, indistinguishable from a real zero.
		{"", 0},
		{"garbage", 0},
		{"0:00:00,000", 0},
		{"00:00:00.000", 0},
		{"00:00:00,00", 0},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, ParseTimestamp(tc.input), "input %q", tc.input)
	}
}

const sampleSRT = `1
00:00:01,000 --> 00:00:04,000
Hello and welcome back.

2
00:00:05,500 --> 00:00:09,000
Today we talk about
silence removal.

3
00:00:10,000 --> 00:00:12,000
Let's get started.
`

func TestParseSubtitles(t *testing.T) {
	entries := ParseSubtitles(sampleSRT)
	require.Len(t, entries, 3)

	assert.Equal(t, "1", entries[0].Id)
	assert.Equal(t, 1.0, entries[0].StartSeconds)
	assert.Equal(t, "Hello and welcome back.", entries[0].Text)
	assert.Contains(t, entries[0].RawBlock, "00:00:01,000 --> 00:00:04,000")

	// Multi-line text joins with a single space.
	assert.Equal(t, 5.5, entries[1].StartSeconds)
	assert.Equal(t, "Today we talk about silence removal.", entries[1].Text)
}

func TestParseSubtitlesCRLF(t *testing.T) {
	entries := ParseSubtitles(strings.ReplaceAll(sampleSRT, "\n", "\r\n"))
	require.Len(t, entries, 3)
	assert.Equal(t, 10.0, entries[2].StartSeconds)
}

func TestParseSubtitlesDropsShortBlocks(t *testing.T) {
	raw := `1
00:00:01,000 --> 00:00:02,000

2
00:00:03,000 --> 00:00:04,000
Only this block survives.
`
	entries := ParseSubtitles(raw)
	require.Len(t, entries, 1)
	assert.Equal(t, "2", entries[0].Id)
}

func TestParseSubtitlesMalformedTimeLine(t *testing.T) {
	raw := `1
not a time line
Some text on the third line.
`
	entries := ParseSubtitles(raw)
	require.Len(t, entries, 1)
	// A block that clears the three-line bar but has no parseable time starts
	// at zero rather than being dropped.
	assert.Equal(t, 0.0, entries[0].StartSeconds)
}

func TestParseSubtitlesEmptyInput(t *testing.T) {
	assert.Empty(t, ParseSubtitles(""))
	assert.Empty(t, ParseSubtitles("\n\n\n"))
}

func entryAt(start float64) types.SubtitleEntry {
	return types.SubtitleEntry{
		Id:           fmt.Sprintf("%v", start),
		StartSeconds: start,
		Text:         "text",
	}
}

func TestChunkByDurationPartitionsInOrder(t *testing.T) {
	entries := []types.SubtitleEntry{
		entryAt(0), entryAt(200), entryAt(500),
		entryAt(700), entryAt(1200), entryAt(1250),
	}

	// 10-minute window: spans of 600s max.
	chunks := ChunkByDuration(entries, 10)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 3)
	assert.Len(t, chunks[1], 3)

	// Concatenating chunks reproduces the input exactly.
	var flattened []types.SubtitleEntry
	for _, chunk := range chunks {
		assert.LessOrEqual(t, chunk.Span(), 600.0)
		flattened = append(flattened, chunk...)
	}
	assert.Equal(t, entries, flattened)
}

func TestChunkByDurationLoneEntryAlwaysFits(t *testing.T) {
	entries := []types.SubtitleEntry{entryAt(0), entryAt(10000)}
	chunks := ChunkByDuration(entries, 1)
	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 1)
	assert.Len(t, chunks[1], 1)
}

func TestChunkByDurationEmpty(t *testing.T) {
	assert.Empty(t, ChunkByDuration(nil, 10))
}
