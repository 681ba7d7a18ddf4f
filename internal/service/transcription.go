package service

import (
	"regexp"
	"strconv"
	"strings"

	"clipforge/internal/types"
)

var (
	timestampRe  = regexp.MustCompile(`^(\d{2}):(\d{2}):(\d{2}),(\d{3})$`)
	blockStartRe = regexp.MustCompile(`(\d{2}:\d{2}:\d{2},\d{3})\s*-->`)
	blockSplitRe = regexp.MustCompile(`\n\s*\n`)
)

// ParseTimestamp converts an SRT timestamp (HH:MM:SS,mmm) to seconds. Empty or
// malformed input yields 0, same as a genuine 00:00:00,000 entry; callers that
// need to tell the two apart cannot, and the parser keeps it that way on
// purpose.
func ParseTimestamp(text string) float64 {
	m := timestampRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0
	}
	h, _ := strconv.Atoi(m[1])
	min, _ := strconv.Atoi(m[2])
	sec, _ := strconv.Atoi(m[3])
	ms, _ := strconv.Atoi(m[4])
	return float64(h)*3600 + float64(min)*60 + float64(sec) + float64(ms)/1000
}

// ParseSubtitles splits SRT text into entries. Blocks with fewer than three
// non-empty lines are dropped silently; input with no well-formed blocks
// returns an empty slice, not an error, and the caller decides the fallback.
func ParseSubtitles(raw string) []types.SubtitleEntry {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")

	var entries []types.SubtitleEntry
	for _, block := range blockSplitRe.Split(normalized, -1) {
		var lines []string
		for _, line := range strings.Split(block, "\n") {
			if strings.TrimSpace(line) != "" {
				lines = append(lines, strings.TrimSpace(line))
			}
		}
		if len(lines) < 3 {
			continue
		}

		start := 0.0
		if m := blockStartRe.FindStringSubmatch(lines[1]); m != nil {
			start = ParseTimestamp(m[1])
		}

		entries = append(entries, types.SubtitleEntry{
			Id:           lines[0],
			StartSeconds: start,
			Text:         strings.Join(lines[2:], " "),
			RawBlock:     strings.TrimSpace(block),
		})
	}
	return entries
}

// ChunkByDuration groups entries into chunks whose start-time span stays
// within windowMinutes, preserving order.
func ChunkByDuration(entries []types.SubtitleEntry, windowMinutes int) []types.Chunk {
	return chunkByWindow(entries, float64(windowMinutes)*60)
}

// chunkByWindow closes the open chunk as soon as the next entry would stretch
// its span past windowSeconds. Entries are never split, so a lone entry always
// fits. Chunks partition the input exactly.
func chunkByWindow(entries []types.SubtitleEntry, windowSeconds float64) []types.Chunk {
	var chunks []types.Chunk
	var current types.Chunk
	var chunkStartTime float64

	for _, entry := range entries {
		if len(current) > 0 && entry.StartSeconds-chunkStartTime > windowSeconds {
			chunks = append(chunks, current)
			current = nil
		}
		if len(current) == 0 {
			chunkStartTime = entry.StartSeconds
		}
		current = append(current, entry)
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}
