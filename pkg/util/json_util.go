package util

import (
	"regexp"
	"strings"
)

var jsonFenceRe = regexp.MustCompile("(?s)```(?:json)?(.*?)```")

// ExtractJSONFromText pulls the JSON payload out of an LLM reply. Models often
// wrap the answer in a markdown code fence or surround it with prose, so try
// the fence first and fall back to the widest brace/bracket span.
func ExtractJSONFromText(text string) string {
	if matches := jsonFenceRe.FindStringSubmatch(text); len(matches) > 1 {
		return strings.TrimSpace(matches[1])
	}

	start := earliestIndex(strings.Index(text, "{"), strings.Index(text, "["))
	if start == -1 {
		return text
	}
	end := latestIndex(strings.LastIndex(text, "}"), strings.LastIndex(text, "]"))
	if end == -1 || end <= start {
		return text
	}
	return text[start : end+1]
}

func earliestIndex(a, b int) int {
	if a == -1 {
		return b
	}
	if b == -1 || a < b {
		return a
	}
	return b
}

func latestIndex(a, b int) int {
	if a > b {
		return a
	}
	return b
}
