package types

import "context"

// Transcriber turns an audio file into SRT-formatted subtitle text.
type Transcriber interface {
	TranscribeToSRT(ctx context.Context, audioPath string, language string) (string, error)
}

// ChatCompleter sends a prompt to an LLM and returns the raw reply text.
type ChatCompleter interface {
	ChatCompletion(prompt string) (string, error)
}

// Renderer is the media tool boundary. Implementations shell out to ffmpeg;
// tests substitute fakes.
type Renderer interface {
	// Probe returns the media duration in seconds.
	Probe(ctx context.Context, mediaPath string) (float64, error)
	// DetectSilence returns silence intervals sorted by start.
	DetectSilence(ctx context.Context, mediaPath string, noiseDB, minDuration float64) ([]SilenceInterval, error)
	// RemoveSilence trims the given sound segments and concatenates them, in
	// order, into outputPath.
	RemoveSilence(ctx context.Context, mediaPath, outputPath string, segments []SoundSegment) error
	// ExtractAudio writes a mono 16 kHz audio track of mediaPath.
	ExtractAudio(ctx context.Context, mediaPath, outputPath string) error
	// RenderClip cuts [start,end] out of mediaPath into a 9:16 letter-boxed clip.
	RenderClip(ctx context.Context, mediaPath, outputPath string, start, end float64) error
}
