package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"clipforge/internal/storage"
	"clipforge/internal/types"
	"clipforge/log"
	apperrors "clipforge/pkg/errors"
)

// DefaultSilenceMergeGap: sound gaps shorter than this between two silences
// are not worth keeping, so the silences around them merge.
const DefaultSilenceMergeGap = 0.1

// Vertical output frame for rendered clips.
const (
	clipFrameWidth  = 1080
	clipFrameHeight = 1920
)

// ComputeSoundSegments returns the padded complement of the given silence
// intervals, clipped to [0, totalDuration]. Silences must be sorted by start
// and non-overlapping. With no silences the whole timeline is one segment.
//
// The trailing segment's start is not clamped to 0, matching the behavior the
// rest of the pipeline was tuned against; with padding larger than the final
// silence end it can go negative. See DESIGN.md before "fixing" this.
func ComputeSoundSegments(silences []types.SilenceInterval, totalDuration, padding, mergeGap float64) []types.SoundSegment {
	if len(silences) == 0 {
		return []types.SoundSegment{{Start: 0, End: totalDuration}}
	}

	var segments []types.SoundSegment
	lastEnd := 0.0
	for _, silence := range silences {
		if silence.Start-lastEnd > mergeGap {
			start := lastEnd - padding
			if start < 0 {
				start = 0
			}
			end := silence.Start + padding
			if end > totalDuration {
				end = totalDuration
			}
			segments = append(segments, types.SoundSegment{Start: start, End: end})
		}
		// Advance unconditionally: adjacent or overlapping silences merge by
		// never emitting the sliver between them.
		lastEnd = silence.End
	}
	if lastEnd < totalDuration {
		segments = append(segments, types.SoundSegment{Start: lastEnd - padding, End: totalDuration})
	}
	return segments
}

// FFmpegRenderer shells out to ffmpeg/ffprobe for every media operation.
type FFmpegRenderer struct{}

func NewFFmpegRenderer() *FFmpegRenderer {
	return &FFmpegRenderer{}
}

var _ types.Renderer = (*FFmpegRenderer)(nil)

// Probe returns the container duration in seconds via ffprobe.
func (r *FFmpegRenderer) Probe(ctx context.Context, mediaPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, storage.FfprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		mediaPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeProbeFailed, "ffprobe failed", err)
	}

	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err = json.Unmarshal(out, &probe); err != nil {
		return 0, apperrors.Wrap(apperrors.CodeProbeFailed, "ffprobe output parse failed", err)
	}
	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeProbeFailed, "ffprobe duration parse failed", err)
	}
	return duration, nil
}

// DetectSilence runs the silencedetect filter and parses its stderr log.
func (r *FFmpegRenderer) DetectSilence(ctx context.Context, mediaPath string, noiseDB, minDuration float64) ([]types.SilenceInterval, error) {
	cmd := exec.CommandContext(ctx, storage.FfmpegPath,
		"-i", mediaPath,
		"-af", fmt.Sprintf("silencedetect=noise=%.1fdB:d=%.2f", noiseDB, minDuration),
		"-f", "null", "-",
	)
	// silencedetect logs to stderr; ffmpeg exits 0 even when silences are found.
	out, err := cmd.CombinedOutput()
	if err != nil {
		log.GetLogger().Error("DetectSilence ffmpeg failed",
			zap.String("media", mediaPath), zap.String("output", string(out)))
		return nil, apperrors.Wrap(apperrors.CodeSilenceDetect, "silence detection failed", err)
	}
	return parseSilenceOutput(string(out))
}

var (
	silenceStartRe = regexp.MustCompile(`silence_start:\s*(-?[0-9.]+)`)
	silenceEndRe   = regexp.MustCompile(`silence_end:\s*(-?[0-9.]+)`)
)

// parseSilenceOutput extracts silence_start/silence_end pairs from the
// silencedetect log. The pairs must come out sorted with start < end; anything
// else means the detector output is corrupt and the pipeline must not build
// segments from it.
func parseSilenceOutput(out string) ([]types.SilenceInterval, error) {
	var intervals []types.SilenceInterval
	var pendingStart *float64

	for _, line := range strings.Split(out, "\n") {
		if m := silenceStartRe.FindStringSubmatch(line); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.CodeInvalidSilenceData, "bad silence_start value", err)
			}
			pendingStart = &v
			continue
		}
		if m := silenceEndRe.FindStringSubmatch(line); m != nil {
			v, err := strconv.ParseFloat(m[1], 64)
			if err != nil {
				return nil, apperrors.Wrap(apperrors.CodeInvalidSilenceData, "bad silence_end value", err)
			}
			if pendingStart == nil {
				return nil, apperrors.New(apperrors.CodeInvalidSilenceData, "silence_end without silence_start")
			}
			if v <= *pendingStart {
				return nil, apperrors.New(apperrors.CodeInvalidSilenceData,
					fmt.Sprintf("silence interval start %.3f >= end %.3f", *pendingStart, v))
			}
			if n := len(intervals); n > 0 && *pendingStart < intervals[n-1].End {
				return nil, apperrors.New(apperrors.CodeInvalidSilenceData, "silence intervals out of order")
			}
			intervals = append(intervals, types.SilenceInterval{Start: *pendingStart, End: v})
			pendingStart = nil
		}
	}
	return intervals, nil
}

// buildTrimConcatFilter produces the filter graph that cuts every sound
// segment out of the video and audio tracks and concatenates the pairs in
// chronological order, video segment i with audio segment i.
func buildTrimConcatFilter(segments []types.SoundSegment) string {
	var sb strings.Builder
	for i, seg := range segments {
		sb.WriteString(fmt.Sprintf("[0:v]trim=start=%.3f:end=%.3f,setpts=PTS-STARTPTS[v%d];", seg.Start, seg.End, i))
		sb.WriteString(fmt.Sprintf("[0:a]atrim=start=%.3f:end=%.3f,asetpts=PTS-STARTPTS[a%d];", seg.Start, seg.End, i))
	}
	for i := range segments {
		sb.WriteString(fmt.Sprintf("[v%d][a%d]", i, i))
	}
	sb.WriteString(fmt.Sprintf("concat=n=%d:v=1:a=1[outv][outa]", len(segments)))
	return sb.String()
}

// RemoveSilence renders a silence-free copy of the input using the trim/concat
// graph. Callers must not pass an empty segment list; they short-circuit to a
// direct copy instead.
func (r *FFmpegRenderer) RemoveSilence(ctx context.Context, mediaPath, outputPath string, segments []types.SoundSegment) error {
	if len(segments) == 0 {
		return apperrors.New(apperrors.CodeConcatFailed, "no sound segments to concatenate")
	}
	cmd := exec.CommandContext(ctx, storage.FfmpegPath,
		"-y",
		"-i", mediaPath,
		"-filter_complex", buildTrimConcatFilter(segments),
		"-map", "[outv]",
		"-map", "[outa]",
		outputPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		log.GetLogger().Error("RemoveSilence ffmpeg failed",
			zap.String("media", mediaPath),
			zap.Int("segments", len(segments)),
			zap.String("output", string(out)))
		return apperrors.Wrap(apperrors.CodeConcatFailed, "silence trim failed", err)
	}
	return nil
}

// ExtractAudio writes a mono 16 kHz mp3 of the media's audio track, the shape
// transcription backends expect.
func (r *FFmpegRenderer) ExtractAudio(ctx context.Context, mediaPath, outputPath string) error {
	cmd := exec.CommandContext(ctx, storage.FfmpegPath,
		"-y",
		"-i", mediaPath,
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-b:a", "192k",
		outputPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		log.GetLogger().Error("ExtractAudio ffmpeg failed",
			zap.String("media", mediaPath), zap.String("output", string(out)))
		return apperrors.Wrap(apperrors.CodeAudioExtract, "audio extraction failed", err)
	}
	return nil
}

// RenderClip cuts [start,end] and letter-boxes it into a 1080x1920 frame.
func (r *FFmpegRenderer) RenderClip(ctx context.Context, mediaPath, outputPath string, start, end float64) error {
	vf := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2",
		clipFrameWidth, clipFrameHeight, clipFrameWidth, clipFrameHeight,
	)
	cmd := exec.CommandContext(ctx, storage.FfmpegPath,
		"-y",
		"-ss", fmt.Sprintf("%.3f", start),
		"-to", fmt.Sprintf("%.3f", end),
		"-i", mediaPath,
		"-vf", vf,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-c:a", "aac",
		outputPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		log.GetLogger().Error("RenderClip ffmpeg failed",
			zap.String("media", mediaPath),
			zap.Float64("start", start),
			zap.Float64("end", end),
			zap.String("output", string(out)))
		return apperrors.Wrap(apperrors.CodeRenderFailed, "clip render failed", err)
	}
	return nil
}
