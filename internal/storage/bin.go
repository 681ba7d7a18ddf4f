package storage

// Paths to the external media tools. The deps resolver rewrites these to the
// binaries it actually found, so deployments can bundle their own.
var (
	FfmpegPath  = "ffmpeg"
	FfprobePath = "ffprobe"
)
