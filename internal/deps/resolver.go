// Package deps diagnoses the external binaries the clip pipeline shells out
// to. Must-tier dependencies block startup when missing; optional ones only
// show up in the diagnostic report.
package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"clipforge/internal/storage"
)

type DependencyTier string

const (
	DependencyTierMust     DependencyTier = "must"
	DependencyTierOptional DependencyTier = "optional"
)

type DependencyStatus string

const (
	DependencyStatusOK      DependencyStatus = "ok"
	DependencyStatusMissing DependencyStatus = "missing"
	DependencyStatusError   DependencyStatus = "error"
)

type DependencySource string

const (
	DependencySourceConfigured DependencySource = "configured"
	DependencySourceLookPath   DependencySource = "lookpath"
)

type DependencySpec struct {
	ID             string
	Name           string
	Command        string
	Tier           DependencyTier
	ConfiguredPath string
	Hint           string
}

type DependencyState struct {
	DependencySpec
	ResolvedPath string
	Status       DependencyStatus
	Source       DependencySource
	Error        string
}

type PathResolver struct {
	LookPath func(file string) (string, error)
	AbsPath  func(path string) (string, error)
	Stat     func(name string) (os.FileInfo, error)
}

func NewPathResolver() PathResolver {
	return PathResolver{
		LookPath: exec.LookPath,
		AbsPath:  filepath.Abs,
		Stat:     os.Stat,
	}
}

func (r PathResolver) Resolve(spec DependencySpec) DependencyState {
	state := DependencyState{DependencySpec: spec}
	configured := strings.TrimSpace(spec.ConfiguredPath)

	// A configured path that is not a bare command name is checked directly
	// instead of being looked up on PATH.
	if configured != "" && configured != spec.Command {
		state.Source = DependencySourceConfigured
		resolvedPath, err := r.resolveConfiguredPath(configured)
		if err == nil {
			state.Status = DependencyStatusOK
			state.ResolvedPath = resolvedPath
			return state
		}

		if absPath, absErr := r.AbsPath(configured); absErr == nil {
			state.ResolvedPath = absPath
		} else {
			state.ResolvedPath = configured
		}
		state.Error = err.Error()
		if isMissingPathError(err) {
			state.Status = DependencyStatusMissing
		} else {
			state.Status = DependencyStatusError
		}
		return state
	}

	state.Source = DependencySourceLookPath
	resolvedPath, err := r.LookPath(spec.Command)
	if err == nil {
		state.Status = DependencyStatusOK
		state.ResolvedPath = resolvedPath
		return state
	}

	state.Error = err.Error()
	if isMissingPathError(err) {
		state.Status = DependencyStatusMissing
		return state
	}
	state.Status = DependencyStatusError
	return state
}

func (r PathResolver) resolveConfiguredPath(configuredPath string) (string, error) {
	if resolvedPath, err := r.LookPath(configuredPath); err == nil {
		return resolvedPath, nil
	}

	absPath, err := r.AbsPath(configuredPath)
	if err != nil {
		return "", err
	}
	if _, err = r.Stat(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

func ResolveDependencyStates(specs []DependencySpec, resolver PathResolver) []DependencyState {
	resolved := make([]DependencyState, 0, len(specs))
	for _, spec := range specs {
		resolved = append(resolved, resolver.Resolve(spec))
	}
	return resolved
}

func BuildDependencyInventory(transcribeProvider string, queueEnabled bool) []DependencySpec {
	normalizedProvider := strings.ToLower(strings.TrimSpace(transcribeProvider))

	redisTier := DependencyTierOptional
	redisHint := "Only needed when the redis-backed queue is enabled."
	if queueEnabled {
		redisHint = "Queue is enabled; a reachable redis server is required."
	}

	return []DependencySpec{
		{
			ID:             "ffmpeg",
			Name:           "ffmpeg",
			Command:        "ffmpeg",
			Tier:           DependencyTierMust,
			ConfiguredPath: storage.FfmpegPath,
			Hint:           "Required for silence removal, audio extraction and clip rendering.",
		},
		{
			ID:             "ffprobe",
			Name:           "ffprobe",
			Command:        "ffprobe",
			Tier:           DependencyTierMust,
			ConfiguredPath: storage.FfprobePath,
			Hint:           "Required for media duration detection.",
		},
		{
			ID:      "redis-server",
			Name:    "redis-server",
			Command: "redis-server",
			Tier:    redisTier,
			Hint:    redisHint,
		},
		{
			ID:      "whisper-server",
			Name:    "whisper-server",
			Command: "whisper-server",
			Tier:    DependencyTierOptional,
			Hint: providerHint(
				normalizedProvider,
				"whisperserver",
				"Current transcribe provider is whisperserver; run this binary or point the base url at a remote one.",
				"Needed only if you switch the transcribe provider to whisperserver.",
			),
		},
	}
}

// CheckDependency resolves the inventory and fails when a must-tier binary is
// missing. Resolved paths are written back so the renderer shells out to the
// exact binary that was diagnosed.
func CheckDependency(transcribeProvider string, queueEnabled bool) error {
	states := ResolveDependencyStates(BuildDependencyInventory(transcribeProvider, queueEnabled), NewPathResolver())

	var missing []string
	for _, state := range states {
		if state.Status == DependencyStatusOK {
			switch state.ID {
			case "ffmpeg":
				storage.FfmpegPath = state.ResolvedPath
			case "ffprobe":
				storage.FfprobePath = state.ResolvedPath
			}
			continue
		}
		if state.Tier == DependencyTierMust {
			missing = append(missing, state.Name)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required dependencies: %s\n%s",
			strings.Join(missing, ", "), FormatDependencyReport(states))
	}
	return nil
}

func FormatDependencyReport(states []DependencyState) string {
	if len(states) == 0 {
		return "No dependencies to diagnose."
	}

	var builder strings.Builder
	builder.WriteString("Dependency status")

	for _, state := range states {
		resolvedPath := strings.TrimSpace(state.ResolvedPath)
		if resolvedPath == "" {
			resolvedPath = "unknown"
		}

		source := strings.TrimSpace(string(state.Source))
		if source == "" {
			source = "n/a"
		}

		builder.WriteString("\n")
		builder.WriteString(fmt.Sprintf("- %s [%s]: %s | path=%s | source=%s", state.Name, strings.ToUpper(string(state.Tier)), state.Status, resolvedPath, source))
		if state.Error != "" {
			builder.WriteString("\n")
			builder.WriteString("  error: ")
			builder.WriteString(state.Error)
		}
		if state.Hint != "" {
			builder.WriteString("\n")
			builder.WriteString("  hint: ")
			builder.WriteString(state.Hint)
		}
	}

	return builder.String()
}

func providerHint(provider, target, activeHint, inactiveHint string) string {
	if provider == target {
		return activeHint
	}
	return inactiveHint
}

func isMissingPathError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, exec.ErrNotFound) {
		return true
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		if errors.Is(pathErr.Err, os.ErrNotExist) {
			return true
		}
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		if errors.Is(execErr.Err, exec.ErrNotFound) {
			return true
		}
	}

	message := strings.ToLower(err.Error())
	return strings.Contains(message, "not found") || strings.Contains(message, "cannot find")
}
