package deps

import (
	"errors"
	"os"
	"os/exec"
	"strings"
	"testing"
)

func TestPathResolverResolve(t *testing.T) {
	statOK := func(string) (os.FileInfo, error) { return nil, nil }

	testCases := []struct {
		name       string
		spec       DependencySpec
		lookPath   func(string) (string, error)
		stat       func(string) (os.FileInfo, error)
		wantStatus DependencyStatus
		wantSource DependencySource
		wantPath   string
	}{
		{
			name: "command found on path",
			spec: DependencySpec{ID: "ffmpeg", Command: "ffmpeg"},
			lookPath: func(file string) (string, error) {
				return "/usr/bin/" + file, nil
			},
			wantStatus: DependencyStatusOK,
			wantSource: DependencySourceLookPath,
			wantPath:   "/usr/bin/ffmpeg",
		},
		{
			name: "command missing on path",
			spec: DependencySpec{ID: "ffprobe", Command: "ffprobe"},
			lookPath: func(string) (string, error) {
				return "", exec.ErrNotFound
			},
			wantStatus: DependencyStatusMissing,
			wantSource: DependencySourceLookPath,
		},
		{
			name: "configured path used directly",
			spec: DependencySpec{ID: "ffmpeg", Command: "ffmpeg", ConfiguredPath: "/opt/ffmpeg/bin/ffmpeg"},
			lookPath: func(string) (string, error) {
				return "", exec.ErrNotFound
			},
			stat:       statOK,
			wantStatus: DependencyStatusOK,
			wantSource: DependencySourceConfigured,
			wantPath:   "/opt/ffmpeg/bin/ffmpeg",
		},
		{
			name: "configured path missing",
			spec: DependencySpec{ID: "ffmpeg", Command: "ffmpeg", ConfiguredPath: "/opt/nowhere/ffmpeg"},
			lookPath: func(string) (string, error) {
				return "", exec.ErrNotFound
			},
			stat: func(string) (os.FileInfo, error) {
				return nil, os.ErrNotExist
			},
			wantStatus: DependencyStatusMissing,
			wantSource: DependencySourceConfigured,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			resolver := NewPathResolver()
			resolver.LookPath = tc.lookPath
			if tc.stat != nil {
				resolver.Stat = tc.stat
			}

			state := resolver.Resolve(tc.spec)
			if state.Status != tc.wantStatus {
				t.Errorf("Status = %q, want %q", state.Status, tc.wantStatus)
			}
			if state.Source != tc.wantSource {
				t.Errorf("Source = %q, want %q", state.Source, tc.wantSource)
			}
			if tc.wantPath != "" && state.ResolvedPath != tc.wantPath {
				t.Errorf("ResolvedPath = %q, want %q", state.ResolvedPath, tc.wantPath)
			}
		})
	}
}

func TestBuildDependencyInventory(t *testing.T) {
	specs := BuildDependencyInventory("whisperserver", true)

	byID := map[string]DependencySpec{}
	for _, spec := range specs {
		byID[spec.ID] = spec
	}

	for _, id := range []string{"ffmpeg", "ffprobe"} {
		if byID[id].Tier != DependencyTierMust {
			t.Errorf("%s tier = %q, want must", id, byID[id].Tier)
		}
	}
	if !strings.Contains(byID["redis-server"].Hint, "Queue is enabled") {
		t.Errorf("redis hint = %q, want queue-enabled wording", byID["redis-server"].Hint)
	}
	if !strings.Contains(byID["whisper-server"].Hint, "Current transcribe provider") {
		t.Errorf("whisper-server hint = %q, want active-provider wording", byID["whisper-server"].Hint)
	}
}

func TestFormatDependencyReportIncludesErrors(t *testing.T) {
	states := []DependencyState{
		{
			DependencySpec: DependencySpec{Name: "ffmpeg", Tier: DependencyTierMust, Hint: "install ffmpeg"},
			Status:         DependencyStatusMissing,
			Source:         DependencySourceLookPath,
			Error:          "executable file not found in $PATH",
		},
	}

	report := FormatDependencyReport(states)
	for _, want := range []string{"ffmpeg", "MUST", "missing", "install ffmpeg", "not found"} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestIsMissingPathError(t *testing.T) {
	if !isMissingPathError(exec.ErrNotFound) {
		t.Error("exec.ErrNotFound should be a missing-path error")
	}
	if !isMissingPathError(&os.PathError{Op: "stat", Path: "/x", Err: os.ErrNotExist}) {
		t.Error("os.ErrNotExist path error should be a missing-path error")
	}
	if isMissingPathError(errors.New("permission denied")) {
		t.Error("permission denied should not be a missing-path error")
	}
}
