package log

import (
	"path/filepath"
	"testing"
)

func TestResolveLogDirDefaultsToCurrentDir(t *testing.T) {
	old := logDirResolver
	logDirResolver = func() string { return "  " }
	t.Cleanup(func() { logDirResolver = old })

	if got := ResolveLogDir(); got != "." {
		t.Fatalf("ResolveLogDir() = %q, want %q", got, ".")
	}
}

func TestResolveLogFilePathUsesConfiguredDir(t *testing.T) {
	old := logDirResolver
	logDirResolver = func() string { return "/var/log/clipforge" }
	t.Cleanup(func() { logDirResolver = old })

	want := filepath.Join("/var/log/clipforge", logFileName)
	if got := ResolveLogFilePath(); got != want {
		t.Fatalf("ResolveLogFilePath() = %q, want %q", got, want)
	}
}

func TestInitLoggerWritesToTempDir(t *testing.T) {
	tmp := t.TempDir()
	old := logDirResolver
	logDirResolver = func() string { return tmp }
	t.Cleanup(func() { logDirResolver = old })

	InitLogger()
	if Logger == nil {
		t.Fatalf("InitLogger() left Logger nil")
	}
	Logger.Info("logger smoke test")
	_ = Logger.Sync()
}
