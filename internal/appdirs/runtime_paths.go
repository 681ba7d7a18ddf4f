package appdirs

import (
	"path/filepath"
	"strings"
)

const (
	UploadRootName = "uploads"
	dbFileName     = "clipforge.db"
)

func TaskDirFor(paths Paths, taskID string) string {
	return filepath.Join(normalizeDir(paths.TasksDir, "tasks"), taskID)
}

func UploadRootFor(paths Paths) string {
	return filepath.Join(normalizeDir(paths.DataDir, "data"), UploadRootName)
}

func DBPathFor(paths Paths) string {
	return filepath.Join(normalizeDir(paths.DataDir, "data"), dbFileName)
}

func ResolveConfigFile() (string, error) {
	paths, err := Resolve()
	if err != nil {
		return "", err
	}
	return paths.ConfigFile, nil
}

func ResolveDBPath() (string, error) {
	paths, err := Resolve()
	if err != nil {
		return "", err
	}
	return DBPathFor(paths), nil
}

func normalizeDir(dir, fallback string) string {
	cleaned := strings.TrimSpace(dir)
	if cleaned == "" {
		return fallback
	}
	return filepath.Clean(cleaned)
}
