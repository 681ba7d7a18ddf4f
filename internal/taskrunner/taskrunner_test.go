package taskrunner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clipforge/config"
	"clipforge/internal/dto"
	"clipforge/internal/mocks"
	"clipforge/internal/service"
	"clipforge/internal/storage"
	"clipforge/internal/types"
	"clipforge/log"
)

func init() {
	log.Logger = zap.NewNop()
}

type runnerFixture struct {
	svc         *service.Service
	transcriber *mocks.MockTranscriber
	renderer    *mocks.MockRenderer
	completer   *mocks.MockChatCompleter
	mediaPath   string
}

func setupRunner(t *testing.T) *runnerFixture {
	t.Helper()

	tmp := t.TempDir()
	config.Conf.App.TasksDir = filepath.Join(tmp, "tasks")
	config.Conf.App.DBPath = filepath.Join(tmp, "clipforge.db")
	config.Conf.Clipper.ChunkWindowMinutes = 10
	config.Conf.Clipper.SilenceNoiseDB = -35
	config.Conf.Clipper.MinSilenceDuration = 1.0
	config.Conf.Clipper.SilencePadding = 0.1
	storage.InitDB()

	mediaPath := filepath.Join(tmp, "podcast.mp4")
	require.NoError(t, os.WriteFile(mediaPath, []byte("not a real mp4"), 0o644))

	f := &runnerFixture{
		transcriber: new(mocks.MockTranscriber),
		renderer:    new(mocks.MockRenderer),
		completer:   new(mocks.MockChatCompleter),
		mediaPath:   mediaPath,
	}
	f.svc = &service.Service{
		Transcriber:   f.transcriber,
		ChatCompleter: f.completer,
		Renderer:      f.renderer,
	}
	return f
}

func waitForTask(t *testing.T, taskId string) *types.ClipTask {
	t.Helper()
	var task *types.ClipTask
	require.Eventually(t, func() bool {
		got, err := storage.GetTask(taskId)
		if err != nil || got.Status == types.ClipTaskStatusProcessing {
			return false
		}
		task = got
		return true
	}, 5*time.Second, 20*time.Millisecond)
	return task
}

func TestRunnerExecutesQueuedTask(t *testing.T) {
	f := setupRunner(t)

	f.renderer.On("Probe", mock.Anything, f.mediaPath).Return(60.0, nil)
	f.renderer.On("DetectSilence", mock.Anything, f.mediaPath, -35.0, 1.0).
		Return([]types.SilenceInterval{}, nil)
	f.renderer.On("ExtractAudio", mock.Anything, f.mediaPath, mock.AnythingOfType("string")).
		Return(nil)
	f.transcriber.On("TranscribeToSRT", mock.Anything, mock.AnythingOfType("string"), "en").
		Return("", nil)

	runner := New(f.svc, DefaultConfig())
	defer runner.Close()

	res, err := f.svc.QueueClipTask(dto.StartClipTaskReq{MediaPath: f.mediaPath, Language: "en"})
	require.NoError(t, err)

	queued, err := storage.GetTask(res.TaskId)
	require.NoError(t, err)
	assert.Contains(t, queued.StatusMsg, "Task queued")

	require.NoError(t, runner.DispatchClipTask(res.TaskId, f.mediaPath, "en"))

	task := waitForTask(t, res.TaskId)
	assert.Equal(t, types.ClipTaskStatusSuccess, task.Status)
	f.completer.AssertNotCalled(t, "ChatCompletion", mock.Anything)
}

func TestRunnerMarksQueuedTaskFailed(t *testing.T) {
	f := setupRunner(t)

	res, err := f.svc.QueueClipTask(dto.StartClipTaskReq{MediaPath: f.mediaPath})
	require.NoError(t, err)

	// The media disappears between queueing and execution.
	require.NoError(t, os.Remove(f.mediaPath))

	runner := New(f.svc, DefaultConfig())
	defer runner.Close()
	require.NoError(t, runner.DispatchClipTask(res.TaskId, f.mediaPath, ""))

	task := waitForTask(t, res.TaskId)
	assert.Equal(t, types.ClipTaskStatusFailed, task.Status)
	assert.Contains(t, task.FailReason, "Media file not found")
}

func TestRunnerRejectsAfterClose(t *testing.T) {
	f := setupRunner(t)

	runner := New(f.svc, DefaultConfig())
	runner.Close()

	err := runner.SubmitClipTask(ClipTaskPayload{TaskID: "late", MediaPath: f.mediaPath})
	assert.ErrorIs(t, err, ErrRunnerStopped)
}

func TestRunnerRejectsEmptyMediaPath(t *testing.T) {
	f := setupRunner(t)

	runner := New(f.svc, DefaultConfig())
	defer runner.Close()

	err := runner.SubmitClipTask(ClipTaskPayload{TaskID: "noop"})
	assert.Error(t, err)
}

func TestNormalizeConfigDefaults(t *testing.T) {
	cfg := normalizeConfig(Config{})
	assert.Equal(t, defaultQueueSize, cfg.QueueSize)
	assert.Equal(t, defaultConcurrency, cfg.Concurrency)

	cfg = normalizeConfig(Config{QueueSize: 4, Concurrency: 1})
	assert.Equal(t, 4, cfg.QueueSize)
	assert.Equal(t, 1, cfg.Concurrency)
}
