package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"clipforge/config"
	"clipforge/internal/dto"
	"clipforge/internal/storage"
	"clipforge/internal/types"
	"clipforge/log"
	apperrors "clipforge/pkg/errors"
	"clipforge/pkg/util"
)

const renderConcurrency = 2

// StartClipTask validates the request, persists a task row and runs the clip
// pipeline in the background. Stage artifacts are checkpointed in the task
// directory so a retried task skips completed stages.
func (s *Service) StartClipTask(req dto.StartClipTaskReq) (*dto.StartClipTaskResData, error) {
	stepParam, err := s.prepareClipTask(req, "任务已创建 Task created")
	if err != nil {
		return nil, err
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				const size = 64 << 10
				buf := make([]byte, size)
				buf = buf[:runtime.Stack(buf, false)]
				log.GetLogger().Error("clip task panic", zap.Any("panic", r), zap.ByteString("stack", buf))
				stepParam.TaskPtr.Status = types.ClipTaskStatusFailed
				stepParam.TaskPtr.FailReason = fmt.Sprintf("panic: %v", r)
				_ = storage.SaveTask(stepParam.TaskPtr)
			}
		}()
		s.runClipPipeline(context.Background(), stepParam)
	}()

	return &dto.StartClipTaskResData{TaskId: stepParam.TaskId}, nil
}

// QueueClipTask validates the request and persists a pending task row without
// running the pipeline. Callers hand execution to a background worker, which
// picks the row up through StartClipTask with ReuseTaskId set.
func (s *Service) QueueClipTask(req dto.StartClipTaskReq) (*dto.StartClipTaskResData, error) {
	stepParam, err := s.prepareClipTask(req, "任务已排队 Task queued")
	if err != nil {
		return nil, err
	}
	return &dto.StartClipTaskResData{TaskId: stepParam.TaskId}, nil
}

// prepareClipTask validates the media path, creates the task directory and
// upserts the task row in the processing state.
func (s *Service) prepareClipTask(req dto.StartClipTaskReq, statusMsg string) (*types.ClipTaskStepParam, error) {
	if _, err := os.Stat(req.MediaPath); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeMediaNotFound, "媒体文件不存在 Media file not found", err)
	}

	var taskId string
	if req.ReuseTaskId != "" {
		taskId = req.ReuseTaskId
	} else {
		base := strings.TrimSuffix(filepath.Base(req.MediaPath), filepath.Ext(req.MediaPath))
		runes := []rune(util.SanitizePathName(base))
		if len(runes) > 16 {
			runes = runes[:16]
		}
		taskId = fmt.Sprintf("%s_%s", string(runes), util.GenerateRandStringWithUpperLowerNum(4))
	}

	taskBasePath := filepath.Join(config.Conf.App.TasksDir, taskId)
	if err := os.MkdirAll(filepath.Join(taskBasePath, "output"), os.ModePerm); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeFileWriteError, "创建任务目录失败 Failed to create task dir", err)
	}

	var taskPtr *types.ClipTask
	if req.ReuseTaskId != "" {
		taskPtr, _ = storage.GetTask(taskId)
	}
	if taskPtr == nil {
		taskPtr = &types.ClipTask{
			TaskId:   taskId,
			MediaSrc: req.MediaPath,
		}
	}
	taskPtr.Status = types.ClipTaskStatusProcessing
	taskPtr.FailReason = ""
	taskPtr.StatusMsg = statusMsg
	taskPtr.ProcessPct = 0
	if err := storage.SaveTask(taskPtr); err != nil {
		log.GetLogger().Error("prepareClipTask SaveTask err", zap.Error(err))
		return nil, apperrors.Wrap(apperrors.CodeDBError, "保存任务失败 Failed to save task", err)
	}

	return &types.ClipTaskStepParam{
		TaskId:       taskId,
		TaskPtr:      taskPtr,
		TaskBasePath: taskBasePath,
		MediaPath:    req.MediaPath,
		Language:     req.Language,
	}, nil
}

// runClipPipeline drives the stages in order: silence trim, audio extraction,
// transcription, chunked analysis, overlap resolution, clip rendering.
func (s *Service) runClipPipeline(ctx context.Context, stepParam *types.ClipTaskStepParam) {
	taskId := stepParam.TaskId
	log.GetLogger().Info("clip task start", zap.String("taskId", taskId))

	fail := func(stage string, msg string, err error) {
		log.GetLogger().Error("clip task "+stage+" err", zap.String("taskId", taskId), zap.Error(err))
		stepParam.TaskPtr.Status = types.ClipTaskStatusFailed
		stepParam.TaskPtr.FailReason = err.Error()
		stepParam.TaskPtr.StatusMsg = msg
		_ = storage.SaveTask(stepParam.TaskPtr)
	}
	progress := func(pct uint8, msg string) {
		stepParam.TaskPtr.ProcessPct = pct
		stepParam.TaskPtr.StatusMsg = msg
		_ = storage.SaveTask(stepParam.TaskPtr)
	}

	progress(5, "正在检测静音 Detecting Silence...")
	if err := s.trimSilence(ctx, stepParam); err != nil {
		fail("trimSilence", "静音裁剪失败 Silence Trim Failed", err)
		return
	}

	progress(30, "正在提取音频 Extracting Audio...")
	if err := s.extractTimelineAudio(ctx, stepParam); err != nil {
		fail("extractAudio", "音频提取失败 Audio Extraction Failed", err)
		return
	}

	progress(40, "正在转录 Transcribing...")
	srtText, err := s.transcribeTimeline(ctx, stepParam)
	if err != nil {
		fail("transcribe", "转录失败 Transcription Failed", err)
		return
	}

	progress(55, "正在分析精彩时刻 Analyzing Moments...")
	entries := ParseSubtitles(srtText)
	if len(entries) == 0 {
		// Nothing parseable is not a crash: finish with zero clips so the
		// caller can see the task ran and found nothing to analyze.
		log.GetLogger().Warn("clip task transcript empty", zap.String("taskId", taskId))
		stepParam.TaskPtr.Status = types.ClipTaskStatusSuccess
		stepParam.TaskPtr.StatusMsg = "未解析到字幕，无可分析内容 No parseable transcript"
		stepParam.TaskPtr.ProcessPct = 100
		_ = storage.SaveTask(stepParam.TaskPtr)
		return
	}

	candidates := s.loadOrAnalyzeCandidates(stepParam, entries)

	progress(75, "正在筛选片段 Selecting Clips...")
	selected := ResolveOverlaps(candidates)

	progress(80, "正在渲染切片 Rendering Clips...")
	clips := s.renderClips(ctx, stepParam, selected)

	stepParam.TaskPtr.Clips = clips
	stepParam.TaskPtr.Status = types.ClipTaskStatusSuccess
	stepParam.TaskPtr.StatusMsg = "任务完成 Completed"
	stepParam.TaskPtr.ProcessPct = 100
	_ = storage.SaveTask(stepParam.TaskPtr)

	log.GetLogger().Info("clip task end",
		zap.String("taskId", taskId),
		zap.Int("candidates", len(candidates)),
		zap.Int("clips", len(clips)))
}

// trimSilence computes sound segments and renders the silence-free timeline.
// When there is nothing to cut the source file is used as-is.
func (s *Service) trimSilence(ctx context.Context, stepParam *types.ClipTaskStepParam) error {
	trimmedPath := filepath.Join(stepParam.TaskBasePath, "trimmed.mp4")
	if _, err := os.Stat(trimmedPath); err == nil {
		stepParam.TrimmedPath = trimmedPath
		return nil
	}

	totalDuration, err := s.Renderer.Probe(ctx, stepParam.MediaPath)
	if err != nil {
		return err
	}

	silences, err := s.Renderer.DetectSilence(ctx, stepParam.MediaPath,
		config.Conf.Clipper.SilenceNoiseDB, config.Conf.Clipper.MinSilenceDuration)
	if err != nil {
		return err
	}
	if len(silences) == 0 {
		log.GetLogger().Info("no silence detected, using source directly",
			zap.String("taskId", stepParam.TaskId))
		stepParam.TrimmedPath = stepParam.MediaPath
		return nil
	}

	segments := ComputeSoundSegments(silences, totalDuration,
		config.Conf.Clipper.SilencePadding, DefaultSilenceMergeGap)
	if len(segments) == 0 {
		// Entire media sits below the merge threshold; rendering an empty
		// segment list would produce garbage, so keep the source.
		log.GetLogger().Warn("no sound segments computed, using source directly",
			zap.String("taskId", stepParam.TaskId))
		stepParam.TrimmedPath = stepParam.MediaPath
		return nil
	}

	if err = s.Renderer.RemoveSilence(ctx, stepParam.MediaPath, trimmedPath, segments); err != nil {
		return err
	}
	stepParam.TrimmedPath = trimmedPath
	return nil
}

func (s *Service) extractTimelineAudio(ctx context.Context, stepParam *types.ClipTaskStepParam) error {
	audioPath := filepath.Join(stepParam.TaskBasePath, "audio.mp3")
	if _, err := os.Stat(audioPath); err == nil {
		stepParam.AudioPath = audioPath
		return nil
	}
	if err := s.Renderer.ExtractAudio(ctx, stepParam.TrimmedPath, audioPath); err != nil {
		return err
	}
	stepParam.AudioPath = audioPath
	return nil
}

// transcribeTimeline returns the SRT text, reusing the checkpoint file when a
// previous run already produced it for this source.
func (s *Service) transcribeTimeline(ctx context.Context, stepParam *types.ClipTaskStepParam) (string, error) {
	transcriptPath := filepath.Join(stepParam.TaskBasePath, "transcript.srt")
	if data, err := os.ReadFile(transcriptPath); err == nil {
		log.GetLogger().Info("reusing transcript checkpoint", zap.String("taskId", stepParam.TaskId))
		return string(data), nil
	}

	srtText, err := s.Transcriber.TranscribeToSRT(ctx, stepParam.AudioPath, stepParam.Language)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeTranscribeFailed, "转录失败 Transcription failed", err)
	}
	if err = os.WriteFile(transcriptPath, []byte(srtText), 0o644); err != nil {
		log.GetLogger().Warn("failed to write transcript checkpoint", zap.Error(err))
	}
	return srtText, nil
}

// loadOrAnalyzeCandidates chunks the entries and collects LLM proposals,
// checkpointing the merged candidate map. Analysis degrades soft per chunk,
// so there is no failure mode: the worst case is an empty candidate map.
func (s *Service) loadOrAnalyzeCandidates(stepParam *types.ClipTaskStepParam, entries []types.SubtitleEntry) map[string]types.Candidate {
	candidatesPath := filepath.Join(stepParam.TaskBasePath, "candidates.json")
	if data, err := os.ReadFile(candidatesPath); err == nil {
		var cached map[string]types.Candidate
		if err = json.Unmarshal(data, &cached); err == nil {
			log.GetLogger().Info("reusing candidates checkpoint", zap.String("taskId", stepParam.TaskId))
			return cached
		}
		log.GetLogger().Warn("discarding corrupt candidates checkpoint", zap.Error(err))
	}

	chunks := ChunkByDuration(entries, config.Conf.Clipper.ChunkWindowMinutes)
	log.GetLogger().Info("transcript chunked",
		zap.String("taskId", stepParam.TaskId),
		zap.Int("entries", len(entries)),
		zap.Int("chunks", len(chunks)))

	candidates := s.AnalyzeChunks(chunks)
	if data, err := json.Marshal(candidates); err == nil {
		if err = os.WriteFile(candidatesPath, data, 0o644); err != nil {
			log.GetLogger().Warn("failed to write candidates checkpoint", zap.Error(err))
		}
	}
	return candidates
}

// renderClips renders the selected candidates concurrently. A failed render is
// recorded on its clip and does not stop the others.
func (s *Service) renderClips(ctx context.Context, stepParam *types.ClipTaskStepParam, selected map[string]types.Candidate) []types.ClipInfo {
	keys := make([]string, 0, len(selected))
	for key := range selected {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	clips := make([]types.ClipInfo, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(renderConcurrency)

	for i, key := range keys {
		i, key := i, key
		cand := selected[key]
		outputPath := filepath.Join(stepParam.TaskBasePath, "output", util.SanitizePathName(key)+".mp4")
		g.Go(func() error {
			info := types.ClipInfo{
				Key:   key,
				Title: cand.Title,
				Start: cand.Start,
				End:   cand.End,
				Score: cand.Score,
			}
			if err := s.Renderer.RenderClip(gctx, stepParam.TrimmedPath, outputPath, cand.Start, cand.End); err != nil {
				log.GetLogger().Error("clip render failed",
					zap.String("taskId", stepParam.TaskId),
					zap.String("key", key),
					zap.Error(err))
				info.FailReason = err.Error()
			} else {
				info.Path = outputPath
			}
			clips[i] = info
			return nil
		})
	}
	_ = g.Wait()
	return clips
}

func (s *Service) GetTaskStatus(req dto.GetClipTaskReq) (*dto.GetClipTaskResData, error) {
	taskPtr, err := storage.GetTask(req.TaskId)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "任务不存在 Task not found", err)
	}
	return &dto.GetClipTaskResData{
		TaskId:         taskPtr.TaskId,
		Status:         taskPtr.Status,
		StatusMsg:      taskPtr.StatusMsg,
		ProcessPercent: taskPtr.ProcessPct,
		Clips: lo.Map(taskPtr.Clips, func(item types.ClipInfo, _ int) *dto.ClipInfo {
			return &dto.ClipInfo{
				Key:        item.Key,
				Title:      item.Title,
				Start:      item.Start,
				End:        item.End,
				Score:      item.Score,
				Path:       item.Path,
				FailReason: item.FailReason,
			}
		}),
	}, nil
}
