package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"clipforge/internal/dto"
	"clipforge/internal/service"
	"clipforge/internal/storage"
	"clipforge/internal/taskrunner"
	"clipforge/internal/types"
	"clipforge/log"
)

var analyzeLanguage string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <media file>",
	Short: "Run the clip pipeline on a local file and wait for the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := bootstrap(); err != nil {
			return err
		}
		defer log.GetLogger().Sync()
		return runAnalyze(cmd, args[0])
	},
}

func runAnalyze(cmd *cobra.Command, mediaPath string) error {
	svc := service.NewService()
	runner := taskrunner.New(svc, taskrunner.Config{QueueSize: 1, Concurrency: 1})
	defer runner.Close()

	res, err := svc.QueueClipTask(dto.StartClipTaskReq{
		MediaPath: mediaPath,
		Language:  analyzeLanguage,
	})
	if err != nil {
		return err
	}
	if err = runner.DispatchClipTask(res.TaskId, mediaPath, analyzeLanguage); err != nil {
		return err
	}
	cmd.Printf("task %s started\n", res.TaskId)

	// The pipeline runs in the background; poll until it settles.
	var lastMsg string
	for {
		time.Sleep(time.Second)
		task, err := storage.GetTask(res.TaskId)
		if err != nil {
			return err
		}
		if task.StatusMsg != lastMsg {
			lastMsg = task.StatusMsg
			cmd.Printf("[%3d%%] %s\n", task.ProcessPct, task.StatusMsg)
		}
		switch task.Status {
		case types.ClipTaskStatusSuccess:
			cmd.Printf("done, %d clip(s)\n", len(task.Clips))
			for _, clip := range task.Clips {
				if clip.FailReason != "" {
					cmd.Printf("  %s: failed (%s)\n", clip.Key, clip.FailReason)
					continue
				}
				cmd.Printf("  %s: %q %.1fs-%.1fs score %.1f -> %s\n",
					clip.Key, clip.Title, clip.Start, clip.End, clip.Score, clip.Path)
			}
			return nil
		case types.ClipTaskStatusFailed:
			return fmt.Errorf("task failed: %s", task.FailReason)
		}
	}
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeLanguage, "language", "", "Spoken language hint for transcription")
}
