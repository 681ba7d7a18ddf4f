package main

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"clipforge/config"
	"clipforge/internal/deps"
	"clipforge/internal/storage"
	"clipforge/log"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:          "clipforge",
	Short:        "Cut short highlight clips from long local videos",
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the clipforge version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("clipforge", Version)
	},
}

// bootstrap performs the startup sequence shared by serve and analyze:
// .env, config, logger, database, stale-task cleanup, ffmpeg check.
func bootstrap() error {
	_ = godotenv.Load() // best-effort: load .env if present

	created, err := config.LoadOrCreateConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log.InitLogger()
	if created {
		log.GetLogger().Info("已生成默认配置文件 default config.toml created, fill in the llm api key")
	}

	if err = config.CheckConfig(); err != nil {
		return fmt.Errorf("check config: %w", err)
	}

	storage.InitDB()

	if count, err := storage.MarkStaleTasks(); err != nil {
		log.GetLogger().Warn("Failed to mark stale tasks", zap.Error(err))
	} else if count > 0 {
		log.GetLogger().Info("Marked stale tasks as failed", zap.Int64("count", count))
	}

	if err = deps.CheckDependency(config.Conf.Transcribe.Provider, config.Conf.Queue.Enabled); err != nil {
		return fmt.Errorf("check dependencies: %w", err)
	}
	return nil
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
}
