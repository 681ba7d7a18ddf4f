package service

import (
	"go.uber.org/zap"

	"clipforge/config"
	"clipforge/internal/types"
	"clipforge/log"
	"clipforge/pkg/openai"
	"clipforge/pkg/whisperserver"
)

type Service struct {
	Transcriber   types.Transcriber
	ChatCompleter types.ChatCompleter
	Renderer      types.Renderer
}

func NewService() *Service {
	var transcriber types.Transcriber

	switch config.Conf.Transcribe.Provider {
	case "openai":
		cfg := config.Conf.Transcribe.Openai
		apiKey := cfg.ApiKey
		if apiKey == "" {
			apiKey = config.Conf.Llm.ApiKey
		}
		transcriber = openai.NewClient(cfg.BaseUrl, apiKey, cfg.Model, config.Conf.App.ParsedProxy)
	case "whisperserver":
		transcriber = whisperserver.NewClient(config.Conf.Transcribe.WhisperServer.BaseUrl)
	}
	log.GetLogger().Info("transcription provider selected",
		zap.String("provider", config.Conf.Transcribe.Provider))

	chatCompleter := openai.NewClient(
		config.Conf.Llm.BaseUrl,
		config.Conf.Llm.ApiKey,
		config.Conf.Llm.Model,
		config.Conf.App.ParsedProxy,
	)

	return &Service{
		Transcriber:   transcriber,
		ChatCompleter: chatCompleter,
		Renderer:      NewFFmpegRenderer(),
	}
}
