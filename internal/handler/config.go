package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clipforge/config"
	"clipforge/internal/response"
	"clipforge/log"
	apperrors "clipforge/pkg/errors"
)

// configView is the subset of the config exposed over the API. API keys are
// write-only: accepted on update, masked on read.
type configView struct {
	LlmBaseUrl         string  `json:"llm_base_url"`
	LlmApiKey          string  `json:"llm_api_key"`
	LlmModel           string  `json:"llm_model"`
	TranscribeProvider string  `json:"transcribe_provider"`
	ChunkWindowMinutes int     `json:"chunk_window_minutes"`
	SilenceNoiseDB     float64 `json:"silence_noise_db"`
	MinSilenceDuration float64 `json:"min_silence_duration"`
	SilencePadding     float64 `json:"silence_padding"`
	MinClipDuration    int     `json:"min_clip_duration"`
	MaxClipDuration    int     `json:"max_clip_duration"`
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func (h *Handler) GetConfig(c *gin.Context) {
	response.Success(c, configView{
		LlmBaseUrl:         config.Conf.Llm.BaseUrl,
		LlmApiKey:          maskKey(config.Conf.Llm.ApiKey),
		LlmModel:           config.Conf.Llm.Model,
		TranscribeProvider: config.Conf.Transcribe.Provider,
		ChunkWindowMinutes: config.Conf.Clipper.ChunkWindowMinutes,
		SilenceNoiseDB:     config.Conf.Clipper.SilenceNoiseDB,
		MinSilenceDuration: config.Conf.Clipper.MinSilenceDuration,
		SilencePadding:     config.Conf.Clipper.SilencePadding,
		MinClipDuration:    config.Conf.Clipper.MinClipDuration,
		MaxClipDuration:    config.Conf.Clipper.MaxClipDuration,
	})
}

func (h *Handler) UpdateConfig(c *gin.Context) {
	var req configView
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "参数错误 Invalid parameters", err))
		return
	}

	if req.LlmBaseUrl != "" {
		config.Conf.Llm.BaseUrl = req.LlmBaseUrl
	}
	if req.LlmApiKey != "" {
		config.Conf.Llm.ApiKey = req.LlmApiKey
	}
	if req.LlmModel != "" {
		config.Conf.Llm.Model = req.LlmModel
	}
	if req.TranscribeProvider != "" {
		config.Conf.Transcribe.Provider = req.TranscribeProvider
	}
	if req.ChunkWindowMinutes > 0 {
		config.Conf.Clipper.ChunkWindowMinutes = req.ChunkWindowMinutes
	}
	if req.MinClipDuration > 0 {
		config.Conf.Clipper.MinClipDuration = req.MinClipDuration
	}
	if req.MaxClipDuration > 0 {
		config.Conf.Clipper.MaxClipDuration = req.MaxClipDuration
	}

	if err := config.CheckConfig(); err != nil {
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeInvalidParams, "配置校验失败 Config validation failed", err))
		return
	}
	if err := config.SaveConfig(); err != nil {
		log.GetLogger().Error("UpdateConfig SaveConfig err", zap.Error(err))
		response.ErrorResponse(c, apperrors.Wrap(apperrors.CodeFileWriteError, "配置保存失败 Failed to save config", err))
		return
	}

	configUpdated = true
	response.Success(c, nil)
}
