package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"clipforge/internal/appdirs"
)

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type AppConfig struct {
	// TasksDir is the root directory for per-task working directories.
	TasksDir string `toml:"tasks_dir"`
	// LogDir receives the JSON log file. Empty means current directory.
	LogDir string `toml:"log_dir"`
	// DBPath is the sqlite database location.
	DBPath string `toml:"db_path"`
	Proxy  string `toml:"proxy"`

	ParsedProxy *url.URL `toml:"-"`
}

type LlmConfig struct {
	BaseUrl string `toml:"base_url"`
	ApiKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

type OpenaiWhisperConfig struct {
	BaseUrl string `toml:"base_url"`
	ApiKey  string `toml:"api_key"`
	Model   string `toml:"model"`
}

type WhisperServerConfig struct {
	BaseUrl string `toml:"base_url"`
}

type TranscribeConfig struct {
	// Provider selects the transcription backend: "openai" or "whisperserver".
	Provider      string              `toml:"provider"`
	Openai        OpenaiWhisperConfig `toml:"openai"`
	WhisperServer WhisperServerConfig `toml:"whisperserver"`
}

type ClipperConfig struct {
	// ChunkWindowMinutes bounds the transcript span analyzed per LLM call.
	ChunkWindowMinutes int `toml:"chunk_window_minutes"`
	// Silence detection passed to ffmpeg silencedetect.
	SilenceNoiseDB     float64 `toml:"silence_noise_db"`
	MinSilenceDuration float64 `toml:"min_silence_duration"`
	// SilencePadding is kept around every sound segment so speech is not clipped.
	SilencePadding float64 `toml:"silence_padding"`
	// Clip duration hints forwarded to the proposal prompt, in seconds.
	MinClipDuration int `toml:"min_clip_duration"`
	MaxClipDuration int `toml:"max_clip_duration"`
}

type QueueConfig struct {
	Enabled       bool   `toml:"enabled"`
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`
	Concurrency   int    `toml:"concurrency"`
}

type Config struct {
	Server     ServerConfig     `toml:"server"`
	App        AppConfig        `toml:"app"`
	Llm        LlmConfig        `toml:"llm"`
	Transcribe TranscribeConfig `toml:"transcribe"`
	Clipper    ClipperConfig    `toml:"clipper"`
	Queue      QueueConfig      `toml:"queue"`
}

var Conf Config

// resolveConfigPath is a variable so tests can point it at a temp location.
var resolveConfigPath = func() (string, error) {
	if p := os.Getenv("CLIPFORGE_CONFIG"); p != "" {
		return p, nil
	}
	return appdirs.ResolveConfigFile()
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8888,
		},
		App: AppConfig{
			TasksDir: "tasks",
			LogDir:   "logs",
			DBPath:   filepath.Join("data", "clipforge.db"),
		},
		Llm: LlmConfig{
			Model: "gpt-4o",
		},
		Transcribe: TranscribeConfig{
			Provider: "openai",
			Openai: OpenaiWhisperConfig{
				Model: "whisper-1",
			},
		},
		Clipper: ClipperConfig{
			ChunkWindowMinutes: 10,
			SilenceNoiseDB:     -35,
			MinSilenceDuration: 1.0,
			SilencePadding:     0.1,
			MinClipDuration:    20,
			MaxClipDuration:    90,
		},
		Queue: QueueConfig{
			RedisAddr:   "localhost:6379",
			Concurrency: 3,
		},
	}
}

// LoadOrCreateConfig reads config.toml, writing a default file first when it is
// missing. The returned bool reports whether a new file was created.
func LoadOrCreateConfig() (bool, error) {
	configPath, err := resolveConfigPath()
	if err != nil {
		return false, err
	}

	created := false
	if _, err = os.Stat(configPath); os.IsNotExist(err) {
		Conf = defaultConfig()
		if err = SaveConfig(); err != nil {
			return false, fmt.Errorf("failed to write default config: %w", err)
		}
		created = true
	} else {
		if _, err = toml.DecodeFile(configPath, &Conf); err != nil {
			return false, fmt.Errorf("failed to decode config file %s: %w", configPath, err)
		}
	}

	applyEnvOverrides()

	if Conf.App.Proxy != "" {
		parsed, err := url.Parse(Conf.App.Proxy)
		if err != nil {
			return created, fmt.Errorf("invalid proxy address %q: %w", Conf.App.Proxy, err)
		}
		Conf.App.ParsedProxy = parsed
	}

	return created, nil
}

// applyEnvOverrides lets deployments inject keys without editing config.toml.
// A .env file loaded at startup feeds these.
func applyEnvOverrides() {
	if v := os.Getenv("CLIPFORGE_LLM_API_KEY"); v != "" {
		Conf.Llm.ApiKey = v
	}
	if v := os.Getenv("CLIPFORGE_LLM_BASE_URL"); v != "" {
		Conf.Llm.BaseUrl = v
	}
	if v := os.Getenv("CLIPFORGE_WHISPER_API_KEY"); v != "" {
		Conf.Transcribe.Openai.ApiKey = v
	}
	if v := os.Getenv("CLIPFORGE_REDIS_ADDR"); v != "" {
		Conf.Queue.RedisAddr = v
	}
}

// SaveConfig persists the current Conf to the resolved config path, creating
// parent directories as needed.
func SaveConfig() error {
	configPath, err := resolveConfigPath()
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}
	f, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(Conf)
}

// CheckConfig validates values the pipeline cannot run without.
func CheckConfig() error {
	if Conf.Llm.ApiKey == "" {
		return fmt.Errorf("llm api key is not configured")
	}
	switch Conf.Transcribe.Provider {
	case "openai":
		if Conf.Transcribe.Openai.ApiKey == "" && Conf.Llm.ApiKey == "" {
			return fmt.Errorf("transcribe.openai api key is not configured")
		}
	case "whisperserver":
		if Conf.Transcribe.WhisperServer.BaseUrl == "" {
			return fmt.Errorf("transcribe.whisperserver base url is not configured")
		}
	default:
		return fmt.Errorf("unsupported transcribe provider: %s", Conf.Transcribe.Provider)
	}
	if Conf.Clipper.ChunkWindowMinutes <= 0 {
		return fmt.Errorf("clipper.chunk_window_minutes must be positive")
	}
	if Conf.Clipper.MinClipDuration > Conf.Clipper.MaxClipDuration {
		return fmt.Errorf("clipper.min_clip_duration (%d) exceeds max_clip_duration (%d)",
			Conf.Clipper.MinClipDuration, Conf.Clipper.MaxClipDuration)
	}
	return nil
}
