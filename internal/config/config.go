package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Upload     UploadConfig
	FFmpeg     FFmpegConfig
	Processing ProcessingConfig
	Job        JobConfig
}

type ServerConfig struct {
	Port     string `validate:"required"`
	LogLevel string
	// WorkDir is the root under which per-job directories are created.
	WorkDir string `validate:"required"`
	// StaticDir holds the browser UI; served when non-empty.
	StaticDir string
}

type UploadConfig struct {
	MaxFiles      int `validate:"gte=1"`
	MaxFileSizeMB int `validate:"gte=1"`
	PerHour       int `validate:"gte=1"` // upload rate limit per client
}

type FFmpegConfig struct {
	Path string `validate:"required"`
}

type ProcessingConfig struct {
	// Concurrency bounds jobs simultaneously processing, not tool
	// processes; a job's files always run one at a time.
	Concurrency   int     `validate:"gte=1"`
	NoiseDb       float64 `validate:"lt=0"`
	MinSilenceSec float64 `validate:"gt=0"`
	PreBufferSec  float64 `validate:"gte=0"`
	PostBufferSec float64 `validate:"gte=0"`
	MinKeepSec    float64 `validate:"gte=0"`
	FadeSec       float64 `validate:"gte=0"`
	// KeepTrailing retains trailing silence that has no end marker
	// instead of cutting it.
	KeepTrailing bool
}

type JobConfig struct {
	TTLMinutes int `validate:"gte=1"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("server.workdir", "WORK_DIR")
	_ = viper.BindEnv("server.static_dir", "STATIC_DIR")
	_ = viper.BindEnv("upload.max_files", "UPLOAD_MAX_FILES")
	_ = viper.BindEnv("upload.max_file_size_mb", "UPLOAD_MAX_FILE_SIZE_MB")
	_ = viper.BindEnv("upload.per_hour", "UPLOAD_PER_HOUR")
	_ = viper.BindEnv("ffmpeg.path", "FFMPEG_PATH")
	_ = viper.BindEnv("processing.concurrency", "PROCESSING_CONCURRENCY")
	_ = viper.BindEnv("processing.noise_db", "PROCESSING_NOISE_DB")
	_ = viper.BindEnv("processing.min_silence_sec", "PROCESSING_MIN_SILENCE_SEC")
	_ = viper.BindEnv("processing.pre_buffer_sec", "PROCESSING_PRE_BUFFER_SEC")
	_ = viper.BindEnv("processing.post_buffer_sec", "PROCESSING_POST_BUFFER_SEC")
	_ = viper.BindEnv("processing.min_keep_sec", "PROCESSING_MIN_KEEP_SEC")
	_ = viper.BindEnv("processing.fade_sec", "PROCESSING_FADE_SEC")
	_ = viper.BindEnv("processing.keep_trailing", "PROCESSING_KEEP_TRAILING")
	_ = viper.BindEnv("job.ttl_minutes", "JOB_TTL_MINUTES")

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("server.workdir", "./data")
	viper.SetDefault("server.static_dir", "./web")
	viper.SetDefault("upload.max_files", 10)
	viper.SetDefault("upload.max_file_size_mb", 1024)
	viper.SetDefault("upload.per_hour", 20)
	viper.SetDefault("ffmpeg.path", "ffmpeg")
	viper.SetDefault("processing.concurrency", 2)
	viper.SetDefault("processing.noise_db", -30.0)
	viper.SetDefault("processing.min_silence_sec", 0.5)
	viper.SetDefault("processing.pre_buffer_sec", 0.25)
	viper.SetDefault("processing.post_buffer_sec", 0.25)
	viper.SetDefault("processing.min_keep_sec", 0.2)
	viper.SetDefault("processing.fade_sec", 0.08)
	viper.SetDefault("processing.keep_trailing", false)
	viper.SetDefault("job.ttl_minutes", 60)

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:      viper.GetString("server.port"),
			LogLevel:  viper.GetString("server.log_level"),
			WorkDir:   viper.GetString("server.workdir"),
			StaticDir: viper.GetString("server.static_dir"),
		},
		Upload: UploadConfig{
			MaxFiles:      viper.GetInt("upload.max_files"),
			MaxFileSizeMB: viper.GetInt("upload.max_file_size_mb"),
			PerHour:       viper.GetInt("upload.per_hour"),
		},
		FFmpeg: FFmpegConfig{
			Path: viper.GetString("ffmpeg.path"),
		},
		Processing: ProcessingConfig{
			Concurrency:   viper.GetInt("processing.concurrency"),
			NoiseDb:       viper.GetFloat64("processing.noise_db"),
			MinSilenceSec: viper.GetFloat64("processing.min_silence_sec"),
			PreBufferSec:  viper.GetFloat64("processing.pre_buffer_sec"),
			PostBufferSec: viper.GetFloat64("processing.post_buffer_sec"),
			MinKeepSec:    viper.GetFloat64("processing.min_keep_sec"),
			FadeSec:       viper.GetFloat64("processing.fade_sec"),
			KeepTrailing:  viper.GetBool("processing.keep_trailing"),
		},
		Job: JobConfig{
			TTLMinutes: viper.GetInt("job.ttl_minutes"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
