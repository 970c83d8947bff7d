package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/amankumarsingh77/episode-transcoder/internal/models"
	"github.com/amankumarsingh77/episode-transcoder/pkg/utils"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Logger    Logger
	Redis     RedisConfig
	S3        S3Config
	Worker    WorkerConfig
	Transcode TranscodeConfig
	Laravel   LaravelConfig
}

type ServerConfig struct {
	AppVersion string
	Port       string
	Mode       string
}

type Logger struct {
	Development       bool
	DisableCaller     bool
	DisableStacktrace bool
	Encoding          string `validate:"omitempty,oneof=console json"`
	Level             string
}

type RedisConfig struct {
	RedisAddr     string `validate:"required"`
	RedisPassword string
	DB            int
	MinIdleConns  int
	PoolSize      int
	PoolTimeout   int
	TLS           bool
	JobQueueKey   string `validate:"required"`

	// StatusQueueKey receives outbound status commands; empty means JobQueueKey.
	StatusQueueKey string

	// PopTimeout bounds each BLPOP so shutdown is noticed; 0 blocks forever.
	PopTimeout time.Duration
}

type S3Config struct {
	Endpoint     string
	Region       string `validate:"required"`
	AccessKey    string
	SecretKey    string
	Bucket       string `validate:"required"`
	SourcePrefix string
	OutputPrefix string
}

type WorkerConfig struct {
	WorkDir          string `validate:"required"`
	LockFile         string
	MaxCPUUsage      float64 `validate:"gte=0,lte=100"`
	CPUCheckInterval time.Duration
	BackoffMin       time.Duration `validate:"gt=0"`
	BackoffMax       time.Duration `validate:"gtefield=BackoffMin"`
}

type TranscodeConfig struct {
	FFmpegBinary   string `validate:"required"`
	FFprobeBinary  string `validate:"required"`
	SegmentSeconds int    `validate:"gt=0"`
	AspectRatio    string `validate:"required"`
	EncodeTimeout  time.Duration
	CPUShares      uint64
	Renditions     []models.Rendition `validate:"dive"`
}

type LaravelConfig struct {
	JobHandler     string `validate:"required"`
	ProcessCommand string `validate:"required"`
	StatusCommand  string `validate:"required"`
}

// Ratio parses AspectRatio given as "16:9", "16/9" or a decimal.
func (t TranscodeConfig) Ratio() (float64, error) {
	raw := strings.TrimSpace(t.AspectRatio)
	for _, sep := range []string{":", "/"} {
		if num, den, ok := strings.Cut(raw, sep); ok {
			n, err1 := strconv.ParseFloat(strings.TrimSpace(num), 64)
			d, err2 := strconv.ParseFloat(strings.TrimSpace(den), 64)
			if err1 != nil || err2 != nil || n <= 0 || d <= 0 {
				return 0, fmt.Errorf("invalid aspect ratio %q", t.AspectRatio)
			}
			return n / d, nil
		}
	}
	r, err := strconv.ParseFloat(raw, 64)
	if err != nil || r <= 0 {
		return 0, fmt.Errorf("invalid aspect ratio %q", t.AspectRatio)
	}
	return r, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.appVersion", "1.0.0")
	v.SetDefault("server.port", ":9102")
	v.SetDefault("server.mode", "production")

	v.SetDefault("logger.level", "info")

	v.SetDefault("redis.redisAddr", "localhost:6379")
	v.SetDefault("redis.poolSize", 4)
	v.SetDefault("redis.poolTimeout", 30)
	v.SetDefault("redis.jobQueueKey", "queues:default")
	v.SetDefault("redis.popTimeout", "5s")

	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "local")
	v.SetDefault("s3.sourcePrefix", "episodes")
	v.SetDefault("s3.outputPrefix", "processed")

	v.SetDefault("worker.workDir", "tmp")
	v.SetDefault("worker.cpuCheckInterval", "10s")
	v.SetDefault("worker.backoffMin", "1s")
	v.SetDefault("worker.backoffMax", "30s")

	v.SetDefault("transcode.ffmpegBinary", "ffmpeg")
	v.SetDefault("transcode.ffprobeBinary", "ffprobe")
	v.SetDefault("transcode.segmentSeconds", 5)
	v.SetDefault("transcode.aspectRatio", "16:9")

	v.SetDefault("laravel.jobHandler", models.CallQueuedHandler)
	v.SetDefault("laravel.processCommand", `App\Jobs\ProcessEpisode`)
	v.SetDefault("laravel.statusCommand", `App\Jobs\EpisodeUpdated`)
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(filename)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", filename)
		}
		return nil, err
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if c.Redis.StatusQueueKey == "" {
		c.Redis.StatusQueueKey = c.Redis.JobQueueKey
	}
	if len(c.Transcode.Renditions) == 0 {
		c.Transcode.Renditions = models.DefaultRenditions()
	}
	if err := utils.ValidateStruct(context.Background(), &c); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Transcode.Ratio(); err != nil {
		return nil, err
	}
	return &c, nil
}
