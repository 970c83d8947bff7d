package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/amankumarsingh77/episode-transcoder/internal/config"
	"github.com/amankumarsingh77/episode-transcoder/internal/episode"
	"github.com/amankumarsingh77/episode-transcoder/internal/metrics"
	"github.com/amankumarsingh77/episode-transcoder/internal/queue"
	queueRepo "github.com/amankumarsingh77/episode-transcoder/internal/queue/repository"
	"github.com/amankumarsingh77/episode-transcoder/internal/server"
	storageRepo "github.com/amankumarsingh77/episode-transcoder/internal/storage/repository"
	"github.com/amankumarsingh77/episode-transcoder/internal/transcode"
	"github.com/amankumarsingh77/episode-transcoder/pkg/db/aws"
	clientRedis "github.com/amankumarsingh77/episode-transcoder/pkg/db/redis"
	"github.com/amankumarsingh77/episode-transcoder/pkg/logger"
	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newListenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Consume the job queue until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, appLogger, err := ctx.load()
			if err != nil {
				return err
			}
			defer appLogger.Sync()
			return runListen(cmd.Context(), cfg, appLogger)
		},
	}
}

func runListen(parent context.Context, cfg *config.Config, appLogger logger.Logger) error {
	appLogger.Infof("AppVersion: %s, LogLevel: %s, Mode: %s", cfg.Server.AppVersion, cfg.Logger.Level, cfg.Server.Mode)

	if cfg.Worker.LockFile != "" {
		lock := flock.New(cfg.Worker.LockFile)
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return errors.New("another worker instance is already running")
		}
		defer lock.Unlock()
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := clientRedis.NewRedisClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("could not connect to redis: %w", err)
	}
	defer redisClient.Close()
	appLogger.Infof("redis connected")

	s3Client, err := aws.NewAWSClient(ctx, cfg.S3.Endpoint, cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey)
	if err != nil {
		return fmt.Errorf("could not connect to s3: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m, err := metrics.NewMetrics(reg)
	if err != nil {
		return err
	}

	pipeline, err := transcode.NewPipeline(cfg.Transcode, appLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := pipeline.Close(); err != nil {
			appLogger.Warnf("release encoder cgroup: %v", err)
		}
	}()

	deps := &episode.Deps{
		Cfg:        cfg,
		Storage:    storageRepo.NewAwsRepository(s3Client),
		Transcoder: pipeline,
		Metrics:    m,
		Logger:     appLogger,
	}
	registry := queue.NewRegistry()
	if err := episode.Register(registry, deps); err != nil {
		return err
	}

	client := queue.NewClient(cfg, queueRepo.NewQueueRedisRepo(redisClient), registry, appLogger,
		queue.WithErrorHandler(func(err error) {
			m.QueueError(queue.ErrorKind(err))
		}),
		queue.WithJobHandler(func(ev queue.JobEvent) {
			appLogger.Infof("event-only command %s: %+v", ev.Name, ev.Data)
		}),
	)
	// Commands are built lazily on dequeue, so the publisher can be set after
	// registration.
	deps.Publisher = client

	if cfg.Server.Port != "" {
		checks := map[string]server.HealthCheck{
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
			"s3": func(ctx context.Context) error {
				_, err := s3Client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: awssdk.String(cfg.S3.Bucket)})
				return err
			},
		}
		s := server.NewServer(cfg, reg, checks, appLogger)
		go func() {
			if err := s.Run(ctx); err != nil {
				appLogger.Errorf("metrics server: %v", err)
			}
		}()
	}

	if err := client.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	appLogger.Infof("worker stopped")
	return nil
}
