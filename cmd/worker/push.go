package main

import (
	"context"
	"fmt"

	"github.com/amankumarsingh77/episode-transcoder/internal/episode"
	"github.com/amankumarsingh77/episode-transcoder/internal/queue"
	queueRepo "github.com/amankumarsingh77/episode-transcoder/internal/queue/repository"
	clientRedis "github.com/amankumarsingh77/episode-transcoder/pkg/db/redis"
	"github.com/spf13/cobra"
)

func newPushCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "push <episode>",
		Short: "Queue an uploaded episode for transcoding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, appLogger, err := ctx.load()
			if err != nil {
				return err
			}
			defer appLogger.Sync()

			c := cmd.Context()
			if c == nil {
				c = context.Background()
			}
			redisClient, err := clientRedis.NewRedisClient(c, cfg)
			if err != nil {
				return fmt.Errorf("could not connect to redis: %w", err)
			}
			defer redisClient.Close()

			deps := &episode.Deps{Cfg: cfg, Logger: appLogger}
			registry := queue.NewRegistry()
			if err := episode.Register(registry, deps); err != nil {
				return err
			}
			client := queue.NewClient(cfg, queueRepo.NewQueueRedisRepo(redisClient), registry, appLogger,
				queue.WithPushKey(cfg.Redis.JobQueueKey))

			job := episode.NewProcessEpisode(deps)
			job.Episode = args[0]
			env, err := client.Push(c, cfg.Laravel.ProcessCommand, job)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued %s as job %s on %s\n", job.Episode, env.UUID, cfg.Redis.JobQueueKey)
			return nil
		},
	}
}
