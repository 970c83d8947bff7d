// Package episode implements the queue commands that drive episode
// transcoding and report its status back to the web application.
package episode

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"time"

	"github.com/amankumarsingh77/episode-transcoder/internal/config"
	"github.com/amankumarsingh77/episode-transcoder/internal/fsutil"
	"github.com/amankumarsingh77/episode-transcoder/internal/models"
	"github.com/amankumarsingh77/episode-transcoder/internal/queue"
	"github.com/amankumarsingh77/episode-transcoder/internal/storage"
	"github.com/amankumarsingh77/episode-transcoder/internal/transcode"
	"github.com/amankumarsingh77/episode-transcoder/pkg/logger"
	"github.com/amankumarsingh77/episode-transcoder/pkg/utils"
)

// Publisher pushes a command onto the shared queue.
type Publisher interface {
	Push(ctx context.Context, commandName string, cmd interface{}) (*models.JobEnvelope, error)
}

// Transcoder runs the HLS pipeline for one source file.
type Transcoder interface {
	Run(ctx context.Context, src, dest string, hooks transcode.Hooks) (*transcode.Result, error)
}

// Recorder receives job metrics. It may be nil.
type Recorder interface {
	JobStatus(status string)
	JobFinished(elapsed time.Duration)
	Progress(percent int)
}

// Deps are the collaborators shared by every ProcessEpisode.
type Deps struct {
	Cfg        *config.Config
	Publisher  Publisher
	Storage    storage.AWSRepository
	Transcoder Transcoder
	Metrics    Recorder
	Logger     logger.Logger
}

// Register adds the episode commands to reg under their configured class
// names.
func Register(reg *queue.Registry, deps *Deps) error {
	if err := reg.Executable(deps.Cfg.Laravel.ProcessCommand, func() queue.Handler {
		return NewProcessEpisode(deps)
	}); err != nil {
		return err
	}
	return reg.EventOnly(deps.Cfg.Laravel.StatusCommand, func() interface{} {
		return &EpisodeUpdated{}
	})
}

// EpisodeUpdated is the status report consumed by the web application.
type EpisodeUpdated struct {
	Episode string               `php:"episode"`
	Status  models.EpisodeStatus `php:"status"`
	Seconds *float64             `php:"seconds"`
}

// ProcessEpisode transcodes one uploaded episode to HLS.
type ProcessEpisode struct {
	Episode string `php:"episode" validate:"required,max=255,excludesall=/,ne=.,ne=.."`

	deps *Deps
}

func NewProcessEpisode(deps *Deps) *ProcessEpisode {
	return &ProcessEpisode{deps: deps}
}

// Handle reports processing, runs the job and reports exactly one of
// success or failed.
func (p *ProcessEpisode) Handle(ctx context.Context) error {
	if err := utils.ValidateStruct(ctx, p); err != nil {
		return p.reject(ctx, fmt.Errorf("invalid episode %q: %w", p.Episode, err))
	}
	log := p.deps.Logger.With("episode", p.Episode)
	start := time.Now()

	if err := p.report(ctx, models.EpisodeStatusProcessing, nil); err != nil {
		return fmt.Errorf("report processing: %w", err)
	}

	seconds, err := p.process(ctx, log)
	if p.deps.Metrics != nil {
		p.deps.Metrics.JobFinished(time.Since(start))
	}
	if err != nil {
		log.Errorf("episode failed: %v", err)
		if rmErr := fsutil.Remove(p.workDir()); rmErr != nil {
			log.Warnf("cleanup failed: %v", rmErr)
		}
		if pushErr := p.report(ctx, models.EpisodeStatusFailed, nil); pushErr != nil {
			return errors.Join(err, fmt.Errorf("report failed: %w", pushErr))
		}
		return err
	}

	if err := p.report(ctx, models.EpisodeStatusSuccess, &seconds); err != nil {
		return fmt.Errorf("report success: %w", err)
	}
	log.Infof("episode processed in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// reject reports processing then failed for a job that never touches disk or
// storage. The name is only echoed back, never used as a path.
func (p *ProcessEpisode) reject(ctx context.Context, cause error) error {
	p.deps.Logger.Errorf("episode rejected: %v", cause)
	for _, status := range []models.EpisodeStatus{models.EpisodeStatusProcessing, models.EpisodeStatusFailed} {
		if err := p.report(ctx, status, nil); err != nil {
			return errors.Join(cause, fmt.Errorf("report %s: %w", status, err))
		}
	}
	return cause
}

func (p *ProcessEpisode) workDir() string {
	return filepath.Join(p.deps.Cfg.Worker.WorkDir, p.Episode)
}

func (p *ProcessEpisode) process(ctx context.Context, log logger.Logger) (float64, error) {
	cfg := p.deps.Cfg
	workDir := p.workDir()
	src := filepath.Join(workDir, "source")
	out := filepath.Join(workDir, "output")
	sourceKey := path.Join(cfg.S3.SourcePrefix, p.Episode)
	outputKey := path.Join(cfg.S3.OutputPrefix, p.Episode)

	if err := fsutil.CreateDir(out); err != nil {
		return 0, err
	}
	log.Infof("downloading %s", sourceKey)
	if err := p.deps.Storage.Download(ctx, cfg.S3.Bucket, sourceKey, src); err != nil {
		return 0, err
	}

	res, err := p.deps.Transcoder.Run(ctx, src, out, transcode.Hooks{
		OnProgress: func(pct int) {
			log.Debugf("progress %d%%", pct)
			if p.deps.Metrics != nil {
				p.deps.Metrics.Progress(pct)
			}
		},
		OnEnd: func(r *transcode.Result) {
			log.Infof("encoded %d renditions in %s", len(r.Renditions), r.Elapsed.Round(time.Millisecond))
		},
	})
	if err != nil {
		return 0, fmt.Errorf("transcode: %w", err)
	}

	if err := fsutil.Remove(src); err != nil {
		return 0, err
	}
	keys, err := p.deps.Storage.UploadDirectory(ctx, cfg.S3.Bucket, out, outputKey)
	if err != nil {
		return 0, err
	}
	log.Infof("uploaded %d objects to %s", len(keys), outputKey)

	if err := p.deps.Storage.RemoveObject(ctx, cfg.S3.Bucket, sourceKey); err != nil {
		return 0, err
	}
	if err := fsutil.Remove(workDir); err != nil {
		return 0, err
	}
	return res.Duration, nil
}

func (p *ProcessEpisode) report(ctx context.Context, status models.EpisodeStatus, seconds *float64) error {
	_, err := p.deps.Publisher.Push(ctx, p.deps.Cfg.Laravel.StatusCommand, &EpisodeUpdated{
		Episode: p.Episode,
		Status:  status,
		Seconds: seconds,
	})
	if err != nil {
		return err
	}
	if p.deps.Metrics != nil {
		p.deps.Metrics.JobStatus(string(status))
	}
	return nil
}
