package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/amankumarsingh77/episode-transcoder/internal/config"
	"github.com/amankumarsingh77/episode-transcoder/internal/models"
	"github.com/amankumarsingh77/episode-transcoder/pkg/logger"
)

// State is a step of a pipeline run.
type State int

const (
	StateProbing State = iota + 1
	StateRenditionSelection
	StateArgumentBuild
	StateEncoding
	StateManifestWrite
	StateDone
	StateFailed
)

var stateNames = map[State]string{
	StateProbing:            "probing",
	StateRenditionSelection: "rendition-selection",
	StateArgumentBuild:      "argument-build",
	StateEncoding:           "encoding",
	StateManifestWrite:      "manifest-write",
	StateDone:               "done",
	StateFailed:             "failed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// Hooks observe a single run. All of them are optional and are called from
// the goroutine executing Run.
type Hooks struct {
	OnStateChange func(State)
	OnProgress    func(percent int)
	OnEnd         func(*Result)
}

// Result describes a finished run.
type Result struct {
	Probe        models.ProbeResult
	Renditions   []models.Rendition
	ManifestPath string
	// Duration is the probed source length in seconds.
	Duration float64
	Elapsed  time.Duration
}

type Option func(*Pipeline)

// WithExecutor swaps the process runner, mostly for tests.
func WithExecutor(ex Executor) Option {
	return func(p *Pipeline) {
		if ex != nil {
			p.exec = ex
		}
	}
}

// Pipeline probes a source, encodes its eligible renditions to HLS and
// writes the master playlist.
type Pipeline struct {
	ffmpeg         string
	ffprobe        string
	segmentSeconds int
	aspect         float64
	renditions     []models.Rendition
	timeout        time.Duration

	exec    Executor
	limiter cpuLimiter
	logger  logger.Logger
}

func NewPipeline(cfg config.TranscodeConfig, log logger.Logger, opts ...Option) (*Pipeline, error) {
	aspect, err := cfg.Ratio()
	if err != nil {
		return nil, err
	}
	renditions := cfg.Renditions
	if len(renditions) == 0 {
		renditions = models.DefaultRenditions()
	}
	segment := cfg.SegmentSeconds
	if segment <= 0 {
		segment = 5
	}

	p := &Pipeline{
		ffmpeg:         cfg.FFmpegBinary,
		ffprobe:        cfg.FFprobeBinary,
		segmentSeconds: segment,
		aspect:         aspect,
		renditions:     renditions,
		timeout:        cfg.EncodeTimeout,
		logger:         log,
	}
	if cfg.CPUShares > 0 {
		limiter, err := newCPULimiter(fmt.Sprintf("/episode-transcoder-%d", os.Getpid()), cfg.CPUShares)
		if err != nil {
			log.Warnf("encoder CPU limit disabled: %v", err)
		} else {
			p.limiter = limiter
		}
	}
	p.exec = commandExecutor{limiter: p.limiter, logger: log}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Close releases the encoder cgroup, if one was created.
func (p *Pipeline) Close() error {
	if p.limiter == nil {
		return nil
	}
	return p.limiter.Delete()
}

func (p *Pipeline) AspectRatio() float64 { return p.aspect }

// Run transcodes src into dest, which must exist. The manifest is written
// only after the encoder succeeds.
func (p *Pipeline) Run(ctx context.Context, src, dest string, hooks Hooks) (*Result, error) {
	start := time.Now()
	enter := func(s State) {
		p.logger.Debugf("transcode %s: %s", src, s)
		if hooks.OnStateChange != nil {
			hooks.OnStateChange(s)
		}
	}
	fail := func(err error) (*Result, error) {
		enter(StateFailed)
		return nil, err
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	enter(StateProbing)
	probe, err := Probe(ctx, p.exec, p.ffprobe, src)
	if err != nil {
		return fail(err)
	}
	p.logger.Infof("source %s: %dx%d, %.2fs", src, probe.Width, probe.Height, probe.DurationSeconds)

	enter(StateRenditionSelection)
	eligible := SelectRenditions(p.renditions, probe, p.aspect)

	if len(eligible) == 0 {
		p.logger.Warnf("source %s is smaller than every rendition, writing an empty manifest", src)
	} else {
		enter(StateArgumentBuild)
		args := BuildArgs(src, dest, eligible, p.aspect, p.segmentSeconds)

		enter(StateEncoding)
		if err := p.encode(ctx, args, hooks.OnProgress); err != nil {
			return fail(err)
		}
	}

	enter(StateManifestWrite)
	manifest, err := writeManifest(dest, eligible, p.aspect)
	if err != nil {
		return fail(err)
	}

	res := &Result{
		Probe:        probe,
		Renditions:   eligible,
		ManifestPath: manifest,
		Duration:     probe.DurationSeconds,
		Elapsed:      time.Since(start),
	}
	enter(StateDone)
	if hooks.OnEnd != nil {
		hooks.OnEnd(res)
	}
	return res, nil
}

const stderrTail = 10

func (p *Pipeline) encode(ctx context.Context, args []string, onProgress func(int)) error {
	tracker := &progressTracker{onChange: onProgress}
	tail := make([]string, 0, stderrTail)
	err := p.exec.Stream(ctx, p.ffmpeg, args, func(line string) {
		tracker.observe(line)
		if len(tail) == stderrTail {
			tail = append(tail[:0], tail[1:]...)
		}
		tail = append(tail, line)
	})
	if err == nil {
		return nil
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		for _, line := range tail {
			p.logger.Errorf("ffmpeg: %s", line)
		}
		return &EncodeError{ExitCode: exitErr.Code, Err: errors.Join(exitErr, ctx.Err())}
	}
	return err
}
