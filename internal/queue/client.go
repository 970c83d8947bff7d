package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amankumarsingh77/episode-transcoder/internal/config"
	"github.com/amankumarsingh77/episode-transcoder/internal/models"
	"github.com/amankumarsingh77/episode-transcoder/pkg/logger"
	"github.com/amankumarsingh77/episode-transcoder/pkg/phpserialize"
	"github.com/amankumarsingh77/episode-transcoder/pkg/utils"
	"github.com/google/uuid"
)

// Client pushes and consumes Laravel-compatible job envelopes on one redis
// list.
type Client struct {
	repo       RedisRepository
	registry   *Registry
	dispatcher *Dispatcher
	logger     logger.Logger

	key        string
	pushKey    string
	jobHandler string
	popTimeout time.Duration
	backoffMin time.Duration
	backoffMax time.Duration

	maxCPU      float64
	cpuInterval time.Duration
	checkCPU    func(max float64) (bool, float64)

	onError func(error)
	onJob   func(JobEvent)
	newID   func() string
	now     func() time.Time
}

type Option func(*Client)

// WithErrorHandler receives every error the listen loop recovers from.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Client) { c.onError = fn }
}

// WithJobHandler receives event-only commands.
func WithJobHandler(fn func(JobEvent)) Option {
	return func(c *Client) { c.onJob = fn }
}

// WithCPUCheck replaces the host CPU probe used to gate dequeues.
func WithCPUCheck(fn func(max float64) (bool, float64)) Option {
	return func(c *Client) { c.checkCPU = fn }
}

// WithPushKey sets the list Push and PushEvent write to.
func WithPushKey(key string) Option {
	return func(c *Client) { c.pushKey = key }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithIDGenerator(fn func() string) Option {
	return func(c *Client) { c.newID = fn }
}

func NewClient(cfg *config.Config, repo RedisRepository, registry *Registry, log logger.Logger, opts ...Option) *Client {
	c := &Client{
		repo:        repo,
		registry:    registry,
		logger:      log,
		key:         cfg.Redis.JobQueueKey,
		pushKey:     cfg.Redis.StatusQueueKey,
		jobHandler:  cfg.Laravel.JobHandler,
		popTimeout:  cfg.Redis.PopTimeout,
		backoffMin:  cfg.Worker.BackoffMin,
		backoffMax:  cfg.Worker.BackoffMax,
		maxCPU:      cfg.Worker.MaxCPUUsage,
		cpuInterval: cfg.Worker.CPUCheckInterval,
		checkCPU:    utils.CheckCPUUsage,
		newID:       uuid.NewString,
		now:         time.Now,
	}
	if c.pushKey == "" {
		c.pushKey = c.key
	}
	if c.jobHandler == "" {
		c.jobHandler = models.CallQueuedHandler
	}
	if c.backoffMin <= 0 {
		c.backoffMin = time.Second
	}
	if c.backoffMax < c.backoffMin {
		c.backoffMax = c.backoffMin
	}
	if c.cpuInterval <= 0 {
		c.cpuInterval = 10 * time.Second
	}
	for _, opt := range opts {
		opt(c)
	}
	c.dispatcher = NewDispatcher(registry, c.onJob)
	return c
}

// Push serializes cmd and appends it to the outbound queue as a job for
// commandName.
func (c *Client) Push(ctx context.Context, commandName string, cmd interface{}) (*models.JobEnvelope, error) {
	payload, err := phpserialize.Marshal(cmd, c.registry.Scope())
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", commandName, err)
	}
	id := c.newID()
	env := &models.JobEnvelope{
		UUID:        id,
		DisplayName: commandName,
		Job:         c.jobHandler,
		Data: models.JobEnvelopeData{
			CommandName: commandName,
			Command:     string(payload),
		},
		ID:       id,
		Attempts: 0,
		PushedAt: c.now().UnixMilli(),
	}
	if err := c.pushJSON(ctx, env); err != nil {
		return nil, err
	}
	return env, nil
}

// PushEvent appends an {event, data} envelope carrying the serialized obj.
func (c *Client) PushEvent(ctx context.Context, event string, obj interface{}) error {
	payload, err := phpserialize.Marshal(obj, c.registry.Scope())
	if err != nil {
		return fmt.Errorf("serialize %s: %w", event, err)
	}
	return c.pushJSON(ctx, &models.EventEnvelope{Event: event, Data: string(payload)})
}

func (c *Client) pushJSON(ctx context.Context, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.repo.Push(ctx, c.pushKey, body); err != nil {
		return fmt.Errorf("%w: %w", ErrQueueUnavailable, err)
	}
	return nil
}

// Listen consumes the queue one job at a time until ctx is cancelled. Errors
// are passed to the error handler and never stop the loop. A job that has
// started is allowed to finish after cancellation.
func (c *Client) Listen(ctx context.Context) error {
	c.logger.Infof("listening on %s", c.key)
	backoff := c.backoffMin
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !c.waitForCPU(ctx) {
			return ctx.Err()
		}

		payload, ok, err := c.repo.Pop(ctx, c.key, c.popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.emitError(fmt.Errorf("%w: %w", ErrQueueUnavailable, err))
			c.logger.Warnf("queue pop failed, retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff *= 2
			if backoff > c.backoffMax {
				backoff = c.backoffMax
			}
			continue
		}
		backoff = c.backoffMin
		if !ok {
			continue
		}

		if err := c.handle(context.WithoutCancel(ctx), payload); err != nil {
			c.emitError(err)
		}
	}
}

// rawEnvelope covers both job and event envelopes.
type rawEnvelope struct {
	UUID  string          `json:"uuid"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func (c *Client) handle(ctx context.Context, payload []byte) error {
	var raw rawEnvelope
	if err := json.Unmarshal(payload, &raw); err != nil {
		return fmt.Errorf("%w: envelope: %v", ErrDeserialize, err)
	}

	if raw.Event != "" {
		var data string
		if err := json.Unmarshal(raw.Data, &data); err != nil {
			return fmt.Errorf("%w: event %s: %v", ErrDeserialize, raw.Event, err)
		}
		c.logger.Infof("event popped: %s", raw.Event)
		return c.dispatcher.Dispatch(ctx, raw.Event, data)
	}

	var data models.JobEnvelopeData
	if err := json.Unmarshal(raw.Data, &data); err != nil {
		return fmt.Errorf("%w: envelope data: %v", ErrDeserialize, err)
	}
	if data.CommandName == "" {
		return fmt.Errorf("%w: envelope %s has no commandName", ErrDeserialize, raw.UUID)
	}
	c.logger.Infof("job popped: uuid=%s command=%s", raw.UUID, data.CommandName)
	return c.dispatcher.Dispatch(ctx, data.CommandName, data.Command)
}

func (c *Client) waitForCPU(ctx context.Context) bool {
	if c.maxCPU <= 0 || c.checkCPU == nil {
		return true
	}
	for {
		canAccept, usage := c.checkCPU(c.maxCPU)
		if canAccept {
			return true
		}
		c.logger.Infof("CPU usage %.2f%% too high, waiting...", usage)
		if !sleep(ctx, c.cpuInterval) {
			return false
		}
	}
}

func (c *Client) emitError(err error) {
	c.logger.Errorf("queue: %v", err)
	if c.onError != nil {
		c.onError(err)
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
