package usecase

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/riskibarqy/mlb-scorecard/internal/platform/logging"
	"go.opentelemetry.io/otel/trace"
)

const (
	ReminderScanJobPath = "/v1/internal/jobs/reminder-scan"
	LiveSyncJobPath     = "/v1/internal/jobs/sync-live"
)

type JobQueue interface {
	Enqueue(ctx context.Context, path string, payload any, delay time.Duration, deduplicationID string) error
}

type noopJobQueue struct{}

func (noopJobQueue) Enqueue(context.Context, string, any, time.Duration, string) error {
	return nil
}

func NewNoopJobQueue() JobQueue {
	return noopJobQueue{}
}

type JobConfig struct {
	ReminderScanInterval time.Duration
	LiveSyncInterval     time.Duration
}

type JobInput struct {
	// Chain enqueues the next run after this one finishes.
	Chain bool `json:"chain"`
}

type ReminderJobResult struct {
	ScanResult
	NextQueued bool `json:"next_queued"`
}

type LiveJobResult struct {
	LiveSyncResult
	NextQueued bool `json:"next_queued"`
}

type reminderScanner interface {
	Scan(ctx context.Context) (ScanResult, error)
}

type liveSyncer interface {
	SyncActive(ctx context.Context) (LiveSyncResult, error)
}

// JobService runs the periodic jobs and keeps their self-scheduling chain
// going through the job queue.
type JobService struct {
	reminders reminderScanner
	live      liveSyncer
	queue     JobQueue
	cfg       JobConfig
	logger    *logging.Logger
	now       func() time.Time
}

var dedupUnsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func NewJobService(reminders reminderScanner, live liveSyncer, queue JobQueue, cfg JobConfig, logger *logging.Logger) *JobService {
	if queue == nil {
		queue = NewNoopJobQueue()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.ReminderScanInterval <= 0 {
		cfg.ReminderScanInterval = 5 * time.Minute
	}
	if cfg.LiveSyncInterval <= 0 {
		cfg.LiveSyncInterval = 30 * time.Second
	}
	return &JobService{
		reminders: reminders,
		live:      live,
		queue:     queue,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *JobService) RunReminderScan(ctx context.Context, input JobInput) (ReminderJobResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobService.RunReminderScan")
	defer span.End()

	scan, err := s.reminders.Scan(ctx)
	if err != nil {
		return ReminderJobResult{}, err
	}
	result := ReminderJobResult{ScanResult: scan}
	if input.Chain {
		result.NextQueued = s.enqueue(ctx, ReminderScanJobPath, "reminder-scan", s.cfg.ReminderScanInterval)
	}
	return result, nil
}

func (s *JobService) RunLiveSync(ctx context.Context, input JobInput) (LiveJobResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.JobService.RunLiveSync")
	defer span.End()

	synced, err := s.live.SyncActive(ctx)
	if err != nil {
		return LiveJobResult{}, err
	}
	result := LiveJobResult{LiveSyncResult: synced}
	if input.Chain && synced.Active > synced.Finished {
		result.NextQueued = s.enqueue(ctx, LiveSyncJobPath, "sync-live", s.cfg.LiveSyncInterval)
	}
	return result, nil
}

// enqueue logs queue failures; a broken chain is restarted by the next external trigger.
func (s *JobService) enqueue(ctx context.Context, path, name string, delay time.Duration) bool {
	dedupID := dedupKey(name, s.now().Add(delay), delay)
	traceID, spanID := traceMetaFromContext(ctx)
	payload := map[string]any{
		"chain":       true,
		"dispatch_id": dedupID,
		"trace_id":    traceID,
		"span_id":     spanID,
	}
	if err := s.queue.Enqueue(ctx, path, payload, delay, dedupID); err != nil {
		s.logger.WarnContext(ctx, "enqueue next job failed", "job", name, "dispatch_id", dedupID, "error", err)
		return false
	}
	s.logger.InfoContext(ctx, "next job enqueued", "job", name, "dispatch_id", dedupID, "delay", delay.String())
	return true
}

// dedupKey buckets run times so concurrent chains collapse into one queued job per slot.
func dedupKey(name string, at time.Time, bucket time.Duration) string {
	if bucket <= 0 {
		bucket = time.Minute
	}
	slot := at.UTC().Truncate(bucket).Format("20060102T150405Z")
	return sanitizeDedupSegment(name) + "-" + slot
}

func sanitizeDedupSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return dedupUnsafeChars.ReplaceAllString(value, "-")
}

func traceMetaFromContext(ctx context.Context) (string, string) {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return "", ""
	}
	return sc.TraceID().String(), sc.SpanID().String()
}
