package notify

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/event-tickets/internal/clock"
	"github.com/spec-kit/event-tickets/internal/domain"
	"github.com/spec-kit/event-tickets/internal/observability"
	apperrors "github.com/spec-kit/event-tickets/pkg/util/errorutil"
)

var scheduleLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
}

// ScheduleRequest describes a deferred send.
type ScheduleRequest struct {
	Ticket    *domain.Ticket
	Recipient domain.Recipient
	// When is a wall-clock date-time in the scheduler location, or RFC 3339.
	When     string
	MediaRef string
}

type scheduledJob struct {
	job   domain.NotificationJob
	timer clock.Timer
}

// Scheduler fires one-shot sends at absolute instants. A single loop
// goroutine owns the job registry; schedule, cancel, list and timer fires
// are all commands executed by that loop, so a cancel and a fire for the
// same job are never interleaved.
type Scheduler struct {
	sender  Sender
	clock   clock.Clock
	loc     *time.Location
	metrics *observability.Metrics
	logger  *zap.Logger

	cmds chan func(map[string]*scheduledJob)

	mu       sync.Mutex
	running  bool
	quit     chan struct{}
	stopped  chan struct{}
	runCtx   context.Context
	cancel   context.CancelFunc
	inFlight sync.WaitGroup
}

func NewScheduler(sender Sender, clk clock.Clock, loc *time.Location, metrics *observability.Metrics, logger *zap.Logger) *Scheduler {
	if clk == nil {
		clk = clock.Real()
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		sender:  sender,
		clock:   clk,
		loc:     loc,
		metrics: metrics,
		logger:  logger,
		cmds:    make(chan func(map[string]*scheduledJob)),
	}
}

// Start launches the registry loop. Dispatches fired by the scheduler run
// under a context derived from ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.quit = make(chan struct{})
	s.stopped = make(chan struct{})
	s.runCtx, s.cancel = context.WithCancel(ctx)
	go s.loop(s.quit, s.stopped)
	s.logger.Info("scheduler started", zap.String("location", s.loc.String()))
}

// Stop cancels every pending job and waits for in-flight dispatches.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.quit)
	stopped := s.stopped
	s.mu.Unlock()

	<-stopped
	s.inFlight.Wait()
	s.cancel()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) loop(quit, stopped chan struct{}) {
	defer close(stopped)
	jobs := make(map[string]*scheduledJob)
	for {
		select {
		case cmd := <-s.cmds:
			cmd(jobs)
			s.metrics.SetScheduledJobs(len(jobs))
		case <-quit:
			for id, entry := range jobs {
				entry.timer.Stop()
				delete(jobs, id)
			}
			s.metrics.SetScheduledJobs(0)
			return
		}
	}
}

// exec runs fn on the loop goroutine and waits for it to finish.
func (s *Scheduler) exec(ctx context.Context, fn func(map[string]*scheduledJob)) error {
	s.mu.Lock()
	running, stopped := s.running, s.stopped
	s.mu.Unlock()
	if !running {
		return apperrors.NewNotReady("scheduler")
	}

	done := make(chan struct{})
	cmd := func(jobs map[string]*scheduledJob) {
		defer close(done)
		fn(jobs)
	}
	select {
	case s.cmds <- cmd:
	case <-stopped:
		return apperrors.NewNotReady("scheduler")
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

// ParseFireTime interprets when in the scheduler location.
func (s *Scheduler) ParseFireTime(when string) (time.Time, error) {
	when = strings.TrimSpace(when)
	if when == "" {
		return time.Time{}, apperrors.NewValidationError("fire time is required", nil)
	}
	if t, err := time.Parse(time.RFC3339, when); err == nil {
		return t, nil
	}
	for _, layout := range scheduleLayouts {
		if t, err := time.ParseInLocation(layout, when, s.loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.NewValidationError("invalid fire time", map[string]any{
		"when":   when,
		"format": "YYYY-MM-DD HH:MM:SS or RFC 3339",
	})
}

// Schedule registers a one-shot send and returns the job immediately.
func (s *Scheduler) Schedule(ctx context.Context, req ScheduleRequest) (domain.NotificationJob, error) {
	if req.Ticket == nil {
		return domain.NotificationJob{}, apperrors.NewValidationError("ticket is required", nil)
	}
	fireAt, err := s.ParseFireTime(req.When)
	if err != nil {
		return domain.NotificationJob{}, err
	}
	now := s.clock.Now()
	if !fireAt.After(now) {
		return domain.NotificationJob{}, apperrors.NewValidationError("fire time must be in the future", map[string]any{
			"when": fireAt.Format(time.RFC3339),
		})
	}

	recipient := req.Recipient
	if strings.TrimSpace(recipient.Phone) == "" {
		recipient.Phone = req.Ticket.HolderPhone
	}
	job := domain.NotificationJob{
		ID:        uuid.NewString(),
		Ticket:    *req.Ticket.Clone(),
		Recipient: recipient,
		MediaRef:  req.MediaRef,
		FireAt:    fireAt,
		Status:    domain.JobStatusScheduled,
		CreatedAt: now,
	}

	err = s.exec(ctx, func(jobs map[string]*scheduledJob) {
		id := job.ID
		timer := s.clock.AfterFunc(fireAt.Sub(s.clock.Now()), func() { s.fire(id) })
		jobs[id] = &scheduledJob{job: job, timer: timer}
	})
	if err != nil {
		return domain.NotificationJob{}, err
	}

	s.logger.Info("notification scheduled",
		zap.String("job_id", job.ID),
		zap.String("ticket_id", job.Ticket.ID),
		zap.Time("fire_at", fireAt))
	return job, nil
}

// Cancel tears down a pending job. Unknown ids return false.
func (s *Scheduler) Cancel(ctx context.Context, jobID string) (bool, error) {
	var found bool
	err := s.exec(ctx, func(jobs map[string]*scheduledJob) {
		entry, ok := jobs[jobID]
		if !ok {
			return
		}
		entry.timer.Stop()
		delete(jobs, jobID)
		found = true
	})
	if err != nil {
		return false, err
	}
	if found {
		s.logger.Info("notification cancelled", zap.String("job_id", jobID))
	}
	return found, nil
}

// List snapshots pending jobs ordered by fire time.
func (s *Scheduler) List(ctx context.Context) ([]domain.NotificationJob, error) {
	var out []domain.NotificationJob
	err := s.exec(ctx, func(jobs map[string]*scheduledJob) {
		out = make([]domain.NotificationJob, 0, len(jobs))
		for _, entry := range jobs {
			out = append(out, entry.job)
		}
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FireAt.Equal(out[j].FireAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].FireAt.Before(out[j].FireAt)
	})
	return out, nil
}

// fire runs from a timer callback. The job is removed before sending; a
// job cancelled in the meantime is simply absent.
func (s *Scheduler) fire(jobID string) {
	s.mu.Lock()
	runCtx := s.runCtx
	s.mu.Unlock()
	if runCtx == nil {
		return
	}

	_ = s.exec(runCtx, func(jobs map[string]*scheduledJob) {
		entry, ok := jobs[jobID]
		if !ok {
			return
		}
		delete(jobs, jobID)
		job := entry.job
		job.Status = domain.JobStatusFired
		s.inFlight.Add(1)
		go s.dispatch(runCtx, job)
	})
}

func (s *Scheduler) dispatch(ctx context.Context, job domain.NotificationJob) {
	defer s.inFlight.Done()
	outcome, err := s.sender.Send(ctx, &job.Ticket, job.Recipient, SendOptions{MediaRef: job.MediaRef})
	if err != nil {
		s.logger.Error("scheduled notification failed",
			zap.String("job_id", job.ID),
			zap.String("ticket_id", job.Ticket.ID),
			zap.Error(err))
		return
	}
	s.logger.Info("scheduled notification fired",
		zap.String("job_id", job.ID),
		zap.String("ticket_id", job.Ticket.ID),
		zap.String("primary_method", outcome.PrimaryMethod))
}
