package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/posts-go/core/geom"
)

// ErrSchedulerClosed is returned when Enqueue is called on a closed scheduler.
var ErrSchedulerClosed = errors.New("scheduler is closed")

// completeOffset is the number of frames between a Consume and the Complete
// that harvests its batch. It must stay below FramesPerTick so a batch is
// always harvested before the next dispatch can reuse its workers.
const completeOffset = 3

// Options configure a Scheduler. Snapshot and Caster are required; everything
// else has a usable default.
type Options struct {
	// ID names the scheduler in logs. Default: a random "posts-XXXXXX" id.
	ID string
	// Logger is the structured logger. Default: slog.Default().
	Logger *slog.Logger
	// Metrics receives instrumentation. Default: no-op.
	Metrics Metrics
	// Events observes dispatch/complete/drop activity. Default: no-op.
	Events Events
	// MaxWorkerCount caps command admissions per Consume cycle, not the
	// size of the worker pool. Default: 5.
	MaxWorkerCount int
	// FramesPerTick is the Consume cadence in frames. Must be greater
	// than 3 so a batch is harvested before the next Consume. Default: 25.
	FramesPerTick int
	// Snapshot supplies actor positions once per Consume cycle.
	Snapshot SnapshotProvider
	// Caster evaluates the batched line casts.
	Caster Caster
}

// Scheduler amortizes post queries across frames with two periodic phases:
// Consume admits and dispatches queued commands, Complete joins the batch
// and harvests results. See the package documentation for the model.
type Scheduler struct {
	id       string
	log      *slog.Logger
	metrics  Metrics
	events   Events
	maxWork  int
	perTick  int
	snapshot SnapshotProvider
	caster   Caster

	mu     sync.Mutex
	queue  []Command
	pool   map[Handle]*worker
	batch  []batchEntry
	frame  int
	closed bool
}

// batchEntry records one dispatched job for the pending Complete.
type batchEntry struct {
	handle Handle
	w      *worker
}

// New creates a Scheduler and validates its configuration.
func New(opts Options) (*Scheduler, error) {
	if opts.Caster == nil {
		return nil, errors.New("posts: caster is required")
	}
	if opts.Snapshot == nil {
		return nil, errors.New("posts: snapshot provider is required")
	}
	if opts.MaxWorkerCount == 0 {
		opts.MaxWorkerCount = 5
	}
	if opts.MaxWorkerCount < 1 {
		return nil, fmt.Errorf("posts: max worker count must be >= 1, got %d", opts.MaxWorkerCount)
	}
	if opts.FramesPerTick == 0 {
		opts.FramesPerTick = 25
	}
	if opts.FramesPerTick <= completeOffset {
		return nil, fmt.Errorf("posts: frames per tick must be > %d, got %d", completeOffset, opts.FramesPerTick)
	}
	if opts.ID == "" {
		opts.ID = fmt.Sprintf("posts-%s", gonanoid.Must(6))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopMetrics()
	}
	if opts.Events == nil {
		opts.Events = NopEvents()
	}

	return &Scheduler{
		id:       opts.ID,
		log:      opts.Logger.With(slog.String("scheduler", opts.ID)),
		metrics:  opts.Metrics,
		events:   opts.Events,
		maxWork:  opts.MaxWorkerCount,
		perTick:  opts.FramesPerTick,
		snapshot: opts.Snapshot,
		caster:   opts.Caster,
		pool:     make(map[Handle]*worker),
	}, nil
}

// Enqueue appends a query command to the FIFO and marks the actor's worker
// pending, creating the worker on first use. The queue is unbounded; callers
// that outpace the tick rate should throttle on [Scheduler.IsFree].
func (s *Scheduler) Enqueue(cmd Command) error {
	if cmd.Params.Step < 1 || cmd.Params.Depth < 1 {
		return fmt.Errorf("posts: invalid query params: step=%d depth=%d", cmd.Params.Step, cmd.Params.Depth)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSchedulerClosed
	}

	w := s.workerFor(cmd.Self)
	if w.state == stateIdle {
		w.state = statePending
	}
	w.pending++
	s.queue = append(s.queue, cmd)
	s.metrics.QueueDepth(len(s.queue))
	return nil
}

// Tick advances the scheduler by one frame. Every FramesPerTick frames it
// runs Consume; three frames after each Consume it runs Complete. Tick on a
// closed scheduler is a no-op.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	switch s.frame % s.perTick {
	case 0:
		s.consume()
	case completeOffset:
		s.complete()
	}
	s.frame++
}

// Run drives Tick on a fixed cadence until ctx is cancelled. It is a
// convenience for hosts without their own frame loop; frame-locked hosts call
// Tick directly.
func (s *Scheduler) Run(ctx context.Context, frameInterval time.Duration) error {
	if frameInterval <= 0 {
		frameInterval = 16 * time.Millisecond
	}
	t := time.NewTicker(frameInterval)
	defer t.Stop()

	s.log.Info("scheduler running", slog.Duration("frame_interval", frameInterval))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			s.Tick()
		}
	}
}

// consume is the admission phase: it takes a fresh snapshot and dequeues up
// to maxWork commands, dispatching each to its worker. A command whose worker
// is still running is dropped, not requeued; that enforces the one-job-per-
// worker invariant by discarding. Dropped commands count against the cycle's
// admission cap.
func (s *Scheduler) consume() {
	if len(s.queue) == 0 {
		return
	}

	snap := s.snapshot.Snapshot()

	for i := 0; i < s.maxWork && len(s.queue) > 0; i++ {
		cmd := s.queue[0]
		s.queue = s.queue[1:]

		w := s.pool[cmd.Self]
		w.pending--

		if w.state == stateRunning {
			s.log.Warn("command dropped, worker busy",
				slog.String("actor", string(cmd.Self)))
			s.metrics.CommandDropped(DropReasonBusy)
			s.events.QueryDropped(cmd.Self, DropReasonBusy)
			continue
		}

		selfPos, okSelf := snap.Lookup(cmd.Self)
		targetPos, okTarget := snap.Lookup(cmd.Target)
		if !okSelf || !okTarget {
			if w.pending == 0 {
				w.state = stateIdle
			}
			s.log.Warn("command dropped, actor missing from snapshot",
				slog.String("actor", string(cmd.Self)),
				slog.String("target", string(cmd.Target)))
			s.metrics.CommandDropped(DropReasonMissingActor)
			s.events.QueryDropped(cmd.Self, DropReasonMissingActor)
			continue
		}

		w.state = stateRunning
		w.job = startCast(cmd, selfPos, targetPos, s.caster)
		w.job.timer = s.metrics.JobDuration()
		s.batch = append(s.batch, batchEntry{handle: cmd.Self, w: w})

		s.metrics.JobDispatched()
		s.events.QueryDispatched(cmd.Self, cmd.Params.RayCount())
	}

	s.metrics.QueueDepth(len(s.queue))
	s.metrics.WorkersRunning(len(s.batch))
}

// complete is the harvest phase: it joins every job dispatched by the
// previous Consume, harvests its posts and returns the worker to idle. The
// join is a bounded wait, the batch never exceeds maxWork.
func (s *Scheduler) complete() {
	if len(s.batch) == 0 {
		return
	}

	for _, e := range s.batch {
		s.harvest(e.handle, e.w)
	}
	s.batch = s.batch[:0]
	s.metrics.WorkersRunning(0)
}

// harvest joins w's job, swaps in the new post list and releases the
// transient buffers. This is the only place (besides Close) that releases a
// job, so every acquire has exactly one release.
func (s *Scheduler) harvest(h Handle, w *worker) {
	j := w.job
	j.join()
	j.timer.ObserveDuration()

	w.posts = harvestPosts(j.buf.hits, w.posts)
	j.buf.release()
	w.job = nil

	if w.pending > 0 {
		w.state = statePending
	} else {
		w.state = stateIdle
	}

	s.metrics.PostsHarvested(len(w.posts))
	s.events.QueryCompleted(h, len(w.posts))
}

// Posts returns the actor's posts from its last completed harvest. The slice
// is a read-only view owned by the scheduler, valid until the next harvest
// for that actor; callers must not mutate it. Unknown actors return nil.
func (s *Scheduler) Posts(h Handle) []geom.Vec3 {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.pool[h]
	if !ok {
		return nil
	}
	return w.posts
}

// IsFree reports whether the actor has neither a queued command nor a running
// job. Actors that never queried are trivially free. Callers use this to
// throttle production instead of relying on busy-drops.
func (s *Scheduler) IsFree(h Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.pool[h]
	if !ok {
		return true
	}
	return w.free()
}

// Len returns the current command queue depth.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Close force-joins any in-flight jobs, releases all buffers and drops the
// worker pool. It is idempotent; Enqueue afterwards returns
// ErrSchedulerClosed.
func (s *Scheduler) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	for _, e := range s.batch {
		j := e.w.job
		j.join()
		j.buf.release()
		e.w.job = nil
	}
	s.batch = nil
	s.queue = nil
	s.pool = nil

	s.log.Info("scheduler closed")
}

func (s *Scheduler) workerFor(h Handle) *worker {
	w, ok := s.pool[h]
	if !ok {
		w = &worker{}
		s.pool[h] = w
	}
	return w
}
