package posts

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codewandler/posts-go/core/geom"
)

// testSnapshot is a fixed handle->position table serving as both snapshot and
// provider.
type testSnapshot map[Handle]geom.Vec3

func (s testSnapshot) Snapshot() Snapshot { return s }

func (s testSnapshot) Lookup(h Handle) (geom.Vec3, bool) {
	p, ok := s[h]
	return p, ok
}

// missCaster never blocks a ray.
type missCaster struct{}

func (missCaster) Cast([]Ray, []Hit) {}

// pointCaster blocks the first ray of every cast at a fixed point.
type pointCaster struct {
	point geom.Vec3
}

func (c pointCaster) Cast(rays []Ray, hits []Hit) {
	if len(hits) > 0 {
		hits[0] = Hit{Point: c.point}
	}
}

// gateCaster holds every cast until the gate is opened.
type gateCaster struct {
	gate chan struct{}
}

func newGateCaster() *gateCaster {
	return &gateCaster{gate: make(chan struct{})}
}

func (c *gateCaster) open() { close(c.gate) }

func (c *gateCaster) Cast([]Ray, []Hit) { <-c.gate }

// eventRec records scheduler events in order.
type eventRec struct {
	dispatched []Handle
	completed  []Handle
	dropped    []string // "handle:reason"
}

func (r *eventRec) QueryDispatched(h Handle, _ int) { r.dispatched = append(r.dispatched, h) }
func (r *eventRec) QueryCompleted(h Handle, _ int)  { r.completed = append(r.completed, h) }
func (r *eventRec) QueryDropped(h Handle, reason string) {
	r.dropped = append(r.dropped, string(h)+":"+reason)
}

func testParams() QueryParams {
	return QueryParams{Angle: 60, Distance: 10, Step: 5, Depth: 1}
}

func newTestScheduler(t *testing.T, snap testSnapshot, caster Caster, rec *eventRec) *Scheduler {
	t.Helper()
	s, err := New(Options{
		Snapshot:       snap,
		Caster:         caster,
		Events:         rec,
		MaxWorkerCount: 5,
		FramesPerTick:  5,
	})
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

// tick advances n frames.
func tick(s *Scheduler, n int) {
	for i := 0; i < n; i++ {
		s.Tick()
	}
}

func TestNew_Validation(t *testing.T) {
	snap := testSnapshot{}

	_, err := New(Options{Snapshot: snap})
	require.Error(t, err, "caster required")

	_, err = New(Options{Caster: missCaster{}})
	require.Error(t, err, "snapshot required")

	_, err = New(Options{Snapshot: snap, Caster: missCaster{}, FramesPerTick: 3})
	require.Error(t, err, "frames per tick must exceed the complete offset")

	_, err = New(Options{Snapshot: snap, Caster: missCaster{}, FramesPerTick: 2})
	require.Error(t, err)

	_, err = New(Options{Snapshot: snap, Caster: missCaster{}, MaxWorkerCount: -1})
	require.Error(t, err)

	s, err := New(Options{Snapshot: snap, Caster: missCaster{}})
	require.NoError(t, err)
	defer s.Close()
	require.NotEmpty(t, s.id)
}

func TestEnqueue_InvalidParams(t *testing.T) {
	s := newTestScheduler(t, testSnapshot{}, missCaster{}, &eventRec{})

	err := s.Enqueue(Command{Self: "a", Target: "b", Params: QueryParams{Step: 0, Depth: 1}})
	require.Error(t, err)
	err = s.Enqueue(Command{Self: "a", Target: "b", Params: QueryParams{Step: 5, Depth: 0}})
	require.Error(t, err)
	require.Zero(t, s.Len())
}

func TestScheduler_RoundTripNoObstacles(t *testing.T) {
	snap := testSnapshot{
		"self":   {X: 0, Y: 0, Z: 0},
		"target": {X: 10, Y: 0, Z: 0},
	}
	rec := &eventRec{}
	s := newTestScheduler(t, snap, missCaster{}, rec)

	require.NoError(t, s.Enqueue(Command{
		Self:      "self",
		Target:    "target",
		LayerMask: 1,
		Params:    testParams(),
	}))

	tick(s, 4) // consume at frame 0, complete at frame 3
	require.Empty(t, s.Posts("self"), "no obstacles, no posts")
	require.True(t, s.IsFree("self"))
	require.Equal(t, []Handle{"self"}, rec.dispatched)
	require.Equal(t, []Handle{"self"}, rec.completed)
	require.Empty(t, rec.dropped)
}

func TestScheduler_AdmissionCapAndFIFO(t *testing.T) {
	snap := testSnapshot{"target": {X: 1}}
	var handles []Handle
	for _, h := range []Handle{"a", "b", "c", "d", "e", "f", "g", "h"} {
		snap[h] = geom.Vec3{Z: float64(len(handles))}
		handles = append(handles, h)
	}

	rec := &eventRec{}
	s := newTestScheduler(t, snap, missCaster{}, rec)

	for _, h := range handles {
		require.NoError(t, s.Enqueue(Command{Self: h, Target: "target", Params: testParams()}))
	}
	require.Equal(t, 8, s.Len())

	s.Tick() // consume: cap of 5
	require.Equal(t, handles[:5], rec.dispatched, "dispatch follows FIFO order")
	require.Equal(t, 3, s.Len())

	tick(s, 3) // complete at frame 3
	require.Len(t, rec.completed, 5)

	tick(s, 2) // next consume at frame 5
	require.Equal(t, handles, rec.dispatched)
	require.Zero(t, s.Len())
}

func TestScheduler_BusyDrop(t *testing.T) {
	snap := testSnapshot{
		"self":   {},
		"target": {X: 10},
	}
	rec := &eventRec{}
	s := newTestScheduler(t, snap, pointCaster{point: geom.Vec3{X: 1, Y: 2, Z: 3}}, rec)

	cmd := Command{Self: "self", Target: "target", LayerMask: 1, Params: testParams()}
	require.NoError(t, s.Enqueue(cmd))
	require.NoError(t, s.Enqueue(cmd))
	require.Equal(t, 2, s.Len())

	// Both commands are dequeued in one consume: the first dispatches,
	// the second hits a running worker and is dropped.
	s.Tick()
	require.Zero(t, s.Len())
	require.Equal(t, []Handle{"self"}, rec.dispatched)
	require.Equal(t, []string{"self:" + DropReasonBusy}, rec.dropped)

	// The drop does not disturb the running job's outcome.
	tick(s, 3)
	require.Equal(t, []geom.Vec3{{X: 1, Y: 2, Z: 3}}, s.Posts("self"))
	require.True(t, s.IsFree("self"))
}

func TestScheduler_IsFreeLifecycle(t *testing.T) {
	snap := testSnapshot{
		"self":   {},
		"target": {X: 5},
	}
	caster := newGateCaster()
	s := newTestScheduler(t, snap, caster, &eventRec{})

	require.True(t, s.IsFree("self"), "never queried")

	require.NoError(t, s.Enqueue(Command{Self: "self", Target: "target", Params: testParams()}))
	require.False(t, s.IsFree("self"), "pending")

	s.Tick() // dispatch
	require.False(t, s.IsFree("self"), "running")

	tick(s, 2) // frames 1, 2: still strictly between dispatch and harvest
	require.False(t, s.IsFree("self"))

	caster.open()
	s.Tick() // frame 3: complete
	require.True(t, s.IsFree("self"))
}

func TestScheduler_MissingActorDrop(t *testing.T) {
	snap := testSnapshot{"self": {}}
	rec := &eventRec{}
	s := newTestScheduler(t, snap, missCaster{}, rec)

	require.NoError(t, s.Enqueue(Command{Self: "self", Target: "ghost", Params: testParams()}))
	s.Tick()

	require.Empty(t, rec.dispatched)
	require.Equal(t, []string{"self:" + DropReasonMissingActor}, rec.dropped)
	require.True(t, s.IsFree("self"), "worker returns to idle after the drop")
}

func TestScheduler_PendingSurvivesHarvest(t *testing.T) {
	snap := testSnapshot{
		"self":   {},
		"target": {X: 5},
	}
	rec := &eventRec{}
	s, err := New(Options{
		Snapshot:       snap,
		Caster:         missCaster{},
		Events:         rec,
		MaxWorkerCount: 1,
		FramesPerTick:  5,
	})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Enqueue(Command{Self: "self", Target: "target", Params: testParams()}))
	require.NoError(t, s.Enqueue(Command{Self: "self", Target: "target", Params: testParams()}))

	s.Tick() // cap 1: only the first command dispatches
	require.Equal(t, 1, s.Len())

	tick(s, 3) // harvest; the queued command keeps the worker pending
	require.False(t, s.IsFree("self"))

	tick(s, 2) // frame 5: second consume dispatches the queued command
	tick(s, 3) // frame 8: harvest
	require.True(t, s.IsFree("self"))
	require.Len(t, rec.completed, 2)
	require.Empty(t, rec.dropped)
}

func TestScheduler_Close(t *testing.T) {
	snap := testSnapshot{
		"self":   {},
		"target": {X: 5},
	}
	caster := newGateCaster()
	s, err := New(Options{Snapshot: snap, Caster: caster})
	require.NoError(t, err)

	require.NoError(t, s.Enqueue(Command{Self: "self", Target: "target", Params: testParams()}))
	s.Tick() // dispatch

	// Close force-joins the in-flight job.
	caster.open()
	s.Close()
	s.Close() // idempotent

	require.ErrorIs(t, s.Enqueue(Command{Self: "x", Target: "target", Params: testParams()}), ErrSchedulerClosed)
	s.Tick() // no-op after close
}
