// Package posts computes candidate tactical positions ("posts") for AI
// actors by firing a fan of line-of-sight rays around a target and keeping
// the first blocked point of every contiguous blocked run.
//
// The expensive part, the fan cast, is amortized across simulation frames by
// a two-phase scheduler:
//
//   - Consume: every FramesPerTick frames, up to MaxWorkerCount queued
//     commands are admitted and their fan casts dispatched to background
//     goroutines against a fresh actor snapshot.
//   - Complete: a fixed three frames later, the dispatched batch is joined
//     and each worker's result buffer is replaced wholesale with the
//     harvested posts.
//
// Each actor owns one worker that runs at most one query at a time. A command
// that arrives for a worker whose query is still running is dropped with a
// warning rather than requeued; callers that need guaranteed delivery should
// throttle on [Scheduler.IsFree].
//
// # Basic Usage
//
//	reg := world.NewRegistry()
//	w := world.NewStaticWorld()
//
//	s, err := posts.New(posts.Options{
//	    Snapshot: reg,
//	    Caster:   w,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer s.Close()
//
//	s.Enqueue(posts.Command{
//	    Self:      "guard-1",
//	    Target:    "intruder",
//	    LayerMask: world.LayerDefault,
//	    Params:    posts.QueryParams{Angle: 120, Distance: 12, Step: 8, Depth: 2},
//	})
//
//	// Drive one Tick per simulation frame, then read results.
//	for _, p := range s.Posts("guard-1") {
//	    fmt.Println(p)
//	}
//
// The scheduler is safe for concurrent use; kernel goroutines only ever touch
// the transient buffers they exclusively own.
package posts
