package posts

import "github.com/codewandler/posts-go/core/geom"

// workerState is the per-actor query state machine:
// idle -> pending -> running -> idle.
type workerState uint8

const (
	stateIdle workerState = iota
	statePending
	stateRunning
)

func (s workerState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case statePending:
		return "pending"
	case stateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// worker holds the query state for one actor. Workers are created lazily on
// first enqueue and live until the scheduler is closed.
//
// posts is the persistent result buffer; it is replaced wholesale at harvest
// and never partially updated. The transient ray/hit buffers live on job and
// exist only between dispatch and harvest. At most one job runs per worker.
type worker struct {
	state   workerState
	pending int // commands in the queue for this actor
	posts   []geom.Vec3
	job     *castJob
}

// free reports whether the worker is idle with nothing queued.
func (w *worker) free() bool {
	return w.state == stateIdle && w.pending == 0
}
