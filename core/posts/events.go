package posts

// Drop reasons reported via [Events.QueryDropped] and [Metrics.CommandDropped].
const (
	// DropReasonBusy: the actor's worker already had a running job.
	DropReasonBusy = "busy"
	// DropReasonMissingActor: self or target was absent from the snapshot.
	DropReasonMissingActor = "missing_actor"
)

// Events observes scheduler activity. Callbacks run on the driving goroutine
// during Consume/Complete and must not block; slow consumers should hand off
// to their own goroutine.
type Events interface {
	// QueryDispatched fires when a command's fan cast is started.
	QueryDispatched(h Handle, rayCount int)
	// QueryCompleted fires after a worker's posts were harvested.
	QueryCompleted(h Handle, postCount int)
	// QueryDropped fires when a command is discarded.
	QueryDropped(h Handle, reason string)
}

// nopEvents is a no-op implementation of Events.
type nopEvents struct{}

func (nopEvents) QueryDispatched(Handle, int)  {}
func (nopEvents) QueryCompleted(Handle, int)   {}
func (nopEvents) QueryDropped(Handle, string)  {}

// NopEvents returns a no-op Events implementation.
func NopEvents() Events { return nopEvents{} }
