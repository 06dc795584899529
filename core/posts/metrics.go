package posts

import "github.com/codewandler/posts-go/core/metrics"

// Metrics is the instrumentation hook for the scheduler. All methods must be
// safe for concurrent use.
type Metrics interface {
	// QueueDepth reports the command queue length after it changed.
	QueueDepth(depth int)
	// CommandDropped counts a dropped command by reason.
	CommandDropped(reason string)
	// JobDispatched counts one dispatched fan cast.
	JobDispatched()
	// JobDuration times one fan cast from dispatch to harvest.
	JobDuration() metrics.Timer
	// WorkersRunning reports the number of in-flight jobs.
	WorkersRunning(count int)
	// PostsHarvested counts harvested post positions.
	PostsHarvested(count int)
}

// nopMetrics is a no-op implementation of Metrics.
type nopMetrics struct{}

func (nopMetrics) QueueDepth(int)            {}
func (nopMetrics) CommandDropped(string)     {}
func (nopMetrics) JobDispatched()            {}
func (nopMetrics) JobDuration() metrics.Timer { return metrics.NopTimer() }
func (nopMetrics) WorkersRunning(int)        {}
func (nopMetrics) PostsHarvested(int)        {}

// NopMetrics returns a no-op Metrics implementation.
func NopMetrics() Metrics { return nopMetrics{} }
