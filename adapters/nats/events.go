package nats

import (
	"encoding/json"
	"log/slog"

	natsgo "github.com/nats-io/nats.go"

	"github.com/codewandler/posts-go/core/posts"
)

// Events implements posts.Events by publishing one JSON message per event.
// Subjects are "<prefix>.query.dispatched", ".completed" and ".dropped".
// Publishing is fire and forget: failures are logged, never surfaced to the
// scheduler.
type Events struct {
	nc     *natsgo.Conn
	prefix string
	log    *slog.Logger
}

// EventsOptions configure an Events publisher.
type EventsOptions struct {
	// Prefix is the subject prefix. Default: "posts".
	Prefix string
	// Logger receives publish failures. Default: slog.Default().
	Logger *slog.Logger
}

// NewEvents creates an Events publisher on an existing connection.
func NewEvents(nc *natsgo.Conn, opts EventsOptions) *Events {
	if opts.Prefix == "" {
		opts.Prefix = "posts"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Events{
		nc:     nc,
		prefix: opts.Prefix,
		log:    opts.Logger,
	}
}

// eventMsg is the wire format for all three event kinds; unused fields are
// omitted.
type eventMsg struct {
	Actor  string `json:"actor"`
	Rays   int    `json:"rays,omitempty"`
	Posts  int    `json:"posts,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func (e *Events) QueryDispatched(h posts.Handle, rayCount int) {
	e.publish("dispatched", eventMsg{Actor: string(h), Rays: rayCount})
}

func (e *Events) QueryCompleted(h posts.Handle, postCount int) {
	e.publish("completed", eventMsg{Actor: string(h), Posts: postCount})
}

func (e *Events) QueryDropped(h posts.Handle, reason string) {
	e.publish("dropped", eventMsg{Actor: string(h), Reason: reason})
}

func (e *Events) publish(kind string, msg eventMsg) {
	data, err := json.Marshal(msg)
	if err != nil {
		e.log.Error("marshal event", slog.String("kind", kind), slog.Any("error", err))
		return
	}
	if err := e.nc.Publish(e.prefix+".query."+kind, data); err != nil {
		e.log.Error("publish event", slog.String("kind", kind), slog.Any("error", err))
	}
}

var _ posts.Events = (*Events)(nil)
