package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/codewandler/posts-go/core/geom"
	"github.com/codewandler/posts-go/core/posts"
	"github.com/codewandler/posts-go/ports/world"
)

// === Config ===

var (
	numActors  = getEnvInt("ACTORS", 10_000)
	numFrames  = getEnvInt("FRAMES", 2_000)
	maxWorkers = getEnvInt("WORKERS", 32)
	rayStep    = getEnvInt("STEP", 16)
	rayDepth   = getEnvInt("DEPTH", 4)
)

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, fmt.Sprintf("%d", fallback)))
	if err != nil {
		return fallback
	}
	return v
}

// counterEvents tallies scheduler activity for the final report.
type counterEvents struct {
	dispatched, completed, dropped, posts int
}

func (c *counterEvents) QueryDispatched(posts.Handle, int) { c.dispatched++ }
func (c *counterEvents) QueryCompleted(_ posts.Handle, n int) {
	c.completed++
	c.posts += n
}
func (c *counterEvents) QueryDropped(posts.Handle, string) { c.dropped++ }

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, nil))

	reg := world.NewRegistry()
	w := world.NewStaticWorld()

	// A ring of pillars around the origin so a good share of rays block.
	for i := 0; i < 64; i++ {
		a := geom.Radians(float64(i) * 360 / 64)
		w.AddSphere(world.Sphere{
			Center: (geom.Vec3{Z: 1}).RotateY(a).Scale(30),
			Radius: 1.5,
		})
	}

	handles := make([]posts.Handle, numActors)
	for i := range handles {
		h := posts.Handle(fmt.Sprintf("actor-%d", i))
		handles[i] = h
		a := geom.Radians(float64(i) * 360 / float64(numActors))
		reg.Upsert(h, (geom.Vec3{Z: 1}).RotateY(a).Scale(20))
	}
	reg.Upsert("target", geom.Vec3{})

	events := &counterEvents{}
	s, err := posts.New(posts.Options{
		Logger:         slog.New(slog.DiscardHandler), // drops are expected here, keep the output clean
		Events:         events,
		Snapshot:       reg,
		Caster:         w,
		MaxWorkerCount: maxWorkers,
		FramesPerTick:  10,
	})
	if err != nil {
		log.Error("init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer s.Close()

	cmdOf := func(h posts.Handle) posts.Command {
		return posts.Command{
			Self:      h,
			Target:    "target",
			LayerMask: world.LayerDefault,
			Params: posts.QueryParams{
				Angle:    120,
				Distance: 40,
				Step:     rayStep,
				Depth:    rayDepth,
			},
		}
	}

	start := time.Now()
	next := 0
	for frame := 0; frame < numFrames; frame++ {
		// Keep the queue topped up with whatever actors are free.
		for i := 0; i < maxWorkers; i++ {
			h := handles[next%numActors]
			next++
			if s.IsFree(h) {
				_ = s.Enqueue(cmdOf(h))
			}
		}
		s.Tick()
	}
	elapsed := time.Since(start)

	rays := events.dispatched * rayStep * rayDepth
	log.Info("done",
		slog.Duration("elapsed", elapsed),
		slog.Int("frames", numFrames),
		slog.Int("dispatched", events.dispatched),
		slog.Int("completed", events.completed),
		slog.Int("dropped", events.dropped),
		slog.Int("posts", events.posts),
		slog.Int("rays", rays),
		slog.String("rays_per_sec", fmt.Sprintf("%.0f", float64(rays)/elapsed.Seconds())),
	)
}
