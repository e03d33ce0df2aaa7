package centrality

import (
	"context"
	"errors"
	"time"

	"github.com/tgergo1/superblocker/network"
)

// Sentinel errors for the betweenness computation.
var (
	// ErrNilGraph indicates a nil *network.Graph was passed in.
	ErrNilGraph = errors.New("centrality: graph is nil")

	// ErrBadSampling indicates an inconsistent sampling configuration.
	ErrBadSampling = errors.New("centrality: invalid sampling bounds")
)

// Pair is an undirected node pair, normalized so A < B.
type Pair struct {
	A, B network.NodeID
}

// MakePair normalizes an unordered node pair.
func MakePair(u, v network.NodeID) Pair {
	if v < u {
		u, v = v, u
	}

	return Pair{A: u, B: v}
}

// Options configures the betweenness computation.
//
// Ctx               – cancellation context, checked once per source.
// SampleThreshold   – node count at which source sampling kicks in.
// SampleFraction    – fraction of nodes drawn as sources when sampling.
// SampleMin/Max     – clamp bounds for the sampled source count.
// Seed              – PRNG seed for source selection (fixed for reproducibility).
// HeartbeatInterval – cadence of the elapsed-time heartbeat; 0 disables it.
// Heartbeat         – callback receiving the elapsed computation time.
type Options struct {
	Ctx               context.Context
	SampleThreshold   int
	SampleFraction    float64
	SampleMin         int
	SampleMax         int
	Seed              int64
	HeartbeatInterval time.Duration
	Heartbeat         func(elapsed time.Duration)
}

// DefaultOptions returns the production configuration: sampling from 2500
// nodes at 10% clamped to [200, 800], seed 42, 20-second heartbeat.
func DefaultOptions() Options {
	return Options{
		Ctx:               context.Background(),
		SampleThreshold:   2500,
		SampleFraction:    0.10,
		SampleMin:         200,
		SampleMax:         800,
		Seed:              42,
		HeartbeatInterval: 20 * time.Second,
	}
}

func (o *Options) normalize() error {
	if o.Ctx == nil {
		o.Ctx = context.Background()
	}
	if o.SampleMin < 1 || o.SampleMax < o.SampleMin || o.SampleFraction <= 0 {
		return ErrBadSampling
	}

	return nil
}
