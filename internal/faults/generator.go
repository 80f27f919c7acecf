package faults

import (
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// GeneratorOptions bound the values a Generator draws. Ranges are taken as
// given, so a zero range always draws zero; start from
// DefaultGeneratorOptions for the standard ranges.
type GeneratorOptions struct {
	ErrorTypes   []ErrorType
	ErrorRateMin float64
	ErrorRateMax float64
	LatencyMinMs int
	LatencyMaxMs int
	Seed         int64 // 0 seeds from the clock
}

// Generator draws Params uniformly from its configured ranges.
// It is safe for concurrent use.
type Generator struct {
	mu         sync.Mutex
	rnd        *rand.Rand
	types      []ErrorType
	rateMin    float64
	rateMax    float64
	latencyMin int
	latencyMax int
}

// DefaultGeneratorOptions returns every error type with the default ranges.
func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{
		ErrorRateMin: DefaultErrorRateMin,
		ErrorRateMax: DefaultErrorRateMax,
		LatencyMinMs: DefaultLatencyMinMs,
		LatencyMaxMs: DefaultLatencyMaxMs,
	}
}

// NewGenerator validates opts. An empty type set draws from all types.
func NewGenerator(opts GeneratorOptions) (*Generator, error) {
	types := opts.ErrorTypes
	if len(types) == 0 {
		types = AllErrorTypes
	}
	rateMin, rateMax := opts.ErrorRateMin, opts.ErrorRateMax
	latencyMin, latencyMax := opts.LatencyMinMs, opts.LatencyMaxMs

	if rateMin < 0 || rateMax > 1 || rateMin > rateMax {
		return nil, fmt.Errorf("error rate range [%g, %g] must lie within [0, 1] with min <= max", rateMin, rateMax)
	}
	if latencyMin < 0 || latencyMin > latencyMax {
		return nil, fmt.Errorf("latency range [%d, %d] must be non-negative with min <= max", latencyMin, latencyMax)
	}
	for _, t := range types {
		if t == "" {
			return nil, errors.New("error type cannot be empty")
		}
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Generator{
		rnd:        rand.New(rand.NewSource(seed)),
		types:      append([]ErrorType(nil), types...),
		rateMin:    rateMin,
		rateMax:    rateMax,
		latencyMin: latencyMin,
		latencyMax: latencyMax,
	}, nil
}

// Next returns a freshly drawn parameter set.
func (g *Generator) Next() Params {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Params{
		ErrorType: g.types[g.rnd.Intn(len(g.types))],
		ErrorRate: g.rateMin + g.rnd.Float64()*(g.rateMax-g.rateMin),
		// Both latency bounds are inclusive.
		LatencyMs: g.latencyMin + g.rnd.Intn(g.latencyMax-g.latencyMin+1),
	}
}
