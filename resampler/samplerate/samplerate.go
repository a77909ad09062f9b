// Package samplerate provides resampler engines backed by libsamplerate.
package samplerate

import (
	"fmt"
	"sort"

	"github.com/dh1tw/gosamplerate"
)

var converters = map[string]int{
	"sinc-best":       gosamplerate.SRC_SINC_BEST_QUALITY,
	"sinc-medium":     gosamplerate.SRC_SINC_MEDIUM_QUALITY,
	"sinc-fastest":    gosamplerate.SRC_SINC_FASTEST,
	"zero-order-hold": gosamplerate.SRC_ZERO_ORDER_HOLD,
	"linear":          gosamplerate.SRC_LINEAR,
}

// DefaultConverter is the converter used when no name is given.
const DefaultConverter = "sinc-fastest"

// Names returns the names of the available converters.
func Names() []string {
	n := make([]string, 0, len(converters))
	for k := range converters {
		n = append(n, k)
	}
	sort.Strings(n)
	return n
}

// Engine converts with one of the libsamplerate converters.
type Engine struct {
	name      string
	converter int
}

// New returns the Engine for a converter name.
func New(name string) (*Engine, error) {
	if name == "" {
		name = DefaultConverter
	}
	c, ok := converters[name]
	if !ok {
		return nil, fmt.Errorf("unknown libsamplerate converter %q", name)
	}
	return &Engine{
		name:      name,
		converter: c,
	}, nil
}

// Name implements resampler.Engine.
func (e *Engine) Name() string {
	return e.name
}

// Resample implements resampler.Engine. A new converter is created for
// each call and the input is flagged as complete, so the converter is
// drained before it is deleted.
func (e *Engine) Resample(in []float32, channels, fromRate, toRate, capacity int) ([]float32, error) {
	if fromRate <= 0 {
		return nil, fmt.Errorf("invalid source rate %d", fromRate)
	}

	src, err := gosamplerate.New(e.converter, channels, capacity)
	if err != nil {
		return nil, fmt.Errorf("samplerate converter: %v", err)
	}
	defer gosamplerate.Delete(src)

	out, err := src.Process(in, float64(toRate)/float64(fromRate), true)
	if err != nil {
		return nil, fmt.Errorf("samplerate process: %v", err)
	}

	return out, nil
}
