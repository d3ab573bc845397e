package nn

import (
	"fmt"
	"math"
	"sync/atomic"

	"github.com/born-ml/paramcore/internal/numeric"
)

// ClipPolicy rescales gradients whose norm reaches a threshold.
//
// A policy starts unset, in which case gradients pass through unchanged.
// Reads are lock-free so the policy can be consulted on every gradient
// contribution; it is meant to be configured once at start-up.
type ClipPolicy struct {
	bits atomic.Uint64 // math.Float64bits of the threshold; 0 means unset
}

// NewClipPolicy returns a policy with the given threshold. A zero threshold
// returns an unset policy.
func NewClipPolicy(threshold float64) (*ClipPolicy, error) {
	p := &ClipPolicy{}
	if threshold == 0 {
		return p, nil
	}
	if err := p.SetThreshold(threshold); err != nil {
		return nil, err
	}
	return p, nil
}

// SetThreshold replaces the threshold.
func (p *ClipPolicy) SetThreshold(t float64) error {
	if !(t > 0) || math.IsInf(t, 1) {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, t)
	}
	p.bits.Store(math.Float64bits(t))
	return nil
}

// Clear removes the threshold.
func (p *ClipPolicy) Clear() {
	p.bits.Store(0)
}

// Threshold returns the threshold and whether one is set.
func (p *ClipPolicy) Threshold() (float64, bool) {
	if p == nil {
		return 0, false
	}
	b := p.bits.Load()
	if b == 0 {
		return 0, false
	}
	return math.Float64frombits(b), true
}

// Clip rescales x in place to norm t when a threshold t is set and
// norm(x) >= t. Otherwise x is left unchanged. It returns x.
func Clip[X any](s numeric.Space[X], p *ClipPolicy, x X) X {
	t, ok := p.Threshold()
	if !ok {
		return x
	}
	if n := s.Norm(x); n >= t {
		s.Scale(x, t/n)
	}
	return x
}

var defaultClip = &ClipPolicy{}

// DefaultClipPolicy returns the process-wide policy used by weights that
// were not given one explicitly.
func DefaultClipPolicy() *ClipPolicy {
	return defaultClip
}

// SetClipThreshold sets the process-wide threshold.
//
// Call it during start-up, before any training goroutine runs; the value is
// read on every gradient contribution afterwards.
func SetClipThreshold(t float64) error {
	return defaultClip.SetThreshold(t)
}
