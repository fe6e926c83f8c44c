// Package latency implements the per-agent stochastic network delay model.
package latency

import (
	"math/rand"
	"time"
)

// floor is the minimum sampled delay; sampling never returns less than this,
// modeling that no message is ever instantaneous.
const floor = time.Microsecond

// Profile parameterizes one agent's network behavior.
type Profile struct {
	Base           time.Duration // base one-way latency
	Jitter         time.Duration // symmetric jitter applied around Base
	PacketLossRate float64       // probability in [0,1] of a simulated retransmit
}

// Default is used for agents that never called RegisterAgent.
var Default = Profile{Base: time.Millisecond, Jitter: 200 * time.Microsecond}

// Sample draws one latency value from an injected RNG. With probability
// PacketLossRate it returns 10x Base (modeling a retransmission); otherwise
// it returns Base plus uniform(-Jitter, +Jitter), clamped to floor.
func (p Profile) Sample(rng *rand.Rand) time.Duration {
	if p.PacketLossRate > 0 && rng.Float64() < p.PacketLossRate {
		return clamp(p.Base * 10)
	}

	jitter := time.Duration(0)
	if p.Jitter > 0 {
		// uniform(-Jitter, +Jitter)
		jitter = time.Duration(rng.Int63n(int64(2*p.Jitter)+1)) - p.Jitter
	}
	return clamp(p.Base + jitter)
}

func clamp(d time.Duration) time.Duration {
	if d < floor {
		return floor
	}
	return d
}
