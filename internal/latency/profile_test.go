package latency_test

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"hftcore/internal/latency"
)

func TestSample_Deterministic(t *testing.T) {
	p := latency.Profile{Base: 5 * time.Millisecond, Jitter: time.Millisecond}

	rngA := rand.New(rand.NewSource(42))
	rngB := rand.New(rand.NewSource(42))

	for i := 0; i < 20; i++ {
		assert.Equal(t, p.Sample(rngA), p.Sample(rngB))
	}
}

func TestSample_WithinJitterBounds(t *testing.T) {
	p := latency.Profile{Base: 10 * time.Millisecond, Jitter: 2 * time.Millisecond}
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 200; i++ {
		d := p.Sample(rng)
		assert.GreaterOrEqual(t, d, 8*time.Millisecond)
		assert.LessOrEqual(t, d, 12*time.Millisecond)
	}
}

func TestSample_PacketLossRetransmits(t *testing.T) {
	p := latency.Profile{Base: time.Millisecond, PacketLossRate: 1.0}
	rng := rand.New(rand.NewSource(7))

	d := p.Sample(rng)
	assert.Equal(t, 10*time.Millisecond, d)
}

func TestSample_NeverBelowFloor(t *testing.T) {
	p := latency.Profile{Base: 0, Jitter: 0}
	rng := rand.New(rand.NewSource(3))

	d := p.Sample(rng)
	assert.Greater(t, d, time.Duration(0))
}
