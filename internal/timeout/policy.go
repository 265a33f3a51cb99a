package timeout

import (
	"math"
	"time"

	"github.com/cenkalti/backoff"

	"idlens/internal/config"
)

// Policy describes the retry behavior for transient failures. Delay is a pure
// function of the attempt count so it can be tested without a clock.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// PolicyFromConfig builds a Policy from the retry configuration section.
func PolicyFromConfig(r config.Retry) Policy {
	return Policy{
		MaxRetries: r.MaxRetries,
		BaseDelay:  r.BaseDelay(),
		MaxDelay:   r.MaxDelay(),
		Multiplier: r.Multiplier,
	}
}

// Delay returns the backoff delay applied after the given zero-based attempt:
// min(base * multiplier^attempt, max).
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	multiplier := p.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	scaled := float64(p.BaseDelay) * math.Pow(multiplier, float64(attempt))
	if max := float64(p.MaxDelay); p.MaxDelay > 0 && scaled > max {
		scaled = max
	}
	return time.Duration(scaled)
}

// newBackOff builds the executing counterpart of Delay. Randomization is
// disabled so the executed delays match the pure function exactly.
func (p Policy) newBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.BaseDelay
	bo.MaxInterval = p.MaxDelay
	bo.Multiplier = p.Multiplier
	if bo.Multiplier < 1 {
		bo.Multiplier = 1
	}
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}
