package feed

import "time"

// Backoff yields exponentially growing reconnect delays: Initial, Initial*Multiplier, ... capped at Max.
// There is no attempt limit.
type Backoff struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64

	next time.Duration
}

func NewBackoff(initial, max time.Duration, multiplier float64) *Backoff {
	if multiplier < 1 {
		multiplier = 2
	}
	return &Backoff{Initial: initial, Max: max, Multiplier: multiplier}
}

// Next returns the delay to wait before the following attempt.
func (b *Backoff) Next() time.Duration {
	if b.next == 0 {
		b.next = b.Initial
	}
	d := b.next

	grown := time.Duration(float64(b.next) * b.Multiplier)
	if grown > b.Max || grown <= 0 {
		grown = b.Max
	}
	b.next = grown

	if d > b.Max {
		d = b.Max
	}
	return d
}

// Reset restarts the sequence at Initial, after a successful connect.
func (b *Backoff) Reset() {
	b.next = 0
}
