package lib

import (
	"math/rand"
	"time"
)

// JitteredTicker returns a ticker that ticks every approxDuration
// plus a random jitter of up to 10% of it.
//
// Use it for housekeeping loops so that several instances don't sweep in lockstep.
func JitteredTicker(approxDuration time.Duration) *time.Ticker {
	if approxDuration <= 0 {
		approxDuration = time.Minute
	}

	var jitter time.Duration
	if limit := int64(approxDuration / 10); limit > 0 {
		jitter = time.Duration(rand.Int63n(limit))
	}

	return time.NewTicker(approxDuration + jitter)
}
