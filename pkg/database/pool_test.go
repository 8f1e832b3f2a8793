package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryBackoff_StaysWithinJitterBounds(t *testing.T) {
	// Base waits double per attempt: 1s, 2s, 4s, each with ±25% jitter.
	for attempt := 0; attempt < 3; attempt++ {
		base := defaultRetryBaseWait << attempt
		lo := time.Duration(float64(base) * (1 - retryJitterFraction))
		hi := time.Duration(float64(base) * (1 + retryJitterFraction))

		for i := 0; i < 20; i++ {
			d := retryBackoff(attempt)
			assert.GreaterOrEqual(t, d, lo, "attempt %d", attempt)
			assert.LessOrEqual(t, d, hi, "attempt %d", attempt)
		}
	}
}

func TestRetryBackoff_GrowsPerAttempt(t *testing.T) {
	var sums [3]time.Duration
	for attempt := 0; attempt < 3; attempt++ {
		for i := 0; i < 100; i++ {
			sums[attempt] += retryBackoff(attempt)
		}
	}
	assert.Less(t, sums[0], sums[1])
	assert.Less(t, sums[1], sums[2])
}

type errStr string

func (e errStr) Error() string { return string(e) }

func TestIsConnectionError(t *testing.T) {
	assert.False(t, isConnectionError(nil))

	transient := []string{
		"dial tcp 127.0.0.1:5432: connection refused",
		"connection reset by peer",
		"broken pipe",
		"i/o timeout",
		"EOF",
		"could not connect to server",
	}
	for _, msg := range transient {
		assert.True(t, isConnectionError(errStr(msg)), "%q should be transient", msg)
	}

	permanent := []string{
		"syntax error at or near",
		"duplicate key value violates unique constraint",
		"relation does not exist",
	}
	for _, msg := range permanent {
		assert.False(t, isConnectionError(errStr(msg)), "%q should not be transient", msg)
	}
}
