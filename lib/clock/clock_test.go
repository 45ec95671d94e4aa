package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRemaining(t *testing.T) {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, 20*time.Minute, Remaining(start, start.Add(10*time.Minute), 30*time.Minute))
	assert.Equal(t, time.Duration(0), Remaining(start, start.Add(40*time.Minute), 30*time.Minute))
	assert.Equal(t, time.Duration(0), Remaining(start, start.Add(30*time.Minute), 30*time.Minute))
}

func TestFormat(t *testing.T) {
	local := time.Date(2025, 3, 4, 12, 30, 0, 0, time.FixedZone("X", 2*3600))
	assert.Equal(t, "2025-03-04T10:30:00Z", Format(local))
}

func TestSystemIsUTC(t *testing.T) {
	assert.Equal(t, time.UTC, System{}.Now().Location())
}
