package bot

import (
	"strings"
	"testing"
	"time"

	"phonereuse/entity"

	"github.com/stretchr/testify/assert"
)

func TestFormatStats(t *testing.T) {
	stats := &entity.Statistics{
		TotalNumbers:         2,
		ActiveNumbers:        1,
		TotalUses:            5,
		ServicesUsed:         []string{"go", "tg"},
		AverageUsesPerNumber: 2.5,
		EstimatedSavings:     3,
		Countries:            map[string]int{"GB": 1, "US": 1},
	}

	text := formatStats(stats, 30*time.Minute)

	assert.Contains(t, text, "Numbers: `2` \\(active `1`\\)")
	assert.Contains(t, text, "Average uses: `2.50`")
	assert.Contains(t, text, "Rentals saved: `3`")
	assert.Contains(t, text, "Reuse window: `30m0s`")
	assert.Contains(t, text, "United Kingdom")
	assert.Less(t, strings.Index(text, "United Kingdom"), strings.Index(text, "United States"))
}

func TestFormatNumbers(t *testing.T) {
	assert.Equal(t, "No numbers available for reuse", formatNumbers(nil))

	views := []*entity.NumberView{{
		PhoneRecord: entity.PhoneRecord{
			PhoneNumber: "447700900123",
			Services:    []string{"go", "wa"},
			TimesUsed:   2,
		},
		ExpiresIn: "12 minutes from now",
		Region:    "GB",
	}}

	text := formatNumbers(views)
	assert.Contains(t, text, "*Numbers: 1*")
	assert.Contains(t, text, "`447700900123` GB")
	assert.Contains(t, text, " \\| used 2 \\| go,wa \\| expires 12 minutes from now")
}

func TestSplitMessage(t *testing.T) {
	assert.Equal(t, []string{"short"}, splitMessage("short", 10))

	parts := splitMessage("line one\nline two\nline three", 12)
	assert.Equal(t, []string{"line one\n", "line two\n", "line three"}, parts)
	assert.Equal(t, "line one\nline two\nline three", strings.Join(parts, ""))
}
