package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddServiceKeepsSetSemantics(t *testing.T) {
	rec := PhoneRecord{Services: []string{"go"}}

	assert.False(t, rec.AddService("go"))
	assert.True(t, rec.AddService("yt"))
	assert.Equal(t, []string{"go", "yt"}, rec.Services)
	assert.True(t, rec.HasService("yt"))
	assert.False(t, rec.HasService("tk"))
}

func TestCloneIsIndependent(t *testing.T) {
	rec := PhoneRecord{PhoneNumber: "+10000000001", Services: []string{"go"}, TimesUsed: 1}
	c := rec.Clone()
	c.AddService("yt")
	c.TimesUsed++

	assert.Equal(t, []string{"go"}, rec.Services)
	assert.Equal(t, 1, rec.TimesUsed)
}

func TestExpiresAt(t *testing.T) {
	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rec := PhoneRecord{FirstUsed: first, LastUsed: first.Add(time.Hour)}
	assert.Equal(t, first.Add(30*time.Minute), rec.ExpiresAt(30*time.Minute))
}
