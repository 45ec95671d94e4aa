package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegion(t *testing.T) {
	assert.Equal(t, "GB", Region("+447911123456"))
	assert.Equal(t, "GB", Region("447911123456"))
	assert.Equal(t, "US", Region("+10000000001"))
	assert.Equal(t, Unknown, Region(""))
	assert.Equal(t, Unknown, Region("not-a-number"))
}

func TestCountryName(t *testing.T) {
	assert.Equal(t, "Unknown", CountryName(Unknown))
	assert.NotEmpty(t, CountryName("GB"))
	assert.NotEqual(t, "GB", CountryName("GB"))
}
