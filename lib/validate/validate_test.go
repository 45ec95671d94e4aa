package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Number  string `json:"number" validate:"required,phone"`
	Service string `json:"service" validate:"omitempty,max=4"`
}

func TestPhoneNumber(t *testing.T) {
	valid := []string{"+10000000001", "5511987654321", "+447911123456", "12345"}
	for _, n := range valid {
		assert.NoError(t, PhoneNumber(n), n)
	}

	invalid := []string{"", "   ", "+", "12 34 56", "abc12345", "+1234567890123456", "1234"}
	for _, n := range invalid {
		assert.Error(t, PhoneNumber(n), n)
	}
}

func TestStructUsesJsonNames(t *testing.T) {
	err := Struct(&sample{Number: "x", Service: "toolong"})
	require.Error(t, err)
	assert.Equal(t, "number phone; service max", err.Error())

	assert.NoError(t, Struct(sample{Number: "+10000000001"}))
}

func TestStructRejectsNonStruct(t *testing.T) {
	assert.EqualError(t, Struct(nil), "is nil")
	assert.EqualError(t, Struct("text"), "not a struct")
}
