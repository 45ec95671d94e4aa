package entity

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterRequestBindTrims(t *testing.T) {
	req := &RegisterRequest{PhoneNumber: " +10000000001\t", Service: " yt "}

	require.NoError(t, req.Bind(httptest.NewRequest("POST", "/v1/numbers", nil)))
	assert.Equal(t, "+10000000001", req.PhoneNumber)
	assert.Equal(t, "yt", req.Service)
}

func TestRegisterRequestBindRejects(t *testing.T) {
	for _, number := range []string{"", "   ", "+1 000", "12", "+1234567890123456"} {
		req := &RegisterRequest{PhoneNumber: number}
		assert.Error(t, req.Bind(httptest.NewRequest("POST", "/v1/numbers", nil)), number)
	}
}

func TestServiceRequestBindTrims(t *testing.T) {
	req := &ServiceRequest{Service: "  tk "}

	require.NoError(t, req.Bind(httptest.NewRequest("POST", "/v1/numbers/acquire", nil)))
	assert.Equal(t, "tk", req.Service)
}
