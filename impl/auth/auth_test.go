package auth

import (
	"testing"

	"phonereuse/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientByToken(t *testing.T) {
	a := New([]entity.Client{
		{Name: "gmail-worker", Token: "token-gmail-0001"},
		{Name: "tiktok-worker", Token: "token-tiktok-0002"},
	})

	client, err := a.ClientByToken("token-tiktok-0002")
	require.NoError(t, err)
	assert.Equal(t, "tiktok-worker", client.Name)

	_, err = a.ClientByToken("token-unknown")
	assert.ErrorIs(t, err, ErrTokenNotFound)

	_, err = a.ClientByToken("")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}
