package auth

import (
	"crypto/subtle"
	"errors"
	"phonereuse/entity"
)

var ErrTokenNotFound = errors.New("token not found")

// Auth resolves bearer tokens against the API clients listed in the configuration.
type Auth struct {
	clients []entity.Client
}

func New(clients []entity.Client) *Auth {
	return &Auth{clients: clients}
}

func (a *Auth) ClientByToken(token string) (*entity.Client, error) {
	if token == "" {
		return nil, ErrTokenNotFound
	}
	for i := range a.clients {
		if subtle.ConstantTimeCompare([]byte(a.clients[i].Token), []byte(token)) == 1 {
			client := a.clients[i]
			return &client, nil
		}
	}
	return nil, ErrTokenNotFound
}
