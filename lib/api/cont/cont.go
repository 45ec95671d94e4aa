package cont

import (
	"context"
	"phonereuse/entity"
)

type ctxKey string

const ClientDataKey ctxKey = "clientData"

func PutClient(c context.Context, client *entity.Client) context.Context {
	return context.WithValue(c, ClientDataKey, *client)
}

// GetClient returns the authenticated API client, or nil outside an authenticated route.
func GetClient(c context.Context) *entity.Client {
	client, ok := c.Value(ClientDataKey).(entity.Client)
	if !ok {
		return nil
	}
	return &client
}
