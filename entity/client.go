package entity

// Client is an API consumer identified by a bearer token.
type Client struct {
	Name  string `json:"name" yaml:"name" validate:"required"`
	Token string `json:"-" yaml:"token" validate:"required,min=8"`
}
