package domain

import "time"

// Client is the customer that owns claims.
type Client struct {
	ID        string
	Name      string
	Email     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Project groups claims of a client.
type Project struct {
	ID        string
	ClientID  string
	Name      string
	Type      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
