package models

import "time"

// User represents a registered participant that can receive calls.
type User struct {
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName"`
	Online      bool      `json:"online"`
	LastSeen    time.Time `json:"-"`
}
