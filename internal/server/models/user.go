// Package models defines the server-side persistence models.
package models

import "time"

// User binds an operator-supplied email address to the remote connected
// account created for it. Both columns are unique; the mapping is created
// once per email and mutated only to repair a stale account id.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	AccountID string    `json:"accountId"`
	CreatedAt time.Time `json:"createdAt"`
}
