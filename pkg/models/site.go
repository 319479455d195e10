package models

import "time"

// Site holds the credentials and endpoint for one connected WordPress
// instance. AppPassword is stored encrypted and decrypted only at call time.
type Site struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	Username    string    `json:"username"`
	AppPassword string    `json:"-"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}
