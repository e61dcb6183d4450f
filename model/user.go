package model

import "time"

type User struct {
	ID          int       `json:"id"`
	Email       string    `json:"email"`
	Password    string    `json:"-"`
	Permissions []string  `json:"permissions"`
	Roles       []string  `json:"roles"`
	CreatedAt   time.Time `json:"created_at"`
}
