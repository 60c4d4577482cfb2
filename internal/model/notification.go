package model

import "time"

// Notification levels
const (
	LevelSuccess = "success"
	LevelError   = "error"
	LevelInfo    = "info"
)

// Notification is a user-visible outcome message
type Notification struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"userId"`
	Level     string    `json:"level"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}
