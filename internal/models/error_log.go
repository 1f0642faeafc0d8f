package models

import "time"

// ErrorLog records server-side failures for operational visibility. Writes are
// best effort; a failed insert is never surfaced to the client.
type ErrorLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Method        string    `gorm:"size:8" json:"method"`
	Route         string    `gorm:"size:255" json:"route"`
	Status        int       `gorm:"not null" json:"status"`
	Message       string    `gorm:"type:text" json:"message"`
	CorrelationID string    `gorm:"size:64" json:"correlation_id"`
	CreatedAt     time.Time `json:"created_at"`
}
