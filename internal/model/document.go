package model

import "time"

// Document records the metadata of the file currently backing a session's
// knowledge base. At most one active document per session; a new successful
// upload replaces the previous row.
type Document struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uint      `gorm:"not null;index" json:"user_id"`
	SessionID     uint      `gorm:"not null;index" json:"session_id"`
	Filename      string    `gorm:"size:256;not null" json:"filename"`
	SizeMB        float64   `json:"size_mb"`
	RecordCount   int       `json:"record_count"`
	ChunkCount    int       `json:"chunk_count"`
	ProcessingSec float64   `json:"processing_sec"`
	CreatedAt     time.Time `json:"created_at"`
}
