package model

import "time"

// UploadEvent is the append-only audit log of forwarded uploads. Rows are
// removed only when their invite is explicitly deleted by its owner.
type UploadEvent struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	Token string `gorm:"column:token;size:64;index" json:"token"`

	UploadedAt time.Time `gorm:"column:uploaded_at;autoCreateTime" json:"uploaded_at"`

	IP          string `gorm:"column:ip;size:64" json:"ip"`
	UserAgent   string `gorm:"column:user_agent;size:512" json:"user_agent"`
	Fingerprint string `gorm:"column:fingerprint;size:128" json:"fingerprint"`

	Filename      string `gorm:"column:filename;size:255" json:"filename"`
	Size          int64  `gorm:"column:size" json:"size"`
	Checksum      string `gorm:"column:checksum;size:64" json:"checksum"`
	RemoteAssetID string `gorm:"column:remote_asset_id;size:64" json:"remote_asset_id"`
}

// TableName returns the database table name.
func (UploadEvent) TableName() string {
	return "upload_event"
}
