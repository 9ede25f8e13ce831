package model

import "time"

// UploadRecord is the local dedup ledger: one row per asset this relay has
// successfully forwarded. Rows are never deleted.
type UploadRecord struct {
	ID uint64 `gorm:"primaryKey" json:"id"`

	Checksum string `gorm:"column:checksum;size:64;uniqueIndex;not null" json:"checksum"`

	Filename string `gorm:"column:filename;size:255;not null" json:"filename"`
	Size     int64  `gorm:"column:size;not null" json:"size"`

	DeviceAssetID string `gorm:"column:device_asset_id;size:512;index" json:"device_asset_id"`
	RemoteAssetID string `gorm:"column:remote_asset_id;size:64" json:"remote_asset_id"`

	// CreatedAt carries the best-effort original-content timestamp (EXIF or
	// client-reported), not the insertion time.
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	InsertedAt time.Time `gorm:"column:inserted_at;autoCreateTime" json:"inserted_at"`
}

// TableName returns the database table name.
func (UploadRecord) TableName() string {
	return "upload_record"
}
