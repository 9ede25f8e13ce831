package model

import "time"

// PlatformCookie stores an authentication cookie string for one media
// platform, consulted by the URL fetcher.
type PlatformCookie struct {
	ID uint64 `gorm:"primaryKey;autoIncrement" json:"id"`

	Platform     string `gorm:"column:platform;size:32;uniqueIndex;not null" json:"platform"`
	CookieString string `gorm:"column:cookie_string;type:text;not null" json:"cookie_string"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name.
func (PlatformCookie) TableName() string {
	return "platform_cookie"
}
