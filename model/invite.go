package model

import "time"

// Invite is a capability token granting upload rights into one album.
// max_uses semantics: -1 unlimited, 1 single-use (claimable), N counted.
type Invite struct {
	Token string `gorm:"column:token;primaryKey;size:64" json:"token"`

	Name      string `gorm:"column:name;size:255" json:"name"`
	AlbumID   string `gorm:"column:album_id;size:64" json:"album_id"`
	AlbumName string `gorm:"column:album_name;size:255" json:"album_name"`

	MaxUses   int `gorm:"column:max_uses;not null;default:1" json:"max_uses"`
	UsedCount int `gorm:"column:used_count;not null;default:0" json:"used_count"`

	ExpiresAt *time.Time `gorm:"column:expires_at" json:"expires_at"`

	Claimed          bool       `gorm:"column:claimed;not null;default:false" json:"claimed"`
	ClaimedAt        *time.Time `gorm:"column:claimed_at" json:"claimed_at"`
	ClaimedBySession string     `gorm:"column:claimed_by_session;size:128" json:"claimed_by_session"`

	PasswordHash string `gorm:"column:password_hash;size:255" json:"-"`
	Disabled     bool   `gorm:"column:disabled;not null;default:false" json:"disabled"`

	OwnerUserID string `gorm:"column:owner_user_id;size:64;index" json:"owner_user_id"`
	OwnerEmail  string `gorm:"column:owner_email;size:255" json:"owner_email"`
	OwnerName   string `gorm:"column:owner_name;size:255" json:"owner_name"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name.
func (Invite) TableName() string {
	return "invite"
}

// SingleUse reports whether the invite is a one-time claimable link.
func (i *Invite) SingleUse() bool {
	return i.MaxUses == 1
}

// Unlimited reports whether the invite has no usage cap.
func (i *Invite) Unlimited() bool {
	return i.MaxUses < 0
}

// Remaining returns the remaining uses, or -1 for unlimited invites.
func (i *Invite) Remaining() int {
	if i.MaxUses < 0 {
		return -1
	}
	left := i.MaxUses - i.UsedCount
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the invite expiry has passed at the given instant.
func (i *Invite) Expired(now time.Time) bool {
	return i.ExpiresAt != nil && now.After(*i.ExpiresAt)
}
