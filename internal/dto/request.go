package dto

// UploadURLRequest asks the relay to fetch one remote URL and ingest it.
type UploadURLRequest struct {
	URL         string `json:"url" binding:"required"`
	SessionID   string `json:"session_id"`
	ItemID      string `json:"item_id"`
	InviteToken string `json:"invite_token"`
	Fingerprint string `json:"fingerprint"`
	AlbumName   string `json:"album_name"`
}

// UploadURLsRequest is the batched form of UploadURLRequest.
type UploadURLsRequest struct {
	URLs        []string `json:"urls" binding:"required"`
	SessionID   string   `json:"session_id"`
	InviteToken string   `json:"invite_token"`
	Fingerprint string   `json:"fingerprint"`
	AlbumName   string   `json:"album_name"`
}

// ChunkInitRequest opens a chunk set for one logical file.
type ChunkInitRequest struct {
	SessionID    string `json:"session_id" binding:"required"`
	ItemID       string `json:"item_id" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Size         int64  `json:"size"`
	LastModified int64  `json:"last_modified"`
	TotalParts   int    `json:"total_parts" binding:"required"`
	ContentType  string `json:"content_type"`
	InviteToken  string `json:"invite_token"`
	Fingerprint  string `json:"fingerprint"`
}

// ChunkCompleteRequest finalizes a chunk set and triggers ingestion.
type ChunkCompleteRequest struct {
	SessionID string `json:"session_id" binding:"required"`
	ItemID    string `json:"item_id" binding:"required"`
}

// LoginRequest proxies credentials to the remote store.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// CreateInviteRequest creates a new invite link.
type CreateInviteRequest struct {
	Name      string `json:"name"`
	AlbumID   string `json:"album_id"`
	AlbumName string `json:"album_name"`
	MaxUses   *int   `json:"max_uses"`
	ExpiresIn *int   `json:"expires_in_hours"`
	Password  string `json:"password"`
}

// UpdateInviteRequest patches an invite. Nil fields are left untouched.
type UpdateInviteRequest struct {
	Name        *string `json:"name"`
	AlbumID     *string `json:"album_id"`
	AlbumName   *string `json:"album_name"`
	MaxUses     *int    `json:"max_uses"`
	ExpiresIn   *int    `json:"expires_in_hours"`
	ClearExpiry bool    `json:"clear_expiry"`
	Disabled    *bool   `json:"disabled"`
	Password    *string `json:"password"`
	ResetUsage  bool    `json:"reset_usage"`
}

// BulkInviteRequest toggles disabled across several invites at once.
type BulkInviteRequest struct {
	Tokens   []string `json:"tokens" binding:"required"`
	Disabled bool     `json:"disabled"`
}

// DeleteInvitesRequest removes invites and their upload history.
type DeleteInvitesRequest struct {
	Tokens []string `json:"tokens" binding:"required"`
}

// InviteAuthRequest unlocks a password-protected invite for the session.
type InviteAuthRequest struct {
	Password string `json:"password" binding:"required"`
}

// CreateAlbumRequest creates a remote album by name.
type CreateAlbumRequest struct {
	Name string `json:"name" binding:"required"`
}

// CookieRequest stores a cookie string for one platform.
type CookieRequest struct {
	Platform     string `json:"platform" binding:"required"`
	CookieString string `json:"cookie_string" binding:"required"`
}
