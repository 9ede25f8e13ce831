package dto

// UploadResult is the terminal state of one ingested item.
type UploadResult struct {
	ItemID   string `json:"item_id,omitempty"`
	Filename string `json:"filename,omitempty"`
	Status   string `json:"status"`
	AssetID  string `json:"asset_id,omitempty"`
	Message  string `json:"message,omitempty"`
	Reason   string `json:"reason,omitempty"`
	URL      string `json:"url,omitempty"`
}

// BatchUploadResponse summarizes a multi-item upload. Successful counts
// freshly stored assets only; duplicates are tracked separately.
type BatchUploadResponse struct {
	Total      int            `json:"total"`
	Successful int            `json:"successful"`
	Duplicates int            `json:"duplicates"`
	Failed     int            `json:"failed"`
	Results    []UploadResult `json:"results"`
}

// InviteView is the owner-facing invite listing entry.
type InviteView struct {
	Token     string  `json:"token"`
	Name      string  `json:"name,omitempty"`
	URL       string  `json:"url"`
	AlbumID   string  `json:"album_id,omitempty"`
	AlbumName string  `json:"album_name,omitempty"`
	MaxUses   int     `json:"max_uses"`
	UsedCount int     `json:"used_count"`
	Remaining *int    `json:"remaining,omitempty"`
	ExpiresAt *string `json:"expires_at,omitempty"`
	Claimed   bool    `json:"claimed"`
	Disabled  bool    `json:"disabled"`
	Protected bool    `json:"protected"`
	CreatedAt string  `json:"created_at"`
	Uploads   int64   `json:"uploads"`
}

// InviteInfo is the public-safe invite state shown on the upload page.
type InviteInfo struct {
	Token            string `json:"token"`
	Name             string `json:"name,omitempty"`
	AlbumName        string `json:"album_name,omitempty"`
	Active           bool   `json:"active"`
	InactiveReason   string `json:"inactive_reason,omitempty"`
	Remaining        *int   `json:"remaining,omitempty"`
	PasswordRequired bool   `json:"password_required"`
}

// ConfigResponse is the public client configuration.
type ConfigResponse struct {
	PublicUploadPage bool   `json:"public_upload_page"`
	ChunkedUploads   bool   `json:"chunked_uploads"`
	ChunkSizeMB      int    `json:"chunk_size_mb"`
	MaxConcurrent    int    `json:"max_concurrent"`
	AlbumName        string `json:"album_name"`
	PublicBaseURL    string `json:"public_base_url,omitempty"`
}

// PingResponse reports relay and remote liveness.
type PingResponse struct {
	OK     bool `json:"ok"`
	Remote bool `json:"remote"`
}
