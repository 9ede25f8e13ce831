package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"time"

	"ImmichDrop/config"
)

// Auth carries per-request credentials. A bearer token from a logged-in
// session wins over the configured API key.
type Auth struct {
	Bearer string
}

// UploadInput is one asset to forward to the remote store.
type UploadInput struct {
	Data          []byte
	Filename      string
	ContentType   string
	DeviceAssetID string
	DeviceID      string
	Checksum      string
	CreatedAt     time.Time
	ModifiedAt    time.Time
	Auth          *Auth
	// Progress is fired only when the integer percentage of bytes
	// sent changes. May be nil.
	Progress func(pct int)
}

// UploadReply is the remote store's answer to an asset upload.
type UploadReply struct {
	AssetID   string
	Duplicate bool
	Status    string
}

// AssetCheck asks the remote store whether it already holds a checksum.
type AssetCheck struct {
	ID       string
	Checksum string
}

// BulkResult is one entry of a bulk-upload-check reply.
type BulkResult struct {
	Action  string
	Reason  string
	AssetID string
}

// Album is a remote album summary.
type Album struct {
	ID         string `json:"id"`
	Name       string `json:"album_name"`
	AssetCount int    `json:"asset_count"`
}

// LoginReply is the remote session handed back after a login proxy.
type LoginReply struct {
	AccessToken string
	UserID      string
	UserEmail   string
	Name        string
	IsAdmin     bool
}

// Store is the remote asset store surface. Tests substitute fakes for
// the package-level Remote.
type Store interface {
	Upload(ctx context.Context, in *UploadInput) (*UploadReply, error)
	BulkCheck(ctx context.Context, checks []AssetCheck, auth *Auth) (map[string]BulkResult, error)
	ResolveOrCreateAlbum(ctx context.Context, name string, auth *Auth) (string, error)
	AddToAlbum(ctx context.Context, assetID, albumID string, auth *Auth) bool
	Ping(ctx context.Context) bool
	Login(ctx context.Context, email, password string) (*LoginReply, error)
	ListAlbums(ctx context.Context, auth *Auth) ([]Album, error)
	CreateAlbum(ctx context.Context, name string, auth *Auth) (*Album, error)
	ResetAlbumCache()
}

// Remote is the process-wide store client.
var Remote Store

// ImmichClient talks to an Immich-compatible HTTP API.
type ImmichClient struct {
	baseURL string
	apiKey  string
	http    *http.Client

	albumMu    sync.Mutex
	albumCache map[string]string
}

// NewImmichClient builds a client from the loaded configuration.
func NewImmichClient() *ImmichClient {
	return &ImmichClient{
		baseURL:    config.AppConfig.NormalizedBaseURL(),
		apiKey:     config.AppConfig.ImmichAPIKey,
		http:       &http.Client{Timeout: config.AppConfig.UploadHTTPTimeout},
		albumCache: map[string]string{},
	}
}

func (c *ImmichClient) setAuth(req *http.Request, auth *Auth) {
	if auth != nil && auth.Bearer != "" {
		req.Header.Set("Authorization", "Bearer "+auth.Bearer)
		return
	}
	req.Header.Set("x-api-key", c.apiKey)
}

// progressReader reports integer-percent transitions while the request
// body drains.
type progressReader struct {
	r       io.Reader
	total   int64
	sent    int64
	lastPct int
	emit    func(pct int)
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	if n > 0 && p.emit != nil && p.total > 0 {
		p.sent += int64(n)
		pct := int(p.sent * 100 / p.total)
		if pct > 100 {
			pct = 100
		}
		if pct != p.lastPct {
			p.lastPct = pct
			p.emit(pct)
		}
	}
	return n, err
}

// Upload forwards one asset. The multipart body is buffered first so
// the content length is exact and progress maps to real bytes sent.
func (c *ImmichClient) Upload(ctx context.Context, in *UploadInput) (*UploadReply, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("assetData", in.Filename)
	if err != nil {
		return nil, err
	}
	if _, err := fw.Write(in.Data); err != nil {
		return nil, err
	}
	fields := map[string]string{
		"deviceAssetId":  in.DeviceAssetID,
		"deviceId":       in.DeviceID,
		"fileCreatedAt":  in.CreatedAt.UTC().Format(time.RFC3339),
		"fileModifiedAt": in.ModifiedAt.UTC().Format(time.RFC3339),
		"isFavorite":     "false",
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	// lastPct starts at 0: the caller already announced uploading(0),
	// so the reader only reports changes past it.
	pr := &progressReader{r: &body, total: int64(body.Len()), emit: in.Progress}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/assets", pr)
	if err != nil {
		return nil, err
	}
	req.ContentLength = int64(pr.total)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if in.Checksum != "" {
		req.Header.Set("x-immich-checksum", in.Checksum)
	}
	c.setAuth(req, in.Auth)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteError{Status: resp.StatusCode, Message: remoteMessage(raw)}
	}

	var reply struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("decode upload reply: %w", err)
	}
	return &UploadReply{
		AssetID:   reply.ID,
		Duplicate: strings.EqualFold(reply.Status, "duplicate"),
		Status:    reply.Status,
	}, nil
}

// BulkCheck asks the remote store which checksums it already holds.
// A transport failure means "no information": the empty map makes the
// caller fall through to a real upload instead of reporting a phantom
// duplicate.
func (c *ImmichClient) BulkCheck(ctx context.Context, checks []AssetCheck, auth *Auth) (map[string]BulkResult, error) {
	results := map[string]BulkResult{}
	if len(checks) == 0 {
		return results, nil
	}

	type wireAsset struct {
		ID       string `json:"id"`
		Checksum string `json:"checksum"`
	}
	payload := struct {
		Assets []wireAsset `json:"assets"`
	}{}
	for _, chk := range checks {
		payload.Assets = append(payload.Assets, wireAsset{ID: chk.ID, Checksum: chk.Checksum})
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return results, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/assets/bulk-upload-check", bytes.NewReader(raw))
	if err != nil {
		return results, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req, auth)

	resp, err := c.http.Do(req)
	if err != nil {
		return results, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return results, &RemoteError{Status: resp.StatusCode}
	}

	var reply struct {
		Results []struct {
			ID      string `json:"id"`
			Action  string `json:"action"`
			Reason  string `json:"reason"`
			AssetID string `json:"assetId"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return map[string]BulkResult{}, err
	}
	for _, r := range reply.Results {
		results[r.ID] = BulkResult{Action: r.Action, Reason: r.Reason, AssetID: r.AssetID}
	}
	return results, nil
}

// ResolveOrCreateAlbum finds an album by exact name, creating it when
// absent. Resolved ids are cached per name; two racing creators may
// both succeed, which the remote tolerates.
func (c *ImmichClient) ResolveOrCreateAlbum(ctx context.Context, name string, auth *Auth) (string, error) {
	if name == "" {
		return "", nil
	}
	c.albumMu.Lock()
	if id, ok := c.albumCache[name]; ok {
		c.albumMu.Unlock()
		return id, nil
	}
	c.albumMu.Unlock()

	albums, err := c.ListAlbums(ctx, auth)
	if err != nil {
		return "", err
	}
	var id string
	for _, a := range albums {
		if a.Name == name {
			id = a.ID
			break
		}
	}
	if id == "" {
		album, err := c.CreateAlbum(ctx, name, auth)
		if err != nil {
			return "", err
		}
		id = album.ID
	}

	c.albumMu.Lock()
	c.albumCache[name] = id
	c.albumMu.Unlock()
	return id, nil
}

// ResetAlbumCache forgets every resolved album id. Fired when a new
// browser session connects so a renamed or deleted album is re-resolved.
func (c *ImmichClient) ResetAlbumCache() {
	c.albumMu.Lock()
	c.albumCache = map[string]string{}
	c.albumMu.Unlock()
}

// AddToAlbum links an uploaded asset into an album. Existing membership
// counts as success; any other failure is reported for logging only.
func (c *ImmichClient) AddToAlbum(ctx context.Context, assetID, albumID string, auth *Auth) bool {
	if assetID == "" || albumID == "" {
		return false
	}
	payload, _ := json.Marshal(map[string][]string{"ids": {assetID}})
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/albums/"+albumID+"/assets", bytes.NewReader(payload))
	if err != nil {
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req, auth)

	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}

	var reply []struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if json.NewDecoder(resp.Body).Decode(&reply) != nil {
		return true
	}
	for _, r := range reply {
		if !r.Success && !strings.Contains(strings.ToLower(r.Error), "duplicate") {
			return false
		}
	}
	return true
}

// Ping probes the remote store through the endpoints different server
// generations expose.
func (c *ImmichClient) Ping(ctx context.Context) bool {
	probe, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	for _, path := range []string{"/server-info", "/server/version", "/users/me"} {
		req, err := http.NewRequestWithContext(probe, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			continue
		}
		c.setAuth(req, nil)
		resp, err := c.http.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode < 400 {
			return true
		}
	}
	return false
}

// Login proxies credentials to the remote store and returns its session.
func (c *ImmichClient) Login(ctx context.Context, email, password string) (*LoginReply, error) {
	payload, _ := json.Marshal(map[string]string{"email": email, "password": password})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteError{Status: resp.StatusCode, Message: remoteMessage(raw)}
	}

	var reply struct {
		AccessToken string `json:"accessToken"`
		UserID      string `json:"userId"`
		UserEmail   string `json:"userEmail"`
		Name        string `json:"name"`
		IsAdmin     bool   `json:"isAdmin"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("decode login reply: %w", err)
	}
	return &LoginReply{
		AccessToken: reply.AccessToken,
		UserID:      reply.UserID,
		UserEmail:   reply.UserEmail,
		Name:        reply.Name,
		IsAdmin:     reply.IsAdmin,
	}, nil
}

// ListAlbums returns the albums visible to the given credentials.
func (c *ImmichClient) ListAlbums(ctx context.Context, auth *Auth) ([]Album, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/albums", nil)
	if err != nil {
		return nil, err
	}
	c.setAuth(req, auth)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteError{Status: resp.StatusCode}
	}

	var reply []struct {
		ID         string `json:"id"`
		AlbumName  string `json:"albumName"`
		AssetCount int    `json:"assetCount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, err
	}
	albums := make([]Album, 0, len(reply))
	for _, a := range reply {
		albums = append(albums, Album{ID: a.ID, Name: a.AlbumName, AssetCount: a.AssetCount})
	}
	return albums, nil
}

// CreateAlbum creates a remote album by name.
func (c *ImmichClient) CreateAlbum(ctx context.Context, name string, auth *Auth) (*Album, error) {
	payload, _ := json.Marshal(map[string]string{"albumName": name})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/albums", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuth(req, auth)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RemoteError{Status: resp.StatusCode, Message: remoteMessage(raw)}
	}

	var reply struct {
		ID        string `json:"id"`
		AlbumName string `json:"albumName"`
	}
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, err
	}
	return &Album{ID: reply.ID, Name: reply.AlbumName}, nil
}

// remoteMessage pulls a human-readable message out of an error body.
func remoteMessage(raw []byte) string {
	var body struct {
		Message interface{} `json:"message"`
		Error   string      `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		switch m := body.Message.(type) {
		case string:
			if m != "" {
				return m
			}
		case []interface{}:
			parts := make([]string, 0, len(m))
			for _, p := range m {
				if s, ok := p.(string); ok {
					parts = append(parts, s)
				}
			}
			if len(parts) > 0 {
				return strings.Join(parts, "; ")
			}
		}
		if body.Error != "" {
			return body.Error
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 300 {
		msg = msg[:300]
	}
	return msg
}
