package service

import (
	"context"
	"log"
	"time"

	"ImmichDrop/config"
	"ImmichDrop/internal/hub"
	"ImmichDrop/internal/repo"
	"ImmichDrop/model"
	"ImmichDrop/utils"
)

// Ingest outcome statuses.
const (
	StatusSuccess   = "success"
	StatusDuplicate = "duplicate"
	StatusError     = "error"
)

// Notifier publishes progress events for a session. The hub implements
// it in production; tests record events instead.
type Notifier interface {
	Publish(sessionID string, ev hub.Event)
}

// HubNotifier forwards progress events to the process-wide hub.
type HubNotifier struct{}

func (HubNotifier) Publish(sessionID string, ev hub.Event) {
	hub.Default.Publish(sessionID, ev)
}

// IngestInput is everything known about one incoming file.
type IngestInput struct {
	Data               []byte
	Filename           string
	ContentType        string
	LastModifiedMillis int64

	SessionID   string
	ItemID      string
	DeviceID    string
	Fingerprint string
	ClientIP    string
	UserAgent   string

	InviteToken        string
	PasswordAuthorized bool
	AlbumNameOverride  string

	Auth   *Auth
	Notify Notifier
}

// IngestOutcome is the terminal state of one ingest attempt.
type IngestOutcome struct {
	Status     string
	AssetID    string
	Message    string
	ReasonCode string
}

func (in *IngestInput) notify(status string, progress int, message string) {
	if in.Notify == nil || in.SessionID == "" {
		return
	}
	in.Notify.Publish(in.SessionID, hub.Event{
		ItemID:   in.ItemID,
		Status:   status,
		Progress: progress,
		Message:  message,
	})
}

// notifyTerminal carries the remote asset id so the client can link
// straight to the stored asset.
func (in *IngestInput) notifyTerminal(status, message, responseID string) {
	if in.Notify == nil || in.SessionID == "" {
		return
	}
	in.Notify.Publish(in.SessionID, hub.Event{
		ItemID:     in.ItemID,
		Status:     status,
		Progress:   100,
		Message:    message,
		ResponseID: responseID,
	})
}

func (in *IngestInput) deviceID() string {
	if in.DeviceID != "" {
		return in.DeviceID
	}
	if in.SessionID != "" {
		return "immich-drop-" + in.SessionID
	}
	return "immich-drop"
}

// Ingest runs the full pipeline for one file: identity, local dedup,
// invite gate, remote dedup, upload, album link, bookkeeping. Every
// state transition is published through in.Notify; exactly one terminal
// event is emitted per call.
func Ingest(ctx context.Context, in *IngestInput) *IngestOutcome {
	in.Filename = utils.SanitizeFilename(in.Filename)
	checksum := Checksum(in.Data)
	deviceAssetID := DeviceAssetID(in.Filename, in.LastModifiedMillis, int64(len(in.Data)))
	created, modified := FileTimes(in.Data, in.LastModifiedMillis)

	// Local ledger first: a hit costs zero remote calls.
	if rec, err := LookupByChecksum(ctx, checksum); err != nil {
		return in.fail(err.Error(), "")
	} else if rec != nil {
		in.notifyTerminal(hub.StatusDuplicate, "already uploaded", rec.RemoteAssetID)
		return &IngestOutcome{Status: StatusDuplicate, AssetID: rec.RemoteAssetID, Message: "already uploaded"}
	}
	if seen, err := LookupByDeviceAsset(ctx, deviceAssetID); err != nil {
		return in.fail(err.Error(), "")
	} else if seen {
		in.notifyTerminal(hub.StatusDuplicate, "already uploaded from this device", "")
		return &IngestOutcome{Status: StatusDuplicate, Message: "already uploaded from this device"}
	}

	// The invite gate runs before any remote traffic so a rejected
	// uploader learns the reason without leaking data outward.
	var grant *InviteGrant
	if in.InviteToken != "" {
		var err error
		grant, err = ValidateInvite(ctx, in.InviteToken, in.SessionID, in.PasswordAuthorized)
		if err != nil {
			if verr, ok := err.(*ValidationError); ok {
				in.notify(hub.StatusError, 0, verr.Message)
				return &IngestOutcome{Status: StatusError, Message: verr.Message, ReasonCode: verr.Reason}
			}
			return in.fail(err.Error(), "")
		}
	}

	in.notify(hub.StatusChecking, 2, "")
	results, err := Remote.BulkCheck(ctx, []AssetCheck{{ID: deviceAssetID, Checksum: checksum}}, in.Auth)
	if err != nil {
		log.Printf("[ingest] bulk check unavailable, uploading anyway: %v", err)
	}
	if r, ok := results[deviceAssetID]; ok && r.Action == "reject" && r.Reason == "duplicate" {
		in.recordUpload(ctx, checksum, deviceAssetID, r.AssetID, created)
		in.releaseGrant(ctx, grant)
		in.notifyTerminal(hub.StatusDuplicate, "already in library", r.AssetID)
		return &IngestOutcome{Status: StatusDuplicate, AssetID: r.AssetID, Message: "already in library"}
	}

	in.notify(hub.StatusUploading, 0, "")
	reply, err := Remote.Upload(ctx, &UploadInput{
		Data:          in.Data,
		Filename:      in.Filename,
		ContentType:   in.ContentType,
		DeviceAssetID: deviceAssetID,
		DeviceID:      in.deviceID(),
		Checksum:      checksum,
		CreatedAt:     created,
		ModifiedAt:    modified,
		Auth:          in.Auth,
		Progress: func(pct int) {
			in.notify(hub.StatusUploading, pct, "")
		},
	})
	if err != nil {
		in.releaseGrant(ctx, grant)
		return in.fail(err.Error(), "")
	}

	in.recordUpload(ctx, checksum, deviceAssetID, reply.AssetID, created)
	in.linkAlbum(ctx, grant, reply.AssetID)
	in.settleGrant(ctx, grant)
	in.audit(ctx, checksum, reply.AssetID)

	if reply.Duplicate {
		in.notifyTerminal(hub.StatusDuplicate, "already in library", reply.AssetID)
		return &IngestOutcome{Status: StatusDuplicate, AssetID: reply.AssetID, Message: "already in library"}
	}
	in.notifyTerminal(hub.StatusDone, "", reply.AssetID)
	return &IngestOutcome{Status: StatusSuccess, AssetID: reply.AssetID}
}

func (in *IngestInput) fail(message, reason string) *IngestOutcome {
	in.notify(hub.StatusError, 0, message)
	return &IngestOutcome{Status: StatusError, Message: message, ReasonCode: reason}
}

// recordUpload appends to the dedup ledger. The upload already
// succeeded, so a ledger failure is logged and swallowed.
func (in *IngestInput) recordUpload(ctx context.Context, checksum, deviceAssetID, assetID string, created time.Time) {
	err := InsertUploadRecord(ctx, &model.UploadRecord{
		Checksum:      checksum,
		Filename:      in.Filename,
		Size:          int64(len(in.Data)),
		DeviceAssetID: deviceAssetID,
		RemoteAssetID: assetID,
		CreatedAt:     created,
	})
	if err != nil {
		log.Printf("[ingest] ledger insert failed for %s: %v", in.Filename, err)
	}
}

// linkAlbum picks the target album and links the asset. An invite pins
// its own album; the configured default never applies to invite
// uploads. Failures are logged only.
func (in *IngestInput) linkAlbum(ctx context.Context, grant *InviteGrant, assetID string) {
	if assetID == "" {
		return
	}
	albumID := ""
	albumName := ""
	switch {
	case grant != nil:
		albumID, albumName = grant.AlbumID, grant.AlbumName
		if albumID == "" && albumName == "" {
			return
		}
	case in.AlbumNameOverride != "":
		albumName = in.AlbumNameOverride
	case config.AppConfig.AlbumName != "":
		albumName = config.AppConfig.AlbumName
	default:
		return
	}
	if albumID == "" {
		var err error
		albumID, err = Remote.ResolveOrCreateAlbum(ctx, albumName, in.Auth)
		if err != nil || albumID == "" {
			log.Printf("[ingest] album %q not resolved: %v", albumName, err)
			return
		}
	}
	if !Remote.AddToAlbum(ctx, assetID, albumID, in.Auth) {
		log.Printf("[ingest] could not add asset %s to album %s", assetID, albumID)
	}
}

// releaseGrant refunds a reserved multi-use slot when the upload never
// reached the remote store. Single-use claims stay with the session so
// it can retry.
func (in *IngestInput) releaseGrant(ctx context.Context, grant *InviteGrant) {
	if grant != nil && grant.MultiUse {
		ReleaseMultiUse(ctx, grant.Invite.Token)
	}
}

// settleGrant finalizes invite usage after a successful upload.
func (in *IngestInput) settleGrant(ctx context.Context, grant *InviteGrant) {
	if grant != nil && grant.Invite.SingleUse() {
		MarkSingleUseConsumed(ctx, grant.Invite.Token)
	}
}

// audit appends to the upload log. Uploads without an invite are
// recorded under an empty token.
func (in *IngestInput) audit(ctx context.Context, checksum, assetID string) {
	err := repo.Db.WithContext(ctx).Create(&model.UploadEvent{
		Token:         in.InviteToken,
		IP:            in.ClientIP,
		UserAgent:     in.UserAgent,
		Fingerprint:   in.Fingerprint,
		Filename:      in.Filename,
		Size:          int64(len(in.Data)),
		Checksum:      checksum,
		RemoteAssetID: assetID,
	}).Error
	if err != nil {
		log.Printf("[ingest] audit insert failed: %v", err)
	}
}
