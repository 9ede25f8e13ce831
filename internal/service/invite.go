package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ImmichDrop/config"
	"ImmichDrop/internal/dto"
	"ImmichDrop/internal/repo"
	"ImmichDrop/model"
	"ImmichDrop/utils"

	"gorm.io/gorm"
)

// ClaimOutcome is the result of a single-use claim or multi-use consume.
type ClaimOutcome int

const (
	Claimed ClaimOutcome = iota
	AlreadyOwnedBySession
	ClaimedByOther
	Consumed
	Exhausted
)

// InviteGrant is a validated, usage-reserved right to upload once.
type InviteGrant struct {
	Invite    *model.Invite
	AlbumID   string
	AlbumName string
	// MultiUse reservations are refundable on transport failure.
	MultiUse bool
}

// GetInvite returns the invite for token, or nil when unknown.
func GetInvite(ctx context.Context, token string) (*model.Invite, error) {
	var inv model.Invite
	err := repo.Db.WithContext(ctx).Where("token = ?", token).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// TryClaimSingleUse binds a one-time invite to sessionID. The claim and
// the owner re-read happen in one transaction so concurrent sessions
// split cleanly into one Claimed and the rest ClaimedByOther.
func TryClaimSingleUse(ctx context.Context, token, sessionID string) (ClaimOutcome, error) {
	outcome := ClaimedByOther
	err := repo.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&model.Invite{}).
			Where("token = ? AND claimed = ?", token, false).
			Updates(map[string]interface{}{
				"claimed":            true,
				"claimed_at":         now,
				"claimed_by_session": sessionID,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			outcome = Claimed
			return nil
		}
		var inv model.Invite
		if err := tx.Where("token = ?", token).First(&inv).Error; err != nil {
			return err
		}
		if inv.ClaimedBySession == sessionID {
			outcome = AlreadyOwnedBySession
		}
		return nil
	})
	return outcome, err
}

// ConsumeMultiUse reserves one use of a counted or unlimited invite.
// The guard and the increment are a single UPDATE so concurrent
// consumers can never push used_count past max_uses.
func ConsumeMultiUse(ctx context.Context, token string) (ClaimOutcome, error) {
	res := repo.Db.WithContext(ctx).Model(&model.Invite{}).
		Where("token = ? AND (max_uses < 0 OR used_count < max_uses)", token).
		UpdateColumn("used_count", gorm.Expr("used_count + ?", 1))
	if res.Error != nil {
		return Exhausted, res.Error
	}
	if res.RowsAffected == 0 {
		return Exhausted, nil
	}
	return Consumed, nil
}

// ReleaseMultiUse refunds one reserved use after an upload that never
// reached the remote store.
func ReleaseMultiUse(ctx context.Context, token string) {
	repo.Db.WithContext(ctx).Model(&model.Invite{}).
		Where("token = ? AND used_count > 0", token).
		UpdateColumn("used_count", gorm.Expr("used_count - ?", 1))
}

// MarkSingleUseConsumed records the successful upload of a claimed
// single-use invite.
func MarkSingleUseConsumed(ctx context.Context, token string) {
	repo.Db.WithContext(ctx).Model(&model.Invite{}).
		Where("token = ?", token).
		UpdateColumn("used_count", 1)
}

// ValidateInvite runs the full gate for an upload attempt: existence,
// disabled flag, password, expiry, then usage reservation. A failure is
// a *ValidationError carrying its reason code and leaves no state
// behind except a single-use claim by this same session.
func ValidateInvite(ctx context.Context, token, sessionID string, passwordAuthorized bool) (*InviteGrant, error) {
	inv, err := GetInvite(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, &ValidationError{Reason: ReasonInvalidInvite, Message: "unknown invite token"}
	}
	if inv.Disabled {
		return nil, &ValidationError{Reason: ReasonInviteDisabled, Message: "invite has been disabled"}
	}
	if inv.PasswordHash != "" && !passwordAuthorized {
		return nil, &ValidationError{Reason: ReasonInvitePasswordRequired, Message: "invite requires a password"}
	}
	if inv.Expired(time.Now().UTC()) {
		return nil, &ValidationError{Reason: ReasonInviteExpired, Message: "invite has expired"}
	}

	grant := &InviteGrant{Invite: inv, AlbumID: inv.AlbumID, AlbumName: inv.AlbumName}
	if inv.SingleUse() {
		outcome, err := TryClaimSingleUse(ctx, token, sessionID)
		if err != nil {
			return nil, err
		}
		switch outcome {
		case Claimed, AlreadyOwnedBySession:
			return grant, nil
		default:
			return nil, &ValidationError{Reason: ReasonInviteClaimed, Message: "invite already used by another session"}
		}
	}

	outcome, err := ConsumeMultiUse(ctx, token)
	if err != nil {
		return nil, err
	}
	if outcome == Exhausted {
		return nil, &ValidationError{Reason: ReasonInviteExhausted, Message: "invite usage exhausted"}
	}
	grant.MultiUse = true
	return grant, nil
}

// AuthorizeInvitePassword checks a password attempt against the invite.
func AuthorizeInvitePassword(ctx context.Context, token, password string) (bool, error) {
	inv, err := GetInvite(ctx, token)
	if err != nil {
		return false, err
	}
	if inv == nil {
		return false, &ValidationError{Reason: ReasonInvalidInvite, Message: "unknown invite token"}
	}
	if inv.PasswordHash == "" {
		return true, nil
	}
	return utils.CheckPwd(inv.PasswordHash, password), nil
}

// CreateInvite stores a new invite owned by the given user.
func CreateInvite(ctx context.Context, owner *utils.SessionClaims, req *dto.CreateInviteRequest) (*model.Invite, error) {
	inv := &model.Invite{
		Token:     utils.GetToken(),
		Name:      strings.TrimSpace(req.Name),
		AlbumID:   req.AlbumID,
		AlbumName: req.AlbumName,
		MaxUses:   1,
	}
	if req.MaxUses != nil {
		if *req.MaxUses == 0 || *req.MaxUses < -1 {
			return nil, &ValidationError{Reason: "invalid_max_uses", Message: "max_uses must be -1 or positive"}
		}
		inv.MaxUses = *req.MaxUses
	}
	if req.ExpiresIn != nil && *req.ExpiresIn > 0 {
		t := time.Now().UTC().Add(time.Duration(*req.ExpiresIn) * time.Hour)
		inv.ExpiresAt = &t
	}
	if req.Password != "" {
		hash, err := utils.GetPwd(req.Password)
		if err != nil {
			return nil, err
		}
		inv.PasswordHash = hash
	}
	if owner != nil {
		inv.OwnerUserID = owner.UserID
		inv.OwnerEmail = owner.UserEmail
		inv.OwnerName = owner.Name
	}
	if err := repo.Db.WithContext(ctx).Create(inv).Error; err != nil {
		return nil, err
	}
	return inv, nil
}

// UpdateInvite patches an invite owned by ownerID. Nil request fields
// keep their current values.
func UpdateInvite(ctx context.Context, ownerID, token string, req *dto.UpdateInviteRequest) (*model.Invite, error) {
	inv, err := ownedInvite(ctx, ownerID, token)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = strings.TrimSpace(*req.Name)
	}
	if req.AlbumID != nil {
		updates["album_id"] = *req.AlbumID
	}
	if req.AlbumName != nil {
		updates["album_name"] = *req.AlbumName
	}
	if req.MaxUses != nil {
		if *req.MaxUses == 0 || *req.MaxUses < -1 {
			return nil, &ValidationError{Reason: "invalid_max_uses", Message: "max_uses must be -1 or positive"}
		}
		updates["max_uses"] = *req.MaxUses
	}
	if req.ClearExpiry {
		updates["expires_at"] = nil
	} else if req.ExpiresIn != nil && *req.ExpiresIn > 0 {
		updates["expires_at"] = time.Now().UTC().Add(time.Duration(*req.ExpiresIn) * time.Hour)
	}
	if req.Disabled != nil {
		updates["disabled"] = *req.Disabled
	}
	if req.Password != nil {
		if *req.Password == "" {
			updates["password_hash"] = ""
		} else {
			hash, err := utils.GetPwd(*req.Password)
			if err != nil {
				return nil, err
			}
			updates["password_hash"] = hash
		}
	}
	if req.ResetUsage {
		updates["used_count"] = 0
		updates["claimed"] = false
		updates["claimed_at"] = nil
		updates["claimed_by_session"] = ""
	}
	if len(updates) > 0 {
		if err := repo.Db.WithContext(ctx).Model(inv).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return GetInvite(ctx, token)
}

// BulkSetDisabled flips the disabled flag on the owner's invites.
func BulkSetDisabled(ctx context.Context, ownerID string, tokens []string, disabled bool) (int64, error) {
	res := repo.Db.WithContext(ctx).Model(&model.Invite{}).
		Where("token IN ? AND owner_user_id = ?", tokens, ownerID).
		UpdateColumn("disabled", disabled)
	return res.RowsAffected, res.Error
}

// DeleteInvites removes the owner's invites and cascades to their audit
// log rows.
func DeleteInvites(ctx context.Context, ownerID string, tokens []string) (int64, error) {
	var deleted int64
	err := repo.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owned []string
		if err := tx.Model(&model.Invite{}).
			Where("token IN ? AND owner_user_id = ?", tokens, ownerID).
			Pluck("token", &owned).Error; err != nil {
			return err
		}
		if len(owned) == 0 {
			return nil
		}
		if err := tx.Where("token IN ?", owned).Delete(&model.UploadEvent{}).Error; err != nil {
			return err
		}
		res := tx.Where("token IN ?", owned).Delete(&model.Invite{})
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}

// ListInvites returns the owner's invites with upload counts, filtered
// by q against name/album/token and sorted by the given key.
func ListInvites(ctx context.Context, ownerID, q, sort string) ([]dto.InviteView, error) {
	query := repo.Db.WithContext(ctx).Model(&model.Invite{}).Where("owner_user_id = ?", ownerID)
	if q != "" {
		like := "%" + q + "%"
		query = query.Where("name LIKE ? OR album_name LIKE ? OR token LIKE ?", like, like, like)
	}
	switch sort {
	case "name":
		query = query.Order("name ASC")
	case "expires":
		query = query.Order("expires_at ASC")
	case "uses":
		query = query.Order("used_count DESC")
	default:
		query = query.Order("created_at DESC")
	}
	var invites []model.Invite
	if err := query.Find(&invites).Error; err != nil {
		return nil, err
	}

	views := make([]dto.InviteView, 0, len(invites))
	for i := range invites {
		inv := &invites[i]
		var uploads int64
		repo.Db.WithContext(ctx).Model(&model.UploadEvent{}).
			Where("token = ?", inv.Token).Count(&uploads)
		views = append(views, inviteView(inv, uploads))
	}
	return views, nil
}

func inviteView(inv *model.Invite, uploads int64) dto.InviteView {
	v := dto.InviteView{
		Token:     inv.Token,
		Name:      inv.Name,
		URL:       InviteURL(inv.Token),
		AlbumID:   inv.AlbumID,
		AlbumName: inv.AlbumName,
		MaxUses:   inv.MaxUses,
		UsedCount: inv.UsedCount,
		Claimed:   inv.Claimed,
		Disabled:  inv.Disabled,
		Protected: inv.PasswordHash != "",
		CreatedAt: inv.CreatedAt.UTC().Format(time.RFC3339),
		Uploads:   uploads,
	}
	if !inv.Unlimited() {
		left := inv.Remaining()
		v.Remaining = &left
	}
	if inv.ExpiresAt != nil {
		s := inv.ExpiresAt.UTC().Format(time.RFC3339)
		v.ExpiresAt = &s
	}
	return v
}

// InviteInfo builds the public-safe view shown on the upload page.
func InviteInfo(ctx context.Context, token string) (*dto.InviteInfo, error) {
	inv, err := GetInvite(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, &ValidationError{Reason: ReasonInvalidInvite, Message: "unknown invite token"}
	}
	info := &dto.InviteInfo{
		Token:            inv.Token,
		Name:             inv.Name,
		AlbumName:        inv.AlbumName,
		Active:           true,
		PasswordRequired: inv.PasswordHash != "",
	}
	if !inv.Unlimited() {
		left := inv.Remaining()
		info.Remaining = &left
	}
	switch {
	case inv.Disabled:
		info.Active = false
		info.InactiveReason = ReasonInviteDisabled
	case inv.Expired(time.Now().UTC()):
		info.Active = false
		info.InactiveReason = ReasonInviteExpired
	case inv.SingleUse() && inv.Claimed && inv.UsedCount > 0:
		info.Active = false
		info.InactiveReason = ReasonInviteClaimed
	case !inv.Unlimited() && inv.Remaining() == 0:
		info.Active = false
		info.InactiveReason = ReasonInviteExhausted
	}
	return info, nil
}

// InviteUploads returns the audit log rows for one owned invite.
func InviteUploads(ctx context.Context, ownerID, token string) ([]model.UploadEvent, error) {
	if _, err := ownedInvite(ctx, ownerID, token); err != nil {
		return nil, err
	}
	var events []model.UploadEvent
	err := repo.Db.WithContext(ctx).
		Where("token = ?", token).Order("uploaded_at DESC").Find(&events).Error
	return events, err
}

func ownedInvite(ctx context.Context, ownerID, token string) (*model.Invite, error) {
	inv, err := GetInvite(ctx, token)
	if err != nil {
		return nil, err
	}
	if inv == nil || inv.OwnerUserID != ownerID {
		return nil, &ValidationError{Reason: ReasonInvalidInvite, Message: "unknown invite token"}
	}
	return inv, nil
}

// InviteURL renders the shareable upload page link for a token.
func InviteURL(token string) string {
	base := strings.TrimRight(config.AppConfig.PublicBaseURL, "/")
	if base == "" {
		return "/i/" + token
	}
	return fmt.Sprintf("%s/i/%s", base, token)
}
