package service

import (
	"errors"

	"ImmichDrop/internal/repo"
	"ImmichDrop/model"

	"golang.org/x/net/context"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LookupByChecksum returns the ledger row for checksum, or nil when the
// content has never been forwarded. Redis fronts sqlite when configured.
func LookupByChecksum(ctx context.Context, checksum string) (*model.UploadRecord, error) {
	if rec := repo.CachedRecord(ctx, checksum); rec != nil {
		return rec, nil
	}
	var rec model.UploadRecord
	err := repo.Db.WithContext(ctx).Where("checksum = ?", checksum).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	repo.CacheRecord(ctx, &rec)
	return &rec, nil
}

// LookupByDeviceAsset reports whether a client already sent an asset
// with this device asset id.
func LookupByDeviceAsset(ctx context.Context, deviceAssetID string) (bool, error) {
	var count int64
	err := repo.Db.WithContext(ctx).Model(&model.UploadRecord{}).
		Where("device_asset_id = ?", deviceAssetID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// InsertUploadRecord appends to the dedup ledger. A checksum already
// present is a no-op, never an overwrite.
func InsertUploadRecord(ctx context.Context, rec *model.UploadRecord) error {
	err := repo.Db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rec).Error
	if err != nil {
		return err
	}
	repo.CacheRecord(ctx, rec)
	return nil
}
