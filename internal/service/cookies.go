package service

import (
	"errors"

	"ImmichDrop/internal/repo"
	"ImmichDrop/model"

	"golang.org/x/net/context"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetPlatformCookie returns the stored cookie string for a platform,
// or "" when none is stored.
func GetPlatformCookie(ctx context.Context, platform string) (string, error) {
	var pc model.PlatformCookie
	err := repo.Db.WithContext(ctx).Where("platform = ?", platform).First(&pc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return pc.CookieString, nil
}

// SetPlatformCookie upserts the cookie string for a platform.
func SetPlatformCookie(ctx context.Context, platform, cookieString string) error {
	pc := model.PlatformCookie{Platform: platform, CookieString: cookieString}
	return repo.Db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "platform"}},
		DoUpdates: clause.AssignmentColumns([]string{"cookie_string", "updated_at"}),
	}).Create(&pc).Error
}

// ListPlatformCookies returns every stored platform cookie.
func ListPlatformCookies(ctx context.Context) ([]model.PlatformCookie, error) {
	var cookies []model.PlatformCookie
	err := repo.Db.WithContext(ctx).Order("platform ASC").Find(&cookies).Error
	return cookies, err
}

// DeletePlatformCookie removes the cookie for a platform.
func DeletePlatformCookie(ctx context.Context, platform string) error {
	return repo.Db.WithContext(ctx).Where("platform = ?", platform).
		Delete(&model.PlatformCookie{}).Error
}
