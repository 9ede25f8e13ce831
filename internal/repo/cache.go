package repo

import (
	"context"
	"encoding/json"
	"time"

	"ImmichDrop/model"
)

const recordTTL = 24 * time.Hour

func recordKey(checksum string) string {
	return "drop:record:" + checksum
}

// CachedRecord returns a cached upload record for checksum, or nil on
// miss or when redis is not configured.
func CachedRecord(ctx context.Context, checksum string) *model.UploadRecord {
	if Redis == nil {
		return nil
	}
	raw, err := Redis.Get(ctx, recordKey(checksum)).Bytes()
	if err != nil {
		return nil
	}
	var rec model.UploadRecord
	if json.Unmarshal(raw, &rec) != nil {
		return nil
	}
	return &rec
}

// CacheRecord stores an upload record by checksum. Best effort.
func CacheRecord(ctx context.Context, rec *model.UploadRecord) {
	if Redis == nil || rec == nil {
		return
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return
	}
	Redis.Set(ctx, recordKey(rec.Checksum), raw, recordTTL)
}
