package service

import (
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// Checksum returns the sha1 hex digest of data. The same digest is sent
// to the remote store as its integrity header.
func Checksum(data []byte) string {
	sum := sha1.Sum(data)
	return hex.EncodeToString(sum[:])
}

// DeviceAssetID builds the client-side asset identity the remote store
// indexes on: name, modification epoch millis and byte size.
func DeviceAssetID(filename string, lastModifiedMillis, size int64) string {
	return fmt.Sprintf("%s-%d-%d", filename, lastModifiedMillis, size)
}

// FileTimes resolves the asset's created/modified timestamps: EXIF
// capture time when the bytes carry it, else the client-reported
// modification time, else now.
func FileTimes(data []byte, lastModifiedMillis int64) (created, modified time.Time) {
	now := time.Now().UTC()
	created, modified = now, now
	if lastModifiedMillis > 0 {
		t := time.UnixMilli(lastModifiedMillis).UTC()
		created, modified = t, t
	}
	if x, err := exif.Decode(bytes.NewReader(data)); err == nil {
		if t, err := x.DateTime(); err == nil {
			created = t.UTC()
		}
	}
	return created, modified
}

// DetectFileType sniffs magic bytes and returns a file extension
// (without dot) for media we recognize, or "".
func DetectFileType(data []byte) string {
	if len(data) < 12 {
		return ""
	}
	switch {
	case bytes.HasPrefix(data, []byte{0xff, 0xd8, 0xff}):
		return "jpg"
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}):
		return "png"
	case bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")):
		return "gif"
	case bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "webp"
	case bytes.HasPrefix(data, []byte("BM")):
		return "bmp"
	case bytes.HasPrefix(data, []byte{0x49, 0x49, 0x2a, 0x00}) || bytes.HasPrefix(data, []byte{0x4d, 0x4d, 0x00, 0x2a}):
		return "tiff"
	}
	if bytes.Equal(data[4:8], []byte("ftyp")) {
		brand := string(data[8:12])
		switch {
		case brand == "heic" || brand == "heix" || brand == "mif1":
			return "heic"
		case brand == "avif":
			return "avif"
		case brand == "qt  ":
			return "mov"
		default:
			return "mp4"
		}
	}
	return ""
}
