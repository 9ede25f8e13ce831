package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"ImmichDrop/config"
)

// ChunkMeta describes the logical file a chunk set assembles into.
type ChunkMeta struct {
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	LastModified int64  `json:"last_modified"`
	TotalParts   int    `json:"total_parts"`
	ContentType  string `json:"content_type,omitempty"`
	InviteToken  string `json:"invite_token,omitempty"`
	Fingerprint  string `json:"fingerprint,omitempty"`
}

// MissingPartError reports the first missing part index during
// assembly. The chunk set stays on disk so the client can resubmit
// just that part.
type MissingPartError struct {
	Index int
}

func (e *MissingPartError) Error() string {
	return fmt.Sprintf("missing part %d", e.Index)
}

func safeKey(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

func chunkDir(session, item string) string {
	return filepath.Join(config.AppConfig.ChunkRoot, safeKey(session), safeKey(item))
}

func partPath(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("part_%06d", index))
}

// InitChunkSet creates the on-disk set for one (session, item) pair and
// records its metadata. Re-init of the same pair starts over.
func InitChunkSet(session, item string, meta *ChunkMeta) error {
	if meta.TotalParts <= 0 {
		return &ValidationError{Reason: "invalid_total_parts", Message: "total_parts must be positive"}
	}
	dir := chunkDir(session, item)
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "meta.json"), raw, 0o644)
}

// PutPart stores one part. Parts may arrive out of order and may be
// resubmitted; the last write wins.
func PutPart(session, item string, index int, data []byte) error {
	dir := chunkDir(session, item)
	if _, err := os.Stat(filepath.Join(dir, "meta.json")); err != nil {
		return &ValidationError{Reason: "unknown_chunk_set", Message: "chunk set was never initialized"}
	}
	if index < 0 {
		return &ValidationError{Reason: "invalid_part_index", Message: "part index must be non-negative"}
	}
	return os.WriteFile(partPath(dir, index), data, 0o644)
}

// CompleteChunkSet concatenates parts 0..total-1 into the original
// bytes. A gap leaves the set intact and returns *MissingPartError;
// success removes the set before returning.
func CompleteChunkSet(session, item string) ([]byte, *ChunkMeta, error) {
	dir := chunkDir(session, item)
	raw, err := os.ReadFile(filepath.Join(dir, "meta.json"))
	if err != nil {
		return nil, nil, &ValidationError{Reason: "unknown_chunk_set", Message: "chunk set was never initialized"}
	}
	var meta ChunkMeta
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	for i := 0; i < meta.TotalParts; i++ {
		part, err := os.ReadFile(partPath(dir, i))
		if os.IsNotExist(err) {
			return nil, nil, &MissingPartError{Index: i}
		}
		if err != nil {
			return nil, nil, err
		}
		buf.Write(part)
	}
	if err := os.RemoveAll(dir); err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), &meta, nil
}

// DiscardChunkSet drops an abandoned set.
func DiscardChunkSet(session, item string) {
	os.RemoveAll(chunkDir(session, item))
}
