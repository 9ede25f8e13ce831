package service

import (
	"path/filepath"
	"testing"

	"ImmichDrop/config"
	"ImmichDrop/internal/repo"
)

// setupDB points the package at a throwaway sqlite file and chunk dir.
func setupDB(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	config.InitConfig()
	config.AppConfig.StateDBPath = filepath.Join(dir, "state.db")
	config.AppConfig.ChunkRoot = filepath.Join(dir, "chunks")
	config.AppConfig.AlbumName = ""
	if err := repo.OpenSqlite(config.AppConfig.StateDBPath); err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
}
