package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, 500, cfg.RAG.ChunkSize)
	assert.Equal(t, 100, cfg.RAG.ChunkOverlap)
	assert.Equal(t, 7, cfg.RAG.RetentionDays)
	assert.Equal(t, 0.3, cfg.RAG.ChatThreshold)
	assert.Equal(t, 1536, cfg.LLM.EmbeddingDim)
	assert.Equal(t, "rag.message.persist", cfg.RabbitMQ.MessagePersistQueue)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[app]
port = 9090

[rag]
chunk_size = 800
chat_threshold = 0.5

[postgres]
host = "db.internal"
db = "marine_rag"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, 800, cfg.RAG.ChunkSize)
	assert.Equal(t, 0.5, cfg.RAG.ChatThreshold)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	// untouched keys keep their defaults
	assert.Equal(t, 100, cfg.RAG.ChunkOverlap)
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[app]\nport = 9090\n"), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_PORT", "7070")
	t.Setenv("RAG_RETENTION_DAYS", "14")
	t.Setenv("RAG_CHAT_THRESHOLD", "0.45")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.App.Port)
	assert.Equal(t, 14, cfg.RAG.RetentionDays)
	assert.Equal(t, 0.45, cfg.RAG.ChatThreshold)
}

func TestPostgresDSN(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	cfg, err := Load()
	require.NoError(t, err)

	dsn := cfg.PostgresDSN()
	assert.Contains(t, dsn, "host=127.0.0.1")
	assert.Contains(t, dsn, "dbname=marineai")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestHTTPAddr(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))
	t.Setenv("APP_HOST", "127.0.0.1")
	t.Setenv("APP_PORT", "8443")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8443", cfg.HTTPAddr())
}
