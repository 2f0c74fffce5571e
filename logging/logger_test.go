package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/amirphl/photo-moderation/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	logger, err := New(config.LoggingConfig{Level: "debug", Format: "json", FilePath: path, MaxSize: 1})
	require.NoError(t, err)

	logger.Info("photo approved")
	_ = logger.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"msg":"photo approved"`)
	assert.Contains(t, string(raw), `"level":"info"`)
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(config.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}
