package cmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/tvscan/internal/config"
)

func TestInitCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".tvscan", "config.yaml")

	output, err := execute(t, "init", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, output, "Wrote default configuration to "+path)

	cfg, err := config.LoadConfigFromDir(dir)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig(), cfg)

	_, err = execute(t, "init", "--dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	_, err = execute(t, "init", "--dir", dir, "--force")
	assert.NoError(t, err)
}
