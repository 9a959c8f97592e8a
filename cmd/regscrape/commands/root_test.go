package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regscrape/internal/config"
)

const minimalConfig = `
scraper:
  logging:
    level: "info"
sources:
  nab:
    enabled: true
`

func execute(t *testing.T, args ...string) int {
	t.Helper()

	t.Cleanup(func() {
		configPath, logLevel, outputDir = "configs/regscrape.yaml", "", ""
		rootCmd.SetArgs(nil)
	})

	rootCmd.SetArgs(args)

	return ExecuteContext(context.Background())
}

func writeConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "regscrape.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalConfig), 0o644))

	return path
}

func TestExecuteContext_ConfigWritesEffectiveConfig(t *testing.T) {
	in := writeConfig(t)
	out := filepath.Join(t.TempDir(), "effective.yaml")

	code := execute(t, "config", out, "--config", in, "--log-level", "debug", "--output", "exports")
	require.Equal(t, 0, code)

	cfg, err := config.LoadConfig(out)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Scraper.Logging.Level)
	assert.Equal(t, "exports", cfg.Scraper.Output.Dir)
}

func TestExecuteContext_InvalidLogLevelOverrideFails(t *testing.T) {
	in := writeConfig(t)
	out := filepath.Join(t.TempDir(), "effective.yaml")

	code := execute(t, "config", out, "--config", in, "--log-level", "verbose")
	assert.Equal(t, 1, code)
	assert.NoFileExists(t, out)
}

func TestExecuteContext_MissingConfigFails(t *testing.T) {
	code := execute(t, "list", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, 1, code)
}
