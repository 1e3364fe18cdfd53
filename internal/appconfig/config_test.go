package appconfig

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ":8080", cfg.HTTP.ListenAddr)
	assert.Equal(t, "~/.config/design-review", cfg.StorageRoot)
	assert.Equal(t, 30*time.Second, cfg.Browser.NavigationTimeout)
	assert.Equal(t, 2*time.Second, cfg.Browser.IdleWindow)
	assert.Equal(t, []string{"./specs"}, cfg.SpecSearchPaths)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestApplyEnvOverridesFromEnvironment(t *testing.T) {
	t.Setenv("DESIGN_REVIEW_LISTEN_ADDR", ":9090")
	t.Setenv("DESIGN_REVIEW_STORAGE_ROOT", "/var/lib/design-review")
	t.Setenv("DESIGN_REVIEW_LOG_LEVEL", "debug")
	t.Setenv("DESIGN_REVIEW_NAV_TIMEOUT_SECONDS", "45")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.Equal(t, ":9090", cfg.HTTP.ListenAddr)
	assert.Equal(t, "/var/lib/design-review", cfg.StorageRoot)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 45*time.Second, cfg.Browser.NavigationTimeout)
}

func TestApplyEnvIgnoresInvalidTimeout(t *testing.T) {
	t.Setenv("DESIGN_REVIEW_NAV_TIMEOUT_SECONDS", "not-a-number")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.Equal(t, 30*time.Second, cfg.Browser.NavigationTimeout)
}

func TestApplyEnvLeavesDefaultsWhenUnset(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ApplyEnv()
	assert.Equal(t, *DefaultConfig(), *cfg)
}

func TestExpandStorageRootResolvesTilde(t *testing.T) {
	cfg := &Config{StorageRoot: "~/.config/design-review"}
	expanded, err := cfg.ExpandStorageRoot()
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, home+"/.config/design-review", expanded)
}

func TestExpandStorageRootLeavesAbsolutePathUnchanged(t *testing.T) {
	cfg := &Config{StorageRoot: "/var/lib/design-review"}
	expanded, err := cfg.ExpandStorageRoot()
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/design-review", expanded)
}

func TestBrowserOptionsAppliesNavigationTimeoutAndIdleWindow(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Browser.NavigationTimeout = 10 * time.Second
	cfg.Browser.IdleWindow = 500 * time.Millisecond

	opts := cfg.BrowserOptions()
	assert.Len(t, opts, 2)
}
