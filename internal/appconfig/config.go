// Package appconfig aggregates the runtime configuration for every
// subsystem the review engine wires together: the HTTP surface, the
// browser driver, session storage, and the spec search path.
package appconfig

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/raysh454/design-review/internal/browser"
)

// HTTPConfig controls the httpapi server.
type HTTPConfig struct {
	// ListenAddr is the net.Listen address, e.g. ":8080".
	ListenAddr string
}

// BrowserConfig controls the chromedp-backed capture driver.
type BrowserConfig struct {
	NavigationTimeout time.Duration
	IdleWindow        time.Duration
}

// Config is the top-level configuration for a design-review process,
// whether it's serving HTTP or running one-shot CLI commands.
type Config struct {
	HTTP HTTPConfig

	// StorageRoot is the base directory session artifacts and the
	// sqlite session index are written under.
	StorageRoot string

	Browser BrowserConfig

	// SpecSearchPaths are directories specloader.Loader searches for
	// named specs, in order.
	SpecSearchPaths []string

	// LogLevel is passed to logging.New ("debug", "info", "warn", "error").
	LogLevel string
}

// DefaultConfig returns a Config populated with sensible development
// defaults, mirroring the teacher's DefaultConfig pattern.
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			ListenAddr: ":8080",
		},
		StorageRoot: "~/.config/design-review",
		Browser: BrowserConfig{
			NavigationTimeout: 30 * time.Second,
			IdleWindow:        2 * time.Second,
		},
		SpecSearchPaths: []string{"./specs"},
		LogLevel:        "info",
	}
}

// ApplyEnv overrides cfg fields from environment variables, following
// the same host/port-from-args convention as the teacher's main.go but
// extended to env vars for unattended deployment.
func (c *Config) ApplyEnv() {
	if addr := os.Getenv("DESIGN_REVIEW_LISTEN_ADDR"); addr != "" {
		c.HTTP.ListenAddr = addr
	}
	if root := os.Getenv("DESIGN_REVIEW_STORAGE_ROOT"); root != "" {
		c.StorageRoot = root
	}
	if lvl := os.Getenv("DESIGN_REVIEW_LOG_LEVEL"); lvl != "" {
		c.LogLevel = lvl
	}
	if timeout := os.Getenv("DESIGN_REVIEW_NAV_TIMEOUT_SECONDS"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil && secs > 0 {
			c.Browser.NavigationTimeout = time.Duration(secs) * time.Second
		}
	}
}

// ExpandStorageRoot resolves a leading "~" against the user's home
// directory, matching the teacher's server.expandPath helper.
func (c *Config) ExpandStorageRoot() (string, error) {
	p := c.StorageRoot
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}

// BrowserOptions turns the config's Browser section into chromedp
// driver options.
func (c *Config) BrowserOptions() []browser.Option {
	return []browser.Option{
		browser.WithNavigationTimeout(c.Browser.NavigationTimeout),
		browser.WithIdleWindow(c.Browser.IdleWindow),
	}
}
