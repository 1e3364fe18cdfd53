package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/raysh454/design-review/internal/appconfig"
	"github.com/raysh454/design-review/internal/browser"
	"github.com/raysh454/design-review/internal/checks"
	"github.com/raysh454/design-review/internal/compare"
	"github.com/raysh454/design-review/internal/interfaces"
	"github.com/raysh454/design-review/internal/logging"
	"github.com/raysh454/design-review/internal/review"
	"github.com/raysh454/design-review/internal/session"
	"github.com/raysh454/design-review/internal/sessionindex"
	"github.com/raysh454/design-review/internal/specloader"
)

func newReviewCmd() *cobra.Command {
	var (
		specName string
		selector string
		annotate bool
		compact  bool
	)

	cmd := &cobra.Command{
		Use:   "review <url>",
		Short: "Run a design review against a live URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, store, loader, registry, cleanup, err := newEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			opts := review.DefaultOptions()
			opts.Selector = selector
			opts.Annotate = annotate
			opts.Compact = compact

			result, err := orch.Review(cmd.Context(), loader, registry, args[0], specName, opts)
			if result == nil {
				return err
			}
			_ = store
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if encErr := enc.Encode(result); encErr != nil {
				return encErr
			}
			if err != nil {
				return fmt.Errorf("review failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&specName, "spec", "", "spec name to resolve (required)")
	cmd.Flags().StringVar(&selector, "selector", "", "scope the review to a CSS selector")
	cmd.Flags().BoolVar(&annotate, "annotate", true, "write an annotated redline screenshot")
	cmd.Flags().BoolVar(&compact, "compact", false, "write a compact session manifest")
	_ = cmd.MarkFlagRequired("spec")

	return cmd
}

func newCompareCmd() *cobra.Command {
	var (
		method    string
		diffStyle string
	)

	cmd := &cobra.Command{
		Use:   "compare <url> <reference-image>",
		Short: "Compare a live URL against a reference screenshot",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, _, _, _, cleanup, err := newEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			opts := review.DefaultCompareOptions()
			if method != "" {
				opts.Method = compare.Method(method)
			}
			if diffStyle != "" {
				opts.DiffStyle = compare.DiffStyle(diffStyle)
			}

			result, err := orch.Compare(cmd.Context(), args[0], args[1], opts)
			if err != nil {
				return fmt.Errorf("compare failed: %w", err)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&method, "method", "", "pixel|ssim|hybrid (default hybrid)")
	cmd.Flags().StringVar(&diffStyle, "diff-style", "", "overlay|sidebyside|heatmap (default overlay)")
	return cmd
}

func newSpecCmd() *cobra.Command {
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Spec authoring helpers",
	}

	validate := &cobra.Command{
		Use:   "validate <path>",
		Short: "Parse and validate a design spec file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := filepath.Dir(args[0])
			loader := specloader.NewLoader(dir)
			spec, err := loader.Resolve(filepath.Base(args[0]))
			if err != nil {
				return err
			}
			fmt.Printf("%s (v%s): %d pillars, %d checks\n", spec.Name, spec.Version, len(spec.Pillars), len(spec.AllChecks()))
			return nil
		},
	}
	specCmd.AddCommand(validate)
	return specCmd
}

func newSessionsCmd() *cobra.Command {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect persisted review sessions",
	}

	diff := &cobra.Command{
		Use:   "diff <old-session-id> <new-session-id>",
		Short: "Diff two persisted review sessions for the same page",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			orch, store, _, _, cleanup, err := newEngine()
			if err != nil {
				return err
			}
			defer cleanup()

			diff, err := orch.DiffSessions(store, args[0], args[1])
			if err != nil {
				return fmt.Errorf("diffing sessions: %w", err)
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(diff)
		},
	}
	sessionsCmd.AddCommand(diff)
	return sessionsCmd
}

// newEngine wires a one-shot orchestrator for a single CLI invocation,
// reusing the same appconfig.DefaultConfig defaults as the server
// entrypoint.
func newEngine() (*review.Orchestrator, *session.Store, *specloader.Loader, *checks.Registry, func(), error) {
	cfg := appconfig.DefaultConfig()
	cfg.ApplyEnv()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}

	storageRoot, err := cfg.ExpandStorageRoot()
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if err := os.MkdirAll(storageRoot, 0o755); err != nil {
		return nil, nil, nil, nil, nil, err
	}

	store, err := session.NewStore(storageRoot)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}

	db, err := sql.Open("sqlite", filepath.Join(storageRoot, "sessions.db"))
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	if _, err := sessionindex.Open(db); err != nil {
		db.Close()
		return nil, nil, nil, nil, nil, err
	}

	loader := specloader.NewLoader(cfg.SpecSearchPaths...)
	registry := checks.NewRegistry()

	browserFactory := func(ctx context.Context, l interfaces.Logger) (interfaces.Browser, error) {
		return browser.Open(ctx, l, cfg.BrowserOptions()...)
	}
	orch := review.NewOrchestrator(store, browserFactory, logger)

	cleanup := func() {
		orch.Close()
		db.Close()
		logger.Sync()
	}
	return orch, store, loader, registry, cleanup, nil
}
