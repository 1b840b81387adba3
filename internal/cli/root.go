// Package cli implements the docgen CLI commands.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-docgen/internal/config"
	"github.com/goliatone/go-docgen/internal/loader"
	"github.com/goliatone/go-docgen/pkg/cache"
	"github.com/goliatone/go-docgen/pkg/engine"
)

var (
	templatesDir string
	strictFlag   bool
	debugFlag    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "docgen",
	Short: "Render structured documents from templates",
	Long:  "docgen renders text documents from named templates plus typed variable bindings, validating the template and its output.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&templatesDir, "templates", "t", ".", "Directory holding template documents (JSON or YAML)")
	RootCmd.PersistentFlags().BoolVar(&strictFlag, "strict", false, "Fail on the first error instead of batch reporting")
	RootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
}

// newEngine builds an engine over the templates directory using the
// environment defaults.
func newEngine() (*engine.Engine, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := zap.NewNop()
	if debugFlag || cfg.Debug {
		logger, err = zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("cli: build logger: %w", err)
		}
	}

	c := cache.New(
		cache.WithBudget(cfg.CacheBudget),
		cache.WithDefaultTTL(cfg.CacheTTL),
		cache.WithPolicy(cache.Policy(cfg.CachePolicy)),
		cache.WithCleanupInterval(cfg.CleanupInterval),
		cache.WithLogger(logger),
	)

	return engine.New(
		engine.WithCache(c),
		engine.WithLogger(logger),
		engine.WithLoadTimeout(cfg.LoadTimeout),
		engine.WithLoader(loader.NewFS(os.DirFS(templatesDir)), 0),
	), nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
