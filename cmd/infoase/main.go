package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agenthands/infoase/internal/config"
	"github.com/agenthands/infoase/internal/core"
	"github.com/agenthands/infoase/internal/core/store"
	"github.com/agenthands/infoase/internal/logger"
)

// app holds the global flags and opens the service on first use.
type app struct {
	configPath string
	instance   string
	logMode    string

	open func(ctx context.Context, a *app) (*core.Service, error)
	svc  *core.Service
}

func openFromConfig(ctx context.Context, a *app) (*core.Service, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	mode := cfg.Log.Mode
	if a.logMode != "" {
		mode = a.logMode
	}
	l, err := logger.New(mode)
	if err != nil {
		return nil, err
	}
	return core.Open(ctx, cfg, l)
}

func (a *app) service(ctx context.Context) (*core.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	svc, err := a.open(ctx, a)
	if err != nil {
		return nil, err
	}
	a.svc = svc
	return svc, nil
}

func (a *app) close(ctx context.Context) {
	if a.svc != nil {
		_ = a.svc.Close(ctx)
		a.svc = nil
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "infoase",
		Short:         "Extract knowledge graphs from text and manage them in Neo4j",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			a.close(cmd.Context())
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", os.Getenv("CONFIG_PATH"), "path to the TOML config file")
	root.PersistentFlags().StringVarP(&a.instance, "instance", "i", "", "graph instance (default from config)")
	root.PersistentFlags().StringVar(&a.logMode, "log", "", "log mode: dev or prod")

	root.AddCommand(
		newExtractCmd(a),
		newImportCmd(a),
		newExportCmd(a),
		newCleanupCmd(a),
		newStatusCmd(a),
		newArchiveCmd(a),
	)
	return root
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	_ = godotenv.Load()

	a := &app{open: openFromConfig}
	root := newRootCmd(a)
	ctx := context.Background()
	if err := root.ExecuteContext(ctx); err != nil {
		a.close(ctx)
		fmt.Fprintln(os.Stderr, "Error:", err)
		if hint := store.Remediation(err); hint != "" {
			fmt.Fprintln(os.Stderr, "Hint:", hint)
		}
		os.Exit(1)
	}
}
