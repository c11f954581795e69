package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/specialistvlad/pinpatch/internal/app"
	"github.com/spf13/cobra"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Exit codes.
const (
	ExitFailure = 1 // the operation ran and reported errors
	ExitUsage   = 2 // bad flags or arguments
)

// globalFlags are shared by every command that builds an App.
type globalFlags struct {
	store            string
	dataDir          string
	storePrefix      string
	catalogPath      string
	migrationsPath   string
	logFormat        string
	logLevel         string
	allowRawFallback bool
	timeout          time.Duration
	listen           string
	healthcheckPort  int
}

// config validates the flags into an app.Config. Validation failures are
// usage errors.
func (g *globalFlags) config() (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		Store:            strings.ToLower(g.store),
		DataDir:          g.dataDir,
		StorePrefix:      g.storePrefix,
		CatalogPath:      g.catalogPath,
		MigrationsPath:   g.migrationsPath,
		LogFormat:        strings.ToLower(g.logFormat),
		LogLevel:         strings.ToLower(g.logLevel),
		AllowRawFallback: g.allowRawFallback,
		Timeout:          g.timeout,
		Listen:           g.listen,
		HealthcheckPort:  g.healthcheckPort,
	})
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	slog.Debug("CLI configuration validated.", "config", cfg)
	return cfg, nil
}

// NewRootCommand builds the pinpatch command tree. Command output goes to
// outW; logs go to errW.
func NewRootCommand(outW, errW io.Writer) *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "pinpatch",
		Short: "Declarative patches for blueprint function graphs",
		Long: `pinpatch - apply declarative graph specs to blueprint function graphs.

A spec (JSON or YAML) names a target function, the nodes it should contain
and the links between their pins. Applying it reuses, repairs or creates
nodes by their stable node_id, connects pins with optional auto-fixes, and
reports exactly what changed. Applying the same spec twice changes nothing.

Examples:
  pinpatch canonicalize -f heal.yaml
  pinpatch apply --store badger --data-dir .pinpatch -f heal.yaml
  pinpatch delete-node --asset /Game/BP_Player --container Heal --node-id n1
  pinpatch serve --listen :8080 --healthcheck-port 8081
  pinpatch submit --url http://host:3000/socket.io/ -f heal.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(errW)

	pf := root.PersistentFlags()
	pf.StringVar(&g.store, "store", app.StoreMemory, "Blueprint store backend. Options: 'memory' or 'badger'.")
	pf.StringVar(&g.dataDir, "data-dir", "", "Directory for the badger store.")
	pf.StringVar(&g.storePrefix, "store-prefix", "", "Key prefix inside the store.")
	pf.StringVar(&g.catalogPath, "catalog-path", "", "Path to the catalog manifest file or directory.")
	pf.StringVar(&g.migrationsPath, "migrations-path", "", "Path to the migration alias file or directory.")
	pf.StringVar(&g.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.StringVar(&g.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.BoolVar(&g.allowRawFallback, "allow-raw-fallback", false, "Connect links that failed every fix without schema validation.")
	pf.DurationVar(&g.timeout, "timeout", 30*time.Second, "Hard timeout for each dispatched operation.")

	root.AddCommand(
		newCanonicalizeCommand(g),
		newApplyCommand(g),
		newDeleteNodeCommand(g),
		newDeleteLinkCommand(g),
		newReplaceNodeCommand(g),
		newServeCommand(g),
		newSubmitCommand(g),
		newCatalogCommand(g),
	)
	return root
}

// Execute runs the command tree for args. Flag and argument errors become
// ExitErrors with ExitUsage.
func Execute(ctx context.Context, args []string, outW, errW io.Writer) error {
	root := NewRootCommand(outW, errW)
	root.SetArgs(args)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	})

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	if isUsageError(err) {
		return &ExitError{Code: ExitUsage, Message: err.Error()}
	}
	return fmt.Errorf("pinpatch: %w", err)
}

// isUsageError recognizes the argument errors cobra reports as plain
// strings.
func isUsageError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "required flag(s)") ||
		strings.Contains(msg, "arg(s)")
}
