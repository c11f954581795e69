package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/specialistvlad/pinpatch/internal/app"
	"github.com/specialistvlad/pinpatch/internal/bridge"
	"github.com/specialistvlad/pinpatch/internal/canon"
	"github.com/specialistvlad/pinpatch/internal/catalog"
	"github.com/specialistvlad/pinpatch/internal/ctxlog"
	"github.com/specialistvlad/pinpatch/internal/report"
	"github.com/specialistvlad/pinpatch/internal/spec"
	"github.com/spf13/cobra"
)

// openApp validates the global flags and builds the App. Logs go to the
// command's error stream.
func openApp(cmd *cobra.Command, g *globalFlags) (*app.App, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, err
	}
	return app.NewApp(cmd.ErrOrStderr(), cfg), nil
}

// readInput reads path, or stdin when path is "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "" {
		return nil, &ExitError{Code: ExitUsage, Message: "flag -f is required"}
	}
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// failedExit turns an unsuccessful report into ExitFailure after it has
// been printed.
func failedExit(op string, success bool, codes []report.Code) error {
	if success {
		return nil
	}
	names := make([]string, len(codes))
	for i, c := range codes {
		names[i] = string(c)
	}
	return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("%s failed: %s", op, strings.Join(names, ", "))}
}

func newCanonicalizeCommand(g *globalFlags) *cobra.Command {
	var file string
	var skipSort bool

	cmd := &cobra.Command{
		Use:   "canonicalize -f <file>",
		Short: "Print the canonical form of a spec",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			a, err := openApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			opts, err := json.Marshal(canon.Options{SkipSort: skipSort})
			if err != nil {
				return err
			}
			res, err := a.Canonicalize(cmd.Context(), app.CanonicalizeRequest{Spec: data, Options: opts})
			if err != nil {
				return &ExitError{Code: ExitFailure, Message: err.Error()}
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Spec file, JSON or YAML (use '-' for stdin)")
	cmd.Flags().BoolVar(&skipSort, "skip-sort", false, "Keep nodes and links in their given order")
	return cmd
}

func newApplyCommand(g *globalFlags) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "apply -f <file>",
		Short: "Apply a spec to its target function graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			a, err := openApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Apply(cmd.Context(), data)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			return failedExit("apply", res.Success, res.ErrorCodes)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Spec file, JSON or YAML (use '-' for stdin)")
	return cmd
}

// targetFlags name the function graph an edit works on.
type targetFlags struct {
	asset     string
	container string
}

func (t *targetFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&t.asset, "asset", "", "Blueprint asset path")
	cmd.Flags().StringVar(&t.container, "container", "", "Function graph, as 'TYPE.name' or a unique name")
	_ = cmd.MarkFlagRequired("asset")
	_ = cmd.MarkFlagRequired("container")
}

func newDeleteNodeCommand(g *globalFlags) *cobra.Command {
	var t targetFlags
	var nodeID string

	cmd := &cobra.Command{
		Use:   "delete-node --asset <path> --container <graph> --node-id <id>",
		Short: "Remove a node and its links",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.DeleteNode(cmd.Context(), app.DeleteNodeRequest{AssetPath: t.asset, Container: t.container, NodeID: nodeID})
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			return failedExit("delete-node", res.Success, res.ErrorCodes)
		},
	}
	t.register(cmd)
	cmd.Flags().StringVar(&nodeID, "node-id", "", "Stable node id or graph node id")
	_ = cmd.MarkFlagRequired("node-id")
	return cmd
}

func newDeleteLinkCommand(g *globalFlags) *cobra.Command {
	var t targetFlags
	var from, to string

	cmd := &cobra.Command{
		Use:   "delete-link --asset <path> --container <graph> --from <node.pin> --to <node.pin>",
		Short: "Break one link",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fromNode, fromPin, err := splitEndpoint("from", from)
			if err != nil {
				return err
			}
			toNode, toPin, err := splitEndpoint("to", to)
			if err != nil {
				return err
			}
			a, err := openApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.DeleteLink(cmd.Context(), app.DeleteLinkRequest{
				AssetPath:  t.asset,
				Container:  t.container,
				FromNodeID: fromNode,
				FromPin:    fromPin,
				ToNodeID:   toNode,
				ToPin:      toPin,
			})
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			return failedExit("delete-link", res.Success, res.ErrorCodes)
		},
	}
	t.register(cmd)
	cmd.Flags().StringVar(&from, "from", "", "Source endpoint as node.pin")
	cmd.Flags().StringVar(&to, "to", "", "Destination endpoint as node.pin")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

// splitEndpoint splits "node.pin" at the last dot, so node ids may contain
// dots but pin names may not.
func splitEndpoint(flag, v string) (string, string, error) {
	i := strings.LastIndex(v, ".")
	if i <= 0 || i == len(v)-1 {
		return "", "", &ExitError{Code: ExitUsage, Message: fmt.Sprintf("--%s must be node.pin, got %q", flag, v)}
	}
	return v[:i], v[i+1:], nil
}

func newReplaceNodeCommand(g *globalFlags) *cobra.Command {
	var t targetFlags
	var nodeID, file string
	var remap map[string]string

	cmd := &cobra.Command{
		Use:   "replace-node --asset <path> --container <graph> --node-id <id> -f <node file>",
		Short: "Replace a node, keeping its stable id and relinking its pins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			js, err := app.ToJSON(data)
			if err != nil {
				return &ExitError{Code: ExitUsage, Message: err.Error()}
			}
			var newNode spec.GraphNode
			if err := json.Unmarshal(js, &newNode); err != nil {
				return &ExitError{Code: ExitUsage, Message: fmt.Sprintf("invalid node in %s: %v", file, err)}
			}

			a, err := openApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.ReplaceNode(cmd.Context(), app.ReplaceNodeRequest{
				AssetPath:      t.asset,
				Container:      t.container,
				ExistingNodeID: nodeID,
				NewNode:        newNode,
				PinRemap:       remap,
			})
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			return failedExit("replace-node", res.Success, res.ErrorCodes)
		},
	}
	t.register(cmd)
	cmd.Flags().StringVar(&nodeID, "node-id", "", "Stable node id or graph node id of the node to replace")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Replacement node, JSON or YAML (use '-' for stdin)")
	cmd.Flags().StringToStringVar(&remap, "remap", nil, "Old pin name to new pin name, e.g. --remap Target=self")
	_ = cmd.MarkFlagRequired("node-id")
	return cmd
}

func newServeCommand(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&g.listen, "listen", app.DefaultListen, "Address for the HTTP API.")
	cmd.Flags().IntVar(&g.healthcheckPort, "healthcheck-port", 0, "Port for a standalone HTTP health check server. 0 is disabled.")
	return cmd
}

func newSubmitCommand(g *globalFlags) *cobra.Command {
	var opts bridge.Options
	var file string

	cmd := &cobra.Command{
		Use:   "submit --url <socket.io url> -f <file>",
		Short: "Send a spec to a remote host over socket.io and print its report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := readInput(cmd, file)
			if err != nil {
				return err
			}
			js, err := app.ToJSON(data)
			if err != nil {
				return &ExitError{Code: ExitUsage, Message: err.Error()}
			}

			cfg, err := g.config()
			if err != nil {
				return err
			}
			logger := app.NewLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			ctx := ctxlog.WithLogger(cmd.Context(), logger)

			client, err := bridge.Dial(ctx, opts)
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := client.Submit(ctx, js)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			return failedExit("submit", res.Success, res.ErrorCodes)
		},
	}
	cmd.Flags().StringVar(&opts.URL, "url", "", "socket.io endpoint, e.g. http://localhost:3000/socket.io/")
	cmd.Flags().StringVar(&opts.Namespace, "namespace", "/", "socket.io namespace")
	cmd.Flags().BoolVar(&opts.InsecureSkipVerify, "insecure-skip-verify", false, "Skip TLS certificate verification")
	cmd.Flags().DurationVar(&opts.Timeout, "wait", 15*time.Second, "How long to wait for the connection and the report")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Spec file, JSON or YAML (use '-' for stdin)")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}

func newCatalogCommand(g *globalFlags) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the action catalog",
	}
	var asJSON bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List known functions and variables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd, g)
			if err != nil {
				return err
			}
			defer a.Close()

			c := a.Registry().Catalog
			if asJSON {
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"functions": c.Functions(),
					"variables": c.Variables(),
				})
			}
			w := cmd.OutOrStdout()
			for _, f := range c.Functions() {
				fmt.Fprintf(w, "function %s(%s) -> (%s)\n", f.ID, formatParams(f.Inputs), formatParams(f.Outputs))
			}
			for _, v := range c.Variables() {
				fmt.Fprintf(w, "variable %s %s\n", v.ID(), v.Category)
			}
			return nil
		},
	}
	list.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of text")
	catalogCmd.AddCommand(list)
	return catalogCmd
}

func formatParams(params []catalog.Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = p.Name + " " + string(p.Category)
	}
	return strings.Join(parts, ", ")
}
