// Package cli implements the litfed command-line interface.  Except for the
// migrate subcommand, every command talks to a running API server through the
// SDK in pkg/client.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/LitFed/pkg/client"
)

// Build-time variables injected via ldflags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// cliContextKey keys the CLIContext in the command context.
type cliContextKey struct{}

// RootOptions holds the global CLI flags.
type RootOptions struct {
	ConfigPath   string
	ServerAddr   string
	Token        string
	OutputFormat string
	Verbose      bool
	NoColor      bool
	Timeout      time.Duration
}

// CLIContext carries the initialized dependencies through the command tree.
type CLIContext struct {
	Options *RootOptions
	Client  *client.Client
}

// NewRootCommand creates the root command with all global flags and
// subcommands.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "litfed",
		Short: "LitFed CLI — federated literature search across publisher APIs",
		Long: "LitFed federates literature searches over publisher APIs (Springer,\n" +
			"Scopus, ScienceDirect), persists results into DOI-keyed review\n" +
			"collections, and supports collaborative screening and scoring.",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return persistentPreRun(cmd, opts)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "configs/config.yaml", "config file path (migrate only)")
	pf.StringVar(&opts.ServerAddr, "server", "http://localhost:8080", "API server address")
	pf.StringVar(&opts.Token, "token", "", "bearer token (defaults to $LITFED_TOKEN)")
	pf.StringVarP(&opts.OutputFormat, "output", "o", "table", "output format (table, json)")
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "enable verbose output")
	pf.BoolVar(&opts.NoColor, "no-color", false, "disable colored output")
	pf.DurationVar(&opts.Timeout, "timeout", 60*time.Second, "request timeout")

	cmd.AddCommand(
		NewSearchCmd(),
		NewReviewCmd(),
		NewPersistCmd(),
		NewMigrateCmd(),
	)
	return cmd
}

// persistentPreRun builds the API client and stores the CLIContext.
func persistentPreRun(cmd *cobra.Command, opts *RootOptions) error {
	if opts.NoColor {
		color.NoColor = true
	}
	if opts.Token == "" {
		opts.Token = os.Getenv("LITFED_TOKEN")
	}

	apiClient, err := client.NewClient(opts.ServerAddr, opts.Token,
		client.WithUserAgent("litfed-cli/"+Version),
	)
	if err != nil {
		return err
	}

	cliCtx := &CLIContext{Options: opts, Client: apiClient}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(context.WithValue(ctx, cliContextKey{}, cliCtx))
	return nil
}

// GetCLIContext extracts the CLIContext from a command's context.
func GetCLIContext(cmd *cobra.Command) (*CLIContext, error) {
	ctx := cmd.Context()
	if ctx == nil {
		return nil, fmt.Errorf("command context is nil")
	}
	cliCtx, ok := ctx.Value(cliContextKey{}).(*CLIContext)
	if !ok || cliCtx == nil {
		return nil, fmt.Errorf("CLI context not initialized")
	}
	return cliCtx, nil
}

// commandContext bounds a command run with the configured timeout.
func commandContext(cmd *cobra.Command, opts *RootOptions) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, opts.Timeout)
}

// Execute is the entry point for the CLI application.
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %s\n", err.Error())
		return err
	}
	return nil
}

// printJSON writes data as indented JSON to the command's stdout.
func printJSON(cmd *cobra.Command, data interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// parseQueryFlags builds the canonical query from the shared search flags.
// Each --group is a comma-separated term list; groupMatch combines terms
// within a group, match combines the groups.
func parseQueryFlags(groups []string, groupMatch, match string, fields []string) (*client.Query, error) {
	if len(groups) == 0 {
		return nil, fmt.Errorf("at least one --group is required")
	}
	groupMatch = strings.ToUpper(groupMatch)
	match = strings.ToUpper(match)
	switch groupMatch {
	case "AND", "OR", "NOT":
	default:
		return nil, fmt.Errorf("invalid group-match %q (must be AND|OR|NOT)", groupMatch)
	}
	switch match {
	case "AND", "OR":
	default:
		return nil, fmt.Errorf("invalid match %q (must be AND|OR)", match)
	}

	q := &client.Query{Match: match}
	for _, g := range groups {
		terms := []string{}
		for _, t := range strings.Split(g, ",") {
			if t = strings.TrimSpace(t); t != "" {
				terms = append(terms, t)
			}
		}
		if len(terms) == 0 {
			return nil, fmt.Errorf("empty term group %q", g)
		}
		q.SearchGroups = append(q.SearchGroups, client.Group{SearchTerms: terms, Match: groupMatch})
	}
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			q.Fields = append(q.Fields, strings.ToLower(f))
		}
	}
	return q, nil
}

// formatTable renders headers and rows as an aligned ASCII table.
func formatTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if len(row[i]) > widths[i] {
				widths[i] = len(row[i])
			}
		}
	}

	var sb strings.Builder
	for i, h := range headers {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(padRight(h, widths[i]))
	}
	sb.WriteString("\n")
	for i, w := range widths {
		if i > 0 {
			sb.WriteString("  ")
		}
		sb.WriteString(strings.Repeat("-", w))
	}
	sb.WriteString("\n")
	for _, row := range rows {
		for i := 0; i < len(headers); i++ {
			if i > 0 {
				sb.WriteString("  ")
			}
			val := ""
			if i < len(row) {
				val = row[i]
			}
			sb.WriteString(padRight(val, widths[i]))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// truncateString shortens s to max runes with an ellipsis.
func truncateString(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
