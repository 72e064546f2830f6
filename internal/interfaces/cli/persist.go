package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	persistGroups     []string
	persistGroupMatch string
	persistMatch      string
	persistFields     []string
	persistMaxRecords int
	persistPages      []int
	persistPageLength int
	persistMax        bool
)

// NewPersistCmd creates the persist command group: query sessions that write
// federated results into a review's collection.
func NewPersistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "persist",
		Short: "Persist federated query results into a review",
	}

	queryCmd := &cobra.Command{
		Use:   "query <review-id>",
		Short: "Register a query session and persist up to --max-records results",
		Example: `  litfed persist query 6e5f1a2b --group "bitcoin,blockchain" --max-records 200
  litfed persist query 6e5f1a2b --group ethereum   # session only, nothing persisted`,
		Args: cobra.ExactArgs(1),
		RunE: runPersistQuery,
	}
	addPersistQueryFlags(queryCmd)
	queryCmd.Flags().IntVar(&persistMaxRecords, "max-records", 0, "persist pages until at least this many records were seen")

	pagesCmd := &cobra.Command{
		Use:     "pages <review-id>",
		Short:   "Persist specific federated result pages",
		Example: `  litfed persist pages 6e5f1a2b --group ethereum --page 1 --page 2 --max`,
		Args:    cobra.ExactArgs(1),
		RunE:    runPersistPages,
	}
	addPersistQueryFlags(pagesCmd)
	pagesCmd.Flags().IntSliceVar(&persistPages, "page", nil, "result page to persist (repeatable, required)")
	pagesCmd.Flags().IntVar(&persistPageLength, "page-length", 0, "total records per page across providers")
	pagesCmd.Flags().BoolVar(&persistMax, "max", false, "request each provider's maximum page length")
	pagesCmd.MarkFlagRequired("page")

	cmd.AddCommand(queryCmd, pagesCmd)
	return cmd
}

func addPersistQueryFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringArrayVar(&persistGroups, "group", nil, "comma-separated term group (repeatable)")
	f.StringVar(&persistGroupMatch, "group-match", "OR", "operator within a group (AND|OR|NOT)")
	f.StringVar(&persistMatch, "match", "AND", "operator between groups (AND|OR)")
	f.StringSliceVar(&persistFields, "field", nil, "search fields (all|title|abstract|keywords)")
	cmd.MarkFlagRequired("group")
}

func runPersistQuery(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	query, err := parseQueryFlags(persistGroups, persistGroupMatch, persistMatch, persistFields)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd, cliCtx.Options)
	defer cancel()

	res, err := cliCtx.Client.Queries().NewQuery(ctx, args[0], query, persistMaxRecords)
	if err != nil {
		return err
	}
	if cliCtx.Options.OutputFormat == "json" {
		return printJSON(cmd, res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Query session %s: persisted %d record(s)\n", res.QueryID, res.NumPersisted)
	return nil
}

func runPersistPages(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	query, err := parseQueryFlags(persistGroups, persistGroupMatch, persistMatch, persistFields)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd, cliCtx.Options)
	defer cancel()

	outcome, err := cliCtx.Client.Queries().PersistPages(ctx, args[0], query, persistPages, persistPageLength, persistMax)
	if err != nil {
		return err
	}
	if cliCtx.Options.OutputFormat == "json" {
		return printJSON(cmd, outcome)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Query session %s: persisted %d, skipped %d (no DOI)\n",
		outcome.QueryID, outcome.NumPersisted, outcome.NumSkipped)
	return nil
}
