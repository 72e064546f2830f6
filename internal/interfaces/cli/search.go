package cli

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/turtacn/LitFed/pkg/client"
)

var (
	searchGroups     []string
	searchGroupMatch string
	searchMatch      string
	searchFields     []string
	searchPage       int
	searchPageLength int
	searchMax        bool
	searchReviewID   string
)

// NewSearchCmd creates the search command: a dry federated query that
// persists nothing.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run a federated query without persisting results",
		Long: "Runs the query against every configured provider and prints one result\n" +
			"section per provider.  With --review, records already persisted in that\n" +
			"review are marked.",
		Example: `  litfed search --group "bitcoin,blockchain" --group-match OR
  litfed search --group ethereum --field title --page 2 --page-length 30
  litfed search --group "machine learning" --review 6e5f1a2b --max`,
		RunE: runSearch,
	}

	f := cmd.Flags()
	f.StringArrayVar(&searchGroups, "group", nil, "comma-separated term group (repeatable)")
	f.StringVar(&searchGroupMatch, "group-match", "OR", "operator within a group (AND|OR|NOT)")
	f.StringVar(&searchMatch, "match", "AND", "operator between groups (AND|OR)")
	f.StringSliceVar(&searchFields, "field", nil, "search fields (all|title|abstract|keywords)")
	f.IntVar(&searchPage, "page", 1, "result page")
	f.IntVar(&searchPageLength, "page-length", 0, "total records per page across providers")
	f.BoolVar(&searchMax, "max", false, "request each provider's maximum page length")
	f.StringVar(&searchReviewID, "review", "", "mark records persisted in this review")
	cmd.MarkFlagRequired("group")

	return cmd
}

func runSearch(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	query, err := parseQueryFlags(searchGroups, searchGroupMatch, searchMatch, searchFields)
	if err != nil {
		return err
	}

	ctx, cancel := commandContext(cmd, cliCtx.Options)
	defer cancel()

	envelopes, err := cliCtx.Client.Queries().DryQuery(ctx, query, client.DryQueryOptions{
		Page:          searchPage,
		PageLength:    searchPageLength,
		PageLengthMax: searchMax,
		ReviewID:      searchReviewID,
	})
	if err != nil {
		return fmt.Errorf("federated query failed: %w", err)
	}

	if cliCtx.Options.OutputFormat == "json" {
		return printJSON(cmd, envelopes)
	}
	fmt.Fprint(cmd.OutOrStdout(), formatEnvelopes(envelopes))
	return nil
}

// formatEnvelopes renders one table per provider envelope.
func formatEnvelopes(envelopes []*client.Envelope) string {
	if len(envelopes) == 0 {
		return "No usable providers responded.\n"
	}

	var sb strings.Builder
	var total int64
	for i, env := range envelopes {
		fmt.Fprintf(&sb, "\n=== Provider %d: %d results", i+1, env.Result.Total)
		if env.Error != "" {
			fmt.Fprintf(&sb, " (error: %s)", env.Error)
		}
		sb.WriteString(" ===\n\n")
		total += env.Result.Total

		if len(env.Records) == 0 {
			continue
		}
		rows := make([][]string, 0, len(env.Records))
		for _, rec := range env.Records {
			persisted := ""
			if rec.Persisted {
				persisted = color.GreenString("yes")
			}
			rows = append(rows, []string{
				truncateString(rec.DOI, 30),
				truncateString(rec.Title, 60),
				truncateString(strings.Join(rec.Authors, "; "), 40),
				rec.PublicationDate,
				persisted,
			})
		}
		sb.WriteString(formatTable([]string{"DOI", "Title", "Authors", "Date", "Persisted"}, rows))
	}
	fmt.Fprintf(&sb, "\nTotal across providers: %d\n", total)
	return sb.String()
}
