package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/LitFed/pkg/client"
)

var (
	reviewName          string
	reviewDescription   string
	reviewCollaborators []string
	reviewPage          int
	reviewPageSize      int
	reviewResultsPage   int
	reviewResultsLength int
	reviewQueryID       string
	reviewDOIs          []string
	reviewScore         int
	reviewScoreComment  string
	reviewScoreDOI      string
)

// NewReviewCmd creates the review command group.
func NewReviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "Manage reviews and their persisted results",
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a review",
		RunE:  runReviewCreate,
	}
	createCmd.Flags().StringVar(&reviewName, "name", "", "review name (required)")
	createCmd.Flags().StringVar(&reviewDescription, "description", "", "review description")
	createCmd.Flags().StringSliceVar(&reviewCollaborators, "collaborator", nil, "collaborator user (repeatable)")
	createCmd.MarkFlagRequired("name")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List reviews you own or collaborate on",
		RunE:  runReviewList,
	}
	listCmd.Flags().IntVar(&reviewPage, "page", 1, "page")
	listCmd.Flags().IntVar(&reviewPageSize, "page-size", 20, "reviews per page")

	getCmd := &cobra.Command{
		Use:   "get <review-id>",
		Short: "Show a review with its query sessions",
		Args:  cobra.ExactArgs(1),
		RunE:  runReviewGet,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <review-id>",
		Short: "Delete a review and its result collection (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE:  runReviewDelete,
	}

	resultsCmd := &cobra.Command{
		Use:   "results <review-id>",
		Short: "Page through a review's persisted results",
		Args:  cobra.ExactArgs(1),
		RunE:  runReviewResults,
	}
	resultsCmd.Flags().IntVar(&reviewResultsPage, "page", 0, "result page (0 returns everything)")
	resultsCmd.Flags().IntVar(&reviewResultsLength, "page-length", 0, "records per page")
	resultsCmd.Flags().StringVar(&reviewQueryID, "query", "", "restrict to one query session")

	deleteResultsCmd := &cobra.Command{
		Use:   "delete-results <review-id>",
		Short: "Delete results from a review by DOI",
		Args:  cobra.ExactArgs(1),
		RunE:  runReviewDeleteResults,
	}
	deleteResultsCmd.Flags().StringSliceVar(&reviewDOIs, "doi", nil, "DOI to delete (repeatable, required)")
	deleteResultsCmd.MarkFlagRequired("doi")

	scoreCmd := &cobra.Command{
		Use:   "score <review-id>",
		Short: "Score one persisted record",
		Args:  cobra.ExactArgs(1),
		RunE:  runReviewScore,
	}
	scoreCmd.Flags().StringVar(&reviewScoreDOI, "doi", "", "record DOI (required)")
	scoreCmd.Flags().IntVar(&reviewScore, "score", 0, "score value")
	scoreCmd.Flags().StringVar(&reviewScoreComment, "comment", "", "score comment")
	scoreCmd.MarkFlagRequired("doi")

	cmd.AddCommand(createCmd, listCmd, getCmd, deleteCmd, resultsCmd, deleteResultsCmd, scoreCmd)
	return cmd
}

func runReviewCreate(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, cliCtx.Options)
	defer cancel()

	rv, err := cliCtx.Client.Reviews().Create(ctx, &client.CreateReviewRequest{
		Name:          reviewName,
		Description:   reviewDescription,
		Collaborators: reviewCollaborators,
	})
	if err != nil {
		return err
	}
	if cliCtx.Options.OutputFormat == "json" {
		return printJSON(cmd, rv)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created review %s (%s)\n", rv.ID, rv.Name)
	return nil
}

func runReviewList(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, cliCtx.Options)
	defer cancel()

	list, err := cliCtx.Client.Reviews().List(ctx, reviewPage, reviewPageSize)
	if err != nil {
		return err
	}
	if cliCtx.Options.OutputFormat == "json" {
		return printJSON(cmd, list)
	}

	rows := make([][]string, 0, len(list.Reviews))
	for _, rv := range list.Reviews {
		rows = append(rows, []string{
			rv.ID,
			truncateString(rv.Name, 40),
			rv.Owner,
			fmt.Sprintf("%d", len(rv.Queries)),
			rv.CreatedAt.Format("2006-01-02"),
		})
	}
	fmt.Fprint(cmd.OutOrStdout(), formatTable([]string{"ID", "Name", "Owner", "Queries", "Created"}, rows))
	fmt.Fprintf(cmd.OutOrStdout(), "\nTotal: %d\n", list.Total)
	return nil
}

func runReviewGet(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, cliCtx.Options)
	defer cancel()

	rv, err := cliCtx.Client.Reviews().Get(ctx, args[0])
	if err != nil {
		return err
	}
	if cliCtx.Options.OutputFormat == "json" {
		return printJSON(cmd, rv)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Review:        %s\n", rv.ID)
	fmt.Fprintf(out, "Name:          %s\n", rv.Name)
	if rv.Description != "" {
		fmt.Fprintf(out, "Description:   %s\n", rv.Description)
	}
	fmt.Fprintf(out, "Owner:         %s\n", rv.Owner)
	if len(rv.Collaborators) > 0 {
		fmt.Fprintf(out, "Collaborators: %s\n", strings.Join(rv.Collaborators, ", "))
	}
	fmt.Fprintf(out, "Created:       %s\n", rv.CreatedAt.Format("2006-01-02 15:04"))

	if len(rv.Queries) > 0 {
		fmt.Fprintf(out, "\nQuery sessions:\n")
		rows := make([][]string, 0, len(rv.Queries))
		for _, qs := range rv.Queries {
			rows = append(rows, []string{
				qs.ID,
				qs.Time.Format("2006-01-02 15:04"),
				fmt.Sprintf("%d", len(qs.Results)),
			})
		}
		fmt.Fprint(out, formatTable([]string{"ID", "Time", "Persisted DOIs"}, rows))
	}
	return nil
}

func runReviewDelete(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, cliCtx.Options)
	defer cancel()

	if err := cliCtx.Client.Reviews().Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted review %s\n", args[0])
	return nil
}

func runReviewResults(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, cliCtx.Options)
	defer cancel()

	page, err := cliCtx.Client.Reviews().Results(ctx, args[0], client.ResultsOptions{
		Page:       reviewResultsPage,
		PageLength: reviewResultsLength,
		QueryID:    reviewQueryID,
	})
	if err != nil {
		return err
	}
	if cliCtx.Options.OutputFormat == "json" {
		return printJSON(cmd, page)
	}

	rows := make([][]string, 0, len(page.Results))
	for _, rec := range page.Results {
		scores := make([]string, 0, len(rec.Scores))
		for _, s := range rec.Scores {
			scores = append(scores, fmt.Sprintf("%s:%d", s.User, s.Score))
		}
		rows = append(rows, []string{
			truncateString(rec.DOI, 30),
			truncateString(rec.Title, 60),
			rec.PublicationDate,
			strings.Join(scores, " "),
		})
	}
	fmt.Fprint(cmd.OutOrStdout(), formatTable([]string{"DOI", "Title", "Date", "Scores"}, rows))
	fmt.Fprintf(cmd.OutOrStdout(), "\nTotal results: %d\n", page.TotalResults)
	return nil
}

func runReviewDeleteResults(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, cliCtx.Options)
	defer cancel()

	deleted, err := cliCtx.Client.Reviews().DeleteResults(ctx, args[0], reviewDOIs)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d result(s)\n", deleted)
	return nil
}

func runReviewScore(cmd *cobra.Command, args []string) error {
	cliCtx, err := GetCLIContext(cmd)
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cmd, cliCtx.Options)
	defer cancel()

	rec, err := cliCtx.Client.Reviews().Score(ctx, args[0], reviewScoreDOI, reviewScore, reviewScoreComment)
	if err != nil {
		return err
	}
	if cliCtx.Options.OutputFormat == "json" {
		return printJSON(cmd, rec)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Scored %s (%d evaluation(s))\n", rec.DOI, len(rec.Scores))
	return nil
}
