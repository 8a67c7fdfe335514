package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridian-labs/docindex/internal/core/domain"
)

var (
	searchUser   string
	searchTopK   int
	searchTarget string
	searchJSON   bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search accessible documents",
	Long: `Runs a semantic search scoped to the user's accessible documents.
Results come from the tenant partitions owning those documents; nothing
outside the user's scope is ever queried or returned.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchUser, "user", "u", "", "user id whose access scope bounds the results (required)")
	searchCmd.Flags().IntVarP(&searchTopK, "top-k", "n", 0, "maximum number of results")
	searchCmd.Flags().StringVar(&searchTarget, "document", "", "restrict the search to one document id")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	_ = searchCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	topK := searchTopK
	if topK <= 0 && cfg != nil {
		topK = cfg.Search.TopK
	}
	req := domain.SearchRequest{
		UserID:           searchUser,
		Query:            args[0],
		TopK:             topK,
		TargetDocumentID: searchTarget,
	}

	ctx := cmd.Context()
	if err := scheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	hits, err := scheduler.SearchSync(ctx, req)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		data, err := json.MarshalIndent(hits, "", "  ")
		if err != nil {
			return err
		}
		cmd.Println(string(data))
		return nil
	}

	if len(hits) == 0 {
		cmd.Println("No results found.")
		return nil
	}
	for i, hit := range hits {
		cmd.Printf("  [%d] %s (%.2f)\n", i+1, hit.DocumentID, hit.Score)
		if hit.Snippet != "" {
			cmd.Printf("      %s\n", hit.Snippet)
		}
		cmd.Println()
	}
	return nil
}
