package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridian-labs/docindex/internal/core/domain"
)

var indexForce bool

var indexCmd = &cobra.Command{
	Use:   "index [document-id]",
	Short: "Index one document",
	Long: `Queues an index job for the document and waits for it to finish.
Already-indexed documents are skipped unless --force replaces their
chunks.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Queue index jobs for every unindexed document",
	Args:  cobra.NoArgs,
	RunE:  runReindex,
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild [tenant-id]",
	Short: "Reseed a tenant's vector partition from stored chunks",
	Long: `Reinserts every stored chunk of the tenant's documents into the
vector partition without re-embedding. The chunk table is the rebuild
source of truth; use this after a vector index loss or migration.`,
	Args: cobra.ExactArgs(1),
	RunE: runRebuild,
}

func init() {
	indexCmd.Flags().BoolVar(&indexForce, "force", false, "replace existing chunks")
	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(reindexCmd)
	rootCmd.AddCommand(rebuildCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	documentID := args[0]

	status, err := runJob(cmd.Context(), func(ctx context.Context) (string, error) {
		return scheduler.SubmitIndex(ctx, documentID, indexForce)
	})
	if err != nil {
		return err
	}
	if status.State == domain.JobFailed {
		return errors.New(status.Error)
	}

	var outcome domain.IndexOutcome
	if err := json.Unmarshal(status.Result, &outcome); err != nil {
		return fmt.Errorf("decode outcome: %w", err)
	}

	switch outcome.Status {
	case domain.IndexStatusSkipped:
		cmd.Printf("Document %s already indexed (%d chunks); use --force to replace\n", documentID, outcome.ChunkCount)
	case domain.IndexStatusEmpty:
		cmd.Printf("Document %s has no extractable text\n", documentID)
	default:
		cmd.Printf("Indexed %d chunks for document %s\n", outcome.ChunkCount, documentID)
	}
	return nil
}

func runRebuild(cmd *cobra.Command, args []string) error {
	tenantID := args[0]
	ctx := cmd.Context()

	docIDs, err := store.TenantDocuments(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("list tenant documents: %w", err)
	}
	if len(docIDs) == 0 {
		cmd.Printf("Tenant %s has no documents\n", tenantID)
		return nil
	}

	total, err := indexer.RebuildPartition(ctx, tenantID, docIDs)
	if err != nil {
		return fmt.Errorf("rebuild partition: %w", err)
	}
	cmd.Printf("Reinserted %d chunks across %d documents for tenant %s\n", total, len(docIDs), tenantID)
	return nil
}

func runReindex(cmd *cobra.Command, _ []string) error {
	status, err := runJob(cmd.Context(), scheduler.SubmitBulkReindex)
	if err != nil {
		return err
	}
	if status.State == domain.JobFailed {
		return errors.New(status.Error)
	}

	var result domain.BulkReindexResult
	if err := json.Unmarshal(status.Result, &result); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	cmd.Printf("Queued %d index jobs\n", result.Queued)
	return nil
}
