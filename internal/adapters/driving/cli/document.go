package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/meridian-labs/docindex/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage registered documents",
}

var documentAddCmd = &cobra.Command{
	Use:   "add [tenant-id] [path]",
	Short: "Register a file for a tenant",
	Long: `Registers a file as a document owned by the tenant. Registration
does not index; submit an index job afterwards or run "reindex" to pick
up all unindexed documents.`,
	Args: cobra.ExactArgs(2),
	RunE: runDocumentAdd,
}

var documentShowCmd = &cobra.Command{
	Use:   "show [document-id]",
	Short: "Show a document's metadata and chunk count",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

var documentGrantCmd = &cobra.Command{
	Use:   "grant [document-id] [user-id]",
	Short: "Share a document with a user",
	Args:  cobra.ExactArgs(2),
	RunE:  runDocumentGrant,
}

var documentRevokeCmd = &cobra.Command{
	Use:   "revoke [document-id] [user-id]",
	Short: "Remove a user's access to a shared document",
	Args:  cobra.ExactArgs(2),
	RunE:  runDocumentRevoke,
}

func init() {
	documentCmd.AddCommand(documentAddCmd)
	documentCmd.AddCommand(documentShowCmd)
	documentCmd.AddCommand(documentGrantCmd)
	documentCmd.AddCommand(documentRevokeCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentAdd(cmd *cobra.Command, args []string) error {
	tenantID, path := args[0], args[1]

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}
	if _, err := os.Stat(abs); err != nil {
		return fmt.Errorf("stat %s: %w", abs, err)
	}

	doc := &domain.Document{
		ID:       uuid.New().String(),
		TenantID: tenantID,
		Filename: filepath.Base(abs),
		Path:     abs,
	}
	if err := store.SaveDocument(cmd.Context(), doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}

	cmd.Printf("Registered %s as document %s (tenant %s)\n", doc.Filename, doc.ID, tenantID)
	return nil
}

func runDocumentShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	chunkStore := store.ChunkStore()

	doc, err := chunkStore.GetDocument(ctx, args[0])
	if err != nil {
		return fmt.Errorf("get document: %w", err)
	}
	count, err := chunkStore.ChunkCount(ctx, doc.ID)
	if err != nil {
		return fmt.Errorf("count chunks: %w", err)
	}

	out := struct {
		*domain.Document
		Chunks int `json:"chunks"`
	}{doc, count}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}

func runDocumentGrant(cmd *cobra.Command, args []string) error {
	if err := store.GrantAccess(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("Granted %s access to document %s\n", args[1], args[0])
	return nil
}

func runDocumentRevoke(cmd *cobra.Command, args []string) error {
	if err := store.RevokeAccess(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	cmd.Printf("Revoked %s's access to document %s\n", args[1], args[0])
	return nil
}
