package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/config"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/embedding"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/index"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/kb"
)

// IndexCmd returns the index command
func IndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build or refresh the knowledge index",
		Long:  "Load KB documents, build or load the vector index, and print the resulting status as JSON",
		RunE:  runIndex,
	}

	cmd.Flags().Bool("force", false, "Rebuild even when the persisted index is fresh")

	return cmd
}

func runIndex(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !cfg.HasOpenAI() {
		return fmt.Errorf("MEDSUM_OPENAI_API_KEY is required to build the index")
	}

	force, _ := cmd.Flags().GetBool("force")
	if force {
		if err := os.RemoveAll(cfg.IndexDir); err != nil {
			return fmt.Errorf("failed to clear index directory: %w", err)
		}
	}

	docs, err := kb.LoadDocuments(cfg.KBGlob)
	if err != nil {
		return fmt.Errorf("failed to load KB documents: %w", err)
	}

	embedder := embedding.NewClientWithConfig(embedding.Config{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.EmbedModel,
	})
	manager := index.NewManager(
		embedder,
		cfg.KBGlob,
		cfg.IndexDir,
		cfg.EmbedModel,
		index.ChunkConfig{Size: cfg.ChunkSize, Overlap: cfg.ChunkOverlap},
		cfg.TopK,
	)

	_, _, status := manager.BuildOrLoad(ctx, docs)

	output, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render status: %w", err)
	}
	fmt.Println(string(output))

	if status.Status == index.StatusError {
		return fmt.Errorf("index build failed: %s", status.Error)
	}
	return nil
}
