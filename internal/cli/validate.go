package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/config"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/domain"
	"github.com/BlueSinkers/medical-summarizer-t3/internal/validator"
)

// ValidateCmd returns the validate command
func ValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an answer against a report",
		Long:  "Run the grounding validator on one answer/report pair and print the verdict as JSON",
		RunE:  runValidate,
	}

	cmd.Flags().String("answer", "", "Answer text to validate")
	cmd.Flags().String("answer-file", "", "File containing the answer text")
	cmd.Flags().String("report", "", "Report text the answer must be grounded in")
	cmd.Flags().String("report-file", "", "File containing the report text")
	cmd.Flags().String("mode", "", "Validator mode (enabled, disabled, offline, low_resource); defaults to the configured mode")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	answer, err := textFromFlags(cmd, "answer", "answer-file")
	if err != nil {
		return err
	}
	if answer == "" {
		return fmt.Errorf("--answer or --answer-file is required")
	}

	report, err := textFromFlags(cmd, "report", "report-file")
	if err != nil {
		return err
	}

	modeFlag, _ := cmd.Flags().GetString("mode")
	if modeFlag == "" {
		modeFlag = cfg.ValidatorMode
	}
	mode, err := domain.ParseValidatorMode(modeFlag)
	if err != nil {
		return fmt.Errorf("invalid mode %q: %w", modeFlag, err)
	}

	var remote validator.RemoteClient
	if cfg.HasOpenAI() {
		remote = validator.NewOpenAIRemote(cfg.OpenAIAPIKey, cfg.ValidatorModel)
	}

	result := validator.New(remote).Validate(ctx, domain.ValidationRequest{
		Answer:               answer,
		Report:               report,
		Mode:                 mode,
		ConfidenceThreshold:  cfg.ConfidenceThreshold,
		MaxRetries:           cfg.MaxRetries,
		AllowOfflineFallback: cfg.AllowOfflineFallback,
	})

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to render result: %w", err)
	}
	fmt.Println(string(output))

	if !result.IsValid {
		os.Exit(1)
	}
	return nil
}

func textFromFlags(cmd *cobra.Command, inlineFlag, fileFlag string) (string, error) {
	inline, _ := cmd.Flags().GetString(inlineFlag)
	if inline != "" {
		return inline, nil
	}

	path, _ := cmd.Flags().GetString(fileFlag)
	if path == "" {
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read --%s: %w", fileFlag, err)
	}
	return string(data), nil
}
