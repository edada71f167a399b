package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/BlueSinkers/medical-summarizer-t3/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medsumd",
		Short: "Medical report summarizer daemon and CLI",
		Long:  "Medical report summarizer daemon for serving the API and managing the knowledge index",
	}

	cli.AddHelpJSONFlag(rootCmd)
	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.IndexCmd())
	rootCmd.AddCommand(cli.ValidateCmd())

	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
