// Package main provides the jobmatch command: an HTTP API that scores job
// descriptions against a resume and weighted preferences, and a one-shot
// analyze command for the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "jobmatch",
	Short: "Job matching assistant",
	Long:  "jobmatch evaluates job descriptions against a resume and weighted preferences, producing scores, verdicts, cover letters and tailored resume snippets.",
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
