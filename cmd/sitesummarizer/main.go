// Command sitesummarizer summarizes web pages with OpenAI or Gemini, from the
// command line or through a local HTTP API.
package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "sitesummarizer",
		Short:         "Summarize web pages with an LLM",
		Long:          "sitesummarizer extracts the readable text of a page and streams a summary from OpenAI or Gemini.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newSummarizeCmd())
	rootCmd.AddCommand(newSettingsCmd())
	rootCmd.AddCommand(newSessionsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
