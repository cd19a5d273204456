// Package main provides the llmbridge CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/llmbridge/cli"
	"github.com/richinex/llmbridge/config"
)

var (
	// Global flags
	provider   string
	model      string
	configPath string
	dbPath     string
	verbose    bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "llmbridge",
		Short: "One interface over Anthropic, OpenAI, Bedrock and Gemini",
		Long: `A CLI and local HTTP proxy for chat completions and memo extraction
across Anthropic, OpenAI, AWS Bedrock and Google Gemini.

Credentials come from the environment (or .env) and an optional YAML file.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", fmt.Sprintf("LLM provider (%s)", strings.Join(config.SupportedProviders(), ", ")))
	rootCmd.PersistentFlags().StringVarP(&model, "model", "m", "", "Model id or unique prefix (e.g. claude-3-5-h)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "llmbridge.yaml", "Path to YAML config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path for sessions and memos")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show verbose output")

	rootCmd.AddCommand(providersCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(memoCmd())
	rootCmd.AddCommand(memosCmd())
	rootCmd.AddCommand(sessionsCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func options() cli.Options {
	opts := cli.DefaultOptions()
	opts.Provider = provider
	opts.Model = model
	opts.ConfigPath = configPath
	opts.DBPath = dbPath
	opts.Verbose = verbose
	return opts
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List supported providers and whether they are configured",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Providers(options())
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the selected provider's credentials with a connectivity probe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Validate(context.Background(), options())
		},
	}
}

func chatCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "chat [prompt]",
		Short: "Send a prompt, or start an interactive chat without one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := ""
			if len(args) == 1 {
				prompt = args[0]
			}
			return cli.Chat(context.Background(), prompt, sessionID, options())
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID for conversation persistence")

	return cmd
}

func memoCmd() *cobra.Command {
	var sourceURL string
	var refresh bool

	cmd := &cobra.Command{
		Use:   "memo [file|-]",
		Short: "Extract a structured memo from an HTML or text file",
		Long: `Extract a title, summary, narrative, structured data and tag from
the given file (or stdin with "-") and store the result.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "-"
			if len(args) == 1 {
				path = args[0]
			}
			return cli.Memo(context.Background(), path, sourceURL, refresh, options())
		},
	}

	cmd.Flags().StringVar(&sourceURL, "source", "", "URL the content was captured from")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Reprocess content that already has a stored memo")

	return cmd
}

func memosCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "memos",
		Short: "List stored memos, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Memos(context.Background(), limit, options())
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of memos to list")
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored memo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.DeleteMemo(context.Background(), args[0], options())
		},
	})

	return cmd
}

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored chat sessions, most recently updated first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Sessions(context.Background(), options())
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored chat session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.DeleteSession(context.Background(), args[0], options())
		},
	})

	return cmd
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API for every configured provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Serve(context.Background(), options())
		},
	}
}
