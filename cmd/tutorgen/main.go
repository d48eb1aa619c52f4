// Package main provides the tutorgen CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/richinex/tutorgen/cli"
	"github.com/spf13/cobra"
)

const defaultDBPath = ".tutorgen/tutorgen.db"

var (
	// Global flags
	provider  string
	outputDir string
	verbose   bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "tutorgen",
		Short: "Data science tutor that saves answers as Quarto documents",
		Long: `An interactive tutor for data science and machine learning topics.

Type a topic to get an explanation with runnable Python examples.
Type the save command (default "s") to write the last answer to
<first 6 characters of the question>.qmd, with python code fences
rewritten as executable Quarto cells.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "LLM provider (openai, anthropic, deepseek, gemini)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for saved .qmd files (default TUTOR_OUTPUT_DIR or .)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logging")

	// Add commands
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(askCmd())
	rootCmd.AddCommand(saveCmd())
	rootCmd.AddCommand(sessionsCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func options() cli.Options {
	opts := cli.DefaultOptions()
	opts.Provider = provider
	opts.OutputDir = outputDir
	opts.Verbose = verbose
	return opts
}

func chatCmd() *cobra.Command {
	var sessionID string
	var dbPath string
	var stream bool
	var raw bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive tutoring session",
		Long: `Start an interactive tutoring session.

Without --session the conversation lives in memory for this run only.
With --session it is stored in SQLite and resumed next time.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := options()
			opts.Stream = stream
			opts.Raw = raw
			return cli.Chat(cmd.Context(), sessionID, dbPath, opts)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID for conversation persistence")
	cmd.Flags().StringVar(&dbPath, "db", defaultDBPath, "Database path for storage")
	cmd.Flags().BoolVar(&stream, "stream", false, "Print answers as they are generated")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown without terminal styling")

	return cmd
}

func askCmd() *cobra.Command {
	var sessionID string
	var dbPath string
	var raw bool

	cmd := &cobra.Command{
		Use:   "ask [topic]",
		Short: "Ask about a single topic and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := options()
			opts.Raw = raw
			return cli.Ask(cmd.Context(), cmd.OutOrStdout(), strings.Join(args, " "), sessionID, dbPath, opts)
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Append the exchange to this stored session")
	cmd.Flags().StringVar(&dbPath, "db", defaultDBPath, "Database path for storage")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print markdown without terminal styling")

	return cmd
}

func saveCmd() *cobra.Command {
	var sessionID string
	var dbPath string

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save the last answer of a stored session as a .qmd file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.Save(cmd.Context(), cmd.OutOrStdout(), sessionID, dbPath, options())
		},
	}

	cmd.Flags().StringVar(&sessionID, "session", "", "Session ID to save from")
	cmd.Flags().StringVar(&dbPath, "db", defaultDBPath, "Database path for storage")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func sessionsCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List stored sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.ListSessions(cmd.Context(), dbPath, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", defaultDBPath, "Database path for storage")

	return cmd
}
