package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

// newRootCmd builds the command tree. Running the root without a
// subcommand generates a message.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cmtgen",
		Short: "Generate commit messages from staged changes",
		Long: `cmtgen reads the staged changes of the current git repository, builds a
bounded context for a language model and turns the reply into a commit message.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runGenerate,
	}

	// Global flags available to all commands
	rootCmd.PersistentFlags().StringP("config", "c", "", "Additional configuration file merged over ~/.cmtgenrc and .cmtgen.yaml")
	rootCmd.PersistentFlags().Bool("debug", false, "Log prompts, replies and pipeline decisions to stderr")
	addGenerateFlags(rootCmd)

	rootCmd.AddCommand(newGenerateCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newTemplatesCmd())
	rootCmd.AddCommand(newModelsCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		printError(err)
		stop()
		os.Exit(1)
	}
}

func printError(err error) {
	st := newStyles(isTerminal(os.Stderr))
	fmt.Fprintln(os.Stderr, st.err.Render("✗ "+err.Error()))
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintln(os.Stderr, st.muted.Render("  hint: "+hint))
	}
}
