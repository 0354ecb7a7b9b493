// Command elfiee is the command-line front end for a single archive's
// engine actor: every invocation opens (or creates) a .elf file and spawns
// its engine. Mutating subcommands run one command and save the archive
// back before exiting, read-only subcommands exit without saving, and
// serve keeps the engine running until interrupted.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/elfiee/elfiee/internal/config"
	"github.com/elfiee/elfiee/internal/log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "elfiee",
	Short: "elfiee manages a block-structured, event-sourced .elf archive",
	Long: `elfiee is a command-line interface to a single .elf archive: an
event-sourced content engine where every mutation is recorded as an
append-only event and every block's state is a pure replay of that log.`,
}

var archivePath string

func init() {
	rootCmd.PersistentFlags().StringVar(&archivePath, "archive", "", "path to the .elf archive file (required)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "output logs in JSON format")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(createBlockCmd)
	rootCmd.AddCommand(linkCmd)
	rootCmd.AddCommand(unlinkCmd)
	rootCmd.AddCommand(deleteBlockCmd)
	rootCmd.AddCommand(grantCmd)
	rootCmd.AddCommand(revokeCmd)
	rootCmd.AddCommand(getBlockCmd)
	rootCmd.AddCommand(listBlocksCmd)
	rootCmd.AddCommand(listEditorsCmd)
	rootCmd.AddCommand(createEditorCmd)
	rootCmd.AddCommand(saveCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(serveCmd)
}

func initLogging() {
	level, _ := rootCmd.PersistentFlags().GetString("log-level")
	jsonOut, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(level), JSONOutput: jsonOut})
}

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func requireArchiveFlag() error {
	if archivePath == "" {
		return fmt.Errorf("--archive is required")
	}
	return nil
}
