package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var getBlockID string

var getBlockCmd = &cobra.Command{
	Use:   "get-block",
	Short: "Print a single block as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireArchiveFlag(); err != nil {
			return err
		}
		s, err := openSession(archivePath)
		if err != nil {
			return err
		}
		defer s.closeWithoutSaving()

		block, err := s.handle.GetBlock(getBlockID)
		if err != nil {
			return err
		}
		return printJSON(block)
	},
}

func init() {
	getBlockCmd.Flags().StringVar(&getBlockID, "block", "", "block id (required)")
	getBlockCmd.MarkFlagRequired("block")
}

var listBlocksCmd = &cobra.Command{
	Use:   "list-blocks",
	Short: "List every block in the archive as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireArchiveFlag(); err != nil {
			return err
		}
		s, err := openSession(archivePath)
		if err != nil {
			return err
		}
		defer s.closeWithoutSaving()

		blocks, err := s.handle.GetAllBlocks()
		if err != nil {
			return err
		}
		return printJSON(blocks)
	},
}

var listEditorsCmd = &cobra.Command{
	Use:   "list-editors",
	Short: "List every registered editor as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireArchiveFlag(); err != nil {
			return err
		}
		s, err := openSession(archivePath)
		if err != nil {
			return err
		}
		defer s.closeWithoutSaving()

		editors, err := s.handle.GetAllEditors()
		if err != nil {
			return err
		}
		return printJSON(editors)
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Dump the full event log as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireArchiveFlag(); err != nil {
			return err
		}
		s, err := openSession(archivePath)
		if err != nil {
			return err
		}
		defer s.closeWithoutSaving()

		events, err := s.handle.GetAllEvents()
		if err != nil {
			return err
		}
		return printJSON(events)
	},
}

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Open the archive and immediately save it back out",
	Long: `save is useful mainly for migrating an archive's on-disk layout
forward, or for confirming a .elf file round-trips cleanly.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireArchiveFlag(); err != nil {
			return err
		}
		s, err := openSession(archivePath)
		if err != nil {
			return err
		}
		return s.saveAndClose(archivePath)
	},
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
