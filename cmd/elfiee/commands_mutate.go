package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/elfiee/elfiee/pkg/model"
)

var openCmd = &cobra.Command{
	Use:   "open",
	Short: "Open (or create) the archive and report its summary",
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
		editors, err := s.handle.GetAllEditors()
		if err != nil {
			return err
		}
		fmt.Printf("archive: %s\n", archivePath)
		fmt.Printf("  blocks:  %d\n", len(blocks))
		fmt.Printf("  editors: %d\n", len(editors))
		return nil
	},
}

var (
	createBlockEditor string
	createBlockName   string
	createBlockType   string
)

var createBlockCmd = &cobra.Command{
	Use:   "create-block",
	Short: "Create a new block",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireArchiveFlag(); err != nil {
			return err
		}
		payload, err := json.Marshal(map[string]string{"name": createBlockName, "block_type": createBlockType})
		if err != nil {
			return err
		}
		return withSessionMutation(func(s *session) error {
			events, err := s.handle.ProcessCommand(model.Command{
				EditorID: createBlockEditor,
				CapID:    "core.create",
				Payload:  payload,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created block %s\n", events[0].Entity)
			return nil
		})
	},
}

func init() {
	createBlockCmd.Flags().StringVar(&createBlockEditor, "editor", "", "issuing editor id (required)")
	createBlockCmd.Flags().StringVar(&createBlockName, "name", "", "block name (required)")
	createBlockCmd.Flags().StringVar(&createBlockType, "type", "", "block type (required)")
	createBlockCmd.MarkFlagRequired("editor")
	createBlockCmd.MarkFlagRequired("name")
	createBlockCmd.MarkFlagRequired("type")
}

var (
	linkEditor, linkBlock, linkRelation, linkTarget string
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Link a block to a target under a relation",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireArchiveFlag(); err != nil {
			return err
		}
		payload, err := json.Marshal(map[string]string{"relation": linkRelation, "target_id": linkTarget})
		if err != nil {
			return err
		}
		return withSessionMutation(func(s *session) error {
			_, err := s.handle.ProcessCommand(model.Command{
				EditorID: linkEditor, CapID: "core.link", BlockID: linkBlock, Payload: payload,
			})
			return err
		})
	},
}

var unlinkCmd = &cobra.Command{
	Use:   "unlink",
	Short: "Remove a link from a block under a relation",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireArchiveFlag(); err != nil {
			return err
		}
		payload, err := json.Marshal(map[string]string{"relation": linkRelation, "target_id": linkTarget})
		if err != nil {
			return err
		}
		return withSessionMutation(func(s *session) error {
			_, err := s.handle.ProcessCommand(model.Command{
				EditorID: linkEditor, CapID: "core.unlink", BlockID: linkBlock, Payload: payload,
			})
			return err
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{linkCmd, unlinkCmd} {
		c.Flags().StringVar(&linkEditor, "editor", "", "issuing editor id (required)")
		c.Flags().StringVar(&linkBlock, "block", "", "source block id (required)")
		c.Flags().StringVar(&linkRelation, "relation", "", "relation name (required)")
		c.Flags().StringVar(&linkTarget, "target", "", "target block id (required)")
		c.MarkFlagRequired("editor")
		c.MarkFlagRequired("block")
		c.MarkFlagRequired("relation")
		c.MarkFlagRequired("target")
	}
}

var (
	deleteBlockEditor, deleteBlockID string
)

var deleteBlockCmd = &cobra.Command{
	Use:   "delete-block",
	Short: "Delete a block",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireArchiveFlag(); err != nil {
			return err
		}
		return withSessionMutation(func(s *session) error {
			_, err := s.handle.ProcessCommand(model.Command{
				EditorID: deleteBlockEditor, CapID: "core.delete", BlockID: deleteBlockID,
			})
			return err
		})
	},
}

func init() {
	deleteBlockCmd.Flags().StringVar(&deleteBlockEditor, "editor", "", "issuing editor id (required)")
	deleteBlockCmd.Flags().StringVar(&deleteBlockID, "block", "", "block id to delete (required)")
	deleteBlockCmd.MarkFlagRequired("editor")
	deleteBlockCmd.MarkFlagRequired("block")
}

var (
	grantEditor, grantTargetEditor, grantCapability, grantTargetBlock string
)

func grantRevokeCmd(use, capID string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("%s a capability to an editor", use),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireArchiveFlag(); err != nil {
				return err
			}
			payload, err := json.Marshal(map[string]string{
				"target_editor": grantTargetEditor,
				"capability":    grantCapability,
				"target_block":  grantTargetBlock,
			})
			if err != nil {
				return err
			}
			return withSessionMutation(func(s *session) error {
				_, err := s.handle.ProcessCommand(model.Command{
					EditorID: grantEditor, CapID: capID, BlockID: grantTargetBlock, Payload: payload,
				})
				return err
			})
		},
	}
}

var grantCmd = grantRevokeCmd("grant", "core.grant")
var revokeCmd = grantRevokeCmd("revoke", "core.revoke")

func init() {
	for _, c := range []*cobra.Command{grantCmd, revokeCmd} {
		c.Flags().StringVar(&grantEditor, "editor", "", "issuing editor id (required)")
		c.Flags().StringVar(&grantTargetEditor, "target-editor", "", "editor receiving or losing the capability (required)")
		c.Flags().StringVar(&grantCapability, "capability", "", "capability id (required)")
		c.Flags().StringVar(&grantTargetBlock, "target-block", model.WildcardBlock, "block the grant applies to, or * for every block")
		c.MarkFlagRequired("editor")
		c.MarkFlagRequired("target-editor")
		c.MarkFlagRequired("capability")
	}
}

var (
	createEditorIssuer, createEditorName, createEditorType string
)

var createEditorCmd = &cobra.Command{
	Use:   "create-editor",
	Short: "Register a new editor identity",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireArchiveFlag(); err != nil {
			return err
		}
		payload, err := json.Marshal(map[string]string{"name": createEditorName, "editor_type": createEditorType})
		if err != nil {
			return err
		}
		return withSessionMutation(func(s *session) error {
			events, err := s.handle.ProcessCommand(model.Command{
				EditorID: createEditorIssuer, CapID: "editor.create", Payload: payload,
			})
			if err != nil {
				return err
			}
			fmt.Printf("created editor %s\n", events[0].Entity)
			return nil
		})
	},
}

func init() {
	createEditorCmd.Flags().StringVar(&createEditorIssuer, "editor", "", "issuing editor id (required)")
	createEditorCmd.Flags().StringVar(&createEditorName, "name", "", "new editor's display name (required)")
	createEditorCmd.Flags().StringVar(&createEditorType, "type", string(model.EditorHuman), "Human or Bot")
	createEditorCmd.MarkFlagRequired("editor")
	createEditorCmd.MarkFlagRequired("name")
}

// withSessionMutation opens the archive, runs fn, and — only if fn
// succeeds — saves the archive back to archivePath.
func withSessionMutation(fn func(s *session) error) error {
	s, err := openSession(archivePath)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		s.closeWithoutSaving()
		return err
	}
	return s.saveAndClose(archivePath)
}
