package engine

import "github.com/elfiee/elfiee/pkg/model"

// message is the sealed set of mailbox variants the actor understands. Every
// public Handle method builds one of these, sends it, and waits on its own
// reply channel — the actor never interleaves the steps of two commands,
// and a read never observes a partially-applied command.
type message interface{ isMessage() }

type processCommandMsg struct {
	cmd   model.Command
	reply chan processCommandResult
}

type processCommandResult struct {
	events []model.Event
	err    error
}

type getBlockMsg struct {
	blockID string
	reply   chan *model.Block
}

type getAllBlocksMsg struct {
	reply chan map[string]model.Block
}

type getAllEditorsMsg struct {
	reply chan map[string]model.Editor
}

type getAllGrantsMsg struct {
	reply chan map[string][]model.Grant
}

type getEditorGrantsMsg struct {
	editorID string
	reply    chan []model.Grant
}

type getBlockGrantsMsg struct {
	blockID string
	reply   chan []model.Grant
}

type checkGrantMsg struct {
	editorID, capID, blockID string
	reply                    chan bool
}

type getAllEventsResult struct {
	events []model.Event
	err    error
}

type getAllEventsMsg struct {
	reply chan getAllEventsResult
}

type shutdownMsg struct {
	done chan struct{}
}

func (processCommandMsg) isMessage() {}
func (getBlockMsg) isMessage()       {}
func (getAllBlocksMsg) isMessage()   {}
func (getAllEditorsMsg) isMessage()  {}
func (getAllGrantsMsg) isMessage()   {}
func (getEditorGrantsMsg) isMessage() {}
func (getBlockGrantsMsg) isMessage() {}
func (checkGrantMsg) isMessage()     {}
func (getAllEventsMsg) isMessage()   {}
func (shutdownMsg) isMessage()       {}
