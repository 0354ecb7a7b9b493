package model

import "fmt"

// Kind identifies the category of a failure raised by the engine or one of
// its components. Callers translate a Kind into their own transport's error
// envelope; the engine itself never retries.
type Kind string

const (
	KindUnknownCapability Kind = "UnknownCapability"
	KindBlockNotFound     Kind = "BlockNotFound"
	KindScratchIOFailure  Kind = "ScratchIOFailure"
	KindUnauthorized      Kind = "Unauthorized"
	KindCycleDetected     Kind = "CycleDetected"
	KindHandlerError      Kind = "HandlerError"
	KindPersistError      Kind = "PersistError"
	KindArchiveInvalid    Kind = "ArchiveInvalid"
	KindEngineClosed      Kind = "EngineClosed"
	KindDecodeError       Kind = "DecodeError"
)

// Error is the typed error returned by every engine operation that can fail.
// It wraps an underlying cause while preserving the Kind so callers can
// branch with errors.As without parsing message text.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrUnauthorized) etc. match purely on Kind, so
// callers can compare against the exported sentinels below without caring
// about message text.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == ""
}

func newErr(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// Sentinels usable with errors.Is(err, model.ErrUnauthorized) style checks.
var (
	ErrUnknownCapability = &Error{Kind: KindUnknownCapability}
	ErrBlockNotFound     = &Error{Kind: KindBlockNotFound}
	ErrScratchIOFailure  = &Error{Kind: KindScratchIOFailure}
	ErrUnauthorized      = &Error{Kind: KindUnauthorized}
	ErrCycleDetected     = &Error{Kind: KindCycleDetected}
	ErrHandlerError      = &Error{Kind: KindHandlerError}
	ErrPersistError      = &Error{Kind: KindPersistError}
	ErrArchiveInvalid    = &Error{Kind: KindArchiveInvalid}
	ErrEngineClosed      = &Error{Kind: KindEngineClosed}
	ErrDecodeError       = &Error{Kind: KindDecodeError}
)

func UnknownCapability(capID string) error {
	return newErr(KindUnknownCapability, fmt.Sprintf("no handler registered for %q", capID), nil)
}

func BlockNotFound(blockID string) error {
	return newErr(KindBlockNotFound, fmt.Sprintf("block %q not found", blockID), nil)
}

func ScratchIOFailure(blockID string, cause error) error {
	return newErr(KindScratchIOFailure, fmt.Sprintf("scratch directory for %q", blockID), cause)
}

func Unauthorized(editorID, capID, blockID string) error {
	return newErr(KindUnauthorized, fmt.Sprintf("%s lacks %s on %s", editorID, capID, blockID), nil)
}

func CycleDetected(source, target string) error {
	return newErr(KindCycleDetected, fmt.Sprintf("linking %s -> %s would close a cycle", source, target), nil)
}

func HandlerError(capID string, cause error) error {
	return newErr(KindHandlerError, fmt.Sprintf("handler %q failed", capID), cause)
}

func PersistError(cause error) error {
	return newErr(KindPersistError, "append to event store failed", cause)
}

func ArchiveInvalid(msg string) error {
	return newErr(KindArchiveInvalid, msg, nil)
}

func EngineClosed() error {
	return newErr(KindEngineClosed, "engine actor has shut down", nil)
}

func DecodeError(what string, cause error) error {
	return newErr(KindDecodeError, fmt.Sprintf("decode %s", what), cause)
}
