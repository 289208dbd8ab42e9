package generate

import (
	"errors"
	"fmt"
)

// Stage identifies where in the generation pipeline a fatal error occurred.
type Stage string

const (
	StageEncode       Stage = "encode"
	StagePrefill      Stage = "prefill"
	StageDecode       Stage = "decode"
	StageDecodeOutput Stage = "decode-output"
)

// Error is a fatal, stage-tagged session error. Generation has no retry or
// partial-result policy: any Error abandons the current session.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("generation failed at %s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrNoEOSToken is returned by NewEngine when no EOS token id could be
// resolved from model metadata or configuration. It is a configuration
// fault: no session can start without a termination sentinel.
var ErrNoEOSToken = errors.New("no EOS token id resolvable from model metadata or configuration")
