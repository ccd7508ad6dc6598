package lowfive

import "github.com/scigolib/lowfive/internal/utils"

// Kind classifies an error the way spec §7 does: Metadata, RPC, Mapping or
// Host. The VOL dispatcher uses Kind to decide whether an error reaches the
// host as a negative return code or (for Metadata/RPC raised from a serve
// loop) terminates the process.
type Kind int

const (
	// KindMetadata: an invariant violation, or a required operation whose
	// implementation is not yet present (spec §4.D error policy).
	KindMetadata Kind = iota
	// KindRPC: message type mismatch or unknown method at the RPC substrate.
	KindRPC
	// KindMapping: no intercommunicator configured for a (filename, path)
	// that requires one.
	KindMapping
	// KindHost: propagated from the native connector, translated into a
	// host return code.
	KindHost
)

func (k Kind) String() string {
	switch k {
	case KindMetadata:
		return "metadata"
	case KindRPC:
		return "rpc"
	case KindMapping:
		return "mapping"
	case KindHost:
		return "host"
	default:
		return "unknown"
	}
}

// Error is the core's error type: a Kind plus the teacher's contextual
// wrapper (internal/utils.H5Error), so errors.As/errors.Is work the same
// way across this package and the native/rpc/index/query subpackages.
type Error struct {
	Kind Kind
	err  error
}

func (e *Error) Error() string { return e.err.Error() }
func (e *Error) Unwrap() error { return e.err }

// newError builds a Kind-tagged Error, wrapping cause with context via
// utils.WrapError.
func newError(kind Kind, context string, cause error) *Error {
	return &Error{Kind: kind, err: utils.WrapError(context, cause)}
}

// MetadataError reports an invariant violation or an operation that is
// required but not implemented for the metadata tree (spec §4.D, §7).
func MetadataError(context string, cause error) *Error {
	return newError(KindMetadata, context, cause)
}

// RPCError reports a message-type mismatch or unknown method at the RPC
// substrate (spec §4.F, §7).
func RPCError(context string, cause error) *Error {
	return newError(KindRPC, context, cause)
}

// MappingError reports a (filename, path) requiring an intercommunicator
// that was never registered via SetIntercomm (spec §6, §7).
func MappingError(context string, cause error) *Error {
	return newError(KindMapping, context, cause)
}

// HostError wraps an error returned by the native connector, to be
// propagated unchanged to the host's error taxonomy (spec §7).
func HostError(context string, cause error) *Error {
	return newError(KindHost, context, cause)
}
