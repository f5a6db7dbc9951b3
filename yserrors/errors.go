package yserrors

import (
	"errors"
	"strings"
)

// Batching / Merkle (M) Errors
var (
	ErrMEmptyInput      = errors.New("M1|EmptyInput: Build a Merkle tree from zero records. No root is defined for an empty record set.")
	ErrMInvalidInput    = errors.New("M2|InvalidInput: Canonical record has a negative timestamp or a non-string field.")
	ErrMIndexOutOfRange = errors.New("M3|IndexOutOfRange: Requested a proof for a leaf index outside the tree.")
	ErrMProofMismatch   = errors.New("M4|ProofMismatch: Freshly generated inclusion proof does not fold back to the tree root.")
)

// Chain (C) Errors
var (
	ErrCUnknownRoot   = errors.New("C1|UnknownRoot: Proof verification referenced a root that was never anchored.")
	ErrCUnknownRecord = errors.New("C2|UnknownRecord: Record index not present in the ledger.")
	ErrCUnknownBatch  = errors.New("C3|UnknownBatch: Batch identifier not present in the ledger.")
	ErrCBadRange      = errors.New("C4|BadRange: Batch range is empty, inverted, or exceeds the record log.")
	ErrCBadSignature  = errors.New("C5|BadSignature: Batch anchor signature does not verify against the operator key.")
)

// Storage (P) Errors
var (
	ErrPNotFound    = errors.New("P1|NotFound: No stored value under the requested key.")
	ErrPBadEncoding = errors.New("P2|BadEncoding: Stored value failed to decode losslessly.")
)

// GetErrorName extracts the error name from the error message.
func GetErrorName(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if i := strings.Index(msg, "|"); i >= 0 {
		rest := msg[i+1:]
		if j := strings.Index(rest, ":"); j >= 0 {
			return rest[:j]
		}
		return rest
	}
	return msg
}
