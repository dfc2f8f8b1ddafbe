// Package ledger produces tamper-evident commitments for submitted threat
// records, preferring a distributed ledger and falling back to a local
// cryptographic hash proof when the ledger is unavailable.
package ledger

import "encoding/hex"

// Source identifies which tier produced a commitment.
type Source string

const (
	SourceLedger        Source = "ledger"
	SourceLocalFallback Source = "local_fallback"
)

// Commitment is the proof attached to a threat record. It is created exactly
// once per record and never mutated. The two variants share one shape so
// callers never care which tier answered.
type Commitment interface {
	// Reference returns the ledger transaction reference or the hex digest
	// of the local proof.
	Reference() string
	Source() Source
}

// LedgerCommitment anchors a record to a ledger transaction.
type LedgerCommitment struct {
	SubjectID string
	TxRef     string
}

func (c LedgerCommitment) Reference() string { return c.TxRef }
func (c LedgerCommitment) Source() Source    { return SourceLedger }

// LocalProof is the always-available fallback: a SHA-256 digest over the
// canonical serialization of the record. It is not independently verifiable
// against a ledger; Verify returns false for it by design.
type LocalProof struct {
	SubjectID string
	Digest    [32]byte
}

func (p LocalProof) Reference() string { return hex.EncodeToString(p.Digest[:]) }
func (p LocalProof) Source() Source    { return SourceLocalFallback }
