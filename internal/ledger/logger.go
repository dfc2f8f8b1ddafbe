package ledger

import (
	"context"
	"encoding/hex"
	"log/slog"
	"time"

	"threatwatch/internal/common"
	"threatwatch/internal/metrics"
)

const commitTimeout = 10 * time.Second

// IntegrityLogger commits submitted records to the ledger when one is
// configured and reachable, and otherwise produces a local hash proof. A
// commit can never fail: availability of the submission flow outranks
// on-chain durability.
type IntegrityLogger struct {
	cfg     Config
	client  Client
	breaker *circuitBreaker
	now     func() time.Time
}

// New builds an IntegrityLogger. client may be nil; with a complete Config a
// gateway HTTP client is constructed, otherwise the logger runs in
// fallback-only mode.
func New(cfg Config, client Client) *IntegrityLogger {
	if client == nil && cfg.Enabled() {
		client = NewHTTPClient(cfg, nil)
	}
	return &IntegrityLogger{
		cfg:     cfg,
		client:  client,
		breaker: newCircuitBreaker(3, 30*time.Second),
		now:     time.Now,
	}
}

// Commit produces the commitment for subjectID. The ledger path is attempted
// only when fully configured and the breaker is closed; any failure there
// degrades to the local hash proof, which always succeeds.
func (l *IntegrityLogger) Commit(ctx context.Context, subjectID string, severity common.Severity, payload map[string]any) Commitment {
	if l.cfg.Enabled() && l.client != nil && l.breaker.Allow() {
		ref, err := l.commitLedger(ctx, subjectID, severity, payload)
		if err == nil {
			l.breaker.RecordSuccess()
			metrics.LedgerCommits.WithLabelValues(string(SourceLedger)).Inc()
			return LedgerCommitment{SubjectID: subjectID, TxRef: ref}
		}
		l.breaker.RecordFailure()
		slog.Warn("ledger commit failed, using local proof", "subject_id", subjectID, "err", err)
	}

	metrics.LedgerCommits.WithLabelValues(string(SourceLocalFallback)).Inc()
	return hashProof(subjectID, l.now(), payload)
}

func (l *IntegrityLogger) commitLedger(ctx context.Context, subjectID string, severity common.Severity, payload map[string]any) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, commitTimeout)
	defer cancel()

	digest := payloadDigest(payload)
	return l.client.LogThreat(ctx, subjectID, hex.EncodeToString(digest[:]), severity, l.now().Unix())
}

// Verify checks whether subjectID has a non-empty record on the contract.
// Without a configured ledger it always returns false: the local hash proof
// is not independently re-verifiable, a known limitation carried on purpose.
// Any query error also answers false.
func (l *IntegrityLogger) Verify(ctx context.Context, subjectID string, c Commitment) bool {
	if !l.cfg.Enabled() || l.client == nil {
		return false
	}
	_ = c // the contract is queried by subject, not by reference

	record, err := l.client.GetThreat(ctx, subjectID)
	if err != nil {
		slog.Debug("ledger verify failed", "subject_id", subjectID, "err", err)
		return false
	}
	return record != ""
}

// Stats reports the ledger connection state for diagnostics.
func (l *IntegrityLogger) Stats(ctx context.Context) Stats {
	if !l.cfg.Enabled() || l.client == nil {
		return Stats{Connected: false, Message: "ledger not configured"}
	}
	stats, err := l.client.Stats(ctx)
	if err != nil {
		return Stats{Connected: false, Message: "ledger unavailable"}
	}
	return stats
}
