// Package pipeline runs the submission flow: classification and indicator
// extraction, persistence, integrity commitment, and realtime fan-out.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"threatwatch/internal/classify"
	"threatwatch/internal/common"
	"threatwatch/internal/hub"
	"threatwatch/internal/ledger"
	"threatwatch/internal/metrics"
	"threatwatch/internal/notify"
	"threatwatch/internal/store"
)

// Submission is the caller-supplied report, before the pipeline fills in
// classification and commitment.
type Submission struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	ThreatType  string          `json:"threat_type"`
	Severity    common.Severity `json:"severity,omitempty"`
	Indicators  []string        `json:"indicators,omitempty"`
	Location    map[string]any  `json:"location,omitempty"`
	Country     string          `json:"country,omitempty"`
}

// Result is returned to the submitter once the record is durable.
type Result struct {
	ThreatID         string          `json:"threat_id"`
	Classification   classify.Result `json:"classification"`
	CommitmentRef    string          `json:"commitment_ref"`
	CommitmentSource ledger.Source   `json:"commitment_source"`
}

// Pipeline wires the submission flow. All collaborators are passed in
// explicitly; the pipeline owns none of them.
type Pipeline struct {
	store    store.ThreatStore
	logger   *ledger.IntegrityLogger
	hub      *hub.Hub
	notifier *notify.Notifier
	now      func() time.Time
}

func New(s store.ThreatStore, l *ledger.IntegrityLogger, h *hub.Hub, n *notify.Notifier) *Pipeline {
	return &Pipeline{store: s, logger: l, hub: h, notifier: n, now: time.Now}
}

// Submit runs the full pipeline for one report. Classification and
// commitment always succeed; only the storage collaborator can fail the
// submission.
func (p *Pipeline) Submit(ctx context.Context, sub Submission, submitterID string) (*Result, error) {
	id := uuid.NewString()
	createdAt := p.now().UTC()

	cls := classify.Classify(sub.Description, sub.ThreatType)

	severity := sub.Severity
	if !severity.Valid() {
		severity = cls.PredictedSeverity
	}

	rec := &store.ThreatRecord{
		ID:             id,
		Title:          sub.Title,
		Description:    sub.Description,
		ThreatType:     sub.ThreatType,
		Severity:       severity,
		Indicators:     sub.Indicators,
		Location:       sub.Location,
		Country:        sub.Country,
		SubmitterID:    submitterID,
		Status:         common.StatusPending,
		Classification: &cls,
		CreatedAt:      createdAt,
	}
	if err := p.store.SaveThreat(ctx, rec); err != nil {
		return nil, fmt.Errorf("persist threat %s: %w", id, err)
	}

	commitment := p.logger.Commit(ctx, id, severity, commitPayload(rec))
	if err := p.store.AttachCommitment(ctx, id, commitment.Reference(), string(commitment.Source())); err != nil {
		// The record is durable without its commitment field; the proof
		// itself is already in the returned result.
		slog.Error("attach commitment failed", "threat_id", id, "err", err)
	}

	metrics.Submissions.WithLabelValues(string(cls.PredictedSeverity)).Inc()

	p.hub.NotifyThreat(map[string]any{
		"id":          id,
		"title":       sub.Title,
		"severity":    severity,
		"threat_type": sub.ThreatType,
	})

	if p.notifier != nil {
		if _, err := p.notifier.Notify(ctx, submitterID, "Threat reported",
			fmt.Sprintf("Report %q accepted with severity %s", sub.Title, severity),
			"threat_submission", severity); err != nil {
			slog.Warn("submitter notification failed", "user_id", submitterID, "err", err)
		}
	}

	return &Result{
		ThreatID:         id,
		Classification:   cls,
		CommitmentRef:    commitment.Reference(),
		CommitmentSource: commitment.Source(),
	}, nil
}

// Verify answers the verification boundary for a stored record.
func (p *Pipeline) Verify(ctx context.Context, threatID string) (bool, error) {
	rec, err := p.store.GetThreat(ctx, threatID)
	if err != nil {
		return false, err
	}
	var c ledger.Commitment
	if rec.CommitmentSource == string(ledger.SourceLedger) {
		c = ledger.LedgerCommitment{SubjectID: threatID, TxRef: rec.CommitmentRef}
	}
	return p.logger.Verify(ctx, threatID, c), nil
}

// commitPayload is the canonical view of a record that gets hashed and, when
// a ledger is configured, anchored on it.
func commitPayload(rec *store.ThreatRecord) map[string]any {
	return map[string]any{
		"title":       rec.Title,
		"description": rec.Description,
		"threat_type": rec.ThreatType,
		"severity":    string(rec.Severity),
		"user_id":     rec.SubmitterID,
		"status":      string(rec.Status),
		"timestamp":   rec.CreatedAt.Format(time.RFC3339Nano),
	}
}
