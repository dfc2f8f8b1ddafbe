package ledger

import (
	"crypto/sha256"
	"encoding/json"
	"time"
)

// canonicalJSON serializes v deterministically. encoding/json writes map keys
// in sorted order, so identical payloads always produce identical bytes.
func canonicalJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		// Payloads are plain maps of JSON-safe values; a marshal failure
		// here means a programming error upstream. Hash the error text so
		// the proof path still cannot fail.
		return []byte(err.Error())
	}
	return b
}

// payloadDigest hashes the canonical serialization of the payload alone,
// as recorded on the ledger.
func payloadDigest(payload map[string]any) [32]byte {
	return sha256.Sum256(canonicalJSON(payload))
}

// hashProof computes the local fallback digest over the canonical object
// {data, threat_id, timestamp}.
func hashProof(subjectID string, at time.Time, payload map[string]any) LocalProof {
	obj := map[string]any{
		"threat_id": subjectID,
		"timestamp": at.UTC().Format(time.RFC3339Nano),
		"data":      payload,
	}
	return LocalProof{
		SubjectID: subjectID,
		Digest:    sha256.Sum256(canonicalJSON(obj)),
	}
}
