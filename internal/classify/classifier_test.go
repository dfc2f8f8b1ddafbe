package classify

import (
	"math"
	"testing"

	"threatwatch/internal/common"
)

func TestClassifyRansomware(t *testing.T) {
	res := Classify("Ransomware breach detected, stolen credentials exfiltrated", "ransomware")

	if res.PredictedSeverity != common.SeverityCritical {
		t.Errorf("expected critical, got %s", res.PredictedSeverity)
	}
	if math.Abs(res.Confidence-0.9) > 1e-9 {
		t.Errorf("expected confidence 0.9, got %v", res.Confidence)
	}
	want := []string{"T1486", "T1490"}
	if len(res.TechniqueIDs) != len(want) {
		t.Fatalf("expected techniques %v, got %v", want, res.TechniqueIDs)
	}
	for i, id := range want {
		if res.TechniqueIDs[i] != id {
			t.Errorf("technique %d: expected %s, got %s", i, id, res.TechniqueIDs[i])
		}
	}
}

func TestClassifyDefaultsToMedium(t *testing.T) {
	res := Classify("the quick brown fox", "unknown_type")

	if res.PredictedSeverity != common.SeverityMedium {
		t.Errorf("expected medium default, got %s", res.PredictedSeverity)
	}
	if math.Abs(res.Confidence-0.6) > 1e-9 {
		t.Errorf("expected confidence 0.6, got %v", res.Confidence)
	}
	if len(res.TechniqueIDs) != 0 {
		t.Errorf("expected no techniques for unknown type, got %v", res.TechniqueIDs)
	}
}

func TestClassifyConfidenceCapped(t *testing.T) {
	desc := ""
	for i := 0; i < 10; i++ {
		desc += "ransomware exploit breach "
	}
	res := Classify(desc, "ransomware")

	if res.Confidence != 0.95 {
		t.Errorf("expected capped confidence 0.95, got %v", res.Confidence)
	}
	if !res.PredictedSeverity.Valid() {
		t.Errorf("invalid severity %q", res.PredictedSeverity)
	}
}

func TestClassifyTieBreakOrder(t *testing.T) {
	// One critical hit and one high hit: critical comes first in the tier
	// enumeration, so it wins.
	res := Classify("exploit via trojan", "malware")

	if res.PredictedSeverity != common.SeverityCritical {
		t.Errorf("expected critical on tie, got %s", res.PredictedSeverity)
	}
}

func TestClassifyCaseInsensitive(t *testing.T) {
	res := Classify("MALWARE spotted on host", "malware")
	if res.PredictedSeverity != common.SeverityHigh {
		t.Errorf("expected high, got %s", res.PredictedSeverity)
	}
}

func TestClassifyExtractsIndicators(t *testing.T) {
	res := Classify("malware beacon to 203.0.113.9 via bad.example.net", "malware")

	if len(res.Indicators.IPs) != 1 || res.Indicators.IPs[0] != "203.0.113.9" {
		t.Errorf("expected IP indicator, got %v", res.Indicators.IPs)
	}
	if len(res.Indicators.Domains) == 0 {
		t.Errorf("expected domain indicator, got %v", res.Indicators.Domains)
	}
}
