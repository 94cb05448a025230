package rules

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/solatis/docguard/internal/types"
)

const sampleRuleFile = `
rules:
  - id: 01928c7e-8a4b-7c3d-9e2f-1a2b3c4d5e6f
    name: Invoice number present
    document_type: invoice
    condition_field: invoice_number
    condition_type: required
    error_message: Invoice number missing
    severity: high
  - document_type: invoice
    condition_field: currency
    condition_type: equals
    condition_value: USD
    error_message: Currency must be USD
    severity: warning
    is_active: false
  - document_type: bill_of_lading
    condition_field: shipper.name
    condition_type: min_length
    condition_value: "3"
    error_message: Shipper name too short
`

func TestParseRuleFile(t *testing.T) {
	rules, err := ParseRuleFile(strings.NewReader(sampleRuleFile))
	if err != nil {
		t.Fatalf("ParseRuleFile() error = %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("len(rules) = %d, want 3", len(rules))
	}

	first := rules[0]
	if first.ID != "01928c7e-8a4b-7c3d-9e2f-1a2b3c4d5e6f" {
		t.Errorf("ID = %s", first.ID)
	}
	if !first.IsActive {
		t.Error("is_active should default to true")
	}
	if first.ConditionValue != nil {
		t.Errorf("ConditionValue = %v, want nil", *first.ConditionValue)
	}

	if rules[1].IsActive {
		t.Error("explicit is_active: false ignored")
	}
	if rules[1].ConditionValue == nil || *rules[1].ConditionValue != "USD" {
		t.Errorf("ConditionValue = %v, want USD", rules[1].ConditionValue)
	}

	if _, err := types.ParseRuleID(string(rules[2].ID)); err != nil {
		t.Errorf("generated ID %q is not a UUID: %v", rules[2].ID, err)
	}

	for i := 1; i < len(rules); i++ {
		if !rules[i].CreatedAt.After(rules[i-1].CreatedAt) {
			t.Errorf("CreatedAt not increasing at %d", i)
		}
	}
}

func TestParseRuleFile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "missing document_type",
			input: "rules:\n  - condition_field: a\n    condition_type: required\n",
			want:  "document_type is required",
		},
		{
			name:  "missing condition_field",
			input: "rules:\n  - document_type: invoice\n    condition_type: required\n",
			want:  "condition_field is required",
		},
		{
			name:  "malformed id",
			input: "rules:\n  - id: not-a-uuid\n    document_type: invoice\n    condition_field: a\n",
			want:  "invalid id",
		},
		{
			name:  "unknown key",
			input: "rules:\n  - document_type: invoice\n    condition_field: a\n    colour: red\n",
			want:  "failed to parse rule file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRuleFile(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("ParseRuleFile() error = nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want substring %q", err, tt.want)
			}
		})
	}
}

func TestParseRuleFile_Empty(t *testing.T) {
	rules, err := ParseRuleFile(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParseRuleFile() error = %v", err)
	}
	if len(rules) != 0 {
		t.Errorf("len(rules) = %d, want 0", len(rules))
	}
}

func TestLoadRuleFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(path, []byte(sampleRuleFile), 0o600); err != nil {
		t.Fatal(err)
	}
	rules, err := LoadRuleFile(path)
	if err != nil {
		t.Fatalf("LoadRuleFile() error = %v", err)
	}
	if len(rules) != 3 {
		t.Errorf("len(rules) = %d, want 3", len(rules))
	}

	if _, err := LoadRuleFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadRuleFile() on missing file should fail")
	}
}

func TestStaticSource_DryRun(t *testing.T) {
	rules, err := ParseRuleFile(strings.NewReader(sampleRuleFile))
	if err != nil {
		t.Fatal(err)
	}
	source := StaticSource(rules)

	loaded, err := source.LoadRules(context.Background(), "invoice")
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 1 {
		t.Fatalf("LoadRules(invoice) = %d rules, want 1 active", len(loaded))
	}

	engine := NewEngine(source, DiscardSink{})
	result, err := engine.Validate(context.Background(), "offline", "bill_of_lading",
		map[string]any{"shipper": map[string]any{"name": "Al"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Issues) != 1 || result.Issues[0].Severity != types.SeverityMedium {
		t.Errorf("Issues = %+v, want one medium issue", result.Issues)
	}
	if got := result.Status(); got.Status != types.StatusPendingVerification || !got.Flagged {
		t.Errorf("Status() = %+v, want pending_verification flagged", got)
	}
}
