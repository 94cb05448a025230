package rules

import "github.com/solatis/docguard/internal/types"

// StatusRecommendation is the document status a validation pass recommends.
type StatusRecommendation struct {
	Status  types.DocumentStatus `json:"status"`
	Flagged bool                 `json:"flagged"`
}

// DeriveStatus maps a pass's issues to a recommended status.
// Any high-severity issue rejects and flags the document; otherwise it
// awaits human verification. Total: nil or empty issues never reject.
func DeriveStatus(issues []types.ValidationIssue) StatusRecommendation {
	for _, issue := range issues {
		if issue.Severity == types.SeverityHigh {
			return StatusRecommendation{Status: types.StatusRejected, Flagged: true}
		}
	}
	return StatusRecommendation{Status: types.StatusPendingVerification, Flagged: false}
}
