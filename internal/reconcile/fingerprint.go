package reconcile

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"planforge.app/anvil/internal/model"
)

// Fingerprint computes a stable digest of the fields that identify a
// conflict. The conflict index stays the join key for resolutions;
// fingerprints exist so a session can detect that the comparison it was
// opened against has been regenerated underneath it.
func Fingerprint(conflict model.Conflict) string {
	body := struct {
		Category             string `json:"category"`
		ChecklistRequirement string `json:"checklist_requirement"`
		QuoteAssumption      string `json:"quote_assumption"`
	}{
		Category:             conflict.Category,
		ChecklistRequirement: conflict.ChecklistRequirement,
		QuoteAssumption:      conflict.QuoteAssumption,
	}

	data, _ := json.Marshal(body) //nolint:errcheck
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// Fingerprints returns one fingerprint per conflict, in conflict order.
func Fingerprints(comparison *model.ComparisonResult) []string {
	if comparison == nil {
		return nil
	}
	out := make([]string, len(comparison.Conflicts))
	for i, conflict := range comparison.Conflicts {
		out[i] = Fingerprint(conflict)
	}
	return out
}

// FingerprintsMatch reports whether a stored fingerprint list still
// describes the given comparison.
func FingerprintsMatch(stored []string, comparison *model.ComparisonResult) bool {
	current := Fingerprints(comparison)
	if len(stored) != len(current) {
		return false
	}
	for i := range stored {
		if stored[i] != current[i] {
			return false
		}
	}
	return true
}
