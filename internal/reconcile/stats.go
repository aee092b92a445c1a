package reconcile

import (
	"math"

	"planforge.app/anvil/internal/model"
)

// ComputeStatistics recounts every item in the checklist from scratch.
// Counts are never carried over from a previous version, so the result
// holds found+none+errors == total regardless of what mutations the
// checklist went through. Items with an unrecognized status are counted
// as errors.
func ComputeStatistics(checklist *model.Checklist) model.ChecklistStatistics {
	var stats model.ChecklistStatistics
	for _, category := range checklist.Categories {
		for _, item := range category.Items {
			stats.TotalPrompts++
			switch item.Status {
			case model.ItemStatusRequirementFound:
				stats.RequirementsFound++
			case model.ItemStatusNoRequirement:
				stats.NoRequirements++
			default:
				stats.Errors++
			}
		}
	}
	if stats.TotalPrompts > 0 {
		stats.CoveragePercentage = int(math.Round(float64(stats.RequirementsFound) / float64(stats.TotalPrompts) * 100))
	}
	return stats
}
