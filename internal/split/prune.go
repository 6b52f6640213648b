package split

import (
	"slices"

	"github.com/ppiankov/cocosplit/internal/model"
)

// MinSamplesPerCategory is the smallest category that can be stratified over
// two subsets.
const MinSamplesPerCategory = 2

// PruneCategories removes annotations whose category has fewer than
// MinSamplesPerCategory annotations and reports what was removed.
func PruneCategories(annotations []model.Annotation) ([]model.Annotation, model.PruneReport) {
	counts := make(map[model.ID]int)
	for _, a := range annotations {
		counts[a.CategoryID]++
	}

	report := model.PruneReport{Categories: []model.ID{}}
	for id, n := range counts {
		if n < MinSamplesPerCategory {
			report.Categories = append(report.Categories, id)
		}
	}
	slices.Sort(report.Categories)

	kept := make([]model.Annotation, 0, len(annotations))
	for _, a := range annotations {
		if counts[a.CategoryID] < MinSamplesPerCategory {
			report.Annotations++
			continue
		}
		kept = append(kept, a)
	}
	return kept, report
}
