package split

import (
	"fmt"
	"math/rand/v2"

	"github.com/ppiankov/cocosplit/internal/model"
	"github.com/ppiankov/cocosplit/internal/stratify"
)

// Stratified splits annotations so that each category's share in train stays
// close to fraction. Each annotation is one sample labelled by its category.
//
// Categories with a single annotation cannot appear on both sides; callers
// run PruneCategories first. One side may come back empty when every
// category is too small to reach it, e.g. many two-annotation categories at
// fraction 0.8; that is a valid result, not an error.
func Stratified(annotations []model.Annotation, fraction float64, rng *rand.Rand) (train, test []model.Annotation, err error) {
	if err := model.ValidateFraction(fraction); err != nil {
		return nil, nil, err
	}

	labels := make([][]int, len(annotations))
	for i, a := range annotations {
		labels[i] = []int{int(a.CategoryID)}
	}

	folds, err := stratify.Split(labels, []float64{fraction, 1 - fraction}, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("stratify: %w", err)
	}

	train = make([]model.Annotation, 0, len(folds[0]))
	for _, i := range folds[0] {
		train = append(train, annotations[i])
	}
	test = make([]model.Annotation, 0, len(folds[1]))
	for _, i := range folds[1] {
		test = append(test, annotations[i])
	}
	return train, test, nil
}
