package split

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/ppiankov/cocosplit/internal/model"
)

// TrainSize returns how many of n items go to train for fraction f
func TrainSize(n int, f float64) int {
	return int(math.Floor(f * float64(n)))
}

// Uniform splits images at random so that floor(fraction*n) land in train
// and the rest in test. Images keep their input order within each side.
func Uniform(images []model.Image, fraction float64, rng *rand.Rand) (train, test []model.Image, err error) {
	if err := model.ValidateFraction(fraction); err != nil {
		return nil, nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	n := len(images)
	nTrain := TrainSize(n, fraction)
	if n > 0 && (nTrain == 0 || nTrain == n) {
		return nil, nil, fmt.Errorf("%w: %d images with fraction %v gives %d train and %d test",
			model.ErrEmptyPartition, n, fraction, nTrain, n-nTrain)
	}

	inTrain := make([]bool, n)
	for _, idx := range rng.Perm(n)[:nTrain] {
		inTrain[idx] = true
	}

	train = make([]model.Image, 0, nTrain)
	test = make([]model.Image, 0, n-nTrain)
	for i, img := range images {
		if inTrain[i] {
			train = append(train, img)
		} else {
			test = append(test, img)
		}
	}
	return train, test, nil
}
