// Package report measures how closely a split follows the requested
// fraction.
package report

import (
	"math"
	"slices"

	"github.com/ppiankov/cocosplit/internal/model"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Balance computes the realized train share of every category that appears
// in either partition, ordered by category id.
func Balance(train, test *model.Document, fraction float64) ([]model.CategoryBalance, model.BalanceStats) {
	trainCounts := countCategories(train.Annotations)
	testCounts := countCategories(test.Annotations)

	ids := make([]model.ID, 0, len(trainCounts)+len(testCounts))
	for id := range trainCounts {
		ids = append(ids, id)
	}
	for id := range testCounts {
		if _, ok := trainCounts[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)

	balance := make([]model.CategoryBalance, 0, len(ids))
	for _, id := range ids {
		tr, te := trainCounts[id], testCounts[id]
		share := float64(tr) / float64(tr+te)
		balance = append(balance, model.CategoryBalance{
			CategoryID: id,
			Name:       train.CategoryName(id),
			Train:      tr,
			Test:       te,
			TrainShare: share,
			Deviation:  share - fraction,
		})
	}

	return balance, Stats(balance)
}

// Stats aggregates the deviations of a balance table
func Stats(balance []model.CategoryBalance) model.BalanceStats {
	if len(balance) == 0 {
		return model.BalanceStats{}
	}

	shares := make([]float64, len(balance))
	absDev := make([]float64, len(balance))
	for i, b := range balance {
		shares[i] = b.TrainShare
		absDev[i] = math.Abs(b.Deviation)
	}

	stats := model.BalanceStats{
		MeanAbsDeviation: stat.Mean(absDev, nil),
		MaxAbsDeviation:  floats.Max(absDev),
	}
	if len(shares) > 1 {
		stats.StdDevShare = stat.StdDev(shares, nil)
	}
	return stats
}

func countCategories(anns []model.Annotation) map[model.ID]int {
	counts := make(map[model.ID]int)
	for _, a := range anns {
		counts[a.CategoryID]++
	}
	return counts
}
