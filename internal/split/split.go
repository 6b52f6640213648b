package split

import (
	"math/rand/v2"

	"github.com/ppiankov/cocosplit/internal/model"
)

// Options selects the split strategy
type Options struct {
	Fraction          float64
	HavingAnnotations bool // Drop images without annotations first
	MultiClass        bool // Stratify annotations by category instead of splitting images
}

// Strategy returns the strategy these options select
func (o Options) Strategy() model.Strategy {
	if o.MultiClass {
		return model.StrategyStratified
	}
	return model.StrategyUniform
}

// Result holds both sides of a split
type Result struct {
	Strategy      model.Strategy
	Train         *model.Document
	Test          *model.Document
	DroppedImages int               // Images removed by the having-annotations filter
	Pruned        model.PruneReport // Categories removed before stratification
	EmptySubsets  []string          // "train" and/or "test" when stratification left a side without annotations
}

// Run splits doc according to opts. doc is not modified; both result
// documents share its info, licenses and categories.
//
// In uniform mode the train and test image sets are disjoint. In stratified
// mode only the annotation sets are: an image whose annotations landed on
// both sides is written to both documents, so the image sets can overlap.
func Run(doc *model.Document, opts Options, rng *rand.Rand) (*Result, error) {
	if err := model.ValidateFraction(opts.Fraction); err != nil {
		return nil, err
	}

	images := doc.Images
	if opts.HavingAnnotations {
		images = WithAnnotations(images, doc.Annotations)
	}

	res := &Result{
		Strategy:      opts.Strategy(),
		DroppedImages: len(doc.Images) - len(images),
		Pruned:        model.PruneReport{Categories: []model.ID{}},
	}

	if !opts.MultiClass {
		train, test, err := Uniform(images, opts.Fraction, rng)
		if err != nil {
			return nil, err
		}
		res.Train = doc.Subset(train, AnnotationsFor(doc.Annotations, train))
		res.Test = doc.Subset(test, AnnotationsFor(doc.Annotations, test))
		return res, nil
	}

	// Only annotations whose image survived the filter are candidates
	candidates := AnnotationsFor(doc.Annotations, images)
	candidates, res.Pruned = PruneCategories(candidates)

	trainAnns, testAnns, err := Stratified(candidates, opts.Fraction, rng)
	if err != nil {
		return nil, err
	}

	if len(candidates) > 0 {
		if len(trainAnns) == 0 {
			res.EmptySubsets = append(res.EmptySubsets, "train")
		}
		if len(testAnns) == 0 {
			res.EmptySubsets = append(res.EmptySubsets, "test")
		}
	}

	trainImages := ImagesFor(images, trainAnns)
	testImages := ImagesFor(images, testAnns)
	res.Train = doc.Subset(trainImages, trainAnns)
	res.Test = doc.Subset(testImages, testAnns)
	return res, nil
}
