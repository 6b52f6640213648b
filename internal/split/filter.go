// Package split partitions a COCO document into train and test subsets.
//
// All functions are pure: they return new slices and never modify their
// inputs. Lookups go through id sets so every filter runs in O(n+m).
package split

import "github.com/ppiankov/cocosplit/internal/model"

type idSet map[model.ID]struct{}

func (s idSet) has(id model.ID) bool {
	_, ok := s[id]
	return ok
}

func imageIDs(images []model.Image) idSet {
	set := make(idSet, len(images))
	for _, img := range images {
		set[img.ID] = struct{}{}
	}
	return set
}

func referencedImageIDs(annotations []model.Annotation) idSet {
	set := make(idSet, len(annotations))
	for _, a := range annotations {
		set[a.ImageID] = struct{}{}
	}
	return set
}

// AnnotationsFor returns the annotations whose image_id matches one of images.
// Order and duplicates are preserved.
func AnnotationsFor(annotations []model.Annotation, images []model.Image) []model.Annotation {
	ids := imageIDs(images)
	out := make([]model.Annotation, 0, len(annotations))
	for _, a := range annotations {
		if ids.has(a.ImageID) {
			out = append(out, a)
		}
	}
	return out
}

// ImagesFor returns the images referenced by at least one of annotations
func ImagesFor(images []model.Image, annotations []model.Annotation) []model.Image {
	ids := referencedImageIDs(annotations)
	out := make([]model.Image, 0, min(len(images), len(ids)))
	for _, img := range images {
		if ids.has(img.ID) {
			out = append(out, img)
		}
	}
	return out
}

// WithAnnotations drops images that no annotation references
func WithAnnotations(images []model.Image, annotations []model.Annotation) []model.Image {
	return ImagesFor(images, annotations)
}
