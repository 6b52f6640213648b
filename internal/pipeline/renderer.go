package pipeline

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/cocosplit/internal/coco"
	"github.com/ppiankov/cocosplit/internal/model"
)

// Renderer writes run reports
type Renderer struct {
	out io.Writer
}

// NewRenderer creates a renderer that prints summaries to out
func NewRenderer(out io.Writer) *Renderer {
	return &Renderer{out: out}
}

// RenderJSON writes the report as indented JSON
func (r *Renderer) RenderJSON(rep *model.Report, path string) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return coco.WriteFile(path, append(data, '\n'))
}

// RenderSummary prints the summary line of a run, followed by any pruned
// categories so dropped data is never silent.
func (r *Renderer) RenderSummary(rep *model.Report) {
	fmt.Fprintf(r.out, "Saved %d entries in %s and %d in %s\n",
		rep.Train.Images, rep.Train.Path, rep.Test.Images, rep.Test.Path)

	if !rep.Pruned.Empty() {
		fmt.Fprintf(r.out, "Pruned %d categories (%d annotations) with too few samples to stratify: %v\n",
			len(rep.Pruned.Categories), rep.Pruned.Annotations, rep.Pruned.Categories)
	}
	for _, side := range rep.EmptySubsets {
		fmt.Fprintf(r.out, "No annotations were assigned to %s: every category is too small to reach it at fraction %v\n",
			side, rep.Fraction)
	}
	if rep.DroppedImages > 0 {
		fmt.Fprintf(r.out, "Ignored %d images without annotations\n", rep.DroppedImages)
	}
}
