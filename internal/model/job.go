package model

// Job describes one split: an input file, two outputs and the options that
// shape the split. The split command builds one from flags; batch manifests
// list several.
type Job struct {
	Name              string  `yaml:"name,omitempty"`
	Annotations       string  `yaml:"annotations"`
	Train             string  `yaml:"train"`
	Test              string  `yaml:"test"`
	Fraction          float64 `yaml:"fraction,omitempty"`
	HavingAnnotations *bool   `yaml:"having_annotations,omitempty"` // nil inherits
	MultiClass        *bool   `yaml:"multi_class,omitempty"`        // nil inherits
	Seed              int64   `yaml:"seed,omitempty"`
	Mode              string  `yaml:"mode,omitempty"`
	ImagesFolder      string  `yaml:"images_folder,omitempty"`
	ImagesOut         string  `yaml:"images_out,omitempty"`
	Report            string  `yaml:"report,omitempty"`
}

// Label returns Name, falling back to the input path
func (j Job) Label() string {
	if j.Name != "" {
		return j.Name
	}
	return j.Annotations
}

// WithDefaults fills unset fields from cfg
func (j Job) WithDefaults(cfg *Config) Job {
	if j.Fraction == 0 {
		j.Fraction = cfg.Split.Fraction
	}
	if j.Seed == 0 {
		j.Seed = cfg.Split.Seed
	}
	if j.Mode == "" {
		j.Mode = cfg.Output.Mode
	}
	if j.ImagesOut == "" {
		j.ImagesOut = cfg.Copy.OutputDir
	}
	if j.HavingAnnotations == nil {
		j.HavingAnnotations = Bool(cfg.Split.HavingAnnotations)
	}
	if j.MultiClass == nil {
		j.MultiClass = Bool(cfg.Split.MultiClass)
	}
	return j
}

// FilterUnannotated reports whether images without annotations are dropped
func (j Job) FilterUnannotated() bool {
	return j.HavingAnnotations != nil && *j.HavingAnnotations
}

// Stratify reports whether annotations are split by category
func (j Job) Stratify() bool {
	return j.MultiClass != nil && *j.MultiClass
}

// Bool returns a pointer to v
func Bool(v bool) *bool {
	return &v
}
