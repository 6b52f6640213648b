package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ID is an integer identifier. Decoding accepts a JSON number or a numeric
// string, since some exporters write ids as strings.
type ID int64

// UnmarshalJSON implements json.Unmarshaler
func (id *ID) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		return fmt.Errorf("id is null")
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = strings.TrimSpace(unquoted)
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// Accept integral floats such as 12.0
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return fmt.Errorf("id %s is not an integer", string(data))
		}
		n = int64(f)
	}

	*id = ID(n)
	return nil
}

// Image is a single entry of the images array. Raw holds the original object
// so fields this package does not model survive a round trip.
type Image struct {
	ID       ID
	FileName string
	Raw      json.RawMessage
}

// Annotation is a single entry of the annotations array
type Annotation struct {
	ID         ID
	ImageID    ID
	CategoryID ID
	Raw        json.RawMessage
}

// Category is a single entry of the categories array
type Category struct {
	ID   ID
	Name string
	Raw  json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler
func (img *Image) UnmarshalJSON(data []byte) error {
	var fields struct {
		ID       *ID    `json:"id"`
		FileName string `json:"file_name"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("image: %w", err)
	}
	if fields.ID == nil {
		return fmt.Errorf("image: missing id")
	}

	img.ID = *fields.ID
	img.FileName = fields.FileName
	img.Raw = cloneRaw(data)
	return nil
}

// MarshalJSON implements json.Marshaler
func (img Image) MarshalJSON() ([]byte, error) {
	if len(img.Raw) > 0 {
		return img.Raw, nil
	}
	return json.Marshal(map[string]any{"id": img.ID, "file_name": img.FileName})
}

// UnmarshalJSON implements json.Unmarshaler
func (a *Annotation) UnmarshalJSON(data []byte) error {
	var fields struct {
		ID         *ID `json:"id"`
		ImageID    *ID `json:"image_id"`
		CategoryID *ID `json:"category_id"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("annotation: %w", err)
	}
	if fields.ImageID == nil {
		return fmt.Errorf("annotation: missing image_id")
	}
	if fields.CategoryID == nil {
		return fmt.Errorf("annotation: missing category_id")
	}

	if fields.ID != nil {
		a.ID = *fields.ID
	}
	a.ImageID = *fields.ImageID
	a.CategoryID = *fields.CategoryID
	a.Raw = cloneRaw(data)
	return nil
}

// MarshalJSON implements json.Marshaler
func (a Annotation) MarshalJSON() ([]byte, error) {
	if len(a.Raw) > 0 {
		return a.Raw, nil
	}
	return json.Marshal(map[string]any{"id": a.ID, "image_id": a.ImageID, "category_id": a.CategoryID})
}

// UnmarshalJSON implements json.Unmarshaler
func (c *Category) UnmarshalJSON(data []byte) error {
	var fields struct {
		ID   *ID    `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("category: %w", err)
	}
	if fields.ID == nil {
		return fmt.Errorf("category: missing id")
	}

	c.ID = *fields.ID
	c.Name = fields.Name
	c.Raw = cloneRaw(data)
	return nil
}

// MarshalJSON implements json.Marshaler
func (c Category) MarshalJSON() ([]byte, error) {
	if len(c.Raw) > 0 {
		return c.Raw, nil
	}
	return json.Marshal(map[string]any{"id": c.ID, "name": c.Name})
}

// Document is a COCO annotation file.
//
// Info and Licenses are nil when the key was absent from the input. A present
// key always has a non-nil value, even when it was written as null or [].
// Keys records the top-level key order of the input and Extra holds the
// values of top-level keys outside the COCO schema, both for lossless output.
type Document struct {
	Info        json.RawMessage
	Licenses    json.RawMessage
	Images      []Image
	Annotations []Annotation
	Categories  []Category
	Keys        []string
	Extra       map[string]json.RawMessage
}

// Top-level keys of a COCO document
const (
	KeyInfo        = "info"
	KeyLicenses    = "licenses"
	KeyImages      = "images"
	KeyAnnotations = "annotations"
	KeyCategories  = "categories"
)

// HasInfo reports whether the input carried an info key
func (d *Document) HasInfo() bool { return d.Info != nil }

// HasLicenses reports whether the input carried a licenses key
func (d *Document) HasLicenses() bool { return d.Licenses != nil }

// Subset returns a document sharing d's metadata and categories with the
// given images and annotations. d is not modified.
func (d *Document) Subset(images []Image, annotations []Annotation) *Document {
	return &Document{
		Info:        d.Info,
		Licenses:    d.Licenses,
		Images:      images,
		Annotations: annotations,
		Categories:  d.Categories,
		Keys:        d.Keys,
		Extra:       d.Extra,
	}
}

// CategoryName returns the name of the category with the given id, or an
// empty string when the id is unknown.
func (d *Document) CategoryName(id ID) string {
	for _, c := range d.Categories {
		if c.ID == id {
			return c.Name
		}
	}
	return ""
}

func cloneRaw(data []byte) json.RawMessage {
	return json.RawMessage(bytes.Clone(bytes.TrimSpace(data)))
}
