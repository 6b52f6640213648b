// Package coco reads and writes COCO annotation documents.
package coco

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/ppiankov/cocosplit/internal/model"
)

// Decode parses a COCO document from r.
//
// images, annotations and categories are mandatory. info and licenses are
// optional; an absent key leaves the corresponding field nil. Any other
// top-level key is kept verbatim in Document.Extra.
func Decode(r io.Reader) (*model.Document, error) {
	dec := json.NewDecoder(r)

	tok, err := dec.Token()
	if err != nil {
		return nil, &model.MalformedDocumentError{Field: "document", Err: err}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, &model.MalformedDocumentError{Field: "document", Err: errors.New("top level is not an object")}
	}

	doc := &model.Document{}
	seen := make(map[string]bool)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, &model.MalformedDocumentError{Field: "document", Err: err}
		}
		key, _ := keyTok.(string)

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, &model.MalformedDocumentError{Field: key, Err: err}
		}

		switch key {
		case model.KeyInfo:
			doc.Info = raw
		case model.KeyLicenses:
			doc.Licenses = raw
		case model.KeyImages:
			if err := decodeArray(raw, &doc.Images); err != nil {
				return nil, &model.MalformedDocumentError{Field: key, Err: err}
			}
		case model.KeyAnnotations:
			if err := decodeArray(raw, &doc.Annotations); err != nil {
				return nil, &model.MalformedDocumentError{Field: key, Err: err}
			}
		case model.KeyCategories:
			if err := decodeArray(raw, &doc.Categories); err != nil {
				return nil, &model.MalformedDocumentError{Field: key, Err: err}
			}
		default:
			if doc.Extra == nil {
				doc.Extra = make(map[string]json.RawMessage)
			}
			doc.Extra[key] = raw
		}

		if !seen[key] {
			seen[key] = true
			doc.Keys = append(doc.Keys, key)
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, &model.MalformedDocumentError{Field: "document", Err: err}
	}

	for _, key := range []string{model.KeyImages, model.KeyAnnotations, model.KeyCategories} {
		if !seen[key] {
			return nil, &model.MalformedDocumentError{Field: key}
		}
	}

	return doc, nil
}

// DecodeBytes parses a COCO document held in memory
func DecodeBytes(data []byte) (*model.Document, error) {
	return Decode(bytes.NewReader(data))
}

func decodeArray[T any](raw json.RawMessage, out *[]T) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return fmt.Errorf("expected an array")
	}

	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return err
	}
	if items == nil {
		items = []T{}
	}
	*out = items
	return nil
}
