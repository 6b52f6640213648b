package coco

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/ppiankov/cocosplit/internal/model"
)

// Mode selects how a document is serialized
type Mode string

const (
	// ModeCompatible writes the layout of the original cocosplit tool: keys
	// sorted at every level and two-space indentation. info and licenses are
	// written only when the input had them; other top-level keys are dropped.
	ModeCompatible Mode = "compatible"

	// ModeLossless keeps every top-level key in input order and each
	// element's fields exactly as read. Absent keys stay absent.
	ModeLossless Mode = "lossless"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeCompatible, ModeLossless:
		return Mode(s), nil
	case "":
		return ModeCompatible, nil
	default:
		return "", fmt.Errorf("unknown output mode %q (want %q or %q)", s, ModeCompatible, ModeLossless)
	}
}

// Marshal serializes doc in the given mode
func Marshal(doc *model.Document, mode Mode) ([]byte, error) {
	switch mode {
	case ModeLossless:
		return marshalLossless(doc)
	case ModeCompatible, "":
		return marshalCompatible(doc)
	default:
		return nil, fmt.Errorf("unknown output mode %q", mode)
	}
}

func marshalLossless(doc *model.Document) ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')

	for i, key := range outputKeys(doc, true) {
		if i > 0 {
			compact.WriteByte(',')
		}
		keyJSON, _ := json.Marshal(key)
		compact.Write(keyJSON)
		compact.WriteByte(':')

		value, err := fieldValue(doc, key)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		compact.Write(value)
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, fmt.Errorf("indent document: %w", err)
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

func marshalCompatible(doc *model.Document) ([]byte, error) {
	tree := make(map[string]any, 5)

	for _, key := range outputKeys(doc, false) {
		value, err := fieldValue(doc, key)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		generic, err := toGeneric(value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", key, err)
		}
		tree[key] = generic
	}

	// Maps marshal with sorted keys, which gives sort_keys at every level
	var out bytes.Buffer
	enc := json.NewEncoder(&out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tree); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

// outputKeys returns the top-level keys to write, in order: the input order
// first, then any mandatory key the input order does not mention. Keys
// outside the COCO schema are included only when extra is set.
func outputKeys(doc *model.Document, extra bool) []string {
	keys := make([]string, 0, 5)
	present := make(map[string]bool, 5)

	add := func(key string) {
		if present[key] {
			return
		}
		switch key {
		case model.KeyInfo:
			if !doc.HasInfo() {
				return
			}
		case model.KeyLicenses:
			if !doc.HasLicenses() {
				return
			}
		case model.KeyImages, model.KeyAnnotations, model.KeyCategories:
		default:
			if _, ok := doc.Extra[key]; !ok || !extra {
				return
			}
		}
		present[key] = true
		keys = append(keys, key)
	}

	for _, key := range doc.Keys {
		add(key)
	}
	for _, key := range []string{model.KeyInfo, model.KeyLicenses, model.KeyImages, model.KeyAnnotations, model.KeyCategories} {
		add(key)
	}
	return keys
}

func fieldValue(doc *model.Document, key string) ([]byte, error) {
	switch key {
	case model.KeyInfo:
		return compactRaw(doc.Info)
	case model.KeyLicenses:
		return compactRaw(doc.Licenses)
	case model.KeyImages:
		return marshalArray(doc.Images)
	case model.KeyAnnotations:
		return marshalArray(doc.Annotations)
	case model.KeyCategories:
		return marshalArray(doc.Categories)
	}
	if raw, ok := doc.Extra[key]; ok {
		return compactRaw(raw)
	}
	return nil, fmt.Errorf("unknown key %q", key)
}

func marshalArray[T any](items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(items); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func compactRaw(raw json.RawMessage) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func toGeneric(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}
