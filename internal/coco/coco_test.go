package coco

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ppiankov/cocosplit/internal/model"
)

const minimal = `{
  "categories": [{"name": "car", "id": 1, "supercategory": "vehicle"}],
  "images": [{"id": 7, "file_name": "a.jpg", "height": 10}, {"id": "8", "file_name": "b.jpg"}],
  "annotations": [{"id": 1, "image_id": 7, "category_id": 1, "bbox": [1.5, 2, 3, 4], "note": "<x>"}]
}`

func TestDecode(t *testing.T) {
	doc, err := DecodeBytes([]byte(minimal))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if doc.HasInfo() || doc.HasLicenses() {
		t.Error("expected info and licenses absent")
	}
	if len(doc.Images) != 2 || doc.Images[1].ID != 8 {
		t.Errorf("unexpected images %+v", doc.Images)
	}
	if doc.Annotations[0].ImageID != 7 || doc.Annotations[0].CategoryID != 1 {
		t.Errorf("unexpected annotation %+v", doc.Annotations[0])
	}
	if doc.CategoryName(1) != "car" {
		t.Errorf("expected category name car, got %q", doc.CategoryName(1))
	}

	wantKeys := []string{model.KeyCategories, model.KeyImages, model.KeyAnnotations}
	if diff := cmp.Diff(wantKeys, doc.Keys); diff != "" {
		t.Errorf("key order mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_PresentButEmptyMetadata(t *testing.T) {
	doc, err := DecodeBytes([]byte(`{"info": null, "licenses": [], "images": [], "annotations": [], "categories": []}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !doc.HasInfo() || !doc.HasLicenses() {
		t.Error("expected null info and empty licenses to count as present")
	}
	if doc.Images == nil {
		t.Error("expected empty, non-nil images")
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"missing images", `{"annotations": [], "categories": []}`, "images"},
		{"missing annotations", `{"images": [], "categories": []}`, "annotations"},
		{"missing categories", `{"images": [], "annotations": []}`, "categories"},
		{"images not array", `{"images": {}, "annotations": [], "categories": []}`, "images"},
		{"images null", `{"images": null, "annotations": [], "categories": []}`, "images"},
		{"image without id", `{"images": [{"file_name": "a.jpg"}], "annotations": [], "categories": []}`, "images"},
		{"annotation without image_id", `{"images": [], "annotations": [{"category_id": 1}], "categories": []}`, "annotations"},
		{"category without id", `{"images": [], "annotations": [], "categories": [{"name": "car"}]}`, "categories"},
		{"non-integer id", `{"images": [{"id": 1.5}], "annotations": [], "categories": []}`, "images"},
		{"top level array", `[]`, "document"},
		{"truncated", `{"images": [`, "images"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes([]byte(tt.input))
			if !errors.Is(err, model.ErrMalformedDocument) {
				t.Fatalf("expected ErrMalformedDocument, got %v", err)
			}
			var mErr *model.MalformedDocumentError
			if !errors.As(err, &mErr) {
				t.Fatalf("expected *MalformedDocumentError, got %T", err)
			}
			if mErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, mErr.Field)
			}
		})
	}
}

func TestMarshal_Lossless(t *testing.T) {
	doc, err := DecodeBytes([]byte(minimal))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	out, err := Marshal(doc, ModeLossless)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	s := string(out)

	if strings.Contains(s, `"info"`) || strings.Contains(s, `"licenses"`) {
		t.Error("absent metadata written")
	}
	if strings.Index(s, `"categories"`) > strings.Index(s, `"images"`) {
		t.Error("top-level key order not preserved")
	}
	if strings.Index(s, `"name": "car"`) > strings.Index(s, `"id": 1`) {
		t.Error("element field order not preserved")
	}
	if !strings.Contains(s, `"id": "8"`) {
		t.Error("string id not written back as read")
	}
	if !strings.Contains(s, `"note": "<x>"`) {
		t.Error("HTML characters escaped")
	}

	again, err := DecodeBytes(out)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	out2, err := Marshal(again, ModeLossless)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(out, out2) {
		t.Error("lossless output is not stable across a round trip")
	}
}

func TestMarshal_Compatible(t *testing.T) {
	doc, err := DecodeBytes([]byte(`{"licenses": [{"z": 1, "a": 2}], "images": [{"id": 1, "file_name": "a.jpg"}], "annotations": [], "categories": [{"name": "car", "id": 1}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	out, err := Marshal(doc, ModeCompatible)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	want := `{
  "annotations": [],
  "categories": [
    {
      "id": 1,
      "name": "car"
    }
  ],
  "images": [
    {
      "file_name": "a.jpg",
      "id": 1
    }
  ],
  "licenses": [
    {
      "a": 2,
      "z": 1
    }
  ]
}
`
	if diff := cmp.Diff(want, string(out)); diff != "" {
		t.Errorf("compatible output mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshal_CompatibleKeepsNumbers(t *testing.T) {
	doc, err := DecodeBytes([]byte(`{"images": [{"id": 12345678901234567, "area": 1.10}], "annotations": [], "categories": []}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out, err := Marshal(doc, ModeCompatible)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(out), "12345678901234567") || !strings.Contains(string(out), "1.10") {
		t.Errorf("numbers altered: %s", out)
	}
}

func TestMarshal_SubsetSharesMetadata(t *testing.T) {
	doc, err := DecodeBytes([]byte(`{"info": {"v": 1}, "images": [{"id": 1}, {"id": 2}], "annotations": [], "categories": []}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	sub := doc.Subset(doc.Images[:1], nil)
	out, err := Marshal(sub, ModeLossless)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := DecodeBytes(out)
	if err != nil {
		t.Fatalf("decode subset: %v", err)
	}
	if !got.HasInfo() || len(got.Images) != 1 || got.Annotations == nil {
		t.Errorf("unexpected subset %+v", got)
	}
	if len(doc.Images) != 2 {
		t.Error("Subset modified the source document")
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeCompatible, "compatible": ModeCompatible, "lossless": ModeLossless} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Errorf("ParseMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseMode("pretty"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestMarshal_UnknownTopLevelKeys(t *testing.T) {
	doc, err := DecodeBytes([]byte(`{"images": [], "x_source": {"tool": "cvat"}, "annotations": [], "categories": []}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	lossless, err := Marshal(doc, ModeLossless)
	if err != nil {
		t.Fatalf("Marshal lossless: %v", err)
	}
	s := string(lossless)
	if !strings.Contains(s, `"tool": "cvat"`) {
		t.Fatalf("unknown key dropped in lossless mode: %s", s)
	}
	if !(strings.Index(s, `"images"`) < strings.Index(s, `"x_source"`) && strings.Index(s, `"x_source"`) < strings.Index(s, `"annotations"`)) {
		t.Errorf("unknown key out of input order: %s", s)
	}

	sub := doc.Subset(nil, nil)
	out, err := Marshal(sub, ModeLossless)
	if err != nil {
		t.Fatalf("Marshal subset: %v", err)
	}
	if !strings.Contains(string(out), `"x_source"`) {
		t.Error("subset lost unknown key")
	}

	compatible, err := Marshal(doc, ModeCompatible)
	if err != nil {
		t.Fatalf("Marshal compatible: %v", err)
	}
	if strings.Contains(string(compatible), "x_source") {
		t.Errorf("unknown key written in compatible mode: %s", compatible)
	}
}

func loadFile(t *testing.T, path string) *model.Document {
	t.Helper()
	data, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	doc, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return doc
}

func TestWriteReadFile_XZ(t *testing.T) {
	dir := t.TempDir()
	doc, err := DecodeBytes([]byte(minimal))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	data, err := Marshal(doc, ModeLossless)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	path := filepath.Join(dir, "nested", "train.json.xz")
	if err := WriteFile(path, data); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.HasPrefix(raw, xzMagic) {
		t.Error("expected xz-compressed output")
	}

	loaded := loadFile(t, path)
	if len(loaded.Images) != 2 || len(loaded.Annotations) != 1 {
		t.Errorf("unexpected document after xz round trip: %+v", loaded)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the output file, found %d entries", len(entries))
	}
}

func TestWriteFile_Error(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	err := WriteFile(filepath.Join(blocker, "train.json"), []byte("{}"))
	var wErr *model.OutputWriteError
	if !errors.As(err, &wErr) {
		t.Fatalf("expected *OutputWriteError, got %v", err)
	}
}

func TestWriteFiles_FailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	train := filepath.Join(dir, "train.json")
	test := filepath.Join(blocker, "test.json")
	err := WriteFiles(Output{Path: train, Data: []byte("{}")}, Output{Path: test, Data: []byte("{}")})

	var wErr *model.OutputWriteError
	if !errors.As(err, &wErr) || wErr.Path != test {
		t.Fatalf("expected *OutputWriteError for %s, got %v", test, err)
	}
	if _, statErr := os.Stat(train); !os.IsNotExist(statErr) {
		t.Error("train written although test failed")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected temporary files removed, found %d entries", len(entries))
	}
}

func TestReadFile_Missing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
