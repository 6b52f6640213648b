package imagecopy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/cocosplit/internal/model"
)

func writeImages(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(path, []byte("pixels of "+name), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestSubsetDir(t *testing.T) {
	got := SubsetDir("/data/images/", "/out", "train")
	if got != filepath.Join("/out", "images_train") {
		t.Errorf("unexpected subset dir %s", got)
	}
}

func TestCopier_Allowed(t *testing.T) {
	c := NewCopier(model.CopyConfig{Extensions: []string{".jpg", "png"}}, 1)

	tests := map[string]bool{
		"a.jpg":     true,
		"b.JPG":     true,
		"c.png":     true,
		"d.jpeg":    false,
		"noext":     false,
		"dir/e.jpg": true,
	}
	for name, want := range tests {
		if got := c.Allowed(name); got != want {
			t.Errorf("Allowed(%q) = %v, want %v", name, got, want)
		}
	}

	all := NewCopier(model.CopyConfig{}, 1)
	if !all.Allowed("anything.bmp") {
		t.Error("expected empty extension list to allow every file")
	}
}

func TestCopier_CopySubset(t *testing.T) {
	src := filepath.Join(t.TempDir(), "images")
	out := t.TempDir()
	writeImages(t, src, "1.jpg", "2.jpg", "3.png", "nested/4.jpg")

	images := []model.Image{
		{ID: 1, FileName: "1.jpg"},
		{ID: 2, FileName: "2.jpg"},
		{ID: 3, FileName: "3.png"},
		{ID: 4, FileName: "nested/4.jpg"},
	}

	c := NewCopier(model.CopyConfig{Extensions: []string{".jpg"}, Verify: true}, 2)
	summary, err := c.CopySubset(context.Background(), src, out, "train", images)
	if err != nil {
		t.Fatalf("CopySubset: %v", err)
	}

	if summary.Copied != 3 || summary.Skipped != 1 || summary.Failed != 0 {
		t.Errorf("unexpected summary %+v", summary)
	}

	dst := filepath.Join(out, "images_train")
	for _, name := range []string{"1.jpg", "2.jpg", "4.jpg"} {
		data, err := os.ReadFile(filepath.Join(dst, name))
		if err != nil {
			t.Errorf("expected %s copied: %v", name, err)
			continue
		}
		if len(data) == 0 {
			t.Errorf("%s copied empty", name)
		}
	}
	if _, err := os.Stat(filepath.Join(dst, "3.png")); !os.IsNotExist(err) {
		t.Error("expected 3.png to be skipped")
	}
}

func TestCopier_MissingSource(t *testing.T) {
	src := filepath.Join(t.TempDir(), "images")
	out := t.TempDir()
	writeImages(t, src, "1.jpg")

	images := []model.Image{{ID: 1, FileName: "1.jpg"}, {ID: 2, FileName: "missing.jpg"}}

	c := NewCopier(model.CopyConfig{Extensions: []string{".jpg"}}, 1)
	summary, err := c.CopySubset(context.Background(), src, out, "test", images)
	if err == nil {
		t.Fatal("expected error for missing source file")
	}
	if summary.Copied != 1 || summary.Failed != 1 {
		t.Errorf("unexpected summary %+v", summary)
	}
}

func TestCopyFile_Verify(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.jpg")
	dst := filepath.Join(dir, "b.jpg")
	if err := os.WriteFile(src, []byte("abc"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := copyFile(src, dst, true); err != nil {
		t.Fatalf("copyFile: %v", err)
	}

	got, err := digestFile(dst)
	if err != nil {
		t.Fatalf("digestFile: %v", err)
	}
	want, _ := digestFile(src)
	if string(got) != string(want) {
		t.Error("digests differ after copy")
	}
}
