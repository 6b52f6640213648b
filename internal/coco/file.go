package coco

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/cocosplit/internal/model"
	"github.com/ulikunitz/xz"
)

var xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

// ReadFile returns the JSON bytes of an annotations file, decompressing xz
// input transparently.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open annotations: %w", err)
	}
	defer func() { _ = f.Close() }()

	br := bufio.NewReader(f)
	head, _ := br.Peek(len(xzMagic))

	var r io.Reader = br
	if bytes.Equal(head, xzMagic) {
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("open xz stream: %w", err)
		}
		r = xr
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read annotations: %w", err)
	}
	return data, nil
}

// Output is serialized content destined for Path
type Output struct {
	Path string
	Data []byte
}

// WriteFile writes serialized JSON to path, xz-compressing it when the path
// ends in .xz. Failures are returned as *model.OutputWriteError.
func WriteFile(path string, data []byte) error {
	return WriteFiles(Output{Path: path, Data: data})
}

// WriteFiles writes every output to a temporary file beside its destination
// and renames them into place only after all writes succeeded, so a failure
// leaves no output behind.
func WriteFiles(outputs ...Output) error {
	temps := make([]string, 0, len(outputs))
	defer func() {
		for _, tmp := range temps {
			_ = os.Remove(tmp)
		}
	}()

	for _, out := range outputs {
		tmp, err := writeTemp(out.Path, out.Data)
		if err != nil {
			return &model.OutputWriteError{Path: out.Path, Err: err}
		}
		temps = append(temps, tmp)
	}

	for i, out := range outputs {
		if err := os.Rename(temps[i], out.Path); err != nil {
			return &model.OutputWriteError{Path: out.Path, Err: err}
		}
	}
	return nil
}

func writeTemp(path string, data []byte) (name string, err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()

	if err := f.Chmod(0644); err != nil {
		return "", err
	}

	if !strings.HasSuffix(strings.ToLower(path), ".xz") {
		if _, err := f.Write(data); err != nil {
			return "", err
		}
		return f.Name(), nil
	}

	xw, err := xz.NewWriter(f)
	if err != nil {
		return "", err
	}
	if _, err := xw.Write(data); err != nil {
		return "", err
	}
	if err := xw.Close(); err != nil {
		return "", err
	}
	return f.Name(), nil
}
