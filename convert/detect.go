package convert

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"

	"ebh/convert/html"
)

// isEbookFile reports whether the path looks like a convertible ebook.
// Inputs that can only produce a poor or circular conversion are rejected
// with an error even when the extension matches.
func isEbookFile(path string) (bool, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if !ebookExtensions[ext] && ext != ".html" && ext != ".htm" && ext != ".pdf" {
		return false, nil
	}

	head, err := readHead(path, 4096)
	if err != nil {
		return false, err
	}
	if bytes.HasPrefix(head, []byte(html.Preamble)) {
		return false, fmt.Errorf("input file %q is our own output, refusing to convert it again", path)
	}
	if filetype.IsType(head, matchers.TypePdf) {
		return false, fmt.Errorf("input file %q is a PDF, refusing to create a poor conversion", path)
	}
	if ext == ".html" || ext == ".htm" || ext == ".pdf" {
		// extension was checked only for the guards above
		return false, nil
	}
	return true, nil
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open input file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("unable to read input file: %w", err)
	}
	return buf[:read], nil
}
