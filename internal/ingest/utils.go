package ingest

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/papertrans/constants"
)

// minPDFSize rejects truncated or error-page downloads.
const minPDFSize = 1024

// AllowedExt reports whether ext names a PDF.
func AllowedExt(ext string) bool {
	return constants.NormalizeExt(ext) == "pdf"
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".")
}

// PDFName is the file name a paper's PDF is downloaded under.
func PDFName(id string) string {
	return strings.NewReplacer("/", "_", "\\", "_").Replace(id) + ".pdf"
}

// Revision returns the first 12 hex characters of sha256 over the title, abstract and
// PDF bytes. pdfPath may be empty.
func Revision(title, abstract, pdfPath string) (string, error) {
	h := sha256.New()
	io.WriteString(h, title)
	h.Write([]byte{0})
	io.WriteString(h, abstract)
	h.Write([]byte{0})
	if pdfPath != "" {
		f, err := os.Open(pdfPath)
		if err != nil {
			return "", err
		}
		defer f.Close()
		if _, err := io.Copy(h, f); err != nil {
			return "", err
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:12], nil
}
