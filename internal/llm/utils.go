package llm

import (
	"encoding/base64"
	"net/http"
)

// DataURL encodes an image as a data: URL for vision requests.
func DataURL(b []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = http.DetectContentType(b)
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(b)
}
