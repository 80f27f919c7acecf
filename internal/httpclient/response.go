package httpclient

import (
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// MaxMessageBytes bounds how much of a response body is kept for diagnostics.
const MaxMessageBytes = 4096

// DrainBody reads up to limit bytes of rc, discards the remainder and closes
// it so the underlying connection can be reused.
func DrainBody(rc io.ReadCloser, limit int64) ([]byte, error) {
	if rc == nil {
		return nil, nil
	}
	defer rc.Close()

	head, err := io.ReadAll(io.LimitReader(rc, limit))
	if err != nil {
		return head, err
	}
	_, err = io.Copy(io.Discard, rc)
	return head, err
}

// ResponseMessage extracts the "message" field of a JSON error body. Bodies
// that are not JSON objects yield an empty string.
func ResponseMessage(body []byte) string {
	if len(body) == 0 || !gjson.ValidBytes(body) {
		return ""
	}
	result := gjson.GetBytes(body, "message")
	if !result.Exists() {
		return ""
	}
	return strings.TrimSpace(result.String())
}
