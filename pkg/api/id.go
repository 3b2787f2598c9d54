package api

import (
	"strings"

	"github.com/google/uuid"
)

// NewFileName returns a random name for an uploaded file, keeping ext
// (lower-cased, with its dot).
func NewFileName(ext string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ToLower(ext)
}
