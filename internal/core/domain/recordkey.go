package domain

import (
	"fmt"
	"strings"
)

// ExtractionSuffix is appended to a file ID to form its record store key.
// The resolver strips it again, so both directions must agree exactly.
const ExtractionSuffix = "_extraction.json"

// FileID builds the identifier of a file within a folder.
func FileID(folder, filename string) string {
	return folder + "/" + filename
}

// SplitFileID splits a file ID into folder and filename.
// Folders may be nested, filenames never contain a slash.
func SplitFileID(fileID string) (folder, filename string, err error) {
	i := strings.LastIndex(fileID, "/")
	if i <= 0 || i == len(fileID)-1 {
		return "", "", fmt.Errorf("%w: file id %q", ErrInvalidKey, fileID)
	}
	return fileID[:i], fileID[i+1:], nil
}

// ExtractionKey returns the store key holding the extraction record of a file.
func ExtractionKey(fileID string) string {
	return fileID + ExtractionSuffix
}

// IsExtractionKey reports whether a store key names an extraction record.
func IsExtractionKey(key string) bool {
	return strings.HasSuffix(key, ExtractionSuffix) && len(key) > len(ExtractionSuffix)
}

// FileIDFromKey derives the file ID from an extraction record key.
func FileIDFromKey(key string) (string, error) {
	if !IsExtractionKey(key) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	id := strings.TrimSuffix(key, ExtractionSuffix)
	if _, _, err := SplitFileID(id); err != nil {
		return "", err
	}
	return id, nil
}
