package receipt

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Storage defines the interface for record file storage. Files are stored
// under the owning record's ID so a record and its upload can always be
// matched up on disk.
type Storage interface {
	// Save stores a record's uploaded file and returns the stored name
	Save(id, filename string, data []byte) (string, error)

	// Get retrieves a file by its stored name
	Get(path string) ([]byte, error)

	// Delete removes a file
	Delete(path string) error
}

var (
	filenameCharsRe  = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	filenameSpacesRe = regexp.MustCompile(`\s+`)
)

const maxFilenameBaseLen = 50

// sanitizeFilename cleans up a client-supplied filename: special characters
// go, runs of whitespace collapse, and long phone-generated names truncate.
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = filenameCharsRe.ReplaceAllString(base, "")
	base = filenameSpacesRe.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if len(base) > maxFilenameBaseLen {
		base = base[:maxFilenameBaseLen]
	}

	if base == "" {
		base = "receipt"
	}

	return base + ext
}

// LocalStorage keeps record files in a flat directory, one file per record,
// named "<id>_<sanitized original name>".
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Save stores a record's uploaded file and returns the stored name
func (l *LocalStorage) Save(id, filename string, data []byte) (string, error) {
	name := fmt.Sprintf("%s_%s", id, sanitizeFilename(filename))
	if err := os.WriteFile(filepath.Join(l.basePath, name), data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return name, nil
}

// Get retrieves a file by its stored name
func (l *LocalStorage) Get(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, path))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a file
func (l *LocalStorage) Delete(path string) error {
	if err := os.Remove(filepath.Join(l.basePath, path)); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
