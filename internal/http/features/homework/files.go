package homework

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// allowedExtensions is the attachment extension allow-list, lowercased
// without the leading dot.
var allowedExtensions = map[string]bool{
	"pdf": true, "doc": true, "docx": true,
	"xls": true, "xlsx": true, "ppt": true, "pptx": true,
	"jpg": true, "jpeg": true, "png": true, "gif": true,
	"txt": true, "zip": true, "rar": true,
}

type fileUpload struct {
	header *multipart.FileHeader
}

// validateUpload checks size and extension before anything touches disk.
func validateUpload(fh *multipart.FileHeader) error {
	if fh.Size > maxFileSize {
		return fmt.Errorf("file %q exceeds the %d MB limit", fh.Filename, maxFileSize>>20)
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fh.Filename), "."))
	if !allowedExtensions[ext] {
		return fmt.Errorf("file type %q is not allowed", ext)
	}
	return nil
}

// FileStorage stores homework attachments on the local filesystem under
// <root>/<gradeClass>/<homeworkID>/.
type FileStorage struct {
	root string
}

// NewFileStorage creates attachment storage rooted at dir.
func NewFileStorage(dir string) *FileStorage {
	return &FileStorage{root: dir}
}

// Save writes an uploaded file to disk and returns its storage path. A short
// random prefix keeps same-named uploads from clobbering each other.
func (s *FileStorage) Save(gradeClass string, homeworkID int64, fh *multipart.FileHeader) (string, error) {
	dir := s.entryDir(gradeClass, homeworkID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating attachment dir: %w", err)
	}

	name := uuid.NewString()[:8] + "_" + sanitizeFilename(fh.Filename)
	path := filepath.Join(dir, name)

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating attachment file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("writing attachment: %w", err)
	}
	return path, nil
}

// Serve streams a stored attachment.
func (s *FileStorage) Serve(w http.ResponseWriter, r *http.Request, path string) {
	http.ServeFile(w, r, path)
}

// Remove deletes a stored attachment. Missing files are not an error; the
// metadata row is already gone.
func (s *FileStorage) Remove(path string) {
	_ = os.Remove(path)
}

// RemoveDir deletes an entry's attachment directory if it is empty.
func (s *FileStorage) RemoveDir(gradeClass string, homeworkID int64) {
	_ = os.Remove(s.entryDir(gradeClass, homeworkID))
}

func (s *FileStorage) entryDir(gradeClass string, homeworkID int64) string {
	return filepath.Join(s.root, sanitizeFilename(gradeClass), strconv.FormatInt(homeworkID, 10))
}

// sanitizeFilename keeps letters, digits, dots, dashes and underscores,
// replacing everything else. Path separators can never survive.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" || out == "." || out == ".." {
		return "file"
	}
	return out
}
