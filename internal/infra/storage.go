package infra

// storage.go — local disk storage for patient uploads (photos, documents,
// signature images). Files live under root/{patients}/{patient_id}/ with a
// uuid-prefixed name so two uploads of "consent.pdf" never collide.

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Storage writes uploaded files to a local directory tree.
type Storage struct {
	root string
}

func NewStorage(root string) *Storage {
	return &Storage{root: root}
}

// SavePatientFile stores an uploaded file under the patient's directory and
// returns the path relative to the storage root. kind is the subdirectory
// ("photos", "documents", "signatures").
func (s *Storage) SavePatientFile(patientID uuid.UUID, kind string, fh *multipart.FileHeader) (string, error) {
	dir := filepath.Join(s.root, "patients", patientID.String(), kind)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("storage: create dir: %w", err)
	}

	name := uuid.New().String()[:8] + "_" + sanitizeFilename(fh.Filename)
	dst := filepath.Join(dir, name)

	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("storage: open upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("storage: create file: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", fmt.Errorf("storage: write file: %w", err)
	}

	rel, err := filepath.Rel(s.root, dst)
	if err != nil {
		return dst, nil
	}
	return rel, nil
}

// Remove deletes a stored file by its root-relative path. Missing files are
// not an error.
func (s *Storage) Remove(relPath string) error {
	if relPath == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.root, relPath))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// AbsPath maps a root-relative path back to the file on disk.
func (s *Storage) AbsPath(relPath string) string {
	return filepath.Join(s.root, relPath)
}

func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
	if cleaned == "" || cleaned == "." {
		cleaned = "file"
	}
	return cleaned
}
