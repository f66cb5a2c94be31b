package services

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"credentialing-api/apperrors"
	"credentialing-api/utils"

	"github.com/google/uuid"
)

// StorageHints carries the metadata the adapter may use when placing bytes.
type StorageHints struct {
	ProviderID       int
	OriginalFilename string
	MimeType         string
}

// DocumentStorage is the byte-storage contract. Credentialing never inspects
// storage mechanics; it only holds the returned reference.
type DocumentStorage interface {
	Store(data []byte, hints StorageHints) (string, error)
	Fetch(ref string) ([]byte, error)
	Delete(ref string) error
}

// LocalDocumentStorage keeps uploads on local disk under UPLOAD_PATH, one
// folder per provider. References are paths relative to the base folder.
type LocalDocumentStorage struct {
	basePath string
}

func NewLocalDocumentStorage(basePath string) *LocalDocumentStorage {
	if basePath == "" {
		basePath = os.Getenv("UPLOAD_PATH")
	}
	if basePath == "" {
		basePath = "./uploads"
	}
	return &LocalDocumentStorage{basePath: basePath}
}

func (s *LocalDocumentStorage) Store(data []byte, hints StorageHints) (string, error) {
	folder, err := utils.CreateProviderFolderIfNotExists(s.basePath, hints.ProviderID)
	if err != nil {
		return "", apperrors.Storage("failed to create provider folder", err)
	}

	// The uuid prefix keeps references unguessable; GenerateUniqueFilename
	// guards the actual write against a name already on disk.
	name := utils.GenerateUniqueFilename(folder,
		fmt.Sprintf("%s_%s", uuid.New().String(), utils.SanitizeFilename(hints.OriginalFilename)))
	fullPath := filepath.Join(folder, name)

	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", apperrors.Storage("failed to write file", err)
	}

	rel, err := filepath.Rel(s.basePath, fullPath)
	if err != nil {
		// Keep the bytes, fall back to the absolute path as reference.
		return fullPath, nil
	}
	return rel, nil
}

func (s *LocalDocumentStorage) Fetch(ref string) ([]byte, error) {
	data, err := os.ReadFile(s.resolve(ref))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NotFound("stored file not found")
		}
		return nil, apperrors.Storage("failed to read file", err)
	}
	return data, nil
}

func (s *LocalDocumentStorage) Delete(ref string) error {
	if err := os.Remove(s.resolve(ref)); err != nil && !os.IsNotExist(err) {
		return apperrors.Storage("failed to delete file", err)
	}
	return nil
}

func (s *LocalDocumentStorage) resolve(ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}
	return filepath.Join(s.basePath, strings.TrimPrefix(ref, "./"))
}
