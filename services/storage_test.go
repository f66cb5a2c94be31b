package services

import (
	"bytes"
	"strings"
	"testing"

	"credentialing-api/apperrors"
)

func TestLocalDocumentStorageRoundTrip(t *testing.T) {
	storage := NewLocalDocumentStorage(t.TempDir())
	data := []byte("%PDF-1.4 license scan")

	ref, err := storage.Store(data, StorageHints{
		ProviderID:       42,
		OriginalFilename: "license.pdf",
		MimeType:         "application/pdf",
	})
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if !strings.HasSuffix(ref, "license.pdf") {
		t.Fatalf("reference must keep the sanitized original name: %q", ref)
	}

	fetched, err := storage.Fetch(ref)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if !bytes.Equal(fetched, data) {
		t.Fatal("fetched bytes differ from stored bytes")
	}

	if err := storage.Delete(ref); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := storage.Fetch(ref); !apperrors.Is(err, apperrors.KindNotFound) {
		t.Fatalf("fetch after delete: expected not found, got %v", err)
	}

	// Deleting an already deleted reference is not an error.
	if err := storage.Delete(ref); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestLocalDocumentStorageUniqueReferences(t *testing.T) {
	storage := NewLocalDocumentStorage(t.TempDir())
	hints := StorageHints{ProviderID: 1, OriginalFilename: "license.pdf"}

	first, err := storage.Store([]byte("v1"), hints)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	second, err := storage.Store([]byte("v2"), hints)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if first == second {
		t.Fatalf("same filename must yield distinct references: %q", first)
	}

	data, err := storage.Fetch(first)
	if err != nil || string(data) != "v1" {
		t.Fatalf("first upload overwritten: (%q, %v)", data, err)
	}
}
