// utils/file_utils.go - Upload folder helpers
package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CreateProviderFolderIfNotExists ensures the per-provider upload folder
// exists and returns its path.
func CreateProviderFolderIfNotExists(basePath string, providerID int) (string, error) {
	folder := filepath.Join(basePath, fmt.Sprintf("provider_%d", providerID))
	if err := os.MkdirAll(folder, os.ModePerm); err != nil {
		return "", err
	}
	return folder, nil
}

// GenerateUniqueFilename keeps the original name but appends a counter when a
// file with the same name already exists in the folder.
func GenerateUniqueFilename(folder, filename string) string {
	safe := SanitizeFilename(filename)
	candidate := safe
	ext := filepath.Ext(safe)
	base := strings.TrimSuffix(safe, ext)

	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(folder, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
}

// SanitizeFilename strips path separators and control characters from an
// uploaded filename.
func SanitizeFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		if r < 32 || r == 0x7f {
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		name = "upload"
	}
	return name
}
