package utils

import (
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize is the largest accepted cover image.
const MaxImageSize = 10 * 1024 * 1024

var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// ImageObjectKey validates an uploaded image and returns a fresh object key under prefix,
// e.g. "events/3f2c....png".
func ImageObjectKey(prefix string, fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader.Size > MaxImageSize {
		return "", fmt.Errorf("image too large (max %d MB)", MaxImageSize/1024/1024)
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("unsupported content type %q", contentType)
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if ext == "" {
		ext = ".jpg"
	}
	if !imageExts[ext] {
		return "", fmt.Errorf("unsupported image extension %q", ext)
	}

	return strings.TrimSuffix(prefix, "/") + "/" + uuid.NewString() + ext, nil
}
