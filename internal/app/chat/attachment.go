package chat

import (
	"path/filepath"
	"strings"
	"time"

	"campushub/internal/pkg/errs"
)

const (
	// MaxAttachmentSizeMB is the maximum allowed file size in megabytes.
	MaxAttachmentSizeMB = 5

	// MaxAttachmentSize is the maximum allowed file size in bytes.
	MaxAttachmentSize = MaxAttachmentSizeMB * 1024 * 1024

	// PresignedURLDuration is how long upload and download URLs stay valid.
	PresignedURLDuration = 5 * time.Minute
)

// extToMIME maps the permitted listing photo extensions to their MIME types.
var extToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
}

// ValidateFileSize checks if the provided file size is within acceptable limits.
func ValidateFileSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxAttachmentSize {
		return errs.NewError(errs.ErrFileSizeTooLarge)
	}

	return nil
}

// ValidateFileType checks that the extension of fileName is allowed and agrees with mimeType.
func ValidateFileType(fileName string, mimeType string) *errs.CustomError {
	ext := strings.ToLower(filepath.Ext(fileName))

	expectedMIME, ok := extToMIME[ext]
	if !ok || expectedMIME != strings.ToLower(mimeType) {
		return errs.NewError(errs.ErrInvalidParams)
	}

	return nil
}

// ValidateAttachmentKey checks that key was issued for roomID ("<roomID>/<file>")
// and names an allowed file type.
func ValidateAttachmentKey(roomID, key string) *errs.CustomError {
	name, ok := strings.CutPrefix(key, roomID+"/")
	if !ok || name == "" || strings.Contains(name, "/") {
		return errs.NewError(errs.ErrAttachmentKeyInvalid)
	}

	if _, ok := extToMIME[strings.ToLower(filepath.Ext(name))]; !ok {
		return errs.NewError(errs.ErrAttachmentKeyInvalid)
	}

	return nil
}

// AttachmentRoom returns the room id an attachment key is scoped to.
func AttachmentRoom(key string) (string, bool) {
	roomID, _, ok := strings.Cut(key, "/")
	return roomID, ok && roomID != ""
}
