/*
Package randx generates the unique identifiers used by the chat server:
UUID v4 message ids and room-scoped object keys for attachments.
*/
package randx

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MessageID generates a standard UUID v4 string to serve as a unique identifier for a message.
func MessageID() string {
	return uuid.New().String()
}

// AttachmentKey builds an object key "<roomID>/<uuid><ext>" for a file uploaded into a room.
// The extension is taken from fileName and lowercased.
func AttachmentKey(roomID, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("%s/%s%s", roomID, uuid.New().String(), ext)
}
