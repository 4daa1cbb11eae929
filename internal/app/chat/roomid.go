package chat

import (
	"sort"
	"strings"

	"campushub/internal/pkg/errs"
)

// RoomSeparator joins the two participant ids of a room id. User ids never contain it.
const RoomSeparator = "_"

// DeriveRoomID returns the canonical room id for a pair of users.
// The result does not depend on argument order.
func DeriveRoomID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return ids[0] + RoomSeparator + ids[1]
}

// ValidatePair checks that two user ids can form a room: both present, distinct,
// and free of the separator.
func ValidatePair(a, b string) error {
	if a == "" || b == "" || a == b {
		return errs.NewError(errs.ErrInvalidParams)
	}
	if strings.Contains(a, RoomSeparator) || strings.Contains(b, RoomSeparator) {
		return errs.NewError(errs.ErrInvalidParams)
	}
	return nil
}

// RoomIncludes reports whether userID is one of the two users roomID was derived from.
func RoomIncludes(roomID, userID string) bool {
	a, b, ok := strings.Cut(roomID, RoomSeparator)
	if !ok {
		return false
	}
	return userID != "" && (a == userID || b == userID)
}
