package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MediaObjectKey is the one place hiking media keys are built:
// <user>/hiking_media/<record>/<unixmillis>_<seq>.<ext>
func MediaObjectKey(userID, recordID uuid.UUID, seq int, ext string, now time.Time) string {
	ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
	return fmt.Sprintf("%s%d_%d.%s", MediaRecordPrefix(userID, recordID), now.UnixMilli(), seq, ext)
}

// MediaRecordPrefix covers every object uploaded for one record.
func MediaRecordPrefix(userID, recordID uuid.UUID) string {
	return fmt.Sprintf("%s/hiking_media/%s/", userID.String(), recordID.String())
}

// AvatarObjectKey is versioned so CDNs never serve a stale avatar.
func AvatarObjectKey(userID uuid.UUID, now time.Time) string {
	return fmt.Sprintf("user_avatar/%s/%d.png", userID.String(), now.UnixNano())
}
