package types

import "time"

// AvatarEntry records where the cached avatar bytes of a user live.
type AvatarEntry struct {
	// UserID is the upstream user id the avatar belongs to.
	UserID int `json:"user_id" bson:"userId"`

	// Hash is the MD5 hex digest of the image bytes and doubles as the
	// storage key.
	Hash string `json:"hash" bson:"hash"`

	// FilePath is the location reported by the storage backend.
	FilePath string `json:"file_path" bson:"filePath"`

	CreatedAt time.Time `json:"created_at" bson:"createdAt"`
}
