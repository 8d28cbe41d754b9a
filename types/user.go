package types

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// User represents a user record created through the signup endpoint.
// Records are immutable once stored.
type User struct {
	// ID is the public identifier of the user.
	ID string `json:"id" bson:"_id"`

	// Email is the user's email address. It is not unique.
	Email string `json:"email" bson:"email"`

	// FirstName is the user's given name.
	FirstName string `json:"first_name,omitempty" bson:"first_name,omitempty"`

	// LastName is the user's family name.
	LastName string `json:"last_name,omitempty" bson:"last_name,omitempty"`

	// Name is the canonical display name. When both FirstName and LastName
	// are present it is derived from them.
	Name string `json:"name,omitempty" bson:"name,omitempty"`

	// Avatar is the URL of the user's avatar image.
	Avatar string `json:"avatar,omitempty" bson:"avatar,omitempty"`

	// CreatedAt is store metadata and is never exposed.
	CreatedAt time.Time `json:"-" bson:"created_at"`
}

// Normalize trims all fields and derives Name from FirstName and LastName.
func (u User) Normalize() User {
	u.Email = strings.TrimSpace(u.Email)
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	u.Name = strings.TrimSpace(u.Name)
	u.Avatar = strings.TrimSpace(u.Avatar)
	if u.FirstName != "" && u.LastName != "" {
		u.Name = u.FirstName + " " + u.LastName
	}
	return u
}

// Profile is a user as returned by the upstream lookup API.
// The typed fields are filled best-effort for internal use: a field whose
// upstream value has an unexpected JSON type is left zero instead of failing
// the decode. Marshaling a Profile reproduces the upstream JSON unchanged.
type Profile struct {
	ID        int    `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Avatar    string `json:"avatar"`

	raw json.RawMessage
}

type profileFields Profile

func (p *Profile) UnmarshalJSON(data []byte) error {
	if !json.Valid(data) {
		return errors.New("profile: invalid json")
	}
	*p = Profile{raw: append(json.RawMessage(nil), data...)}

	var members map[string]json.RawMessage
	if err := json.Unmarshal(data, &members); err != nil {
		// Not an object; only the raw payload is kept.
		return nil
	}
	decodeMember(members, "id", &p.ID)
	decodeMember(members, "email", &p.Email)
	decodeMember(members, "first_name", &p.FirstName)
	decodeMember(members, "last_name", &p.LastName)
	decodeMember(members, "avatar", &p.Avatar)
	return nil
}

func decodeMember[T any](members map[string]json.RawMessage, key string, dst *T) {
	value, ok := members[key]
	if !ok {
		return
	}
	var v T
	if err := json.Unmarshal(value, &v); err == nil {
		*dst = v
	}
}

func (p Profile) MarshalJSON() ([]byte, error) {
	if len(p.raw) > 0 {
		return p.raw, nil
	}
	return json.Marshal(profileFields(p))
}
