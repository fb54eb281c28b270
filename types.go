package authredis

import (
	"encoding/json"
	"time"
)

// User is the framework's user record. Beyond the declared fields it carries
// arbitrary profile data in Extra, which is folded into (and out of) the
// stored JSON document at the top level.
//
// Date-valued fields are declared per entity rather than sniffed from text:
// EmailVerified is the only date field of a User, serialized as RFC 3339.
type User struct {
	ID            string
	Name          string
	Email         string
	EmailVerified *time.Time
	Image         string
	Extra         map[string]any
}

// Account links a [User] to an external identity-provider identity. Its
// composite id is derived from Provider and ProviderAccountID, never stored
// independently.
type Account struct {
	ID                string `json:"id"`
	UserID            string `json:"userId"`
	Type              string `json:"type,omitempty"`
	Provider          string `json:"provider"`
	ProviderAccountID string `json:"providerAccountId"`
	RefreshToken      string `json:"refresh_token,omitempty"`
	AccessToken       string `json:"access_token,omitempty"`
	ExpiresAt         int64  `json:"expires_at,omitempty"`
	TokenType         string `json:"token_type,omitempty"`
	Scope             string `json:"scope,omitempty"`
	IDToken           string `json:"id_token,omitempty"`
	SessionState      string `json:"session_state,omitempty"`
}

// Session is an active login session, keyed by its opaque SessionToken.
type Session struct {
	SessionToken string    `json:"sessionToken"`
	UserID       string    `json:"userId"`
	Expires      time.Time `json:"expires"`
}

// VerificationToken is a single-use token for email verification or
// passwordless login. Consuming it deletes the stored record.
type VerificationToken struct {
	Identifier string    `json:"identifier"`
	Token      string    `json:"token"`
	Expires    time.Time `json:"expires"`
}

// userField names are reserved in the stored document; everything else
// round-trips through Extra.
var userFields = map[string]struct{}{
	"id":            {},
	"name":          {},
	"email":         {},
	"emailVerified": {},
	"image":         {},
}

// MarshalJSON flattens Extra into the top-level object alongside the declared
// fields. Declared fields win on name collisions.
func (u User) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(u.Extra)+5)
	for k, v := range u.Extra {
		if _, reserved := userFields[k]; reserved {
			continue
		}
		doc[k] = v
	}
	doc["id"] = u.ID
	if u.Name != "" {
		doc["name"] = u.Name
	}
	if u.Email != "" {
		doc["email"] = u.Email
	}
	if u.EmailVerified != nil {
		doc["emailVerified"] = u.EmailVerified.UTC().Format(time.RFC3339Nano)
	}
	if u.Image != "" {
		doc["image"] = u.Image
	}
	return json.Marshal(doc)
}

// UnmarshalJSON splits the stored document back into declared fields and
// Extra. Only the declared date field is parsed as a time; free-text values
// that merely look like timestamps stay strings.
func (u *User) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	*u = User{}
	for key, raw := range doc {
		switch key {
		case "id":
			if err := json.Unmarshal(raw, &u.ID); err != nil {
				return err
			}
		case "name":
			if err := json.Unmarshal(raw, &u.Name); err != nil {
				return err
			}
		case "email":
			if err := json.Unmarshal(raw, &u.Email); err != nil {
				return err
			}
		case "emailVerified":
			var text string
			if err := json.Unmarshal(raw, &text); err != nil {
				return err
			}
			ts, err := time.Parse(time.RFC3339Nano, text)
			if err != nil {
				return err
			}
			u.EmailVerified = &ts
		case "image":
			if err := json.Unmarshal(raw, &u.Image); err != nil {
				return err
			}
		default:
			var val any
			if err := json.Unmarshal(raw, &val); err != nil {
				return err
			}
			if u.Extra == nil {
				u.Extra = make(map[string]any)
			}
			u.Extra[key] = val
		}
	}
	return nil
}

// merge overlays the present fields of patch onto u (shallow merge: zero
// fields of patch leave u untouched, Extra merges key-by-key).
func (u *User) merge(patch User) {
	if patch.Name != "" {
		u.Name = patch.Name
	}
	if patch.Email != "" {
		u.Email = patch.Email
	}
	if patch.EmailVerified != nil {
		u.EmailVerified = patch.EmailVerified
	}
	if patch.Image != "" {
		u.Image = patch.Image
	}
	for k, v := range patch.Extra {
		if u.Extra == nil {
			u.Extra = make(map[string]any)
		}
		u.Extra[k] = v
	}
}

func (s *Session) merge(patch Session) {
	if patch.UserID != "" {
		s.UserID = patch.UserID
	}
	if !patch.Expires.IsZero() {
		s.Expires = patch.Expires
	}
}
