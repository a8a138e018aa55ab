package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	fieldID          = "_id"
	fieldAltID       = "id"
	fieldFirstName   = "firstName"
	fieldLastName    = "lastName"
	fieldEmail       = "email"
	fieldPhone       = "phone"
	fieldAccessToken = "accessToken"
)

// User is the signed-in agent. Profile fields the client does not model are
// kept in Extra so a merge with fresh profile data never drops them.
type User struct {
	ID          string
	AltID       string
	FirstName   string
	LastName    string
	Email       string
	Phone       string
	AccessToken string
	Extra       map[string]any

	// blank holds known keys that arrived as "" so they survive a round trip.
	blank map[string]bool
}

// AgentID returns the primary id, falling back to the alias.
func (u *User) AgentID() string {
	if u == nil {
		return ""
	}
	if u.ID != "" {
		return u.ID
	}
	return u.AltID
}

func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Fields flattens the user into its wire representation.
func (u *User) Fields() map[string]any {
	fields := make(map[string]any, len(u.Extra)+7)
	for k, v := range u.Extra {
		fields[k] = v
	}

	set := func(key, value string) {
		if value != "" || u.blank[key] {
			fields[key] = value
		}
	}
	set(fieldID, u.ID)
	set(fieldAltID, u.AltID)
	set(fieldFirstName, u.FirstName)
	set(fieldLastName, u.LastName)
	set(fieldEmail, u.Email)
	set(fieldPhone, u.Phone)
	set(fieldAccessToken, u.AccessToken)
	return fields
}

// Merge returns a new user: the receiver shallowly overwritten by patch.
// A nil receiver merges onto an empty user.
func (u *User) Merge(patch map[string]any) *User {
	base := map[string]any{}
	if u != nil {
		base = u.Fields()
	}
	for k, v := range patch {
		base[k] = v
	}
	return UserFromFields(base)
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	return UserFromFields(u.Fields())
}

func UserFromFields(fields map[string]any) *User {
	u := &User{Extra: map[string]any{}}
	for k, v := range fields {
		s, isString := v.(string)
		if !isString {
			u.Extra[k] = v
			continue
		}
		if s == "" && isKnownField(k) {
			if u.blank == nil {
				u.blank = map[string]bool{}
			}
			u.blank[k] = true
		}
		switch k {
		case fieldID:
			u.ID = s
		case fieldAltID:
			u.AltID = s
		case fieldFirstName:
			u.FirstName = s
		case fieldLastName:
			u.LastName = s
		case fieldEmail:
			u.Email = s
		case fieldPhone:
			u.Phone = s
		case fieldAccessToken:
			u.AccessToken = s
		default:
			u.Extra[k] = v
		}
	}
	return u
}

func isKnownField(key string) bool {
	switch key {
	case fieldID, fieldAltID, fieldFirstName, fieldLastName, fieldEmail, fieldPhone, fieldAccessToken:
		return true
	}
	return false
}

func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Fields())
}

func (u *User) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return fmt.Errorf("user payload is null")
	}
	*u = *UserFromFields(fields)
	return nil
}

// ParseUser decodes a persisted user. A user without any id is rejected.
func ParseUser(raw string) (*User, error) {
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		return nil, fmt.Errorf("decode stored user: %w", err)
	}
	if u.AgentID() == "" {
		return nil, fmt.Errorf("stored user has no id")
	}
	return &u, nil
}
