package domain

import (
	"encoding/json"
	"strconv"
)

// User is the operator profile returned by the backend on login and /auth/me.
// Extra holds any fields the client does not model so the cached copy round
// trips unchanged.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username,omitempty"`
	FullName string `json:"fullName,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Role     string `json:"role,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// IDString is the user id in the textual form kept in the credential store.
func (u User) IDString() string { return strconv.FormatInt(u.ID, 10) }

// DisplayName falls back from the full name to the username.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

var userKnownFields = []string{"id", "username", "fullName", "email", "phone", "role"}

// UnmarshalJSON accepts numeric or string ids and keeps unknown fields.
func (u *User) UnmarshalJSON(b []byte) error {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return err
	}
	type plain struct {
		ID       json.Number `json:"id"`
		Username string      `json:"username"`
		FullName string      `json:"fullName"`
		Email    string      `json:"email"`
		Phone    string      `json:"phone"`
		Role     string      `json:"role"`
	}
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	var id int64
	if p.ID != "" {
		n, err := strconv.ParseInt(p.ID.String(), 10, 64)
		if err != nil {
			return err
		}
		id = n
	}
	*u = User{ID: id, Username: p.Username, FullName: p.FullName, Email: p.Email, Phone: p.Phone, Role: p.Role}
	for _, k := range userKnownFields {
		delete(all, k)
	}
	if len(all) > 0 {
		u.Extra = all
	}
	return nil
}

// MarshalJSON writes the modelled fields plus Extra.
func (u User) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(u.Extra)+6)
	for k, v := range u.Extra {
		out[k] = v
	}
	out["id"] = u.ID
	if u.Username != "" {
		out["username"] = u.Username
	}
	if u.FullName != "" {
		out["fullName"] = u.FullName
	}
	if u.Email != "" {
		out["email"] = u.Email
	}
	if u.Phone != "" {
		out["phone"] = u.Phone
	}
	if u.Role != "" {
		out["role"] = u.Role
	}
	return json.Marshal(out)
}
