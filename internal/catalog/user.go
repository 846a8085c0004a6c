package catalog

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/revittco/storeadmin/internal/validate"
)

var (
	nameRe     = regexp.MustCompile(`^[A-Za-z]+$`)
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	emailRe    = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)
	cityRe     = regexp.MustCompile(`^[A-Za-z ]+$`)
	streetRe   = regexp.MustCompile(`^[A-Za-z]+[ ][A-Za-z]+$`)
)

// User is a customer account record.
type User struct {
	ID       ID      `json:"id"`
	Name     Name    `json:"name"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	Address  Address `json:"address"`
}

// Name is a split personal name.
type Name struct {
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// UnmarshalJSON accepts the object form and a single "First Last" string,
// which the users CRUD backend returns for its seed records.
func (n *Name) UnmarshalJSON(b []byte) error {
	if bytes.HasPrefix(bytes.TrimSpace(b), []byte(`"`)) {
		var full string
		if err := json.Unmarshal(b, &full); err != nil {
			return err
		}
		first, last, _ := strings.Cut(strings.TrimSpace(full), " ")
		*n = Name{Firstname: first, Lastname: strings.TrimSpace(last)}
		return nil
	}
	type plain Name
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*n = Name(p)
	return nil
}

// Address is a postal address.
type Address struct {
	City    string `json:"city"`
	Street  string `json:"street"`
	Zipcode string `json:"zipcode"`
}

// EntityID implements resource.Entity.
func (u User) EntityID() int { return int(u.ID) }

// UserDraft holds the editable fields of a user.
type UserDraft struct {
	Name     Name    `json:"name"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Phone    string  `json:"phone"`
	Address  Address `json:"address"`
}

// DraftFromUser prefills an editor from an existing user.
func DraftFromUser(u User) UserDraft {
	return UserDraft{
		Name:     u.Name,
		Username: u.Username,
		Email:    u.Email,
		Phone:    u.Phone,
		Address:  u.Address,
	}
}

// Validate checks every field and returns *validate.Errors on failure.
func (d UserDraft) Validate() error {
	var c validate.Checker
	c.Field("firstname", d.Name.Firstname).Required("First Name is required").Pattern(nameRe, "Invalid First Name")
	c.Field("lastname", d.Name.Lastname).Required("Last Name is required").Pattern(nameRe, "Invalid Last Name")
	c.Field("username", d.Username).Required("Username is required").Pattern(usernameRe, "Invalid Username")
	c.Field("email", d.Email).Required("Email is required").Pattern(emailRe, "Invalid Email")
	c.Field("phone", d.Phone).Required("Phone is required").MinLength(10, "Phone must be at least 10 characters")
	c.Field("city", d.Address.City).Required("City is required").Pattern(cityRe, "Invalid City")
	c.Field("street", d.Address.Street).Required("Street is required").Pattern(streetRe, "Invalid Street")
	c.Field("zipcode", d.Address.Zipcode).Required("Zipcode is required").MinLength(5, "Zipcode must be at least 5 characters")
	return c.Err()
}

// ValidEmail reports whether s looks like an email address, using the same
// rule as the user editor.
func ValidEmail(s string) bool {
	return emailRe.MatchString(s)
}
