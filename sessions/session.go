package sessions

import (
	"github.com/jrsteele09/go-bizadmin-client/users"
)

// Session is the authentication state of the client.
// AccessToken empty implies User nil.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *users.User
}

func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// Credentials is the payload of the login endpoint.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func copyUser(u *users.User) *users.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
