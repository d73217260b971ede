package users

import (
	"context"
	"fmt"
	"time"
	"unicode"

	"github.com/jrsteele09/go-bizadmin-client/apierror"
	"github.com/jrsteele09/go-bizadmin-client/internal/utils"
	"github.com/jrsteele09/go-bizadmin-client/resource"
	"github.com/jrsteele09/go-bizadmin-client/token"
)

// RoleType is the access level of a backend user
type RoleType string

const (
	RoleAdmin   RoleType = "admin"
	RoleManager RoleType = "manager"
	RoleUser    RoleType = "user"
)

const (
	BasePath     = "/user"
	RegisterPath = "/user/register"
)

type User struct {
	resource.Identity
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Role      RoleType  `json:"role,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	IsActive  *bool     `json:"isActive,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// Active treats accounts without an isActive flag as enabled.
func (u *User) Active() bool {
	return u != nil && utils.ValueOr(u.IsActive, true)
}

// FromClaims builds the identity carried by an access token.
func FromClaims(c token.Claims) *User {
	if c.Subject == "" && c.Email == "" {
		return nil
	}
	return &User{
		Identity: resource.Identity{ObjectID: c.Subject},
		Name:     c.Name,
		Email:    c.Email,
		Role:     RoleType(c.Role),
	}
}

// Registration is the payload of the register endpoint.
type Registration struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Role     RoleType `json:"role,omitempty"`
	Phone    string   `json:"phone,omitempty"`
}

func (r Registration) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	return ValidatePasswordStrength(r.Password)
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

// Store is the user directory. New users are created through the register endpoint.
type Store struct {
	*resource.Store[User]
}

func NewStore(client resource.Doer, opts ...resource.Option) *Store {
	return &Store{
		Store: resource.New[User](client, resource.Config{
			Name:       "users",
			BasePath:   BasePath,
			CreatePath: RegisterPath,
		}, opts...),
	}
}

// Register validates r locally before creating the user.
func (s *Store) Register(ctx context.Context, r Registration) (User, error) {
	if err := r.Validate(); err != nil {
		return User{}, &apierror.ValidationError{Message: err.Error(), Cause: err}
	}
	return s.Create(ctx, r)
}
