package customers

import (
	"time"

	"github.com/jrsteele09/go-bizadmin-client/resource"
)

const BasePath = "/customer"

type Customer struct {
	resource.Identity
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	GSTNumber string    `json:"gstNumber,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`
}

type Store struct {
	*resource.Store[Customer]
}

func NewStore(client resource.Doer, opts ...resource.Option) *Store {
	return &Store{
		Store: resource.New[Customer](client, resource.Config{Name: "customers", BasePath: BasePath}, opts...),
	}
}
