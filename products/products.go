package products

import (
	"time"

	"github.com/jrsteele09/go-bizadmin-client/resource"
)

const BasePath = "/product"

type Product struct {
	resource.Identity
	Name        string    `json:"name,omitempty"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type,omitempty"`
	HSNCode     string    `json:"hsnCode,omitempty"`
	Price       float64   `json:"price,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitzero"`
	UpdatedAt   time.Time `json:"updatedAt,omitzero"`
}

type Store struct {
	*resource.Store[Product]
}

func NewStore(client resource.Doer, opts ...resource.Option) *Store {
	return &Store{
		Store: resource.New[Product](client, resource.Config{Name: "products", BasePath: BasePath}, opts...),
	}
}
