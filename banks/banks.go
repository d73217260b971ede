package banks

import (
	"time"

	"github.com/jrsteele09/go-bizadmin-client/resource"
)

const BasePath = "/bank"

type Bank struct {
	resource.Identity
	BankName      string    `json:"bankName,omitempty"`
	AccountName   string    `json:"accountName,omitempty"`
	AccountNumber string    `json:"accountNumber,omitempty"`
	IFSCCode      string    `json:"ifscCode,omitempty"`
	Branch        string    `json:"branch,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitzero"`
	UpdatedAt     time.Time `json:"updatedAt,omitzero"`
}

type Store struct {
	*resource.Store[Bank]
}

func NewStore(client resource.Doer, opts ...resource.Option) *Store {
	return &Store{
		Store: resource.New[Bank](client, resource.Config{Name: "banks", BasePath: BasePath}, opts...),
	}
}
