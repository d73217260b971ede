package transactions

import (
	"time"

	"github.com/jrsteele09/go-bizadmin-client/resource"
)

const BasePath = "/transaction"

// Kind separates money received from money paid out.
type Kind string

const (
	KindCredit Kind = "credit"
	KindDebit  Kind = "debit"
)

type Transaction struct {
	resource.Identity
	Kind          Kind      `json:"type,omitempty"`
	Amount        float64   `json:"amount"`
	CustomerID    string    `json:"customerId,omitempty"`
	BankID        string    `json:"bankId,omitempty"`
	InvoiceNumber string    `json:"invoiceNumber,omitempty"`
	Reference     string    `json:"reference,omitempty"`
	Date          time.Time `json:"date,omitzero"`
	CreatedAt     time.Time `json:"createdAt,omitzero"`
}

type Store struct {
	*resource.Store[Transaction]
}

func NewStore(client resource.Doer, opts ...resource.Option) *Store {
	return &Store{
		Store: resource.New[Transaction](client, resource.Config{Name: "transactions", BasePath: BasePath}, opts...),
	}
}

// Balance sums the loaded page: credits minus debits.
func (s *Store) Balance() float64 {
	var total float64
	for _, t := range s.Items() {
		switch t.Kind {
		case KindCredit:
			total += t.Amount
		case KindDebit:
			total -= t.Amount
		}
	}
	return total
}
