package transporters

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/go-bizadmin-client/apierror"
	"github.com/jrsteele09/go-bizadmin-client/internal/utils"
	"github.com/jrsteele09/go-bizadmin-client/resource"
)

const (
	BasePath   = "/transporter"
	SearchPath = "/transporter/search"
)

// OpToggleStatus is the loading flag of ToggleStatus.
const OpToggleStatus resource.Op = "toggleStatus"

type Transporter struct {
	resource.Identity
	Name          string    `json:"name,omitempty"`
	ContactPerson string    `json:"contactPerson,omitempty"`
	Phone         string    `json:"phone,omitempty"`
	Email         string    `json:"email,omitempty"`
	VehicleNumber string    `json:"vehicleNumber,omitempty"`
	GSTNumber     string    `json:"gstNumber,omitempty"`
	Address       string    `json:"address,omitempty"`
	IsActive      *bool     `json:"isActive,omitempty"`
	CreatedAt     time.Time `json:"createdAt,omitzero"`
	UpdatedAt     time.Time `json:"updatedAt,omitzero"`
}

// Active reports isActive, treating a missing flag as inactive.
func (t Transporter) Active() bool {
	return utils.Value(t.IsActive)
}

// Store lists through the search endpoint sorted by name.
type Store struct {
	*resource.Store[Transporter]
	client resource.Doer
}

func NewStore(client resource.Doer, opts ...resource.Option) *Store {
	return &Store{
		Store: resource.New[Transporter](client, resource.Config{
			Name:             "transporters",
			BasePath:         BasePath,
			ListPath:         SearchPath,
			DefaultSort:      "name",
			DefaultDirection: resource.Ascending,
		}, opts...),
		client: client,
	}
}

// ToggleStatus activates or deactivates id and mirrors the flag locally.
func (s *Store) ToggleStatus(ctx context.Context, id string, active bool) (Transporter, error) {
	var t Transporter
	err := s.Do(OpToggleStatus, func() error {
		req, err := resource.JSONRequest(http.MethodPatch, s.ItemPath(id, "status"), map[string]bool{"isActive": active})
		if err != nil {
			return err
		}
		resp, err := s.client.Do(ctx, req)
		if err != nil {
			return fmt.Errorf("transporter %s status: %w: %w", id, apierror.ErrUpdateFailed, err)
		}
		env, err := resource.DecodeItem[Transporter](resp.Body)
		if err != nil {
			return fmt.Errorf("transporter %s status: %w: %w", id, apierror.ErrUpdateFailed, err)
		}
		t = env.Data
		s.PatchItems(func(item *Transporter) bool {
			if item.EntityID() != id {
				return false
			}
			item.IsActive = utils.Ptr(active)
			return true
		})
		return nil
	})
	return t, err
}

// Active returns the loaded transporters that are active.
func (s *Store) Active() []Transporter {
	var out []Transporter
	for _, t := range s.Items() {
		if t.Active() {
			out = append(out, t)
		}
	}
	return out
}

// StatusMessage is the confirmation shown after ToggleStatus.
func StatusMessage(active bool) string {
	if active {
		return "Transporter activated successfully"
	}
	return "Transporter deactivated successfully"
}
