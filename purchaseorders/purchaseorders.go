package purchaseorders

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-bizadmin-client/apierror"
	"github.com/jrsteele09/go-bizadmin-client/customers"
	"github.com/jrsteele09/go-bizadmin-client/resource"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

const (
	EmailPath      = "/email/email"
	DefaultTimeout = 30 * time.Second
	dateLayout     = "2006-01-02"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

type DeliveryType string

const (
	NormalDelivery     DeliveryType = "NORMAL_DELIVERY"
	ThirdPartyDelivery DeliveryType = "THIRD_PARTY_DELIVERY"
)

type Item struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	PackSize    string  `json:"packSize"`
	Nos         int     `json:"nos"`
	TotalQty    float64 `json:"totalQty"`
	ProductID   string  `json:"productId,omitempty"`
}

type PurchaseOrder struct {
	Email                string              `json:"email"`
	SupplierName         string              `json:"supplierName"`
	Items                []Item              `json:"items"`
	OrderDate            string              `json:"orderDate"`
	DeliveryType         DeliveryType        `json:"deliveryType"`
	ExpectedDeliveryDate string              `json:"expectedDeliveryDate"`
	Remarks              string              `json:"remarks"`
	ThirdPartyCustomer   *customers.Customer `json:"thirdPartyCustomer,omitempty"`
}

// New returns a blank order dated today with one empty line.
func New() PurchaseOrder {
	return PurchaseOrder{
		OrderDate:    NowTimeFunc().Format(dateLayout),
		DeliveryType: NormalDelivery,
		Items:        []Item{{Nos: 1, TotalQty: 1}},
	}
}

func (po PurchaseOrder) Validate() error {
	if strings.TrimSpace(po.Email) == "" {
		return fmt.Errorf("supplier email is required")
	}
	if strings.TrimSpace(po.SupplierName) == "" {
		return fmt.Errorf("supplier name is required")
	}
	if len(po.Items) == 0 {
		return fmt.Errorf("at least one item is required")
	}
	for i, item := range po.Items {
		if strings.TrimSpace(item.Name) == "" {
			return fmt.Errorf("item %d: name is required", i+1)
		}
	}
	if po.OrderDate != "" {
		if _, err := time.Parse(dateLayout, po.OrderDate); err != nil {
			return fmt.Errorf("order date must be YYYY-MM-DD")
		}
	}
	if po.DeliveryType == ThirdPartyDelivery && po.ThirdPartyCustomer == nil {
		return fmt.Errorf("third party delivery needs a customer")
	}
	return nil
}

type Sender struct {
	client  resource.Doer
	timeout time.Duration
	logger  zerolog.Logger
}

type SenderOption func(*Sender)

func WithTimeout(d time.Duration) SenderOption {
	return func(s *Sender) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(l zerolog.Logger) SenderOption {
	return func(s *Sender) {
		s.logger = l
	}
}

func NewSender(client resource.Doer, opts ...SenderOption) *Sender {
	s := &Sender{client: client, timeout: DefaultTimeout, logger: log.Logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send emails po to the supplier and returns the confirmation message.
// The customer is only sent for third party deliveries.
func (s *Sender) Send(ctx context.Context, po PurchaseOrder) (string, error) {
	if err := po.Validate(); err != nil {
		return "", &apierror.ValidationError{Message: err.Error(), Cause: err}
	}
	if po.DeliveryType != ThirdPartyDelivery {
		po.ThirdPartyCustomer = nil
	}
	req, err := resource.JSONRequest(http.MethodPost, EmailPath, po)
	if err != nil {
		return "", err
	}
	req.Timeout = s.timeout

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("send purchase order to %s: %w", po.Email, err)
	}
	message := gjson.GetBytes(resp.Body, "message").String()
	if message == "" {
		message = "Purchase order sent successfully!"
	}
	s.logger.Info().Str("supplier", po.SupplierName).Int("items", len(po.Items)).Msg("purchase order sent")
	return message, nil
}
