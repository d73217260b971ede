package invoices

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/jrsteele09/go-bizadmin-client/apiclient"
	"github.com/jrsteele09/go-bizadmin-client/apierror"
	"github.com/jrsteele09/go-bizadmin-client/resource"
	"github.com/tidwall/gjson"
)

const (
	BasePath          = "/custprod"
	MonthlyTotalsPath = "/custprod/monthly-totals"
	EmailPath         = "/email/invoice"

	DefaultUploadTimeout = 60 * time.Second
)

// Loading flags of the invoice-specific operations
const (
	OpUploadPOD     resource.Op = "uploadPod"
	OpFetchPOD      resource.Op = "fetchPod"
	OpDownloadPOD   resource.Op = "downloadPod"
	OpSendEmail     resource.Op = "sendEmail"
	OpMonthlyTotals resource.Op = "monthlyTotals"
)

type CustomerRef struct {
	resource.Identity
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type Line struct {
	resource.Identity
	Name     string   `json:"name,omitempty"`
	Quantity float64  `json:"quantity,omitempty"`
	Rate     float64  `json:"rate,omitempty"`
	Amount   float64  `json:"amount,omitempty"`
	RollIDs  []string `json:"rollIds,omitempty"`
}

type Invoice struct {
	resource.Identity
	InvoiceNumber string       `json:"invoiceNumber,omitempty"`
	Customer      *CustomerRef `json:"customer,omitempty"`
	Products      []Line       `json:"products,omitempty"`
	TotalAmount   float64      `json:"totalAmount,omitempty"`
	InvoiceDate   time.Time    `json:"invoiceDate,omitzero"`
	POD           *POD         `json:"pod,omitempty"`
	CreatedAt     time.Time    `json:"createdAt,omitzero"`
	UpdatedAt     time.Time    `json:"updatedAt,omitzero"`
}

// POD is the proof-of-delivery document attached to a delivered invoice.
type POD struct {
	FileName      string    `json:"fileName,omitempty"`
	ContentType   string    `json:"contentType,omitempty"`
	Size          int64     `json:"size,omitempty"`
	DeliveryNotes string    `json:"deliveryNotes,omitempty"`
	UploadedBy    string    `json:"uploadedBy,omitempty"`
	UploadedAt    time.Time `json:"uploadedAt,omitzero"`
}

type PODUpload struct {
	FileName      string
	ContentType   string
	Data          []byte
	DeliveryNotes string
	UploadedBy    string
}

// Attachment is a file sent along with an invoice email.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

type Email struct {
	To            string
	InvoiceNumber string
	CustomerName  string
	Subject       string
	Message       string
	InvoicePDF    []byte
	Challan       *Attachment
	Attachments   []Attachment
}

func (e Email) Validate() error {
	switch {
	case e.To == "":
		return fmt.Errorf("recipient email is required")
	case e.InvoiceNumber == "":
		return fmt.Errorf("invoice number is required")
	case len(e.InvoicePDF) == 0:
		return fmt.Errorf("invoice PDF is required")
	}
	return nil
}

type PeriodTotal struct {
	Period       string  `json:"period"`
	Year         int     `json:"year,omitempty"`
	Month        int     `json:"month,omitempty"`
	TotalAmount  float64 `json:"totalAmount"`
	InvoiceCount int     `json:"invoiceCount"`
}

type Statistics struct {
	TotalAmount    float64 `json:"totalAmount"`
	TotalInvoices  int     `json:"totalInvoices"`
	AverageInvoice float64 `json:"averageInvoice"`
}

type MonthlySummary struct {
	PeriodBreakdown   []PeriodTotal  `json:"periodBreakdown"`
	OverallStatistics *Statistics    `json:"overallStatistics,omitempty"`
	Comparison        map[string]any `json:"comparison,omitempty"`
	Trends            map[string]any `json:"trends,omitempty"`
}

type Store struct {
	*resource.Store[Invoice]
	client        resource.Doer
	uploadTimeout time.Duration

	mu      sync.RWMutex
	pod     *POD
	summary *MonthlySummary
}

// NewStore builds the invoice store. uploadTimeout bounds POD uploads and invoice
// emails; zero means DefaultUploadTimeout.
func NewStore(client resource.Doer, uploadTimeout time.Duration, opts ...resource.Option) *Store {
	if uploadTimeout <= 0 {
		uploadTimeout = DefaultUploadTimeout
	}
	return &Store{
		Store:         resource.New[Invoice](client, resource.Config{Name: "invoices", BasePath: BasePath}, opts...),
		client:        client,
		uploadTimeout: uploadTimeout,
	}
}

// UploadPOD attaches a proof-of-delivery file to invoice id.
func (s *Store) UploadPOD(ctx context.Context, id string, upload PODUpload) (POD, error) {
	if len(upload.Data) == 0 {
		return POD{}, &apierror.ValidationError{Message: "POD file is required"}
	}
	var pod POD
	err := s.Do(OpUploadPOD, func() error {
		form := apiclient.NewForm().
			File(apiclient.File{Field: "podFile", Name: upload.FileName, ContentType: upload.ContentType, Data: upload.Data}).
			Field("deliveryNotes", upload.DeliveryNotes).
			Field("uploadedBy", upload.UploadedBy)
		req, err := form.Request(s.ItemPath(id, "pod"), s.uploadTimeout)
		if err != nil {
			return err
		}
		resp, err := s.client.Do(ctx, req)
		if err != nil {
			return fmt.Errorf("upload POD for %s: %w", id, err)
		}
		if pod, err = decodePOD(resp.Body); err != nil {
			return fmt.Errorf("upload POD for %s: %w", id, err)
		}
		s.setPOD(id, &pod)
		return nil
	})
	return pod, err
}

// FetchPOD loads the POD metadata of invoice id.
func (s *Store) FetchPOD(ctx context.Context, id string) (POD, error) {
	var pod POD
	err := s.Do(OpFetchPOD, func() error {
		resp, err := s.client.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: s.ItemPath(id, "pod")})
		if err != nil {
			s.setPOD(id, nil)
			if apierror.Status(err) == http.StatusNotFound {
				return &apierror.ValidationError{
					Message: "POD not found for this invoice.",
					Cause:   fmt.Errorf("POD for %s: %w", id, apierror.ErrNotFound),
				}
			}
			return fmt.Errorf("fetch POD for %s: %w", id, err)
		}
		if pod, err = decodePOD(resp.Body); err != nil {
			return fmt.Errorf("fetch POD for %s: %w", id, err)
		}
		s.setPOD(id, &pod)
		return nil
	})
	return pod, err
}

// DownloadPOD streams the POD file of invoice id into w.
func (s *Store) DownloadPOD(ctx context.Context, id string, w io.Writer) (int64, error) {
	var n int
	err := s.Do(OpDownloadPOD, func() error {
		resp, err := s.client.Do(ctx, apiclient.Request{
			Method:  http.MethodGet,
			Path:    s.ItemPath(id, "pod"),
			Header:  http.Header{"Accept": []string{"application/octet-stream"}},
			Timeout: s.uploadTimeout,
		})
		if err != nil {
			return fmt.Errorf("download POD for %s: %w", id, err)
		}
		if n, err = w.Write(resp.Body); err != nil {
			return fmt.Errorf("write POD for %s: %w", id, err)
		}
		return nil
	})
	return int64(n), err
}

// POD is the POD loaded by the last UploadPOD or FetchPOD.
func (s *Store) POD() (POD, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pod == nil {
		return POD{}, false
	}
	return *s.pod, true
}

// SendEmail mails the invoice PDF, the optional delivery challan and any extra
// attachments. It returns the server's confirmation message.
func (s *Store) SendEmail(ctx context.Context, e Email) (string, error) {
	if err := e.Validate(); err != nil {
		return "", &apierror.ValidationError{Message: err.Error(), Cause: err}
	}
	var message string
	err := s.Do(OpSendEmail, func() error {
		form := apiclient.NewForm().File(apiclient.File{
			Field:       "invoice",
			Name:        "invoice-" + e.InvoiceNumber + ".pdf",
			ContentType: "application/pdf",
			Data:        e.InvoicePDF,
		})
		if e.Challan != nil {
			form.File(apiclient.File{Field: "challan", Name: e.Challan.Name, ContentType: e.Challan.ContentType, Data: e.Challan.Data})
		}
		for i, a := range e.Attachments {
			form.File(apiclient.File{Field: "attachment_" + strconv.Itoa(i), Name: a.Name, ContentType: a.ContentType, Data: a.Data})
		}
		if len(e.Attachments) > 0 {
			form.Field("additionalFilesCount", strconv.Itoa(len(e.Attachments)))
		}
		form.Field("email", e.To).
			Field("invoiceNumber", e.InvoiceNumber).
			Field("customerName", e.CustomerName).
			Field("subject", e.Subject).
			Field("message", e.Message)

		req, err := form.Request(EmailPath, s.uploadTimeout)
		if err != nil {
			return err
		}
		resp, err := s.client.Do(ctx, req)
		if err != nil {
			return fmt.Errorf("email invoice %s: %w", e.InvoiceNumber, err)
		}
		message = gjson.GetBytes(resp.Body, "message").String()
		if message == "" {
			message = "Invoice sent successfully!"
		}
		return nil
	})
	return message, err
}

// MonthlySummary loads the monthly invoice totals matching filters.
func (s *Store) MonthlySummary(ctx context.Context, filters map[string]any) (MonthlySummary, error) {
	var summary MonthlySummary
	err := s.Do(OpMonthlyTotals, func() error {
		resp, err := s.client.Do(ctx, apiclient.Request{
			Method: http.MethodGet,
			Path:   MonthlyTotalsPath,
			Query:  resource.EncodeFilters(filters),
		})
		var env resource.Envelope[MonthlySummary]
		if err == nil {
			env, err = resource.DecodeItem[MonthlySummary](resp.Body)
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if err != nil {
			s.summary = nil
			return fmt.Errorf("monthly totals: %w", err)
		}
		summary = env.Data
		s.summary = &env.Data
		return nil
	})
	return summary, err
}

func (s *Store) Summary() (MonthlySummary, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return MonthlySummary{}, false
	}
	return *s.summary, true
}

// setPOD records pod and mirrors it onto the loaded invoice.
func (s *Store) setPOD(id string, pod *POD) {
	s.mu.Lock()
	s.pod = pod
	s.mu.Unlock()

	if pod == nil {
		return
	}
	s.PatchItems(func(inv *Invoice) bool {
		if inv.EntityID() != id {
			return false
		}
		p := *pod
		inv.POD = &p
		return true
	})
}

// decodePOD requires the {success, data} envelope around the POD metadata.
func decodePOD(body []byte) (POD, error) {
	env, err := resource.DecodeItem[POD](body)
	if err != nil {
		return POD{}, err
	}
	return env.Data, nil
}
