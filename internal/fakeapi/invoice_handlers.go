package fakeapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"
)

const maxUploadMemory = 32 << 20

type storedPOD struct {
	meta record
	data []byte
}

// SentEmail is one message accepted by the email endpoints.
type SentEmail struct {
	Kind    string
	To      string
	Subject string
	Fields  map[string]string
	Files   []string // field:filename
}

func nextInvoiceNumber(c *collection) string {
	for n := len(c.items) + 1; ; n++ {
		candidate := fmt.Sprintf("INV-%04d", n)
		if c.validate(record{"invoiceNumber": candidate}, "") == nil {
			return candidate
		}
	}
}

func (s *Server) UploadPODHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			writeError(w, http.StatusBadRequest, "Expected a multipart form")
			return
		}
		file, header, err := r.FormFile("podFile")
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "podFile is required")
			return
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read podFile")
			return
		}

		s.lock.Lock()
		defer s.lock.Unlock()
		invoices := s.collections[CollectionInvoices]
		i := invoices.indexOf(id)
		if i < 0 {
			writeError(w, http.StatusNotFound, "Invoice not found")
			return
		}
		uploadedBy := r.FormValue("uploadedBy")
		if uploadedBy == "" {
			uploadedBy, _ = claimsFrom(r)["email"].(string)
		}
		meta := record{
			"fileName":      header.Filename,
			"contentType":   header.Header.Get("Content-Type"),
			"size":          len(data),
			"deliveryNotes": r.FormValue("deliveryNotes"),
			"uploadedBy":    uploadedBy,
			"uploadedAt":    NowTimeFunc().UTC().Format(time.RFC3339Nano),
		}
		s.pods[id] = storedPOD{meta: meta, data: data}
		invoices.update(i, record{"pod": meta})
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "POD uploaded successfully!", "data": meta})
	}
}

// GetPODHandler returns the POD metadata to JSON clients and the file to everyone else.
func (s *Server) GetPODHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.lock.RLock()
		pod, ok := s.pods[r.PathValue("id")]
		s.lock.RUnlock()
		if !ok {
			writeError(w, http.StatusNotFound, "POD not found")
			return
		}
		if strings.Contains(r.Header.Get("Accept"), "application/json") {
			writeData(w, http.StatusOK, pod.meta)
			return
		}
		contentType := str(pod.meta["contentType"])
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", str(pod.meta["fileName"])))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(pod.data)
	}
}

// MonthlyTotalsHandler sums invoice amounts per month, optionally for one year.
func (s *Server) MonthlyTotalsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		year := r.URL.Query().Get("year")
		s.lock.RLock()
		invoices := filterByDate(s.collections[CollectionInvoices].items, r)
		s.lock.RUnlock()

		type period struct {
			Period       string  `json:"period"`
			Year         int     `json:"year"`
			Month        int     `json:"month"`
			TotalAmount  float64 `json:"totalAmount"`
			InvoiceCount int     `json:"invoiceCount"`
		}
		months := map[string]*period{}
		var total float64
		count := 0
		for _, inv := range invoices {
			t := recordTime(inv)
			if year != "" && fmt.Sprint(t.Year()) != year {
				continue
			}
			key := t.Format("2006-01")
			p, ok := months[key]
			if !ok {
				p = &period{Period: key, Year: t.Year(), Month: int(t.Month())}
				months[key] = p
			}
			amount := num(inv["totalAmount"])
			p.TotalAmount += amount
			p.InvoiceCount++
			total += amount
			count++
		}
		breakdown := make([]period, 0, len(months))
		for _, p := range months {
			breakdown = append(breakdown, *p)
		}
		sort.Slice(breakdown, func(i, j int) bool { return breakdown[i].Period < breakdown[j].Period })

		average := 0.0
		if count > 0 {
			average = total / float64(count)
		}
		writeData(w, http.StatusOK, map[string]any{
			"periodBreakdown": breakdown,
			"overallStatistics": map[string]any{
				"totalAmount":    total,
				"totalInvoices":  count,
				"averageInvoice": average,
			},
		})
	}
}

func (s *Server) InvoiceEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			writeError(w, http.StatusBadRequest, "Expected a multipart form")
			return
		}
		to := r.FormValue("email")
		if to == "" {
			writeError(w, http.StatusUnprocessableEntity, "email is required")
			return
		}
		if _, _, err := r.FormFile("invoice"); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invoice PDF is required")
			return
		}
		sent := SentEmail{Kind: "invoice", To: to, Subject: r.FormValue("subject"), Fields: map[string]string{}}
		for k, v := range r.MultipartForm.Value {
			sent.Fields[k] = v[0]
		}
		sent.Files = formFiles(r.MultipartForm)

		s.lock.Lock()
		s.emails = append(s.emails, sent)
		s.lock.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Invoice sent successfully to " + to})
	}
}

func (s *Server) PurchaseOrderEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := record{}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		to := str(body["email"])
		if to == "" || str(body["supplierName"]) == "" {
			writeError(w, http.StatusUnprocessableEntity, "email and supplierName are required")
			return
		}
		items, _ := body["items"].([]any)
		if len(items) == 0 {
			writeError(w, http.StatusUnprocessableEntity, "at least one item is required")
			return
		}
		sent := SentEmail{Kind: "purchaseOrder", To: to, Subject: "Purchase Order", Fields: map[string]string{}}
		for k, v := range body {
			if s, ok := v.(string); ok {
				sent.Fields[k] = s
			}
		}
		if customer, ok := body["thirdPartyCustomer"].(map[string]any); ok {
			sent.Fields["thirdPartyCustomer"] = str(customer["name"])
		}
		s.lock.Lock()
		s.emails = append(s.emails, sent)
		s.lock.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Purchase order sent to " + to})
	}
}

func formFiles(form *multipart.Form) []string {
	var files []string
	for field, headers := range form.File {
		for _, h := range headers {
			files = append(files, field+":"+h.Filename)
		}
	}
	sort.Strings(files)
	return files
}
