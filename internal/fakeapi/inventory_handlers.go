package fakeapi

import (
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type bulkStatusRequest struct {
	RollIDs       []string `json:"rollIds"`
	Status        string   `json:"status"`
	InvoiceNumber string   `json:"invoiceNumber"`
}

func productFilter(r *http.Request) url.Values {
	return url.Values{"productId": {r.PathValue("productId")}}
}

func availableFilter(r *http.Request) url.Values {
	return url.Values{"productId": {r.PathValue("productId")}, "status": {"available"}}
}

func soldFilter(*http.Request) url.Values {
	return url.Values{"status": {"sold"}}
}

// InventoryMatchHandler returns every roll whose field equals the path value, unpaged.
func (s *Server) InventoryMatchHandler(field, pathValue string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		want := r.PathValue(pathValue)
		s.lock.RLock()
		var out []record
		for _, rec := range s.collections[CollectionInventory].items {
			if str(rec[field]) == want {
				out = append(out, public(rec))
			}
		}
		s.lock.RUnlock()
		if out == nil {
			out = []record{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": out, "total": len(out)})
	}
}

// BulkStatusHandler moves many rolls to one status. Sold rolls record the sale
// time and invoice; available rolls drop both.
func (s *Server) BulkStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req bulkStatusRequest
		if err := decodeBody(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if len(req.RollIDs) == 0 {
			writeError(w, http.StatusBadRequest, "rollIds must be a non-empty array")
			return
		}
		if req.Status == "" {
			writeError(w, http.StatusBadRequest, "status is required")
			return
		}
		ids := make(map[string]bool, len(req.RollIDs))
		for _, id := range req.RollIDs {
			ids[id] = true
		}

		s.lock.Lock()
		defer s.lock.Unlock()
		now := NowTimeFunc().UTC().Format(time.RFC3339Nano)
		updated := 0
		for _, rec := range s.collections[CollectionInventory].items {
			if !ids[str(rec["rollId"])] {
				continue
			}
			rec["status"] = req.Status
			rec["updatedAt"] = now
			switch req.Status {
			case "sold":
				rec["soldAt"] = now
				if req.InvoiceNumber != "" {
					rec["invoiceNumber"] = req.InvoiceNumber
				}
			case "available":
				delete(rec, "soldAt")
				delete(rec, "invoiceNumber")
			}
			updated++
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success":      true,
			"updatedCount": updated,
			"message":      fmt.Sprintf("%d inventory items updated to %s", updated, req.Status),
		})
	}
}

type statusRequest struct {
	IsActive *bool `json:"isActive"`
}

func (s *Server) TransporterStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req statusRequest
		if err := decodeBody(r, &req); err != nil || req.IsActive == nil {
			writeError(w, http.StatusBadRequest, "isActive must be a boolean")
			return
		}
		s.lock.Lock()
		defer s.lock.Unlock()
		c := s.collections[CollectionTransporters]
		i := c.indexOf(r.PathValue("id"))
		if i < 0 {
			writeError(w, http.StatusNotFound, "Transporter not found")
			return
		}
		writeData(w, http.StatusOK, public(c.update(i, record{"isActive": *req.IsActive})))
	}
}
