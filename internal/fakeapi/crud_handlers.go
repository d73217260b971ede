package fakeapi

import (
	"net/http"
	"net/url"

	"golang.org/x/crypto/bcrypt"
)

// ListHandler serves a filtered, sorted page of a collection. extra adds
// fixed filters taken from the route, such as a product id.
func (s *Server) ListHandler(name string, extra func(r *http.Request) url.Values) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if extra != nil {
			for k, v := range extra(r) {
				q[k] = v
			}
		}
		s.lock.RLock()
		page, p := query(s.collections[name].items, q)
		data := publicAll(page)
		s.lock.RUnlock()

		writeJSON(w, http.StatusOK, map[string]any{
			"success":    true,
			"data":       data,
			"total":      p.Total,
			"pagination": p,
		})
	}
}

func (s *Server) GetHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.lock.RLock()
		defer s.lock.RUnlock()
		c := s.collections[name]
		i := c.indexOf(r.PathValue("id"))
		if i < 0 {
			writeError(w, http.StatusNotFound, c.label+" not found")
			return
		}
		writeData(w, http.StatusOK, public(c.items[i]))
	}
}

func (s *Server) CreateHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := record{}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		s.lock.Lock()
		defer s.lock.Unlock()
		c := s.collections[name]
		if name == CollectionInvoices && str(body["invoiceNumber"]) == "" {
			body["invoiceNumber"] = nextInvoiceNumber(c)
		}
		if err := c.validate(body, ""); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"success": true,
			"message": c.label + " created successfully",
			"data":    public(c.insert(body)),
		})
	}
}

func (s *Server) UpdateHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := record{}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		s.lock.Lock()
		defer s.lock.Unlock()
		c := s.collections[name]
		id := r.PathValue("id")
		i := c.indexOf(id)
		if i < 0 {
			writeError(w, http.StatusNotFound, c.label+" not found")
			return
		}

		merged := make(record, len(c.items[i]))
		for k, v := range c.items[i] {
			merged[k] = v
		}
		for k, v := range body {
			merged[k] = v
		}
		if err := c.validate(merged, id); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if password := str(body["password"]); name == CollectionUsers && password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to hash password")
				return
			}
			delete(body, "password")
			body["passwordHash"] = string(hash)
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"message": c.label + " updated successfully",
			"data":    public(c.update(i, body)),
		})
	}
}

func (s *Server) DeleteHandler(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.lock.Lock()
		defer s.lock.Unlock()
		c := s.collections[name]
		id := r.PathValue("id")
		i := c.indexOf(id)
		if i < 0 {
			writeError(w, http.StatusNotFound, c.label+" not found")
			return
		}
		c.remove(i)
		if name == CollectionInvoices {
			delete(s.pods, id)
		}
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": c.label + " deleted successfully"})
	}
}
