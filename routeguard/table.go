package routeguard

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Route is one navigable view. Path segments may be static, ":param",
// ":param?" (optional, trailing only) or "*" (rest of the path).
type Route struct {
	Name         string `yaml:"name"`
	Path         string `yaml:"path"`
	RequiresAuth bool   `yaml:"requiresAuth"`
}

// Table is an ordered route list; the first matching route wins.
// Login and Landing name the routes used for redirects.
type Table struct {
	Login   string  `yaml:"login"`
	Landing string  `yaml:"landing"`
	Routes  []Route `yaml:"routes"`
}

// Validate checks that the redirect targets exist and names are unique.
func (t Table) Validate() error {
	seen := make(map[string]struct{}, len(t.Routes))
	for _, r := range t.Routes {
		if r.Name == "" || r.Path == "" {
			return fmt.Errorf("route %q: name and path are required", r.Name+r.Path)
		}
		if _, dup := seen[r.Name]; dup {
			return fmt.Errorf("route %q declared twice", r.Name)
		}
		seen[r.Name] = struct{}{}
	}
	login, ok := t.Lookup(t.Login)
	if !ok {
		return fmt.Errorf("login route %q not in table", t.Login)
	}
	if login.RequiresAuth {
		return errors.New("login route cannot require authentication")
	}
	if _, ok := t.Lookup(t.Landing); !ok {
		return fmt.Errorf("landing route %q not in table", t.Landing)
	}
	return nil
}

func (t Table) Lookup(name string) (Route, bool) {
	for _, r := range t.Routes {
		if r.Name == name {
			return r, true
		}
	}
	return Route{}, false
}

// Match finds the first route matching path and returns its parameters.
func (t Table) Match(path string) (Route, map[string]string, bool) {
	for _, r := range t.Routes {
		if params, ok := match(r.Path, path); ok {
			return r, params, true
		}
	}
	return Route{}, nil, false
}

// match compares pattern and path segment by segment. Static segments ignore case.
func match(pattern, path string) (map[string]string, bool) {
	pat := segments(pattern)
	segs := segments(path)
	params := map[string]string{}

	for i, p := range pat {
		switch {
		case p == "*":
			params["*"] = strings.Join(segs[min(i, len(segs)):], "/")
			return params, true
		case strings.HasPrefix(p, ":") && strings.HasSuffix(p, "?"):
			if i >= len(segs) {
				continue
			}
			params[strings.TrimSuffix(p[1:], "?")] = segs[i]
		case i >= len(segs):
			return nil, false
		case strings.HasPrefix(p, ":"):
			params[p[1:]] = segs[i]
		case !strings.EqualFold(p, segs[i]):
			return nil, false
		}
	}
	if len(segs) > len(pat) {
		return nil, false
	}
	return params, true
}

func segments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// ParseTable decodes a YAML route table and validates it.
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Table{}, fmt.Errorf("parse route table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return Table{}, fmt.Errorf("route table: %w", err)
	}
	return t, nil
}

func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("read route table: %w", err)
	}
	return ParseTable(data)
}

// Marshal renders t as YAML, the format LoadTable reads.
func (t Table) Marshal() ([]byte, error) {
	return yaml.Marshal(t)
}

// DefaultTable is the admin application's route table.
func DefaultTable() Table {
	protected := func(name, path string) Route {
		return Route{Name: name, Path: path, RequiresAuth: true}
	}
	return Table{
		Login:   "login",
		Landing: "userDashboard",
		Routes: []Route{
			{Name: "login", Path: "/"},
			protected("userDashboard", "/dashboard"),
			protected("customerList", "/customer"),
			protected("customerDetail", "/customer/:id"),
			protected("productList", "/product"),
			protected("inventoryList", "/inventory"),
			protected("productDetail", "/product/:id"),
			protected("inventoryImportCSV", "/inventory/import-csv"),
			protected("inventoryDetail", "/inventory/:id"),
			protected("addProduct", "/addproduct"),
			protected("editProduct", "/addproduct/:id"),
			protected("addInventory", "/addinventory"),
			protected("batchAddInventory", "/BatchAddinventory"),
			protected("editInventory", "/addinventory/:id"),
			protected("invoiceList", "/invoice"),
			protected("invoiceDetail", "/invoice/:id"),
			protected("addInvoice", "/addinvoice"),
			protected("editInvoice", "/addinvoice/:id"),
			protected("addCustomer", "/addcustomer"),
			protected("editCustomer", "/addcustomer/:id"),
			protected("bankList", "/banks"),
			protected("bankDetail", "/bank/:id?"),
			protected("addBank", "/addbank"),
			protected("editBank", "/addbank/:id"),
			protected("userList", "/user"),
			protected("userDetail", "/user/:id"),
			protected("addUser", "/adduser"),
			protected("editUser", "/adduser/:id"),
			protected("sendPurchaseOrder", "/SendPurchaseOrder"),
			protected("addTransporter", "/addtransporter"),
			protected("editTransporter", "/addtransporter/:id"),
			protected("viewTransporter", "/transporter/:id"),
			protected("transporterList", "/transporter"),
			protected("monthlySummary", "/monthlysummary"),
			protected("visualData", "/visualdata"),
			protected("customerInvoiceSummary", "/customer-invoices"),
			{Name: "notFound", Path: "*"},
		},
	}
}
