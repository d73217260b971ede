package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jrsteele09/go-bizadmin-client/analytics"
	"github.com/jrsteele09/go-bizadmin-client/app"
	"github.com/jrsteele09/go-bizadmin-client/inventory"
	"github.com/jrsteele09/go-bizadmin-client/invoices"
	"github.com/jrsteele09/go-bizadmin-client/purchaseorders"
	"github.com/jrsteele09/go-bizadmin-client/resource"
	"github.com/jrsteele09/go-bizadmin-client/sessions"
	"gopkg.in/yaml.v3"
)

func printUsage(out io.Writer) {
	fmt.Fprint(out, `Usage:
  bizadmin <command> [options]

Commands:
  login      Sign in            -email <address> -password <secret> (or BIZADMIN_PASSWORD)
  logout     Sign out and forget the stored tokens
  whoami     Show the signed-in user
  list       List a collection  <collection> [-page n] [-limit n] [-sort field] [-order asc|desc]
                                [-search text] [-filter key=value]...
  get        Show one record    <collection> <id>
  delete     Delete one record  <collection> <id>
  sold       List sold rolls    [-page n] [-limit n]
  rolls      Set roll status    -status <status> [-invoice number] <rollId>...
  pod        Upload a POD       <invoiceId> <file> [-notes text]
  po         Send a purchase order described in a YAML file  <file>
  stats      Show the dashboard counters
  report     Run a report       <kind> [-range preset]
  route      Check navigation   <path>
  api        Raw GET request    <path>

Every command accepts -o json|yaml.

Collections: users customers products banks transactions inventory invoices transporters
`)
}

// filterFlags collects repeated -filter key=value arguments.
type filterFlags map[string]any

func (f filterFlags) String() string {
	parts := make([]string, 0, len(f))
	for k, v := range f {
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (f filterFlags) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok || key == "" {
		return fmt.Errorf("filter must be key=value, got %q", value)
	}
	f[key] = val
	return nil
}

func newFlagSet(name string, out io.Writer) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	format := fs.String("o", "json", "output format: json or yaml")
	return fs, format
}

func dispatch(ctx context.Context, a *app.App, args []string, out io.Writer) error {
	cmd, rest := args[0], args[1:]
	fs, format := newFlagSet(cmd, out)

	switch cmd {
	case "login":
		email := fs.String("email", a.Config.GetAdminEmail(), "account email")
		password := fs.String("password", os.Getenv("BIZADMIN_PASSWORD"), "account password")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		user, err := a.Session.Login(ctx, sessions.Credentials{Email: *email, Password: *password})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Logged in as %s (%s)\n", user.Email, user.Role)
		return nil

	case "logout":
		a.Session.Logout()
		fmt.Fprintln(out, "Logged out")
		return nil

	case "whoami":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		user := a.Session.CurrentUser()
		if user == nil {
			fmt.Fprintln(out, "Not logged in")
			return nil
		}
		return printValue(out, *format, user)

	case "list":
		page := fs.Int("page", 1, "page number")
		limit := fs.Int("limit", a.Config.GetDefaultPageSize(), "page size")
		sortBy := fs.String("sort", "", "sort field")
		order := fs.String("order", "", "sort order: asc or desc")
		search := fs.String("search", "", "free text search")
		filters := filterFlags{}
		fs.Var(filters, "filter", "key=value filter, repeatable")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		c, err := collection(a, fs.Arg(0))
		if err != nil {
			return err
		}
		if *search != "" {
			filters["search"] = *search
		}
		items, total, err := c.List(ctx, resource.Query{
			Page:          *page,
			PageSize:      *limit,
			SortField:     *sortBy,
			SortDirection: resource.Direction(*order),
			Filters:       filters,
		})
		if err != nil {
			return err
		}
		return printValue(out, *format, map[string]any{"total": total, "data": items})

	case "get", "delete":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		c, err := collection(a, fs.Arg(0))
		if err != nil {
			return err
		}
		id := fs.Arg(1)
		if id == "" {
			return fmt.Errorf("%s needs a record id", cmd)
		}
		if cmd == "delete" {
			if err := c.Remove(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted %s %s\n", fs.Arg(0), id)
			return nil
		}
		item, err := c.Detail(ctx, id)
		if err != nil {
			return err
		}
		return printValue(out, *format, item)

	case "sold":
		page := fs.Int("page", 1, "page number")
		limit := fs.Int("limit", a.Config.GetDefaultPageSize(), "page size")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		items, total, err := a.Inventory.FetchSold(ctx, *page, *limit)
		if err != nil {
			return err
		}
		return printValue(out, *format, map[string]any{"total": total, "data": items})

	case "rolls":
		status := fs.String("status", "", "new status: available, reserved, sold or damaged")
		invoice := fs.String("invoice", "", "invoice number for sold rolls")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		result, err := a.Inventory.BulkUpdateStatus(ctx, inventory.BulkStatus{
			RollIDs:       fs.Args(),
			Status:        inventory.Status(*status),
			InvoiceNumber: *invoice,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(out, result.Message)
		return nil

	case "pod":
		notes := fs.String("notes", "", "delivery notes")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		invoiceID, file := fs.Arg(0), fs.Arg(1)
		if invoiceID == "" || file == "" {
			return fmt.Errorf("pod needs an invoice id and a file")
		}
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		var uploadedBy string
		if user := a.Session.CurrentUser(); user != nil {
			uploadedBy = user.Email
		}
		pod, err := a.Invoices.UploadPOD(ctx, invoiceID, invoices.PODUpload{
			FileName:      filepath.Base(file),
			ContentType:   mime.TypeByExtension(filepath.Ext(file)),
			Data:          data,
			DeliveryNotes: *notes,
			UploadedBy:    uploadedBy,
		})
		if err != nil {
			return err
		}
		return printValue(out, *format, pod)

	case "po":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		po, err := readPurchaseOrder(fs.Arg(0))
		if err != nil {
			return err
		}
		message, err := a.PurchaseOrders.Send(ctx, po)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, message)
		return nil

	case "stats":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		stats, err := a.Analytics.DashboardStats(ctx)
		if err != nil {
			return err
		}
		return printValue(out, *format, stats)

	case "report":
		preset := fs.String("range", "", "date range: today, last7Days, last30Days, last90Days, thisMonth, lastMonth, thisYear")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		var filters map[string]any
		if *preset != "" {
			r, ok := analytics.Presets()[*preset]
			if !ok {
				return fmt.Errorf("unknown range %q", *preset)
			}
			filters = r.Filters()
		}
		report, err := a.Analytics.Fetch(ctx, analytics.Kind(fs.Arg(0)), filters)
		if err != nil {
			return err
		}
		return printValue(out, *format, report.Data)

	case "route":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		d := a.Navigate(fs.Arg(0))
		fmt.Fprintf(out, "%s %s", d.Action, d.Route.Name)
		if d.Target.Name != "" {
			fmt.Fprintf(out, " -> %s (%s)", d.Target.Name, d.Target.Path)
		}
		fmt.Fprintln(out)
		return nil

	case "api":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		resp, err := a.Client.Get(ctx, fs.Arg(0), nil)
		if err != nil {
			return err
		}
		return printValue(out, *format, json.RawMessage(resp.Body))
	}

	printUsage(out)
	return fmt.Errorf("unknown command %q", cmd)
}

func collection(a *app.App, name string) (app.Collection, error) {
	c, ok := a.Collections()[name]
	if !ok {
		return app.Collection{}, fmt.Errorf("unknown collection %q, expected one of %s", name, strings.Join(a.CollectionNames(), ", "))
	}
	return c, nil
}

// readPurchaseOrder loads an order from YAML using the same field names as the JSON payload.
func readPurchaseOrder(file string) (purchaseorders.PurchaseOrder, error) {
	po := purchaseorders.New()
	if file == "" {
		return po, fmt.Errorf("po needs a YAML file")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return po, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return po, fmt.Errorf("parse %s: %w", file, err)
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return po, fmt.Errorf("parse %s: %w", file, err)
	}
	if err := json.Unmarshal(raw, &po); err != nil {
		return po, fmt.Errorf("parse %s: %w", file, err)
	}
	return po, nil
}

// printValue writes v as indented JSON, or as YAML with the JSON field names.
func printValue(out io.Writer, format string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	switch format {
	case "json", "":
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "yaml":
		var doc any
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}
