package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"text/template"
	"time"

	"github.com/avikom/catersync/internal/models"
	"github.com/avikom/catersync/pkg/api"
)

// orderView pairs a cached record with its decoded order payload for
// template rendering.
type orderView struct {
	Record *models.Record
	Order  models.Order
}

func (c *Cli) runList(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing collection. Usage: catersync list <collection>")
	}

	kind, err := parseKind(args[0])
	if err != nil {
		return err
	}

	query, err := parseListFlags(args[1:])
	if err != nil {
		return err
	}

	entityCache, err := c.caches.For(kind)
	if err != nil {
		return err
	}

	records, err := entityCache.FetchAndCache(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", kind, err)
	}

	if kind == models.KindOrders {
		return c.renderOrders(records)
	}
	return c.render(recordListTemplate, records)
}

// parseListFlags parses the list command's filter flags.
func parseListFlags(args []string) (api.ListQuery, error) {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	status := fs.String("status", "", "Filter by order status")
	search := fs.String("search", "", "Case-insensitive substring search")
	from := fs.String("from", "", "Delivery window start (RFC 3339)")
	to := fs.String("to", "", "Delivery window end (RFC 3339)")
	limit := fs.Int("limit", 0, "Page size")
	offset := fs.Int("offset", 0, "Page offset")
	if err := fs.Parse(args); err != nil {
		return api.ListQuery{}, err
	}

	query := api.ListQuery{
		Status: *status,
		Search: *search,
		Limit:  *limit,
		Offset: *offset,
	}
	if *from != "" {
		t, err := time.Parse(time.RFC3339, *from)
		if err != nil {
			return api.ListQuery{}, fmt.Errorf("invalid --from: expected RFC 3339 timestamp")
		}
		query.From = t
	}
	if *to != "" {
		t, err := time.Parse(time.RFC3339, *to)
		if err != nil {
			return api.ListQuery{}, fmt.Errorf("invalid --to: expected RFC 3339 timestamp")
		}
		query.To = t
	}
	return query, nil
}

func (c *Cli) renderOrders(records []*models.Record) error {
	views := make([]orderView, 0, len(records))
	for _, rec := range records {
		view := orderView{Record: rec}
		if err := json.Unmarshal(rec.Payload, &view.Order); err != nil {
			return fmt.Errorf("malformed order payload %s: %w", rec.LocalID, err)
		}
		views = append(views, view)
	}
	return c.render(orderListTemplate, views)
}

// render executes a template straight into the command's output.
func (c *Cli) render(tmpl string, data any) error {
	t, err := template.New("out").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}
	if err := t.Execute(c.io, data); err != nil {
		return fmt.Errorf("failed to render output: %w", err)
	}
	return nil
}
