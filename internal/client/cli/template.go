package cli

const usageText = `CaterSync Client

Usage:
  catersync [OPTIONS] COMMAND

Options:
  --version      Show version information
  --server URL   Server URL (default: http://localhost:8080)
  --db PATH      Path to local database (default: catersync-client.db)

Commands:
  register                         Register new account
  login                            Login to server
  logout                           Logout and drop the stored session
  status                           Show session and sync status
  list <collection> [flags]        List cached records
  get <collection> <id>            Show one record
  create <collection> [--file F]   Create a record
  update <collection> <id> [--file F]
                                   Update a record
  delete <collection> <id>         Delete a record
  sync                             Push queued changes to the server
  retry                            Re-arm permanently failed queue items
  pending                          Show the outstanding sync queue
  conflicts                        List unresolved conflicts
  resolve <id> <strategy> [--file F]
                                   Resolve a conflict (keep-local,
                                   keep-server, or merged with --file)

Collections: orders, clients, caterers, airports, fbos, menu_items

List flags (orders):
  --status S    Filter by order status
  --search TEXT Case-insensitive substring search
  --from TIME   Delivery window start (RFC 3339)
  --to TIME     Delivery window end (RFC 3339)
  --limit N     Page size
  --offset N    Page offset

Examples:
  catersync login
  catersync list orders --status confirmed --limit 20
  catersync create orders
  catersync update orders b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5 --file order.json
  catersync sync
  catersync resolve b692f5c0-2d88-4aa1-a9e1-13aa6e4976d5 keep-local
`

const orderListTemplate = `
{{- if eq (len .) 0 }}
No orders found.

Use 'catersync create orders' to add your first order.
{{ else }}
Found {{len .}} order(s):
{{ range . }}
- {{ .Order.ClientName }}{{ if .Order.TailNumber }} ({{ .Order.TailNumber }}){{ end }}
   ID:       {{ .Record.LocalID }}
   Delivery: {{ .Order.DeliveryAt.Format "2006-01-02 15:04 MST" }}
   Status:   {{ if .Order.Status }}{{ .Order.Status }}{{ else }}-{{ end }}
   Total:    ${{ printf "%.2f" .Order.Total }}
   Sync:     {{ .Record.Status }}
{{ end }}
{{- end }}
`

const orderDetailTemplate = `
Client:    {{ .Order.ClientName }}
ID:        {{ .Record.LocalID }}
{{- if .Record.ServerID }}
Server ID: {{ .Record.ServerID }}
{{- end }}
{{- if .Order.TailNumber }}
Tail:      {{ .Order.TailNumber }}
{{- end }}
Delivery:  {{ .Order.DeliveryAt.Format "2006-01-02 15:04 MST" }}
Status:    {{ if .Order.Status }}{{ .Order.Status }}{{ else }}-{{ end }}
Sync:      {{ .Record.Status }}
{{- if .Order.Items }}

Items:
{{- range .Order.Items }}
  {{ .Quantity }} x {{ .Name }} @ ${{ printf "%.2f" .UnitPrice }}{{ if .Notes }}  ({{ .Notes }}){{ end }}
{{- end }}
{{- end }}

Subtotal:  ${{ printf "%.2f" .Order.Subtotal }}
{{- if .Order.DeliveryFee }}
Delivery:  ${{ printf "%.2f" .Order.DeliveryFee }}
{{- end }}
{{- if .Order.GratuityPct }}
Gratuity:  {{ printf "%.1f" .Order.GratuityPct }}%
{{- end }}
Total:     ${{ printf "%.2f" .Order.Total }}
{{- if .Order.Notes }}

Notes:
{{ .Order.Notes }}
{{- end }}
`

const recordListTemplate = `
{{- if eq (len .) 0 }}
No records found.
{{ else }}
Found {{len .}} record(s):
{{ range . }}
- {{ .LocalID }}
   Sync: {{ .Status }}{{ if .ServerID }}  (server id {{ .ServerID }}){{ end }}
   {{ printf "%s" .Payload }}
{{ end }}
{{- end }}
`
