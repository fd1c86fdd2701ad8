package notifications

import (
	"bytes"
	"fmt"
	"html/template"

	"plantshop/internal/models"

	"github.com/shopspring/decimal"
)

const customerStatusTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2d1f;">
  <h2>Order #{{.OrderID}}</h2>
  {{if .Cancelled}}
  <p style="padding: 12px; background: #fde2e2; color: #8a1c1c;">Your order has been cancelled.</p>
  {{else}}
  <p>Thank you for shopping with us. Here is where your order stands:</p>
  <ol>
    {{range .Steps}}
    <li style="{{if .Done}}font-weight: bold; color: #2e7d32;{{else}}color: #9e9e9e;{{end}}">{{.Label}}</li>
    {{end}}
  </ol>
  {{end}}
  <p>Total: {{.Total}}</p>
  {{if .OrdersURL}}<p><a href="{{.OrdersURL}}">View your orders</a></p>{{end}}
</body>
</html>`

const operatorNewOrderTemplate = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif;">
  <h2>New order #{{.OrderID}}</h2>
  <p>Customer: {{.Customer}}{{if .Email}} &lt;{{.Email}}&gt;{{end}}</p>
  {{if .Address}}<p>Address: {{.Address}}</p>{{end}}
  <table cellpadding="6" border="1" style="border-collapse: collapse;">
    <tr><th>Product</th><th>Qty</th><th>Price</th><th>Sum</th></tr>
    {{range .Lines}}
    <tr><td>{{.Name}}</td><td>{{.Quantity}}</td><td>{{.Price}}</td><td>{{.Total}}</td></tr>
    {{end}}
  </table>
  <p><strong>Total: {{.Total}}</strong></p>
  {{if .AdminURL}}<p><a href="{{.AdminURL}}">Open the order board</a></p>{{end}}
</body>
</html>`

type step struct {
	Label string
	Done  bool
}

type customerView struct {
	OrderID   uint
	Cancelled bool
	Steps     []step
	Total     string
	OrdersURL string
}

type lineView struct {
	Name     string
	Quantity int
	Price    string
	Total    string
}

type operatorView struct {
	OrderID  uint
	Customer string
	Email    string
	Address  string
	Lines    []lineView
	Total    string
	AdminURL string
}

var progress = []struct {
	status models.OrderStatus
	label  string
}{
	{models.StatusNew, "Received"},
	{models.StatusInProgress, "Being prepared"},
	{models.StatusReady, "Ready for pickup"},
}

// Renderer builds the HTML bodies of order emails.
type Renderer struct {
	customer *template.Template
	operator *template.Template
	baseURL  string
	currency string
}

// NewRenderer parses the email templates. baseURL is used for links, currency is
// appended to every amount.
func NewRenderer(baseURL, currency string) *Renderer {
	return &Renderer{
		customer: template.Must(template.New("customer").Parse(customerStatusTemplate)),
		operator: template.Must(template.New("operator").Parse(operatorNewOrderTemplate)),
		baseURL:  baseURL,
		currency: currency,
	}
}

// Money formats an amount in minor units, e.g. 150050 as "1500.50 ₽".
func (r *Renderer) Money(minor int64) string {
	amount := decimal.New(minor, -2).StringFixed(2)
	if r.currency == "" {
		return amount
	}
	return amount + " " + r.currency
}

func (r *Renderer) CustomerStatus(order *models.Order) (string, error) {
	view := customerView{
		OrderID:   order.ID,
		Cancelled: order.Status == models.StatusCancelled,
		Total:     r.Money(order.Total),
	}
	if r.baseURL != "" {
		view.OrdersURL = r.baseURL + "/orders"
	}
	reached := true
	for _, p := range progress {
		view.Steps = append(view.Steps, step{Label: p.label, Done: reached})
		if p.status == order.Status {
			reached = false
		}
	}
	return render(r.customer, view)
}

func (r *Renderer) OperatorNewOrder(order *models.Order) (string, error) {
	view := operatorView{
		OrderID: order.ID,
		Total:   r.Money(order.Total),
	}
	if order.User != nil {
		view.Customer = order.User.FullName()
		if view.Customer == "" {
			view.Customer = order.User.Username
		}
		view.Email = order.User.Email
		view.Address = order.User.Address
	}
	if r.baseURL != "" {
		view.AdminURL = fmt.Sprintf("%s/admin/orders/%d", r.baseURL, order.ID)
	}
	for _, item := range order.Items {
		view.Lines = append(view.Lines, lineView{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    r.Money(item.Price),
			Total:    r.Money(item.Total()),
		})
	}
	return render(r.operator, view)
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
