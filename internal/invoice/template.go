package invoice

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/canteenconnect/api/internal/model"
)

const defaultTemplate = `CanteenConnect Invoice
Order: {{.OrderID}}
Customer: {{.CustomerName}}

{{range .Lines}}- {{.Name}} x{{.Quantity}} @ {{.Price}} = {{.Subtotal}}
{{end}}
Total: {{.TotalAmount}}
Payment: {{.PaymentMethod}} ({{.PaymentStatus}})

Show this code at the counter to collect your order: {{.PickupCode}}
`

// TemplateRenderer renders invoices locally with text/template.
type TemplateRenderer struct {
	tmpl *template.Template
}

// NewTemplateRenderer parses text, or the built-in layout when text is empty.
func NewTemplateRenderer(text string) (*TemplateRenderer, error) {
	if text == "" {
		text = defaultTemplate
	}
	tmpl, err := template.New("invoice").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse invoice template: %w", err)
	}
	return &TemplateRenderer{tmpl: tmpl}, nil
}

func (r *TemplateRenderer) Render(ctx context.Context, order model.Order) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var b strings.Builder
	if err := r.tmpl.Execute(&b, NewPayload(order)); err != nil {
		return "", fmt.Errorf("execute invoice template: %w", err)
	}
	return b.String(), nil
}
