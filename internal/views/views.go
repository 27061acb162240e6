package views

import (
	"embed"
	"html/template"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/imrishuroy/go-pos-frontend/internal/cart"
	"github.com/imrishuroy/go-pos-frontend/internal/purchase"
	"github.com/imrishuroy/go-pos-frontend/internal/validation"
)

//go:embed templates/*.html
var files embed.FS

// Template names.
const (
	IndexPage   = "index.html"
	POSPage     = "pos.html"
	HistoryPage = "history.html"
)

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"money": Money,
	}).ParseFS(files, "templates/*.html"))
}

// POS is the model of the POS screen.
type POS struct {
	Code         string
	Product      *validation.Product
	Message      string
	Lines        []cart.Line
	Totals       cart.Totals
	CanPurchase  bool
	Confirmation *purchase.Confirmation
	Notice       string
}

// History is the model of the transaction history screen.
type History struct {
	Transaction *validation.Transaction
	Error       string
}

var yen = message.NewPrinter(language.Japanese)

// Money renders an amount with Japanese digit grouping, e.g. 12,345 or
// 1,234.5. The fractional digits are kept as recorded.
func Money(d decimal.Decimal) string {
	abs := d.Abs()
	s := yen.Sprintf("%d", abs.IntPart())
	if _, frac, ok := strings.Cut(abs.String(), "."); ok {
		s += "." + frac
	}
	if d.IsNegative() {
		s = "-" + s
	}
	return s
}
