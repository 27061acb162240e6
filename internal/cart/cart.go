package cart

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

// Cart is an ordered collection of lines, unique by product id.
// Every retained line has a positive quantity.
type Cart struct {
	mu    sync.Mutex
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// NewLine builds the line for a freshly looked-up product, quantity 1.
func NewLine(productID int64, code, name string, priceExTax, priceInTax decimal.Decimal) Line {
	return Line{
		ProductID:  productID,
		Code:       code,
		Name:       name,
		PriceExTax: priceExTax,
		PriceInTax: priceInTax,
		Quantity:   1,
	}
}

// InsertNewLine appends a line for a product that is not yet in the cart.
func (c *Cart) InsertNewLine(line Line) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.insertLocked(line)
}

// AdjustQuantity adds delta to the quantity of an existing line. A line whose
// quantity drops to zero or below is removed. It returns the resulting
// quantity, 0 when the line was removed.
func (c *Cart) AdjustQuantity(productID int64, delta int) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.adjustLocked(productID, delta)
}

// AddOrMerge inserts line when its product is absent; otherwise line.Quantity
// is applied as a delta to the existing line.
func (c *Cart) AddOrMerge(line Line) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.indexOf(line.ProductID) >= 0 {
		_, err := c.adjustLocked(line.ProductID, line.Quantity)
		return err
	}
	return c.insertLocked(line)
}

// Contains reports whether the product has a line in the cart.
func (c *Cart) Contains(productID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.indexOf(productID) >= 0
}

// Clear removes all lines.
func (c *Cart) Clear() {
	c.mu.Lock()
	c.lines = nil
	c.mu.Unlock()
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Cart) IsEmpty() bool { return c.Len() == 0 }

// PurchaseItems snapshots the (product, quantity) pairs. Later mutations do
// not affect the returned slice.
func (c *Cart) PurchaseItems() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	items := make([]Item, 0, len(c.lines))
	for _, l := range c.lines {
		items = append(items, Item{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return items
}

// Totals sums price * quantity over all lines for both prices.
func (c *Cart) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := Totals{ExTax: decimal.Zero, InTax: decimal.Zero}
	for _, l := range c.lines {
		t.ExTax = t.ExTax.Add(l.AmountExTax())
		t.InTax = t.InTax.Add(l.AmountInTax())
	}
	return t
}

func (c *Cart) insertLocked(line Line) error {
	if line.Quantity <= 0 {
		return fmt.Errorf("insert product %d: %w", line.ProductID, ErrInvalidQuantity)
	}
	if line.PriceExTax.IsNegative() || line.PriceInTax.IsNegative() || line.PriceExTax.GreaterThan(line.PriceInTax) {
		return fmt.Errorf("insert product %d: %w", line.ProductID, ErrInvalidPrice)
	}
	if c.indexOf(line.ProductID) >= 0 {
		return fmt.Errorf("insert product %d: %w", line.ProductID, ErrLineExists)
	}
	c.lines = append(c.lines, line)
	return nil
}

func (c *Cart) adjustLocked(productID int64, delta int) (int, error) {
	idx := c.indexOf(productID)
	if idx < 0 {
		return 0, fmt.Errorf("adjust product %d: %w", productID, ErrLineNotFound)
	}
	qty := c.lines[idx].Quantity + delta
	if qty <= 0 {
		c.lines = append(c.lines[:idx], c.lines[idx+1:]...)
		return 0, nil
	}
	c.lines[idx].Quantity = qty
	return qty, nil
}

func (c *Cart) indexOf(productID int64) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}
