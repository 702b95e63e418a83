package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSnapshot is the view of a product the cart needs when an item is added or repriced.
type ProductSnapshot struct {
	ID       uuid.UUID
	Name     string
	Price    decimal.Decimal
	Stock    int
	ImageURL string
}

// Item is one cart entry.
type Item struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// LineTotal returns quantity times unit price.
func (i Item) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart holds a session's entries in insertion order. A product appears at most once.
type Cart struct {
	Entries   []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AddResult reports the entry quantity after an Add and whether it was clamped to stock.
type AddResult struct {
	Quantity int
	Clamped  bool
}

// Shortage describes an entry that can no longer be fulfilled as requested.
type Shortage struct {
	ProductID uuid.UUID `json:"product_id"`
	Name      string    `json:"name"`
	Requested int       `json:"requested"`
	Available int       `json:"available"`
}

func New() *Cart {
	return &Cart{}
}

func (c *Cart) indexOf(productID uuid.UUID) int {
	for i := range c.Entries {
		if c.Entries[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Add merges qty units of p into the cart, clamping the entry to p.Stock.
// A product with no stock leaves the cart unchanged and returns ErrOutOfStock.
func (c *Cart) Add(p ProductSnapshot, qty int) (AddResult, error) {
	if qty <= 0 {
		return AddResult{}, ErrInvalidQuantity
	}
	if p.Price.IsNegative() {
		return AddResult{}, ErrInvalidPrice
	}
	if p.Stock <= 0 {
		return AddResult{}, ErrOutOfStock
	}

	idx := c.indexOf(p.ID)
	want := qty
	if idx >= 0 {
		want += c.Entries[idx].Quantity
	}

	result := AddResult{Quantity: want}
	if want > p.Stock {
		result = AddResult{Quantity: p.Stock, Clamped: true}
	}

	item := Item{
		ProductID: p.ID,
		Name:      p.Name,
		ImageURL:  p.ImageURL,
		Quantity:  result.Quantity,
		UnitPrice: p.Price,
	}
	if idx >= 0 {
		c.Entries[idx] = item
	} else {
		c.Entries = append(c.Entries, item)
	}
	c.touch()

	return result, nil
}

// Remove drops the entry for productID. Missing entries are ignored.
func (c *Cart) Remove(productID uuid.UUID) {
	idx := c.indexOf(productID)
	if idx < 0 {
		return
	}
	c.Entries = append(c.Entries[:idx], c.Entries[idx+1:]...)
	c.touch()
}

// SetQuantity replaces the entry quantity. qty <= 0 removes the entry.
func (c *Cart) SetQuantity(p ProductSnapshot, qty int) (AddResult, error) {
	idx := c.indexOf(p.ID)
	if idx < 0 {
		return AddResult{}, ErrItemNotFound
	}
	if qty <= 0 {
		c.Remove(p.ID)
		return AddResult{}, nil
	}
	if p.Stock <= 0 {
		c.Remove(p.ID)
		return AddResult{}, ErrOutOfStock
	}

	result := AddResult{Quantity: qty}
	if qty > p.Stock {
		result = AddResult{Quantity: p.Stock, Clamped: true}
	}
	c.Entries[idx].Quantity = result.Quantity
	c.Entries[idx].UnitPrice = p.Price
	c.touch()

	return result, nil
}

// Total is the sum of every line total. Prices and quantities are never negative, so neither is the total.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Entries {
		total = total.Add(item.LineTotal())
	}
	return total
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Entries {
		n += item.Quantity
	}
	return n
}

func (c *Cart) IsEmpty() bool {
	return len(c.Entries) == 0
}

func (c *Cart) Clear() {
	c.Entries = nil
	c.touch()
}

// Items returns a copy of the entries in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.Entries))
	copy(out, c.Entries)
	return out
}

// ProductIDs lists the products in the cart.
func (c *Cart) ProductIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Entries))
	for _, item := range c.Entries {
		ids = append(ids, item.ProductID)
	}
	return ids
}

// Reconcile reprices every entry from current and returns entries that exceed stock
// or whose product no longer exists. Quantities are left as requested.
func (c *Cart) Reconcile(current map[uuid.UUID]ProductSnapshot) []Shortage {
	var shortages []Shortage
	for i := range c.Entries {
		item := &c.Entries[i]
		p, ok := current[item.ProductID]
		if !ok {
			shortages = append(shortages, Shortage{
				ProductID: item.ProductID,
				Name:      item.Name,
				Requested: item.Quantity,
			})
			continue
		}
		item.Name = p.Name
		item.UnitPrice = p.Price
		if item.Quantity > p.Stock {
			shortages = append(shortages, Shortage{
				ProductID: item.ProductID,
				Name:      p.Name,
				Requested: item.Quantity,
				Available: p.Stock,
			})
		}
	}
	return shortages
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}
