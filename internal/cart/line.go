// Package cart owns the per-session shopping cart and decides, from the current
// identity, whether it lives on the device or in the account's remote document.
package cart

import (
	"strings"

	"github.com/angelmondragon/aquadrop/internal/catalog"
	pkgerrors "github.com/angelmondragon/aquadrop/pkg/errors"
	"github.com/angelmondragon/aquadrop/pkg/money"
	"github.com/shopspring/decimal"
)

// Line is one product in the cart. Quantity is always at least 1.
type Line struct {
	ProductID string  `json:"product_id" firestore:"productId"`
	Name      string  `json:"name" firestore:"name"`
	Price     float64 `json:"price" firestore:"price"`
	Quantity  int     `json:"quantity" firestore:"quantity"`
	VendorID  string  `json:"vendor_id" firestore:"vendorId"`
	ImageRef  string  `json:"image_ref,omitempty" firestore:"image,omitempty"`
}

// Lines is a cart's content in insertion order.
type Lines []Line

// Clone returns an independent copy. A nil receiver yields an empty, non-nil slice.
func (l Lines) Clone() Lines {
	out := make(Lines, len(l))
	copy(out, l)
	return out
}

func (l Lines) index(productID string) int {
	for i := range l {
		if l[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// without returns l minus the line for productID.
func (l Lines) without(productID string) Lines {
	i := l.index(productID)
	if i < 0 {
		return l
	}
	return append(l[:i:i], l[i+1:]...)
}

// Total is Σ price × quantity, computed in decimal.
func (l Lines) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range l {
		total = total.Add(money.LineTotal(line.Price, line.Quantity))
	}
	return total
}

// Count is the number of units across lines.
func (l Lines) Count() int {
	n := 0
	for _, line := range l {
		n += line.Quantity
	}
	return n
}

// ByVendor groups lines by vendor, keeping first-seen vendor order.
func (l Lines) ByVendor() ([]string, map[string]Lines) {
	order := []string{}
	groups := map[string]Lines{}
	for _, line := range l {
		if _, ok := groups[line.VendorID]; !ok {
			order = append(order, line.VendorID)
		}
		groups[line.VendorID] = append(groups[line.VendorID], line)
	}
	return order, groups
}

// normalize drops lines that break the cart invariants: empty ids, quantity
// below 1, negative prices. Duplicate product ids are folded into the first.
func (l Lines) normalize() Lines {
	out := make(Lines, 0, len(l))
	for _, line := range l {
		line.ProductID = strings.TrimSpace(line.ProductID)
		if line.ProductID == "" || line.Quantity < 1 || line.Price < 0 {
			continue
		}
		if i := out.index(line.ProductID); i >= 0 {
			out[i].Quantity += line.Quantity
			continue
		}
		out = append(out, line)
	}
	return out
}

// merge adds other's quantities into l per product id and appends unseen products.
func (l Lines) merge(other Lines) Lines {
	out := l.Clone()
	for _, line := range other {
		if i := out.index(line.ProductID); i >= 0 {
			out[i].Quantity += line.Quantity
			continue
		}
		out = append(out, line)
	}
	return out
}

// lineFromProduct validates p and converts it into a fresh line with quantity 1.
func lineFromProduct(p catalog.Product) (Line, error) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if p.Price < 0 {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "product price must be zero or more")
	}
	return Line{
		ProductID: id,
		Name:      p.Name,
		Price:     p.Price,
		Quantity:  1,
		VendorID:  p.VendorID,
		ImageRef:  p.ImageRef,
	}, nil
}
