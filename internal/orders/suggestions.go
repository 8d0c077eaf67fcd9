package orders

import (
	"fmt"

	"github.com/angelmondragon/aquadrop/internal/catalog"
	"github.com/angelmondragon/aquadrop/pkg/enums"
)

// minCatalogSize is the product count below which vendors are nudged to add more.
const minCatalogSize = 5

// Suggestions derives dashboard hints from a vendor's products and orders.
func Suggestions(products []catalog.Product, orders []Order) []Suggestion {
	out := []Suggestion{}

	low := 0
	for _, p := range products {
		if p.LowStock() {
			low++
		}
	}
	if low > 0 {
		out = append(out, Suggestion{
			ID:      "low-stock",
			Type:    "warning",
			Title:   "Low Stock Alert",
			Message: fmt.Sprintf("%d product(s) have low stock levels. Reorder soon to avoid missing sales.", low),
			Action:  "Reorder Products",
		})
	}

	if len(products) > 0 {
		top := products[0]
		for _, p := range products[1:] {
			if p.Stock > top.Stock {
				top = p
			}
		}
		out = append(out, Suggestion{
			ID:      "popular-product",
			Type:    "info",
			Title:   "Popular Item",
			Message: fmt.Sprintf("%q is your most stocked product. Consider promoting it.", top.Name),
			Action:  "Promote",
		})
	}

	if len(products) < minCatalogSize {
		out = append(out, Suggestion{
			ID:      "add-products",
			Type:    "tip",
			Title:   "Add More Products",
			Message: fmt.Sprintf("You have %d product(s). A wider range helps shoppers find you.", len(products)),
			Action:  "Add Product",
		})
	}

	pending := 0
	for _, o := range orders {
		if o.Status == enums.OrderStatusPending {
			pending++
		}
	}
	if pending > 0 {
		out = append(out, Suggestion{
			ID:      "pending-orders",
			Type:    "urgent",
			Title:   "Pending Orders",
			Message: fmt.Sprintf("You have %d pending order(s). Accept them quickly to improve your rating.", pending),
			Action:  "View Orders",
		})
	}
	return out
}
