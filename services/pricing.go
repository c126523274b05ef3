package services

import "github.com/Nappiz/tcmudah-storefront/models"

// PriceLookup resolves a class id to its catalog entry.
type PriceLookup interface {
	Lookup(id string) (models.ClassItem, bool)
}

// TotalAmount sums qty * price over lines that resolve in the catalog.
// Unresolved ids contribute nothing.
func TotalAmount(lines []models.CartLine, catalog PriceLookup) int64 {
	var total int64
	for _, l := range lines {
		if item, ok := catalog.Lookup(l.ID); ok {
			total += int64(l.Qty) * item.Price
		}
	}
	return total
}

// PriceCart builds the display view of a cart.
func PriceCart(lines []models.CartLine, catalog PriceLookup) models.CartView {
	view := models.CartView{Lines: make([]models.PricedLine, 0, len(lines))}
	for _, l := range lines {
		pl := models.PricedLine{ID: l.ID, Qty: l.Qty}
		if item, ok := catalog.Lookup(l.ID); ok {
			pl.Title = item.Title
			pl.UnitPrice = item.Price
			pl.Subtotal = int64(l.Qty) * item.Price
			pl.Resolved = true
			view.TotalAmount += pl.Subtotal
		}
		view.TotalCount += l.Qty
		view.Lines = append(view.Lines, pl)
	}
	return view
}

func orderItems(lines []models.CartLine) []models.OrderItem {
	items := make([]models.OrderItem, len(lines))
	for i, l := range lines {
		items[i] = models.OrderItem{ClassID: l.ID, Qty: l.Qty}
	}
	return items
}
