package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// LineItem is one product/quantity pair. The product fields are a snapshot
// taken when the item was added, so later edits to the product do not leak in.
type LineItem struct {
	ProductID    string          `json:"productId"`
	Name         string          `json:"name"`
	Image        string          `json:"image,omitempty"`
	Unit         string          `json:"unit,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	Stock        int             `json:"stock"`
	SellerID     string          `json:"sellerId"`
	SellerName   string          `json:"sellerName,omitempty"`
	FarmName     string          `json:"farmName,omitempty"`
	FarmLocation string          `json:"farmLocation,omitempty"`
}

func NewLineItem(p Product, quantity int) LineItem {
	return LineItem{
		ProductID:    p.ID,
		Name:         p.Name,
		Image:        p.Image,
		Unit:         p.Unit,
		Price:        p.Price,
		Quantity:     quantity,
		Stock:        p.Stock,
		SellerID:     p.SellerID,
		SellerName:   p.SellerName,
		FarmName:     p.FarmName,
		FarmLocation: p.FarmLocation,
	}
}

func (l LineItem) LineTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// StockViolation flags a line whose quantity exceeds the stock snapshot.
type StockViolation struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

func (v StockViolation) String() string {
	return fmt.Sprintf("%s - Only %d available", v.Name, v.Available)
}

// StockViolations returns one entry per line asking for more than its stock.
func StockViolations(items []LineItem) []StockViolation {
	violations := make([]StockViolation, 0)
	for _, item := range items {
		if item.Quantity > item.Stock {
			violations = append(violations, StockViolation{
				ProductID: item.ProductID,
				Name:      item.Name,
				Requested: item.Quantity,
				Available: item.Stock,
			})
		}
	}
	return violations
}

// Subtotal sums price × quantity over the lines.
func Subtotal(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
