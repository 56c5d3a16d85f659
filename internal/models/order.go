package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusConfirmed      OrderStatus = "Order Confirmed"
	StatusProcessing     OrderStatus = "Processing"
	StatusOutForDelivery OrderStatus = "Out for Delivery"
	StatusDelivered      OrderStatus = "Delivered"
	StatusCancelled      OrderStatus = "Cancelled"
	StatusReturned       OrderStatus = "Returned"
)

// OrderStatuses lists the statuses in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusConfirmed,
	StatusProcessing,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
	StatusReturned,
}

func (s OrderStatus) Valid() bool {
	return slices.Contains(OrderStatuses, s)
}

// Terminal reports whether the order can no longer be cancelled.
func (s OrderStatus) Terminal() bool {
	switch s {
	case StatusDelivered, StatusCancelled, StatusReturned:
		return true
	}
	return false
}

// Order is created once from a validated cart. Items are a snapshot and are
// never edited afterwards.
type Order struct {
	ID              string          `json:"id"`
	BuyerID         string          `json:"buyerId"`
	BuyerName       string          `json:"buyerName"`
	BuyerEmail      string          `json:"buyerEmail"`
	BuyerPhone      string          `json:"buyerPhone"`
	Items           []LineItem      `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"deliveryFee"`
	Total           decimal.Decimal `json:"total"`
	PaymentMethod   string          `json:"paymentMethod"`
	PaymentID       string          `json:"paymentId"`
	DeliveryAddress DeliveryAddress `json:"deliveryAddress"`
	Status          OrderStatus     `json:"status"`
	CancelReason    string          `json:"cancelReason,omitempty"`
	ReturnReason    string          `json:"returnReason,omitempty"`
	Logistics       Timeline        `json:"logistics"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// HasSeller reports whether any line references a product of sellerID.
func (o Order) HasSeller(sellerID string) bool {
	for _, item := range o.Items {
		if item.SellerID == sellerID {
			return true
		}
	}
	return false
}

// SellerIDs returns the distinct sellers in line order.
func (o Order) SellerIDs() []string {
	ids := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		if item.SellerID != "" && !slices.Contains(ids, item.SellerID) {
			ids = append(ids, item.SellerID)
		}
	}
	return ids
}

// Clone returns a copy whose item slice is not shared with o.
func (o Order) Clone() Order {
	o.Items = slices.Clone(o.Items)
	return o
}
