package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices travel as JSON numbers, matching the upstream API.
	decimal.MarshalJSONWithoutQuotes = true
}

type Category string

const (
	CategoryOrganic    Category = "Organic"
	CategoryFertilized Category = "Fertilized"
)

func (c Category) Valid() bool {
	return c == CategoryOrganic || c == CategoryFertilized
}

type ProductStatus string

const (
	ProductPending  ProductStatus = "Pending"
	ProductApproved ProductStatus = "Approved"
	ProductRejected ProductStatus = "Rejected"
)

// Product is a listing owned by a farmer. SellerID is a weak reference.
type Product struct {
	ID              string          `json:"_id"`
	SellerID        string          `json:"sellerId"`
	SellerName      string          `json:"sellerName,omitempty"`
	FarmName        string          `json:"farmName,omitempty"`
	FarmLocation    string          `json:"farmLocation,omitempty"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	Image           string          `json:"image,omitempty"`
	Unit            string          `json:"unit,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Stock           int             `json:"stock"`
	Category        Category        `json:"category"`
	Status          ProductStatus   `json:"status"`
	RejectionReason string          `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// Purchasable reports whether buyers may add the product to a cart.
func (p Product) Purchasable() bool {
	return p.Status == ProductApproved && p.Stock > 0
}

// Pagination mirrors the cursor returned by listing endpoints.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalItems  int  `json:"totalItems"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}
