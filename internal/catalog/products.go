package catalog

import (
	"context"
	"net/url"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"harvestly/internal/models"
	"harvestly/internal/validation"
)

// ProductInput is the listing form a farmer submits. There is no status
// field: new listings always start Pending.
type ProductInput struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	Image       string          `json:"image,omitempty"`
	Unit        string          `json:"unit" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"min=0"`
	Category    models.Category `json:"category" validate:"required,oneof=Organic Fertilized"`
}

func (in ProductInput) Validate() error {
	verr := &models.ValidationError{}
	if err := validation.Merge(verr, validation.Struct(in)); err != nil {
		return err
	}
	if in.Price.IsNegative() {
		verr.Add("price", "price cannot be negative")
	}
	return verr.Err()
}

type createPayload struct {
	ProductInput
	Status models.ProductStatus `json:"status"`
}

// ProductUpdate carries the fields an owning farmer may change. A nil field
// is left unchanged. Status is not editable here.
type ProductUpdate struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Image       *string          `json:"image,omitempty"`
	Unit        *string          `json:"unit,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Stock       *int             `json:"stock,omitempty"`
	Category    *models.Category `json:"category,omitempty"`
}

func (u ProductUpdate) Validate() error {
	verr := &models.ValidationError{}
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		verr.Add("name", "name is required")
	}
	if u.Price != nil && u.Price.IsNegative() {
		verr.Add("price", "price cannot be negative")
	}
	if u.Stock != nil && *u.Stock < 0 {
		verr.Add("stock", "stock cannot be negative")
	}
	if u.Category != nil && !u.Category.Valid() {
		verr.Add("category", "category must be Organic or Fertilized")
	}
	return verr.Err()
}

// CreateProduct submits a new listing for the acting farmer.
func (s *Store) CreateProduct(ctx context.Context, in ProductInput) (models.Product, error) {
	if err := s.requireRole(models.RoleFarmer); err != nil {
		return models.Product{}, err
	}
	if err := in.Validate(); err != nil {
		return models.Product{}, err
	}

	var res productResult
	err := s.api.Post(ctx, "/products", createPayload{ProductInput: in, Status: models.ProductPending}, &res)
	logAction("create product", in.Name, err)
	if err != nil {
		return models.Product{}, err
	}
	p := res.Product
	if p.Status == "" {
		p.Status = models.ProductPending
	}
	if p.SellerID == "" {
		if user, ok := s.session.User(); ok {
			p.SellerID = user.ID
		}
	}
	return p, nil
}

// UpdateProduct edits a listing owned by the acting farmer.
func (s *Store) UpdateProduct(ctx context.Context, id string, u ProductUpdate) (models.Product, error) {
	if err := s.requireRole(models.RoleFarmer); err != nil {
		return models.Product{}, err
	}
	if err := u.Validate(); err != nil {
		return models.Product{}, err
	}
	current, err := s.GetProduct(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if !s.owns(current) {
		return models.Product{}, models.ErrForbidden
	}

	var res productResult
	err = s.api.Put(ctx, "/products/"+url.PathEscape(id), u, &res)
	logAction("update product", id, err)
	if err != nil {
		return models.Product{}, mapNotFound(err)
	}
	updated := res.Product
	if updated.ID == "" {
		updated = current
		u.apply(&updated)
	}
	s.replace(updated)
	return updated, nil
}

func (u ProductUpdate) apply(p *models.Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Image != nil {
		p.Image = *u.Image
	}
	if u.Unit != nil {
		p.Unit = *u.Unit
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.Category != nil {
		p.Category = *u.Category
	}
}

// DeleteProduct removes a listing. Farmers may remove their own listings,
// admins any listing.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	if err := s.requireRole(models.RoleFarmer, models.RoleAdmin); err != nil {
		return err
	}
	if s.session.Role() == models.RoleFarmer {
		current, err := s.GetProduct(ctx, id)
		if err != nil {
			return err
		}
		if !s.owns(current) {
			return models.ErrForbidden
		}
	}

	err := s.api.Delete(ctx, "/products/"+url.PathEscape(id), nil)
	logAction("delete product", id, err)
	if err != nil {
		return mapNotFound(err)
	}
	s.drop(id)
	return nil
}

func (s *Store) ApproveProduct(ctx context.Context, id string) (models.Product, error) {
	return s.review(ctx, id, "approve", models.ProductApproved, map[string]any{"isFeatured": false})
}

// RejectProduct needs a reason; it is shown to the farmer.
func (s *Store) RejectProduct(ctx context.Context, id, reason string) (models.Product, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		verr := &models.ValidationError{}
		verr.Add("reason", "reason is required")
		return models.Product{}, verr
	}
	return s.review(ctx, id, "reject", models.ProductRejected, map[string]any{"reason": reason})
}

func (s *Store) review(ctx context.Context, id, action string, status models.ProductStatus, body map[string]any) (models.Product, error) {
	if err := s.requireRole(models.RoleAdmin); err != nil {
		return models.Product{}, err
	}

	var res productResult
	err := s.api.Put(ctx, "/admin/products/"+url.PathEscape(id)+"/"+action, body, &res)
	logAction(action+" product", id, err)
	if err != nil {
		return models.Product{}, mapNotFound(err)
	}

	p := res.Product
	if p.ID == "" {
		if listed, ok := s.listed(id); ok {
			p = listed
		} else {
			p.ID = id
		}
	}
	p.Status = status
	if status == models.ProductRejected {
		p.RejectionReason, _ = body["reason"].(string)
	} else {
		p.RejectionReason = ""
	}
	s.replace(p)
	return p, nil
}

func (s *Store) owns(p models.Product) bool {
	user, ok := s.session.User()
	return ok && p.SellerID != "" && p.SellerID == user.ID
}

// ReviewQueues are the admin product listings, by review state.
var ReviewQueues = []string{"pending", "approved", "rejected", "all"}

// ReviewQueue replaces the listing with one of the admin review queues.
func (s *Store) ReviewQueue(ctx context.Context, queue string, f Filter) ([]models.Product, error) {
	if err := s.requireRole(models.RoleAdmin); err != nil {
		return nil, err
	}
	if !slices.Contains(ReviewQueues, queue) {
		verr := &models.ValidationError{}
		verr.Add("queue", "queue must be one of "+strings.Join(ReviewQueues, ", "))
		return nil, verr
	}
	return s.list(ctx, "/admin/products/"+queue, f.values(), "")
}
