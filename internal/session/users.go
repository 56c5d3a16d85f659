package session

import (
	"context"
	"net/url"
	"strconv"

	"harvestly/internal/models"
)

type usersResult struct {
	Users      []models.User     `json:"users"`
	Pagination models.Pagination `json:"pagination"`
}

// ListUsers pages through registered accounts. Admins only.
func (s *Store) ListUsers(ctx context.Context, page, limit int) ([]models.User, models.Pagination, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, models.Pagination{}, err
	}
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var res usersResult
	if err := s.api.Get(ctx, "/admin/users", q, &res); err != nil {
		return nil, models.Pagination{}, err
	}
	if res.Users == nil {
		res.Users = make([]models.User, 0)
	}
	return res.Users, res.Pagination, nil
}

// SetUserActive enables or disables an account. Admins cannot disable
// themselves.
func (s *Store) SetUserActive(ctx context.Context, userID string, active bool) (models.User, error) {
	if err := s.requireAdmin(); err != nil {
		return models.User{}, err
	}
	if me, _ := s.User(); me.ID == userID && !active {
		verr := &models.ValidationError{}
		verr.Add("isActive", "you cannot deactivate your own account")
		return models.User{}, verr
	}

	var res userResult
	body := map[string]bool{"isActive": active}
	if err := s.api.Put(ctx, "/admin/users/"+url.PathEscape(userID)+"/status", body, &res); err != nil {
		return models.User{}, err
	}
	return res.User, nil
}

func (s *Store) requireAdmin() error {
	if !s.IsAuthenticated() {
		return models.ErrNotAuthenticated
	}
	if !s.IsAdmin() {
		return models.ErrForbidden
	}
	return nil
}
