package session

import (
	"context"
	"log"
	"strings"

	"harvestly/internal/models"
	"harvestly/internal/validation"
)

// Registration is the sign-up form. The role is chosen here once; which of
// the embedded detail blocks is required depends on it.
type Registration struct {
	FirstName       string      `json:"firstName" validate:"required"`
	LastName        string      `json:"lastName" validate:"required"`
	Email           string      `json:"email" validate:"required,email"`
	Phone           string      `json:"phone" validate:"required,indianphone"`
	Password        string      `json:"password" validate:"required,min=6"`
	ConfirmPassword string      `json:"confirmPassword,omitempty" validate:"eqfield=Password"`
	Role            models.Role `json:"role" validate:"required"`
	AdminCode       string      `json:"adminCode,omitempty" validate:"-"`

	models.DeliveryAddress `validate:"-"`
	models.FarmDetails     `validate:"-"`
	models.AdminDetails    `validate:"-"`
}

// Validate runs the local checks the sign-up form performs before anything
// is sent.
func (r Registration) Validate() error {
	verr := &models.ValidationError{}
	if err := validation.Merge(verr, validation.Struct(r)); err != nil {
		return err
	}

	var roleErr error
	switch r.Role {
	case models.RoleBuyer:
		roleErr = validation.Struct(r.DeliveryAddress)
	case models.RoleFarmer:
		roleErr = validation.Struct(r.FarmDetails)
	case models.RoleAdmin:
		if strings.TrimSpace(r.AdminCode) == "" {
			verr.Add("adminCode", "adminCode is required")
		}
		roleErr = validation.Struct(r.AdminDetails)
	case "":
	default:
		verr.Add("role", "role is invalid")
	}
	if err := validation.Merge(verr, roleErr); err != nil {
		return err
	}
	return verr.Err()
}

// Register creates the account and starts a session for it.
func (s *Store) Register(ctx context.Context, r Registration) (models.User, error) {
	r.Email = strings.TrimSpace(r.Email)
	if err := r.Validate(); err != nil {
		return models.User{}, err
	}

	payload := r
	payload.ConfirmPassword = ""
	if r.Role != models.RoleAdmin {
		payload.AdminCode = ""
	}

	var res authResult
	if err := s.api.Post(ctx, "/auth/register", payload, &res); err != nil {
		return models.User{}, err
	}
	if res.User.Role == "" {
		res.User.Role = r.Role
	}
	if res.Token != "" {
		s.start(res)
	}
	log.Printf("[AUTH] [INFO] registered %s account %s", r.Role, res.User.ID)
	return res.User, nil
}

// ProfileUpdate lists the editable profile fields. A nil field is left
// unchanged. There is no role field.
type ProfileUpdate struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	City      *string `json:"city,omitempty"`
	State     *string `json:"state,omitempty"`
	ZipCode   *string `json:"zipCode,omitempty"`
	Landmark  *string `json:"landmark,omitempty"`
}

func (u ProfileUpdate) Validate() error {
	verr := &models.ValidationError{}
	if u.Phone != nil && strings.TrimSpace(*u.Phone) != "" {
		if err := validation.Merge(verr, validation.Var("phone", *u.Phone, "mobile")); err != nil {
			return err
		}
	}
	if u.ZipCode != nil && strings.TrimSpace(*u.ZipCode) != "" {
		if err := validation.Merge(verr, validation.Var("zipCode", *u.ZipCode, "pincode")); err != nil {
			return err
		}
	}
	return verr.Err()
}

func (u ProfileUpdate) apply(user *models.User) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&user.FirstName, u.FirstName)
	set(&user.LastName, u.LastName)
	set(&user.Phone, u.Phone)
	set(&user.Address, u.Address)
	set(&user.City, u.City)
	set(&user.State, u.State)
	set(&user.ZipCode, u.ZipCode)
	set(&user.Landmark, u.Landmark)
}

// UpdateProfile merges u into the current user. The role always survives
// the merge, whatever the API echoes back.
func (s *Store) UpdateProfile(ctx context.Context, u ProfileUpdate) (models.User, error) {
	current, ok := s.User()
	if !ok {
		return models.User{}, models.ErrNotAuthenticated
	}
	if err := u.Validate(); err != nil {
		return models.User{}, err
	}

	var res userResult
	if err := s.api.Put(ctx, "/auth/profile", u, &res); err != nil {
		return models.User{}, err
	}

	merged := current
	if res.User.ID != "" {
		merged = res.User
	} else {
		u.apply(&merged)
	}
	merged.ID = current.ID
	merged.Role = current.Role

	s.mu.Lock()
	if s.user == nil || s.user.ID != current.ID {
		s.mu.Unlock()
		return models.User{}, models.ErrNotAuthenticated
	}
	s.user = &merged
	s.mu.Unlock()

	log.Println("[AUTH] [INFO] profile updated:", merged.ID)
	return merged, nil
}

type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,nefield=CurrentPassword"`
	ConfirmPassword string `json:"confirmPassword,omitempty" validate:"eqfield=NewPassword"`
}

func (s *Store) ChangePassword(ctx context.Context, change PasswordChange) error {
	if !s.IsAuthenticated() {
		return models.ErrNotAuthenticated
	}
	if err := validation.Struct(change); err != nil {
		return err
	}
	change.ConfirmPassword = ""
	return s.api.Put(ctx, "/auth/change-password", change, nil)
}
