package class

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/madrasahapp/madrasah/core"
)

type Class struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt"` // UTC
}

// NewClass contains information needed to create a new Class.
type NewClass struct {
	Name string `json:"name" validate:"required,max=50"`
}

func (nc *NewClass) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nc.Name = core.CleanString(nc.Name)
	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckNameUniqueness(ctx, nc.Name)
}

// UpdateClass defines what information may be provided to modify an existing Class.
type UpdateClass struct {
	Name     string `json:"name" validate:"required,max=50"`
	IsActive *bool  `json:"isActive"`
}

func (uc *UpdateClass) Validate(ctx context.Context, origCls Class, validate *validator.Validate, svc *Service) error {
	uc.Name = core.CleanString(uc.Name)
	if err := validate.Struct(uc); err != nil {
		return err
	}
	return svc.CheckNameUniqueness(ctx, uc.Name, origCls)
}
