package class

import (
	"context"
	"errors"
	"time"

	"github.com/madrasahapp/madrasah/core"
)

var (
	// errors; messages are part of the API contract
	ErrNotFound   = errors.New("Class not found")
	ErrNameExists = errors.New("Class with this name already exists")
)

type (
	GetFilter struct {
		ID   string
		Name string
	}

	QueryFilter struct {
		Search string `query:"search"`
		Page   int    `query:"page"`
		Limit  int    `query:"limit"`
	}

	Repository interface {
		// CheckNameUniqueness reports ErrNameExists when another class (not
		// in excluded) already holds the given name, compared case-insensitively
		// on the normalized (lowercased) form.
		CheckNameUniqueness(ctx context.Context, name string, excluded ...Class) error
		CreateClass(ctx context.Context, cls Class) (Class, error)
		GetClass(ctx context.Context, filter GetFilter) (Class, error)
		// FilterClasses does a case-insensitive substring match on Name and
		// returns one page of classes plus the total match count, ordered by name.
		FilterClasses(ctx context.Context, filter QueryFilter) ([]Class, int, error)
		UpdateClass(ctx context.Context, cls Class, isActive *bool) (Class, error)
		DeleteClass(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckNameUniqueness(ctx context.Context, name string, exclClasses ...Class) error {
	if err := svc.repo.CheckNameUniqueness(ctx, name, exclClasses...); err != nil {
		if err == ErrNameExists {
			return core.NewValidationError(err)
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewClass) (Class, error) {
	now := time.Now().UTC()
	cls := Class{
		Name:      nc.Name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateClass(ctx, cls)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Class, error) {
	return svc.repo.GetClass(ctx, GetFilter{ID: id})
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]Class, int, error) {
	filter.Search = core.CleanString(filter.Search)
	return svc.repo.FilterClasses(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, origCls Class, uc UpdateClass) (Class, error) {
	cls := origCls
	cls.Name = uc.Name
	cls.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateClass(ctx, cls, uc.IsActive)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteClass(ctx, id)
}
