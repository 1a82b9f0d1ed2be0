package user

import (
	"context"
	"errors"
	"time"

	"github.com/madrasahapp/madrasah/core"
)

var (
	// errors; messages are part of the API contract
	ErrNotFound        = errors.New("User not found")
	ErrEmailExists     = errors.New("Email already exists")
	ErrPhoneExists     = errors.New("Phone number already exists")
	ErrStudentIDExists = errors.New("Student ID already exists")
	ErrPrincipalDelete = errors.New("Cannot delete principal accounts")

	errBadCurrentPassword = errors.New("Current password is incorrect")
)

type (
	// GetFilter selects a single user by exactly one of its unique fields.
	GetFilter struct {
		ID        string
		Email     string
		Phone     string
		StudentID string
	}

	// QueryFilter narrows and paginates user listings.
	QueryFilter struct {
		Role   Role   `query:"role"`
		Search string `query:"search"`
		Page   int    `query:"page"`
		Limit  int    `query:"limit"`
	}

	Repository interface {
		// CheckUniqueness reports ErrEmailExists/ErrPhoneExists/ErrStudentIDExists
		// when another user (not in excluded) already holds one of the given
		// non-empty values. Email must be pre-lowercased by the caller.
		CheckUniqueness(ctx context.Context, email, phone, studentID string, excluded ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// FilterUsers applies AND on the set QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of
		// FirstName, LastName, Email, Phone or StudentID. It returns one
		// page of users plus the total match count.
		FilterUsers(ctx context.Context, filter QueryFilter) ([]User, int, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool) (User, error)
		CountStudentsByClass(ctx context.Context, classID string) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) CheckUniqueness(ctx context.Context, email, phone, studentID string, exclUsers ...User) error {
	if err := svc.repo.CheckUniqueness(ctx, email, phone, studentID, exclUsers...); err != nil {
		switch err {
		case ErrEmailExists, ErrPhoneExists, ErrStudentIDExists:
			return core.NewValidationError(err)
		default:
			return err
		}
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nu NewUser, createdBy string) (User, error) {
	now := time.Now().UTC()
	usr := User{
		Email:     nu.Email,
		Phone:     nu.Phone,
		Role:      nu.Role,
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		IsActive:  true,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch nu.Role {
	case RoleTeacher:
		usr.Subjects = nu.Subjects
	case RoleStudent:
		usr.StudentID = nu.StudentID
		usr.Grade = nu.Grade
		usr.Section = nu.Section
		usr.ClassID = nu.ClassID
		usr.ParentContact = nu.ParentContact
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) GetByPhone(ctx context.Context, phone string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Phone: core.CleanString(phone)})
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter) ([]User, int, error) {
	filter.Search = core.CleanString(filter.Search)
	return svc.repo.FilterUsers(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, origUsr User, uu UpdateUser) (User, error) {
	usr := origUsr
	usr.Email = uu.Email
	usr.Phone = uu.Phone
	usr.FirstName = uu.FirstName
	usr.LastName = uu.LastName
	usr.UpdatedAt = time.Now().UTC()

	switch usr.Role {
	case RoleTeacher:
		if uu.Subjects != nil {
			usr.Subjects = uu.Subjects
		}
	case RoleStudent:
		usr.StudentID = uu.StudentID
		usr.Grade = uu.Grade
		usr.Section = uu.Section
		usr.ClassID = uu.ClassID
		if uu.ParentContact != nil {
			usr.ParentContact = uu.ParentContact
		}
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr, uu.IsActive)
}

// UpdateProfile applies the restricted self-service field subset.
// A password change requires the correct current password.
func (svc *Service) UpdateProfile(ctx context.Context, origUsr User, up UpdateProfile) (User, error) {
	usr := origUsr
	usr.FirstName = up.FirstName
	usr.LastName = up.LastName
	usr.Phone = up.Phone
	usr.UpdatedAt = time.Now().UTC()

	if up.NewPassword != "" {
		if err := origUsr.CheckPassword(up.CurrentPassword); err != nil {
			return User{}, core.NewValidationError(errBadCurrentPassword)
		}
		if err := usr.SetPassword(up.NewPassword); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr, nil)
}

// Deactivate soft deletes a user. Principal accounts are never
// deactivated nor deleted through this path.
func (svc *Service) Deactivate(ctx context.Context, usr User) error {
	if usr.IsPrincipal() {
		return ErrPrincipalDelete
	}
	isActive := false
	usr.UpdatedAt = time.Now().UTC()
	_, err := svc.repo.UpdateUser(ctx, usr, &isActive)
	return err
}

func (svc *Service) CountStudentsByClass(ctx context.Context, classID string) (int, error) {
	return svc.repo.CountStudentsByClass(ctx, classID)
}
