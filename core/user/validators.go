package user

import (
	"context"

	"github.com/go-playground/validator/v10"

	"github.com/madrasahapp/madrasah/core"
)

// NewUser contains information needed to create a new User.
// Only teacher and student accounts may be created through the API.
type NewUser struct {
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      Role   `json:"role" validate:"required,oneof=teacher student"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`

	// teacher-specific
	Subjects []string `json:"subjects"`

	// student-specific
	StudentID     string         `json:"studentId"`
	Grade         string         `json:"grade"`
	Section       string         `json:"section"`
	ClassID       string         `json:"classId"`
	ParentContact *ParentContact `json:"parentContact"`
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanString(nu.Phone)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.StudentID = core.CleanString(nu.StudentID)

	if err := validate.Struct(nu); err != nil {
		return err
	}

	studentID := ""
	if nu.Role == RoleStudent {
		studentID = nu.StudentID
	}
	return svc.CheckUniqueness(ctx, nu.Email, nu.Phone, studentID)
}

// UpdateUser defines what information may be provided to modify an
// existing User. Role is immutable after creation.
type UpdateUser struct {
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,phone"`
	Password  string `json:"password" validate:"omitempty,min=6"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	IsActive  *bool  `json:"isActive"`

	Subjects []string `json:"subjects"`

	StudentID     string         `json:"studentId"`
	Grade         string         `json:"grade"`
	Section       string         `json:"section"`
	ClassID       string         `json:"classId"`
	ParentContact *ParentContact `json:"parentContact"`
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc *Service) error {
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}
	if phone := core.CleanString(uu.Phone); phone != "" {
		uu.Phone = phone
	} else {
		uu.Phone = origUsr.Phone
	}
	if firstName := core.CleanString(uu.FirstName); firstName != "" {
		uu.FirstName = firstName
	} else {
		uu.FirstName = origUsr.FirstName
	}
	if lastName := core.CleanString(uu.LastName); lastName != "" {
		uu.LastName = lastName
	} else {
		uu.LastName = origUsr.LastName
	}
	if studentID := core.CleanString(uu.StudentID); studentID != "" {
		uu.StudentID = studentID
	} else {
		uu.StudentID = origUsr.StudentID
	}
	if uu.Grade == "" {
		uu.Grade = origUsr.Grade
	}
	if uu.Section == "" {
		uu.Section = origUsr.Section
	}
	if uu.ClassID == "" {
		uu.ClassID = origUsr.ClassID
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}

	studentID := ""
	if origUsr.Role == RoleStudent {
		studentID = uu.StudentID
	}
	return svc.CheckUniqueness(ctx, uu.Email, uu.Phone, studentID, origUsr)
}

// UpdateProfile is the field subset users may change on themselves.
type UpdateProfile struct {
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Phone           string `json:"phone" validate:"omitempty,phone"`
	CurrentPassword string `json:"currentPassword" validate:"required_with=NewPassword"`
	NewPassword     string `json:"newPassword" validate:"omitempty,min=6"`
}

func (up *UpdateProfile) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc *Service) error {
	if firstName := core.CleanString(up.FirstName); firstName != "" {
		up.FirstName = firstName
	} else {
		up.FirstName = origUsr.FirstName
	}
	if lastName := core.CleanString(up.LastName); lastName != "" {
		up.LastName = lastName
	} else {
		up.LastName = origUsr.LastName
	}
	if phone := core.CleanString(up.Phone); phone != "" {
		up.Phone = phone
	} else {
		up.Phone = origUsr.Phone
	}

	if err := validate.Struct(up); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, "", up.Phone, "", origUsr)
}
