package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles
const (
	RolePrincipal Role = "principal"
	RoleTeacher   Role = "teacher"
	RoleStudent   Role = "student"
)

const hashCost = 12

var (
	AllRoles = []Role{RoleStudent, RoleTeacher, RolePrincipal}

	// EnrollableRoles are the roles a principal may create through the API.
	// Principal accounts are only ever bootstrapped via the admin CLI.
	EnrollableRoles = []Role{RoleTeacher, RoleStudent}

	rolePriorities = map[Role]int{
		RolePrincipal: 3,
		RoleTeacher:   2,
		RoleStudent:   1,
	}
)

// Role is the closed set of account roles. Anything outside
// principal|teacher|student is rejected at the auth boundary.
type Role string

func (r Role) Valid() bool {
	_, ok := rolePriorities[r]
	return ok
}

func RolePriority(role Role) int {
	return rolePriorities[role]
}

// MeetsMinimum reports whether role ranks at least as high as floor in
// the role hierarchy. Membership checks govern all current endpoints;
// this is the building block for future floor-based gates.
func MeetsMinimum(role, floor Role) bool {
	return RolePriority(role) >= RolePriority(floor)
}

// ParentContact is the guardian contact block carried by student accounts.
type ParentContact struct {
	FatherName  string `json:"fatherName,omitempty"`
	MotherName  string `json:"motherName,omitempty"`
	FatherPhone string `json:"fatherPhone,omitempty"`
	MotherPhone string `json:"motherPhone,omitempty"`
	Address     string `json:"address,omitempty"`
}

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Phone        string `json:"phone,omitempty"`
	Role         Role   `json:"role"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	IsActive     bool   `json:"isActive"`
	PasswordHash []byte `json:"-"`
	CreatedBy    string `json:"createdBy,omitempty"`

	// teacher-specific
	Subjects []string `json:"subjects,omitempty"`

	// student-specific
	StudentID     string         `json:"studentId,omitempty"`
	Grade         string         `json:"grade,omitempty"`
	Section       string         `json:"section,omitempty"`
	ClassID       string         `json:"classId,omitempty"`
	ParentContact *ParentContact `json:"parentContact,omitempty"`

	CreatedAt time.Time `json:"createdAt"` // UTC
	UpdatedAt time.Time `json:"updatedAt"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), hashCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword returns a non-nil error on mismatch or on a malformed
// stored digest; it never panics on either.
func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

func (u *User) IsPrincipal() bool {
	return u.Role == RolePrincipal
}

func (u *User) IsTeacher() bool {
	return u.Role == RoleTeacher
}

func (u *User) IsStudent() bool {
	return u.Role == RoleStudent
}
