package user_test

import (
	"context"
	"testing"

	"github.com/madrasahapp/madrasah/core"
	"github.com/madrasahapp/madrasah/core/user"
	dummydb "github.com/madrasahapp/madrasah/storage/database/dummy"
	testutil "github.com/madrasahapp/madrasah/tests"
)

func newService(t *testing.T) (*user.Service, user.Repository) {
	t.Helper()
	db := dummydb.Open()
	repo := dummydb.NewUserRepository(db)
	return user.NewService(repo), repo
}

func TestService_Create(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	usr, err := svc.Create(ctx, user.NewUser{
		Email:     "awe@test.cd",
		Password:  "s3cret",
		Role:      user.RoleTeacher,
		FirstName: "Awa",
		LastName:  "Keita",
		Subjects:  []string{"Math"},
	}, "boss-id")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if usr.ID == "" || !usr.IsActive || usr.CreatedBy != "boss-id" {
		t.Errorf("unexpected user: %+v", usr)
	}
	if err = usr.CheckPassword("s3cret"); err != nil {
		t.Error("password was not set")
	}

	// teacher accounts never carry student fields
	usr2, err := svc.Create(ctx, user.NewUser{
		Email:     "awe2@test.cd",
		Password:  "s3cret",
		Role:      user.RoleTeacher,
		FirstName: "Awa",
		LastName:  "Keita",
		StudentID: "STU-1",
		Grade:     "6",
	}, "boss-id")
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if usr2.StudentID != "" || usr2.Grade != "" {
		t.Errorf("teacher carries student fields: %+v", usr2)
	}
}

func TestService_CheckUniqueness(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "Awa", "Keita", "awe@test.cd", "+243970000001", "s3cret", user.RoleTeacher, true)

	tests := []struct {
		name              string
		email, phone, sid string
		excluded          []user.User
		wantErr           error
	}{
		{name: "all free", email: "new@test.cd", phone: "+243999999999", sid: "STU-1"},
		{name: "email taken", email: "awe@test.cd", wantErr: user.ErrEmailExists},
		{name: "phone taken", phone: "+243970000001", wantErr: user.ErrPhoneExists},
		{name: "own record excluded", email: "awe@test.cd", phone: "+243970000001", excluded: []user.User{usr}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CheckUniqueness(ctx, tt.email, tt.phone, tt.sid, tt.excluded...)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("CheckUniqueness() failed: %v", err)
				}
				return
			}
			vErr, ok := err.(*core.ValidationError)
			if !ok {
				t.Fatalf("CheckUniqueness() error = %T(%v); want *core.ValidationError", err, err)
			}
			if vErr.Error() != tt.wantErr.Error() {
				t.Errorf("CheckUniqueness() error = %q; want %q", vErr.Error(), tt.wantErr.Error())
			}
		})
	}
}

func TestService_Deactivate(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	principal := testutil.CreateUser(t, repo, "Amina", "Diallo", "head@school.sch", "", "s3cret", user.RolePrincipal, true)
	student := testutil.CreateUser(t, repo, "Moussa", "Traore", "mtr@test.cd", "", "s3cret", user.RoleStudent, true)

	if err := svc.Deactivate(ctx, principal); err != user.ErrPrincipalDelete {
		t.Errorf("Deactivate(principal) error = %v; want %v", err, user.ErrPrincipalDelete)
	}

	if err := svc.Deactivate(ctx, student); err != nil {
		t.Fatalf("Deactivate() failed: %v", err)
	}
	refreshed, err := svc.GetByID(ctx, student.ID)
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if refreshed.IsActive {
		t.Error("student still active after Deactivate()")
	}
}

func TestService_UpdateProfile(t *testing.T) {
	svc, repo := newService(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, repo, "Awa", "Keita", "awe@test.cd", "", "s3cret", user.RoleTeacher, true)

	// wrong current password is rejected
	_, err := svc.UpdateProfile(ctx, usr, user.UpdateProfile{
		FirstName:       usr.FirstName,
		LastName:        usr.LastName,
		CurrentPassword: "lol",
		NewPassword:     "n3wpass",
	})
	if _, ok := err.(*core.ValidationError); !ok {
		t.Errorf("UpdateProfile() error = %T(%v); want *core.ValidationError", err, err)
	}

	updated, err := svc.UpdateProfile(ctx, usr, user.UpdateProfile{
		FirstName:       "Binta",
		LastName:        usr.LastName,
		CurrentPassword: "s3cret",
		NewPassword:     "n3wpass",
	})
	if err != nil {
		t.Fatalf("UpdateProfile() failed: %v", err)
	}
	if updated.FirstName != "Binta" {
		t.Errorf("FirstName = %s; want Binta", updated.FirstName)
	}
	if err = updated.CheckPassword("n3wpass"); err != nil {
		t.Error("new password was not set")
	}
}
