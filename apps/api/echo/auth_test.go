package echoapi

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/madrasahapp/madrasah/core"
	"github.com/madrasahapp/madrasah/core/user"
	dummydb "github.com/madrasahapp/madrasah/storage/database/dummy"
	testutil "github.com/madrasahapp/madrasah/tests"
)

func Test_GenerateVerifyToken(t *testing.T) {
	conf := testutil.NewConfig()

	usr := user.User{
		ID:        "5f4e7b2a1c9d440000a1b2c3",
		Email:     "awe@test.cd",
		Role:      user.RoleTeacher,
		FirstName: "Awa",
		LastName:  "Keita",
	}
	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	verified, err := VerifyToken(conf, token)
	if err != nil {
		t.Fatalf("VerifyToken() failed: %v", err)
	}
	if verified.Subject != usr.ID {
		t.Errorf("Subject = %s; want %s", verified.Subject, usr.ID)
	}
	if verified.Email != usr.Email || verified.Role != usr.Role {
		t.Errorf("claims = %s/%s; want %s/%s", verified.Email, verified.Role, usr.Email, usr.Role)
	}
	if verified.FirstName != usr.FirstName || verified.LastName != usr.LastName {
		t.Errorf("names = %s %s; want %s %s", verified.FirstName, verified.LastName, usr.FirstName, usr.LastName)
	}

	wantExp := time.Now().Add(conf.Server.JWTExpirationDelta)
	if exp := verified.ExpiresAt.Time; exp.Before(wantExp.Add(-time.Minute)) || exp.After(wantExp.Add(time.Minute)) {
		t.Errorf("ExpiresAt = %v; want ~%v", exp, wantExp)
	}
}

func Test_VerifyToken_failures(t *testing.T) {
	conf := testutil.NewConfig()
	usr := user.User{ID: "abc123", Email: "awe@test.cd", Role: user.RoleStudent}

	newToken := func(t *testing.T, conf2 *core.Config, usr user.User) string {
		t.Helper()
		token, err := GenerateToken(conf2, GetUserClaims(conf2, usr))
		if err != nil {
			t.Fatalf("GenerateToken() failed: %v", err)
		}
		return token
	}

	t.Run("tampered payload", func(t *testing.T) {
		token := newToken(t, conf, usr)
		parts := strings.Split(token, ".")
		parts[1] = "x" + parts[1][1:]
		if _, err := VerifyToken(conf, strings.Join(parts, ".")); err != errUnauthorized {
			t.Errorf("VerifyToken() error = %v; want %v", err, errUnauthorized)
		}
	})

	t.Run("tampered signature", func(t *testing.T) {
		token := newToken(t, conf, usr)
		parts := strings.Split(token, ".")
		flip := "A"
		if strings.HasPrefix(parts[2], flip) {
			flip = "B"
		}
		parts[2] = flip + parts[2][1:]
		if _, err := VerifyToken(conf, strings.Join(parts, ".")); err != errUnauthorized {
			t.Errorf("VerifyToken() error = %v; want %v", err, errUnauthorized)
		}
	})

	t.Run("wrong signing key", func(t *testing.T) {
		otherConf := testutil.NewConfig()
		otherConf.SecretKey = []byte("another-secret")
		token := newToken(t, otherConf, usr)
		if _, err := VerifyToken(conf, token); err != errUnauthorized {
			t.Errorf("VerifyToken() error = %v; want %v", err, errUnauthorized)
		}
	})

	t.Run("expired", func(t *testing.T) {
		expConf := testutil.NewConfig()
		expConf.Server.JWTExpirationDelta = -time.Hour
		token := newToken(t, expConf, usr)
		if _, err := VerifyToken(conf, token); err != errUnauthorized {
			t.Errorf("VerifyToken() error = %v; want %v", err, errUnauthorized)
		}
	})

	t.Run("not yet expired", func(t *testing.T) {
		shortConf := testutil.NewConfig()
		shortConf.Server.JWTExpirationDelta = 2 * time.Second
		token := newToken(t, shortConf, usr)
		if _, err := VerifyToken(conf, token); err != nil {
			t.Errorf("VerifyToken() failed: %v", err)
		}
	})

	t.Run("unknown role", func(t *testing.T) {
		badUsr := usr
		badUsr.Role = "admin"
		token := newToken(t, conf, badUsr)
		if _, err := VerifyToken(conf, token); err != errUnauthorized {
			t.Errorf("VerifyToken() error = %v; want %v", err, errUnauthorized)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := VerifyToken(conf, "lol"); err != errUnauthorized {
			t.Errorf("VerifyToken() error = %v; want %v", err, errUnauthorized)
		}
	})
}

func Test_authenticate(t *testing.T) {
	db := dummydb.Open()
	repo := dummydb.NewUserRepository(db)
	svc := user.NewService(repo)

	active := testutil.CreateUser(t, repo, "Awa", "Keita", "awe@test.cd", "+243970000001", "s3cret", user.RoleTeacher, true)
	testutil.CreateUser(t, repo, "Moussa", "Traore", "mtr@test.cd", "+243970000002", "s3cret", user.RoleStudent, false)

	tests := []struct {
		name       string
		identifier string
		password   string
		wantErr    error
	}{
		{name: "unknown email", identifier: "lol@test.cd", password: "s3cret", wantErr: errInvalidCredentials},
		{name: "unknown phone", identifier: "+243999999999", password: "s3cret", wantErr: errInvalidCredentials},
		{name: "deactivated account", identifier: "mtr@test.cd", password: "s3cret", wantErr: errAccountDeactivated},
		{name: "wrong password", identifier: "awe@test.cd", password: "lol", wantErr: errInvalidCredentials},
		{name: "login with email", identifier: "awe@test.cd", password: "s3cret"},
		{name: "login with email is case-insensitive", identifier: "Awe@Test.CD", password: "s3cret"},
		{name: "login with phone", identifier: "+243970000001", password: "s3cret"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := authenticate(context.Background(), tt.identifier, tt.password, svc)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("authenticate() error = %v; want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("authenticate() failed: %v", err)
			}
			if usr.ID != active.ID {
				t.Errorf("authenticate() user = %s; want %s", usr.ID, active.ID)
			}
		})
	}
}
