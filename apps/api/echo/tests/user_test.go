package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	. "github.com/madrasahapp/madrasah/apps/api/echo"
	"github.com/madrasahapp/madrasah/core/user"
	testutil "github.com/madrasahapp/madrasah/tests"
)

func loginBody(t *testing.T, identifier, password string) []byte {
	return marchallObj(t, map[string]string{"identifier": identifier, "password": password})
}

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Awa", "Keita", "awe@test.cd", "+243970000001", "s3cret", user.RoleTeacher, true)
	testutil.CreateUser(t, usrRepo, "Moussa", "Traore", "mtr@test.cd", "+243970000002", "s3cret", user.RoleStudent, false)

	fieldRequired := "this field is required"
	tests := []httpTest{
		{
			name:     "empty body",
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"identifier": fieldRequired, "password": fieldRequired}),
		},
		{
			name:     "unknown email",
			body:     loginBody(t, "lol@test.cd", "s3cret"),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "Invalid credentials"}),
		},
		{
			name:     "unknown phone",
			body:     loginBody(t, "+243999999999", "s3cret"),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "Invalid credentials"}),
		},
		{
			name:     "deactivated account",
			body:     loginBody(t, "mtr@test.cd", "s3cret"),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "Account is deactivated. Please contact administrator."}),
		},
		{
			name:     "deactivated account trumps wrong password",
			body:     loginBody(t, "mtr@test.cd", "lol"),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "Account is deactivated. Please contact administrator."}),
		},
		{
			name:     "wrong password",
			body:     loginBody(t, "awe@test.cd", "lol"),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Error: "Invalid credentials"}),
		},
		{name: "login with email", body: loginBody(t, "awe@test.cd", "s3cret"), wantCode: http.StatusOK},
		{name: "login with email is case-insensitive", body: loginBody(t, "AWE@Test.cd", "s3cret"), wantCode: http.StatusOK},
		{name: "login with phone", body: loginBody(t, "+243970000001", "s3cret"), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/api/auth/login", tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}

			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
			}
			var resp struct {
				Message string `json:"message"`
				User    struct {
					ID       string    `json:"id"`
					Role     user.Role `json:"role"`
					FullName string    `json:"fullName"`
					IsActive bool      `json:"isActive"`
				} `json:"user"`
				Token string `json:"token"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp.Message != "Login successful" {
				t.Errorf("message = %s; want %s", resp.Message, "Login successful")
			}
			if resp.User.ID != teacher.ID || resp.User.Role != teacher.Role || !resp.User.IsActive {
				t.Errorf("unexpected user snapshot: %+v", resp.User)
			}
			if resp.User.FullName != teacher.FullName() {
				t.Errorf("fullName = %s; want %s", resp.User.FullName, teacher.FullName())
			}
			var raw struct {
				User map[string]interface{} `json:"user"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			for _, key := range []string{"password", "passwordHash"} {
				if _, ok := raw.User[key]; ok {
					t.Errorf("response leaks %q", key)
				}
			}
			claims, err := VerifyToken(conf, resp.Token)
			if err != nil {
				t.Fatalf("VerifyToken() failed: %v", err)
			}
			if claims.Subject != teacher.ID {
				t.Errorf("token subject = %s; want %s", claims.Subject, teacher.ID)
			}
		})
	}
}

func Test_userApi_management(t *testing.T) {
	app := setup(t)

	now := time.Now().UTC()
	principal := testutil.CreateUser(t, usrRepo, "Amina", "Diallo", "head@school.sch", "", "s3cret", user.RolePrincipal, true, now)
	teacher := testutil.CreateUser(t, usrRepo, "Awa", "Keita", "awe@test.cd", "+243970000001", "s3cret", user.RoleTeacher, true, now.Add(time.Second))
	student := testutil.CreateUser(t, usrRepo, "Moussa", "Traore", "mtr@test.cd", "+243970000002", "s3cret", user.RoleStudent, true, now.Add(2*time.Second))

	principalToken := getToken(t, principal)
	teacherToken := getToken(t, teacher)
	studentToken := getToken(t, student)

	pagination := func(total int) map[string]int {
		return map[string]int{"page": 1, "limit": 10, "total": total, "pages": 1}
	}

	tests := []httpTest{
		{
			name: "list requires authentication", method: http.MethodGet, path: "/api/users",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "teacher cannot manage users", method: http.MethodGet, path: "/api/users", token: teacherToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "student cannot manage users", method: http.MethodGet, path: "/api/users", token: studentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "list all users", method: http.MethodGet, path: "/api/users", token: principalToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{
				"users":      []user.User{student, teacher, principal},
				"pagination": pagination(3),
			}),
		},
		{
			name: "filter by role", method: http.MethodGet, path: "/api/users?role=teacher", token: principalToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{
				"users":      []user.User{teacher},
				"pagination": pagination(1),
			}),
		},
		{
			name: "principal role filter is ignored", method: http.MethodGet, path: "/api/users?role=principal", token: principalToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{
				"users":      []user.User{student, teacher, principal},
				"pagination": pagination(3),
			}),
		},
		{
			name: "search by name", method: http.MethodGet, path: "/api/users?search=keita", token: principalToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{
				"users":      []user.User{teacher},
				"pagination": pagination(1),
			}),
		},
		{
			name: "pagination caps and pages", method: http.MethodGet, path: "/api/users?page=2&limit=2", token: principalToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{
				"users":      []user.User{principal},
				"pagination": map[string]int{"page": 2, "limit": 2, "total": 3, "pages": 2},
			}),
		},
		{
			name: "bad page parameter is rejected", method: http.MethodGet, path: "/api/users?page=lol", token: principalToken,
			wantCode: http.StatusBadRequest,
			extra:    "code only",
		},
		{
			name: "retrieve a user", method: http.MethodGet, path: "/api/users/" + teacher.ID, token: principalToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, map[string]interface{}{"user": teacher}),
		},
		{
			name: "retrieve unknown user", method: http.MethodGet, path: "/api/users/lol", token: principalToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "User not found"}),
		},
		{
			name: "create with missing fields", method: http.MethodPost, path: "/api/users", token: principalToken,
			body:     marchallObj(t, map[string]string{"email": "new@test.cd"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"password":  "this field is required",
				"role":      "this field is required",
				"firstName": "this field is required",
				"lastName":  "this field is required",
			}),
		},
		{
			name: "create with a bad phone", method: http.MethodPost, path: "/api/users", token: principalToken,
			body: marchallObj(t, map[string]interface{}{
				"email": "new@test.cd", "password": "s3cret", "role": "teacher",
				"firstName": "Fatou", "lastName": "Ba", "phone": "lol",
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"phone": "must be a valid phone number"}),
		},
		{
			name: "create with a duplicate email", method: http.MethodPost, path: "/api/users", token: principalToken,
			body: marchallObj(t, map[string]interface{}{
				"email": "AWE@test.cd", "password": "s3cret", "role": "teacher",
				"firstName": "Fatou", "lastName": "Ba",
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Email already exists"}),
		},
		{
			name: "create with a duplicate phone", method: http.MethodPost, path: "/api/users", token: principalToken,
			body: marchallObj(t, map[string]interface{}{
				"email": "new@test.cd", "password": "s3cret", "role": "teacher",
				"firstName": "Fatou", "lastName": "Ba", "phone": "+243970000001",
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Phone number already exists"}),
		},
		{
			name: "create a teacher", method: http.MethodPost, path: "/api/users", token: principalToken,
			body: marchallObj(t, map[string]interface{}{
				"email": "New@test.cd", "password": "s3cret", "role": "teacher",
				"firstName": "Fatou", "lastName": "Ba", "subjects": []string{"Math"},
			}),
			wantCode: http.StatusCreated,
			extra:    "created",
		},
		{
			name: "update a user", method: http.MethodPut, path: "/api/users/" + teacher.ID, token: principalToken,
			body:     marchallObj(t, map[string]string{"firstName": "Binta"}),
			wantCode: http.StatusOK,
			extra:    "updated",
		},
		{
			name: "deactivate a student", method: http.MethodDelete, path: "/api/users/" + student.ID, token: principalToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]string{"message": "User deactivated successfully"}),
		},
		{
			name: "principals are never deleted", method: http.MethodDelete, path: "/api/users/" + principal.ID, token: principalToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "Cannot delete principal accounts"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			switch tt.extra {
			case "created":
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var resp struct {
					Message string    `json:"message"`
					User    user.User `json:"user"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.Message != "User created successfully" {
					t.Errorf("message = %s; want %s", resp.Message, "User created successfully")
				}
				if resp.User.ID == "" || resp.User.Email != "new@test.cd" || !resp.User.IsActive {
					t.Errorf("unexpected created user: %+v", resp.User)
				}
				if resp.User.CreatedBy != principal.ID {
					t.Errorf("createdBy = %s; want %s", resp.User.CreatedBy, principal.ID)
				}
			case "updated":
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var resp struct {
					Message string    `json:"message"`
					User    user.User `json:"user"`
				}
				if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to decode response: %v", err)
				}
				if resp.Message != "User updated successfully" {
					t.Errorf("message = %s; want %s", resp.Message, "User updated successfully")
				}
				if resp.User.FirstName != "Binta" || resp.User.LastName != teacher.LastName {
					t.Errorf("unexpected updated user: %+v", resp.User)
				}
				teacher = resp.User // subsequent expectations see the new name
			case "code only":
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
			default:
				checkCodeAndData(t, tt, rec)
			}
		})
	}

	// soft delete: the student record survives, deactivated
	t.Run("deactivated student is kept", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/users/"+student.ID, principalToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			User user.User `json:"user"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.User.IsActive {
			t.Error("student is still active after deactivation")
		}
	})

	// tokens are stateless: an already issued token keeps working until
	// it expires, even after deactivation
	t.Run("issued token outlives deactivation", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/api/auth/profile", studentToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
	})
}

func Test_userApi_profile(t *testing.T) {
	app := setup(t)

	student := testutil.CreateUser(t, usrRepo, "Moussa", "Traore", "mtr@test.cd", "+243970000002", "s3cret", user.RoleStudent, true)
	studentToken := getToken(t, student)

	t.Run("requires authentication", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}
		req, rec := newRequest(http.MethodGet, "/api/auth/profile")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("rejects a bad token", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, httpErr{Error: "invalid or expired jwt"})}
		req, rec := newAuthRequest(http.MethodGet, "/api/auth/profile", "lol")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("returns own profile", func(t *testing.T) {
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, map[string]interface{}{"user": student})}
		req, rec := newAuthRequest(http.MethodGet, "/api/auth/profile", studentToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("updates contact details", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"phone": "+243970000009"})
		req, rec := newAuthRequest(http.MethodPut, "/api/auth/profile", studentToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}
		var resp struct {
			Message string    `json:"message"`
			User    user.User `json:"user"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.Message != "Profile updated successfully" {
			t.Errorf("message = %s; want %s", resp.Message, "Profile updated successfully")
		}
		if resp.User.Phone != "+243970000009" || resp.User.FirstName != student.FirstName {
			t.Errorf("unexpected updated user: %+v", resp.User)
		}
	})

	t.Run("password change requires the current password", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"currentPassword": "this field is required"}),
		}
		body := marchallObj(t, map[string]string{"newPassword": "n3wpass"})
		req, rec := newAuthRequest(http.MethodPut, "/api/auth/profile", studentToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("password change rejects a wrong current password", func(t *testing.T) {
		tt := httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "Current password is incorrect"}),
		}
		body := marchallObj(t, map[string]string{"currentPassword": "lol", "newPassword": "n3wpass"})
		req, rec := newAuthRequest(http.MethodPut, "/api/auth/profile", studentToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})

	t.Run("password change", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"currentPassword": "s3cret", "newPassword": "n3wpass"})
		req, rec := newAuthRequest(http.MethodPut, "/api/auth/profile", studentToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
		}

		// the new password is in effect
		loginReq, loginRec := newRequest(http.MethodPost, "/api/auth/login", loginBody(t, student.Email, "n3wpass"))
		app.ServeHTTP(loginRec, loginReq)
		if loginRec.Code != http.StatusOK {
			t.Errorf("login with new password failed! code = %v; body %s", loginRec.Code, loginRec.Body.String())
		}
	})
}
