package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/resta-pos/api/internal/auth"
	"github.com/resta-pos/api/internal/directory"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test-secret"

type mockEmployeeFinder struct {
	emp directory.Employee
	err error
}

func (m *mockEmployeeFinder) GetEmployeeByEmail(context.Context, string) (directory.Employee, error) {
	if m.err != nil {
		return directory.Employee{}, m.err
	}
	return m.emp, nil
}

func newAuthRouter(finder EmployeeFinder) chi.Router {
	r := chi.NewRouter()
	NewAuthHandler(finder, testJWTSecret).RegisterRoutes(r)
	return r
}

func postLogin(t *testing.T, router chi.Router, email, password string) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(raw))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func testEmployee(t *testing.T, password string) directory.Employee {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return directory.Employee{
		ID:             uuid.New(),
		FullName:       "Dana Driver",
		Email:          "dana@resta.local",
		HashedPassword: string(hashed),
		Role:           directory.RoleDriver,
		IsActive:       true,
	}
}

func TestLogin(t *testing.T) {
	emp := testEmployee(t, "correct horse")
	router := newAuthRouter(&mockEmployeeFinder{emp: emp})

	rr := postLogin(t, router, emp.Email, "correct horse")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}

	var resp tokenResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatal("access_token is empty")
	}
	claims, err := auth.ValidateToken(testJWTSecret, resp.AccessToken)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.EmployeeID != emp.ID {
		t.Errorf("token employee id = %s, want %s", claims.EmployeeID, emp.ID)
	}
	if claims.Role != string(directory.RoleDriver) {
		t.Errorf("token role = %s, want DRIVER", claims.Role)
	}
	if resp.Employee.Email != emp.Email {
		t.Errorf("employee email = %s, want %s", resp.Employee.Email, emp.Email)
	}
}

func TestLoginRejections(t *testing.T) {
	emp := testEmployee(t, "correct horse")

	t.Run("wrong password", func(t *testing.T) {
		router := newAuthRouter(&mockEmployeeFinder{emp: emp})
		if rr := postLogin(t, router, emp.Email, "wrong"); rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		router := newAuthRouter(&mockEmployeeFinder{err: directory.ErrNotFound})
		if rr := postLogin(t, router, "ghost@resta.local", "whatever"); rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("inactive employee", func(t *testing.T) {
		inactive := emp
		inactive.IsActive = false
		router := newAuthRouter(&mockEmployeeFinder{emp: inactive})
		if rr := postLogin(t, router, emp.Email, "correct horse"); rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		router := newAuthRouter(&mockEmployeeFinder{emp: emp})
		if rr := postLogin(t, router, "", ""); rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})
}
