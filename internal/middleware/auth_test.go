package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/resta-pos/api/internal/auth"
)

const testSecret = "test-secret"

func protected(t *testing.T, wantID uuid.UUID) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			t.Error("claims missing from context")
		} else if claims.EmployeeID != wantID {
			t.Errorf("claims employee id = %s, want %s", claims.EmployeeID, wantID)
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate(t *testing.T) {
	employeeID := uuid.New()
	token, err := auth.GenerateToken(testSecret, employeeID, "MANAGER")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	handler := Authenticate(testSecret)(protected(t, employeeID))

	req := httptest.NewRequest(http.MethodGet, "/orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}

func TestAuthenticateRejections(t *testing.T) {
	deny := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("handler reached without valid token")
	})
	handler := Authenticate(testSecret)(deny)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not-a-jwt"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/orders", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rr.Code)
			}
		})
	}

	t.Run("wrong secret", func(t *testing.T) {
		token, err := auth.GenerateToken("other-secret", uuid.New(), "STAFF")
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})
}

func TestRequireRole(t *testing.T) {
	employeeID := uuid.New()
	token, err := auth.GenerateToken(testSecret, employeeID, "KITCHEN")
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	do := func(handler http.Handler) int {
		req := httptest.NewRequest(http.MethodGet, "/orders", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		return rr.Code
	}

	allowed := Authenticate(testSecret)(RequireRole("KITCHEN", "MANAGER")(ok))
	if code := do(allowed); code != http.StatusOK {
		t.Errorf("matching role: status = %d, want 200", code)
	}

	denied := Authenticate(testSecret)(RequireRole("ADMIN")(ok))
	if code := do(denied); code != http.StatusForbidden {
		t.Errorf("non-matching role: status = %d, want 403", code)
	}
}
