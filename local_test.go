package duoauth_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jmkang/duoauth"
	"github.com/jmkang/duoauth/stores"
)

func newTestAuth(t *testing.T) *duoauth.LocalAuth {
	t.Helper()
	return &duoauth.LocalAuth{
		Users:  stores.NewFSUserStore(t.TempDir()),
		Tokens: &duoauth.TokenIssuer{SecretKey: "test-secret"},
	}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response body %q: %v", rr.Body.String(), err)
	}
	return body
}

func cookieNames(rr *httptest.ResponseRecorder) map[string]bool {
	names := make(map[string]bool)
	for _, c := range rr.Result().Cookies() {
		names[c.Name] = true
	}
	return names
}

func TestRegisterFlow(t *testing.T) {
	auth := newTestAuth(t)

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
		checkMessage   string
	}{
		{
			name: "successful registration",
			body: map[string]string{
				"email":       "u@test.com",
				"password":    "secret1",
				"displayName": "Tester1",
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "duplicate email",
			body: map[string]string{
				"email":       "u@test.com",
				"password":    "another1",
				"displayName": "Tester2",
			},
			expectedStatus: http.StatusConflict,
			checkMessage:   "Email is already exists",
		},
		{
			name: "duplicate email different case",
			body: map[string]string{
				"email":       "U@Test.Com",
				"password":    "another1",
				"displayName": "Tester2",
			},
			expectedStatus: http.StatusConflict,
			checkMessage:   "Email is already exists",
		},
		{
			name: "missing email",
			body: map[string]string{
				"password":    "secret1",
				"displayName": "Tester1",
			},
			expectedStatus: http.StatusConflict,
			checkMessage:   "Email is required",
		},
		{
			name: "malformed email",
			body: map[string]string{
				"email":       "not-an-email",
				"password":    "secret1",
				"displayName": "Tester1",
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "password too short",
			body: map[string]string{
				"email":       "short@test.com",
				"password":    "12345",
				"displayName": "Tester1",
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "password too long",
			body: map[string]string{
				"email":       "long@test.com",
				"password":    "1234567890123456",
				"displayName": "Tester1",
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "display name too short",
			body: map[string]string{
				"email":       "dn@test.com",
				"password":    "secret1",
				"displayName": "a",
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "display name invalid characters",
			body: map[string]string{
				"email":       "dn@test.com",
				"password":    "secret1",
				"displayName": "###",
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "display name too long",
			body: map[string]string{
				"email":       "dn@test.com",
				"password":    "secret1",
				"displayName": "abcdefghijklm",
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name: "korean display name",
			body: map[string]string{
				"email":       "kr@test.com",
				"password":    "secret1",
				"displayName": "홍길동",
			},
			expectedStatus: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, auth.HandleRegister, "/register", tt.body)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}

			body := decodeBody(t, rr)
			wantSuccess := tt.expectedStatus == http.StatusCreated
			if body["success"] != wantSuccess {
				t.Errorf("Expected success=%v, got %v", wantSuccess, body["success"])
			}
			if tt.checkMessage != "" && body["message"] != tt.checkMessage {
				t.Errorf("Expected message %q, got %q", tt.checkMessage, body["message"])
			}

			cookies := cookieNames(rr)
			if wantSuccess {
				if !cookies[duoauth.AccessTokenCookie] || !cookies[duoauth.RefreshTokenCookie] {
					t.Errorf("Expected both token cookies, got %v", cookies)
				}
				data, _ := body["data"].(map[string]any)
				user, _ := data["user"].(map[string]any)
				if user["displayName"] != tt.body["displayName"] {
					t.Errorf("Expected displayName %q in response, got %v", tt.body["displayName"], user)
				}
				if id, _ := user["id"].(string); id == "" {
					t.Errorf("Expected generated user id in response, got %v", user)
				}
			} else if len(cookies) != 0 {
				t.Errorf("Expected no cookies on failure, got %v", cookies)
			}
		})
	}
}

func TestRegisterValidationSkipsStore(t *testing.T) {
	auth := newTestAuth(t)

	rr := postJSON(t, auth.HandleRegister, "/register", map[string]string{
		"email":       "skip@test.com",
		"password":    "12345",
		"displayName": "Tester1",
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("Expected 409, got %d", rr.Code)
	}

	if _, err := auth.Users.GetUserByEmail("skip@test.com"); !errors.Is(err, duoauth.ErrUserNotFound) {
		t.Errorf("Expected no user created after validation failure, got err=%v", err)
	}
}

func TestLoginFlow(t *testing.T) {
	auth := newTestAuth(t)

	rr := postJSON(t, auth.HandleRegister, "/register", map[string]string{
		"email":       "u@test.com",
		"password":    "secret1",
		"displayName": "Tester1",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Setup registration failed: %d %s", rr.Code, rr.Body.String())
	}

	tests := []struct {
		name           string
		body           map[string]string
		expectedStatus int
		checkMessage   string
	}{
		{
			name: "successful login",
			body: map[string]string{
				"email":    "u@test.com",
				"password": "secret1",
			},
			expectedStatus: http.StatusOK,
			checkMessage:   "success local login",
		},
		{
			name: "login with different email case",
			body: map[string]string{
				"email":    "U@TEST.com",
				"password": "secret1",
			},
			expectedStatus: http.StatusOK,
			checkMessage:   "success local login",
		},
		{
			name: "unknown email",
			body: map[string]string{
				"email":    "nobody@test.com",
				"password": "secret1",
			},
			expectedStatus: http.StatusConflict,
			checkMessage:   "user is incorrect!",
		},
		{
			name: "wrong password",
			body: map[string]string{
				"email":    "u@test.com",
				"password": "wrong12",
			},
			expectedStatus: http.StatusConflict,
			checkMessage:   "user is incorrect!",
		},
		{
			name: "invalid password shape",
			body: map[string]string{
				"email":    "u@test.com",
				"password": "short",
			},
			expectedStatus: http.StatusConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, auth.HandleLogin, "/login", tt.body)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d. Body: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}

			body := decodeBody(t, rr)
			if tt.checkMessage != "" && body["message"] != tt.checkMessage {
				t.Errorf("Expected message %q, got %q", tt.checkMessage, body["message"])
			}

			cookies := cookieNames(rr)
			if tt.expectedStatus == http.StatusOK {
				if !cookies[duoauth.AccessTokenCookie] || !cookies[duoauth.RefreshTokenCookie] {
					t.Errorf("Expected both token cookies, got %v", cookies)
				}
			} else if len(cookies) != 0 {
				t.Errorf("Expected no cookies on failure, got %v", cookies)
			}
		})
	}
}

func TestLoginFormEncoded(t *testing.T) {
	auth := newTestAuth(t)

	rr := postJSON(t, auth.HandleRegister, "/register", map[string]string{
		"email":       "form@test.com",
		"password":    "secret1",
		"displayName": "Tester1",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Setup registration failed: %d", rr.Code)
	}

	form := "email=form%40test.com&password=secret1"
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr = httptest.NewRecorder()
	auth.HandleLogin(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected 200 for form-encoded login, got %d. Body: %s", rr.Code, rr.Body.String())
	}
}

func TestCurrentUser(t *testing.T) {
	auth := newTestAuth(t)
	mw := &duoauth.Middleware{VerifyToken: auth.Tokens.Verify}
	handler := mw.WithUser(http.HandlerFunc(auth.HandleCurrentUser))

	pair, err := auth.Tokens.IssuePair("user-42", "Tester1")
	if err != nil {
		t.Fatalf("Failed to issue token pair: %v", err)
	}

	t.Run("authenticated via cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: duoauth.AccessTokenCookie, Value: pair.AccessToken})
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d. Body: %s", rr.Code, rr.Body.String())
		}
		body := decodeBody(t, rr)
		data, _ := body["data"].(map[string]any)
		user, _ := data["user"].(map[string]any)
		if user["id"] != "user-42" || user["displayName"] != "Tester1" {
			t.Errorf("Unexpected user projection: %v", user)
		}
	})

	t.Run("authenticated via bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK {
			t.Errorf("Expected 200, got %d", rr.Code)
		}
	})

	t.Run("unauthenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401, got %d", rr.Code)
		}
		if rr.Body.Len() != 0 {
			t.Errorf("Expected empty body, got %q", rr.Body.String())
		}
	})

	t.Run("refresh token is not accepted as access token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: duoauth.AccessTokenCookie, Value: pair.RefreshToken})
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusUnauthorized {
			t.Errorf("Expected 401 for refresh token, got %d", rr.Code)
		}
	})
}
