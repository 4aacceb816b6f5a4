package tests

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"
	"time"

	. "github.com/yardimel/yardimel/apps/api/echo"
	"github.com/yardimel/yardimel/core/user"
	emailsvc "github.com/yardimel/yardimel/services/email"
)

func Test_userApi_login(t *testing.T) {
	db.Reset()

	usr := createUser(t, "Aysel Demir", "ayseld", "aysel@yardimel.org", []string{user.RoleFieldWorker}, true)
	_ = createUser(t, "Eski Gonullu", "eskigonullu", "eski@yardimel.org", nil, false)

	tests := []httpTest{
		{
			name:     "empty body",
			body:     marchallObj(t, LoginRequest{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username": "this field is required",
				"password": "this field is required",
			}),
		},
		{
			name:     "unknown user",
			body:     marchallObj(t, LoginRequest{Username: "ghost", Password: testUserPwd}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "wrong password",
			body:     marchallObj(t, LoginRequest{Username: usr.Username, Password: "nope nope"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name:     "deactivated account",
			body:     marchallObj(t, LoginRequest{Username: "eskigonullu", Password: testUserPwd}),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
		{
			name:     "login with username",
			body:     marchallObj(t, LoginRequest{Username: usr.Username, Password: testUserPwd}),
			wantCode: http.StatusOK,
		},
		{
			name:     "login with email",
			body:     marchallObj(t, LoginRequest{Username: usr.Email, Password: testUserPwd}),
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodPost, "/v1/users/login", tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			var resp LoginResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if resp.Token == "" {
				t.Error("expected a token in the response")
			}
		})
	}
}

func Test_userApi_tokenRefresh(t *testing.T) {
	db.Reset()

	usr := createUser(t, "Aysel Demir", "ayseld", "aysel@yardimel.org", []string{user.RoleFieldWorker}, true)

	staleClaims := GetUserClaims(usr, time.Now().Add(-5*time.Hour).Unix())
	staleToken, err := GenerateToken(staleClaims)
	if err != nil {
		t.Fatalf("GenerateToken() failed: %v", err)
	}

	tests := []httpTest{
		{
			name:     "no token",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "stale token",
			token:    staleToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "refresh has expired"}),
		},
		{
			name:     "fresh token",
			token:    getToken(t, usr),
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", tt.token)
			app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			var resp LoginResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if resp.Token == "" {
				t.Error("expected a refreshed token in the response")
			}
		})
	}
}

func Test_userApi_query(t *testing.T) {
	db.Reset()

	admin := createUser(t, "Yonetici", "yonetici", "admin@yardimel.org", []string{user.RoleAdmin}, true)
	worker := createUser(t, "Saha Gorevlisi", "sahaci", "saha@yardimel.org", []string{user.RoleFieldWorker}, true)
	viewer := createUser(t, "Izleyici", "izleyici", "izleyici@yardimel.org", []string{user.RoleViewer}, true)
	inactive := createUser(t, "Pasif Uye", "pasifuye", "pasif@yardimel.org", []string{user.RoleViewer}, false)

	adminToken := getToken(t, admin)
	bPtr := func(b bool) *bool { return &b }

	path := func(search string, isActive *bool, roles ...string) string {
		v := make(url.Values)
		if search != "" {
			v.Add("search", search)
		}
		if isActive != nil {
			if *isActive {
				v.Add("is_active", "true")
			} else {
				v.Add("is_active", "false")
			}
		}
		for _, r := range roles {
			v.Add("role", r)
		}
		if len(v) == 0 {
			return "/v1/users"
		}
		return "/v1/users?" + v.Encode()
	}

	tests := []httpTest{
		{
			name:     "no token",
			path:     path("", nil),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "viewer forbidden",
			path:     path("", nil),
			token:    getToken(t, viewer),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "field worker forbidden",
			path:     path("", nil),
			token:    getToken(t, worker),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "all users",
			path:     path("", nil),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t, admin, worker, viewer, inactive),
		},
		{
			name:     "search by name",
			path:     path("saha", nil),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t, worker),
		},
		{
			name:     "filter by role",
			path:     path("", nil, user.RoleViewer),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t, viewer, inactive),
		},
		{
			name:     "active only",
			path:     path("", bPtr(true)),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t, admin, worker, viewer),
		},
		{
			name:     "inactive only",
			path:     path("", bPtr(false)),
			token:    adminToken,
			wantCode: http.StatusOK,
			wantData: marchallList(t, inactive),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_register(t *testing.T) {
	db.Reset()
	emailsvc.ClearSentMessages()

	admin := createUser(t, "Yonetici", "yonetici", "admin@yardimel.org", []string{user.RoleAdmin}, true)
	viewer := createUser(t, "Izleyici", "izleyici", "izleyici@yardimel.org", []string{user.RoleViewer}, true)

	newUsr := user.NewUser{
		Name:            "Kerem Aydin",
		Username:        "keremaydin",
		Email:           "kerem@yardimel.org",
		Password:        testUserPwd,
		PasswordConfirm: testUserPwd,
		Roles:           []string{user.RoleAccountant},
	}

	tests := []httpTest{
		{
			name:     "no token",
			body:     marchallObj(t, newUsr),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "non-admin forbidden",
			body:     marchallObj(t, newUsr),
			token:    getToken(t, viewer),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "admin creates accountant",
			body:     marchallObj(t, newUsr),
			token:    getToken(t, admin),
			wantCode: http.StatusCreated,
		},
		{
			name:     "duplicate username",
			body:     marchallObj(t, newUsr),
			token:    getToken(t, admin),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"username": user.ErrUsernameExists.Error(),
			}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/users/register", tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			var created user.User
			if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if created.Username != newUsr.Username {
				t.Errorf("username = %v; want %v", created.Username, newUsr.Username)
			}
			if !created.HasRole(user.RoleAccountant) {
				t.Errorf("roles = %v; want %v", created.Roles, newUsr.Roles)
			}
			if !created.Active() {
				t.Error("expected new user to be active")
			}
			if len(emailsvc.SentMessages) == 0 {
				t.Error("expected a welcome email to be sent")
			}
		})
	}
}

func Test_userApi_retrieve(t *testing.T) {
	db.Reset()

	admin := createUser(t, "Yonetici", "yonetici", "admin@yardimel.org", []string{user.RoleAdmin}, true)
	worker := createUser(t, "Saha Gorevlisi", "sahaci", "saha@yardimel.org", []string{user.RoleFieldWorker}, true)
	viewer := createUser(t, "Izleyici", "izleyici", "izleyici@yardimel.org", []string{user.RoleViewer}, true)

	tests := []httpTest{
		{
			name:     "no token",
			path:     "/v1/users/" + worker.ID,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "own profile",
			path:     "/v1/users/" + worker.ID,
			token:    getToken(t, worker),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, worker),
		},
		{
			name:     "someone else's profile hidden",
			path:     "/v1/users/" + worker.ID,
			token:    getToken(t, viewer),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name:     "admin sees anyone",
			path:     "/v1/users/" + worker.ID,
			token:    getToken(t, admin),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, worker),
		},
		{
			name:     "admin, unknown id",
			path:     "/v1/users/4f6e2a8a-0000-0000-0000-000000000000",
			token:    getToken(t, admin),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_passwordReset(t *testing.T) {
	db.Reset()
	emailsvc.ClearSentMessages()

	usr := createUser(t, "Aysel Demir", "ayseld", "aysel@yardimel.org", []string{user.RoleFieldWorker}, true)

	body := marchallObj(t, PasswordResetRequest{Email: usr.Email})
	req, rec := newRequest(http.MethodPost, "/v1/users/password-reset", body)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}
	if len(emailsvc.SentMessages) != 1 {
		t.Fatalf("expected 1 password reset email, got %d", len(emailsvc.SentMessages))
	}

	// unknown emails get the same response and no mail, so the endpoint
	// cannot be used to probe for accounts
	emailsvc.ClearSentMessages()
	body = marchallObj(t, PasswordResetRequest{Email: "ghost@yardimel.org"})
	req, rec = newRequest(http.MethodPost, "/v1/users/password-reset", body)
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}
	if len(emailsvc.SentMessages) != 0 {
		t.Fatalf("expected no email for an unknown address, got %d", len(emailsvc.SentMessages))
	}
}
