package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	. "github.com/yardimel/yardimel/apps/api/echo"
	"github.com/yardimel/yardimel/core/family"
	"github.com/yardimel/yardimel/core/user"
)

func Test_familyApi_create(t *testing.T) {
	db.Reset()

	worker := createUser(t, "Saha Gorevlisi", "sahaci", "saha@yardimel.org", []string{user.RoleFieldWorker}, true)
	viewer := createUser(t, "Izleyici", "izleyici", "izleyici@yardimel.org", []string{user.RoleViewer}, true)
	existing := createFamily(t, "10000000146", "Mevcut Aile")

	newFam := family.NewFamily{
		NationalID:         "12345678901",
		RepresentativeName: "Fatma Yilmaz",
		Phone:              "05321112233",
		City:               "Istanbul",
		District:           "Fatih",
		Neighborhood:       "Aksaray",
		AddressDetail:      "Ordu Cd. 12/3",
	}

	tests := []httpTest{
		{
			name:     "no token",
			body:     marchallObj(t, newFam),
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errMissingToken),
		},
		{
			name:     "viewer forbidden",
			body:     marchallObj(t, newFam),
			token:    getToken(t, viewer),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "bad national ID",
			body: marchallObj(t, family.NewFamily{
				NationalID:         "not-a-number",
				RepresentativeName: newFam.RepresentativeName,
				Phone:              newFam.Phone,
				City:               newFam.City,
				District:           newFam.District,
				Neighborhood:       newFam.Neighborhood,
				AddressDetail:      newFam.AddressDetail,
			}),
			token:    getToken(t, worker),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"national_id": "national ID must be 11 digits",
			}),
		},
		{
			name: "duplicate national ID",
			body: marchallObj(t, family.NewFamily{
				NationalID:         existing.NationalID,
				RepresentativeName: newFam.RepresentativeName,
				Phone:              newFam.Phone,
				City:               newFam.City,
				District:           newFam.District,
				Neighborhood:       newFam.Neighborhood,
				AddressDetail:      newFam.AddressDetail,
			}),
			token:    getToken(t, worker),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"national_id": family.ErrNationalIDExists.Error(),
			}),
		},
		{
			name:     "field worker registers a family",
			body:     marchallObj(t, newFam),
			token:    getToken(t, worker),
			wantCode: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/families", tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			var fam family.Family
			if err := json.Unmarshal(rec.Body.Bytes(), &fam); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if fam.Status != family.StatusPending {
				t.Errorf("status = %v; want %v", fam.Status, family.StatusPending)
			}
			if fam.CreatedBy != worker.ID {
				t.Errorf("created_by = %v; want %v", fam.CreatedBy, worker.ID)
			}
			if !fam.Active() {
				t.Error("expected new family to be active")
			}
		})
	}
}

func Test_familyApi_setStatus(t *testing.T) {
	db.Reset()

	manager := createUser(t, "Koordinator", "koordinator", "koordinator@yardimel.org", []string{user.RoleManager}, true)
	worker := createUser(t, "Saha Gorevlisi", "sahaci", "saha@yardimel.org", []string{user.RoleFieldWorker}, true)
	fam := createFamily(t, "10000000146", "Fatma Yilmaz")

	tests := []httpTest{
		{
			name:     "field worker cannot change status",
			path:     "/v1/families/" + fam.ID + "/status",
			body:     marchallObj(t, StatusRequest{Status: family.StatusActive}),
			token:    getToken(t, worker),
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name:     "invalid status",
			path:     "/v1/families/" + fam.ID + "/status",
			body:     marchallObj(t, StatusRequest{Status: "frozen"}),
			token:    getToken(t, manager),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"status": family.ErrInvalidStatus.Error(),
			}),
		},
		{
			name:     "unknown family",
			path:     "/v1/families/4f6e2a8a-0000-0000-0000-000000000000/status",
			body:     marchallObj(t, StatusRequest{Status: family.StatusActive}),
			token:    getToken(t, manager),
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: family.ErrNotFound.Error()}),
		},
		{
			name:     "manager activates family",
			path:     "/v1/families/" + fam.ID + "/status",
			body:     marchallObj(t, StatusRequest{Status: family.StatusActive}),
			token:    getToken(t, manager),
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPut, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			if rec.Code != tt.wantCode {
				t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
			}
			var updated family.Family
			if err := json.Unmarshal(rec.Body.Bytes(), &updated); err != nil {
				t.Fatalf("failed to unmarshal response: %v", err)
			}
			if updated.Status != family.StatusActive {
				t.Errorf("status = %v; want %v", updated.Status, family.StatusActive)
			}
		})
	}
}

func Test_familyApi_archive(t *testing.T) {
	db.Reset()

	manager := createUser(t, "Koordinator", "koordinator", "koordinator@yardimel.org", []string{user.RoleManager}, true)
	worker := createUser(t, "Saha Gorevlisi", "sahaci", "saha@yardimel.org", []string{user.RoleFieldWorker}, true)
	fam := createFamily(t, "10000000146", "Fatma Yilmaz")

	// field workers may register families but not archive them
	req, rec := newAuthRequest(http.MethodDelete, "/v1/families/"+fam.ID, getToken(t, worker))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusForbidden)
	}

	req, rec = newAuthRequest(http.MethodDelete, "/v1/families/"+fam.ID, getToken(t, manager))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
	}

	// the record survives as an inactive row
	archived, err := famRepo.GetFamilyByID(context.Background(), fam.ID)
	if err != nil {
		t.Fatalf("GetFamilyByID() failed: %v", err)
	}
	if archived.Active() {
		t.Error("expected archived family to be inactive")
	}
	if archived.Status != family.StatusInactive {
		t.Errorf("status = %v; want %v", archived.Status, family.StatusInactive)
	}
}

func Test_familyApi_members(t *testing.T) {
	db.Reset()

	worker := createUser(t, "Saha Gorevlisi", "sahaci", "saha@yardimel.org", []string{user.RoleFieldWorker}, true)
	fam := createFamily(t, "10000000146", "Fatma Yilmaz")
	token := getToken(t, worker)

	age := 42
	head := family.NewMember{FullName: "Fatma Yilmaz", Relation: family.RelationHead, Age: &age}

	// add the head of household
	req, rec := newAuthRequest(http.MethodPost, "/v1/families/"+fam.ID+"/members", token, marchallObj(t, head))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var mbr family.Member
	if err := json.Unmarshal(rec.Body.Bytes(), &mbr); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if !mbr.IsHead {
		t.Error("expected member to be flagged as head of household")
	}

	// a family can only have one head
	second := family.NewMember{FullName: "Ali Yilmaz", Relation: family.RelationHead}
	req, rec = newAuthRequest(http.MethodPost, "/v1/families/"+fam.ID+"/members", token, marchallObj(t, second))
	app.ServeHTTP(rec, req)
	tt := httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"relation": family.ErrHeadExists.Error()}),
	}
	checkCodeAndData(t, tt, rec)

	// children are fine
	child := family.NewMember{FullName: "Zeynep Yilmaz", Relation: family.RelationChild}
	req, rec = newAuthRequest(http.MethodPost, "/v1/families/"+fam.ID+"/members", token, marchallObj(t, child))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusCreated)
	}

	// list reflects both members
	req, rec = newAuthRequest(http.MethodGet, "/v1/families/"+fam.ID+"/members", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}
	var members []family.Member
	if err := json.Unmarshal(rec.Body.Bytes(), &members); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(members) != 2 {
		t.Errorf("len(members) = %v; want 2", len(members))
	}

	// removing a member
	req, rec = newAuthRequest(http.MethodDelete, "/v1/families/"+fam.ID+"/members/"+mbr.ID, token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
	}
}

func Test_familyApi_documents(t *testing.T) {
	db.Reset()

	worker := createUser(t, "Saha Gorevlisi", "sahaci", "saha@yardimel.org", []string{user.RoleFieldWorker}, true)
	fam := createFamily(t, "10000000146", "Fatma Yilmaz")
	token := getToken(t, worker)

	doc := family.NewDocument{Type: family.DocumentIDCard, FileName: "kimlik-on.jpg"}
	req, rec := newAuthRequest(http.MethodPost, "/v1/families/"+fam.ID+"/documents", token, marchallObj(t, doc))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var created family.Document
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if created.CreatedBy != worker.ID {
		t.Errorf("created_by = %v; want %v", created.CreatedBy, worker.ID)
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/families/"+fam.ID+"/documents", token)
	app.ServeHTTP(rec, req)
	tt := httpTest{
		wantCode: http.StatusOK,
		wantData: marchallList(t, created),
	}
	checkCodeAndData(t, tt, rec)

	req, rec = newAuthRequest(http.MethodDelete, "/v1/families/"+fam.ID+"/documents/"+created.ID, token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusNoContent)
	}
}
