package tests

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/yardimel/yardimel/core/cms"
	"github.com/yardimel/yardimel/core/user"
)

func Test_cmsApi_newsPublishFlow(t *testing.T) {
	db.Reset()

	manager := createUser(t, "Koordinator", "koordinator", "koordinator@yardimel.org", []string{user.RoleManager}, true)
	viewer := createUser(t, "Izleyici", "izleyici", "izleyici@yardimel.org", []string{user.RoleViewer}, true)
	token := getToken(t, manager)

	eventDate := time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC)
	newNews := cms.NewNews{
		Title:     "Kis Yardim Kampanyasi Basladi",
		Slug:      "kis-yardim-kampanyasi",
		Summary:   "Battaniye ve gida kolisi dagitimi",
		Content:   "Bu kis 500 aileye ulasmayi hedefliyoruz.",
		Tags:      "kis, battaniye, gida",
		Featured:  true,
		Location:  "Fatih dagitim merkezi",
		EventDate: &eventDate,
	}

	// staff area is manager-only
	req, rec := newAuthRequest(http.MethodPost, "/v1/cms/news", getToken(t, viewer), marchallObj(t, newNews))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "permission denied"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodPost, "/v1/cms/news", token, marchallObj(t, newNews))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var post cms.News
	if err := json.Unmarshal(rec.Body.Bytes(), &post); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if post.Status != cms.NewsDraft {
		t.Fatalf("status = %v; expected a fresh post to be a draft", post.Status)
	}
	if post.Tags != newNews.Tags || !post.Featured || post.Location != newNews.Location {
		t.Errorf("tags/featured/location not carried; got %q %v %q", post.Tags, post.Featured, post.Location)
	}
	if post.EventDate == nil || !post.EventDate.Equal(eventDate) {
		t.Errorf("event_date = %v; want %v", post.EventDate, eventDate)
	}

	// a slug must be URL-safe
	req, rec = newAuthRequest(http.MethodPost, "/v1/cms/news", token, marchallObj(t, cms.NewNews{
		Title:   "Bozuk Slug",
		Slug:    "Bozuk Slug!",
		Content: "icerik",
	}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{
			"slug": "only lowercase alphanumeric characters and hyphens are allowed",
		}),
	}, rec)

	// drafts are invisible on the public site
	req, rec = newRequest(http.MethodGet, "/v1/public/news/"+post.Slug)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusNotFound,
		wantData: marchallObj(t, httpErr{Error: cms.ErrNewsNotFound.Error()}),
	}, rec)

	req, rec = newAuthRequest(http.MethodPut, "/v1/cms/news/"+post.ID+"/publish", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("publish failed! code = %v; body %v", rec.Code, rec.Body.String())
	}

	// the public read bumps the view counter, no token required
	req, rec = newRequest(http.MethodGet, "/v1/public/news/"+post.Slug)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("public read failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var read cms.News
	if err := json.Unmarshal(rec.Body.Bytes(), &read); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if read.ViewCount != 1 {
		t.Errorf("view_count = %v; want 1", read.ViewCount)
	}
	if read.Status != cms.NewsPublished {
		t.Errorf("status = %v; want %v", read.Status, cms.NewsPublished)
	}

	// the public list only carries published posts
	req, rec = newRequest(http.MethodGet, "/v1/public/news")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("public list failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var posts []cms.News
	if err := json.Unmarshal(rec.Body.Bytes(), &posts); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(posts) != 1 || posts[0].ID != post.ID {
		t.Errorf("public news = %v; want the single published post", posts)
	}

	// unpublishing pulls it back off the site
	req, rec = newAuthRequest(http.MethodPut, "/v1/cms/news/"+post.ID+"/unpublish", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unpublish failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	req, rec = newRequest(http.MethodGet, "/v1/public/news/"+post.Slug)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusNotFound)
	}
}

func Test_cmsApi_contactMessages(t *testing.T) {
	db.Reset()

	manager := createUser(t, "Koordinator", "koordinator", "koordinator@yardimel.org", []string{user.RoleManager}, true)
	token := getToken(t, manager)

	// anyone can submit the contact form
	form := cms.NewContactMessage{
		Name:    "Ziyaretci",
		Email:   "ziyaretci@example.com",
		Subject: "Gonullu olmak istiyorum",
		Message: "Hafta sonlari dagitimlara katilabilirim.",
	}
	req, rec := newRequest(http.MethodPost, "/v1/public/contact", marchallObj(t, form))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var msg cms.ContactMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &msg); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if msg.Status != cms.MessageNew {
		t.Fatalf("status = %v; want %v", msg.Status, cms.MessageNew)
	}

	// but an email address is required
	req, rec = newRequest(http.MethodPost, "/v1/public/contact", marchallObj(t, cms.NewContactMessage{
		Name:    "Ziyaretci",
		Subject: "konu",
		Message: "mesaj",
	}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"email": "this field is required"}),
	}, rec)

	// the inbox is staff-only
	req, rec = newRequest(http.MethodGet, "/v1/cms/messages")
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusUnauthorized,
		wantData: marchallObj(t, errMissingToken),
	}, rec)

	req, rec = newAuthRequest(http.MethodPut, "/v1/cms/messages/"+msg.ID+"/read", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark read failed! code = %v; body %v", rec.Code, rec.Body.String())
	}

	reply := marchallObj(t, map[string]string{"note": "Tesekkurler, sizi arayacagiz."})
	req, rec = newAuthRequest(http.MethodPut, "/v1/cms/messages/"+msg.ID+"/reply", token, reply)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("mark replied failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var replied cms.ContactMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &replied); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if replied.Status != cms.MessageReplied {
		t.Errorf("status = %v; want %v", replied.Status, cms.MessageReplied)
	}
	if replied.ReplyNote == "" {
		t.Error("expected the reply note to be recorded")
	}
	if replied.ReadBy != manager.ID {
		t.Errorf("read_by = %v; want %v", replied.ReadBy, manager.ID)
	}
}

func Test_cmsApi_siteSettings(t *testing.T) {
	db.Reset()

	manager := createUser(t, "Koordinator", "koordinator", "koordinator@yardimel.org", []string{user.RoleManager}, true)
	token := getToken(t, manager)

	update := cms.UpdateSiteSettings{
		SiteName: "YardimEl Dernegi",
		Email:    "info@yardimel.org",
		IBAN:     "TR330006100519786457841326",
	}
	req, rec := newAuthRequest(http.MethodPut, "/v1/cms/settings", token, marchallObj(t, update))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("update failed! code = %v; body %v", rec.Code, rec.Body.String())
	}

	// the public site reads the same settings without auth
	req, rec = newRequest(http.MethodGet, "/v1/public/settings")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("public settings failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var ss cms.SiteSettings
	if err := json.Unmarshal(rec.Body.Bytes(), &ss); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if ss.SiteName != update.SiteName {
		t.Errorf("site_name = %v; want %v", ss.SiteName, update.SiteName)
	}
	if ss.IBAN != update.IBAN {
		t.Errorf("iban = %v; want %v", ss.IBAN, update.IBAN)
	}
}

func Test_cmsApi_testimonials(t *testing.T) {
	db.Reset()

	manager := createUser(t, "Koordinator", "koordinator", "koordinator@yardimel.org", []string{user.RoleManager}, true)
	token := getToken(t, manager)

	// ratings run 1..5
	req, rec := newAuthRequest(http.MethodPost, "/v1/cms/testimonials", token, marchallObj(t, cms.NewTestimonial{
		Name:   "Ayse Demir",
		Quote:  "Cok tesekkur ederiz.",
		Rating: 7,
	}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusBadRequest, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"rating"`) {
		t.Errorf("body = %v; want a rating field error", rec.Body.String())
	}

	// an omitted rating defaults to the top mark
	req, rec = newAuthRequest(http.MethodPost, "/v1/cms/testimonials", token, marchallObj(t, cms.NewTestimonial{
		Name:     "Ayse Demir",
		Quote:    "Cok tesekkur ederiz.",
		Featured: true,
	}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var tm cms.Testimonial
	if err := json.Unmarshal(rec.Body.Bytes(), &tm); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if tm.Rating != 5 {
		t.Errorf("rating = %v; want 5", tm.Rating)
	}
	if !tm.Featured {
		t.Error("expected the testimonial to be featured")
	}

	req, rec = newRequest(http.MethodGet, "/v1/public/testimonials")
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusOK,
		wantData: marchallList(t, tm),
	}, rec)
}
