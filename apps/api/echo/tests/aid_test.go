package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	. "github.com/yardimel/yardimel/apps/api/echo"
	"github.com/yardimel/yardimel/core/aid"
	"github.com/yardimel/yardimel/core/user"
)

// Test_aidApi_inKindWorkflow walks a request through the full workflow:
// pending -> approved -> prepared -> distributed, and checks the stock
// movements it leaves behind.
func Test_aidApi_inKindWorkflow(t *testing.T) {
	db.Reset()

	manager := createUser(t, "Koordinator", "koordinator", "koordinator@yardimel.org", []string{user.RoleManager}, true)
	worker := createUser(t, "Saha Gorevlisi", "sahaci", "saha@yardimel.org", []string{user.RoleFieldWorker}, true)
	fam := createFamily(t, "10000000146", "Fatma Yilmaz")
	itm := createItem(t, "Gida Kolisi", 10)

	managerToken := getToken(t, manager)
	workerToken := getToken(t, worker)
	ctx := context.Background()

	// field worker raises the request
	newReq := aid.NewRequest{
		FamilyID: fam.ID,
		Type:     aid.TypeInKind,
		Priority: aid.PriorityHigh,
		Reason:   "kis yardimi",
		Items:    []aid.NewRequestItem{{ItemID: itm.ID, RequestedQty: 4}},
	}
	req, rec := newAuthRequest(http.MethodPost, "/v1/aid/requests", workerToken, marchallObj(t, newReq))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var created aid.Request
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if created.Status != aid.StatusPending {
		t.Fatalf("status = %v; want %v", created.Status, aid.StatusPending)
	}

	// detail exposes the request lines
	req, rec = newAuthRequest(http.MethodGet, "/v1/aid/requests/"+created.ID, workerToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("retrieve failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var detail RequestResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(detail.Items) != 1 {
		t.Fatalf("len(items) = %v; want 1", len(detail.Items))
	}
	line := detail.Items[0]

	// field workers cannot approve
	approval := aid.ApproveRequest{Notes: "onaylandi", ApprovedQtys: map[string]float64{line.ID: 3}}
	req, rec = newAuthRequest(http.MethodPut, "/v1/aid/requests/"+created.ID+"/approve", workerToken, marchallObj(t, approval))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "permission denied"}),
	}, rec)

	// distribution before preparation is not a valid transition
	req, rec = newAuthRequest(http.MethodPut, "/v1/aid/requests/"+created.ID+"/distribute", workerToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: aid.ErrInvalidTransition.Error()}),
	}, rec)

	// manager approves with a trimmed quantity
	req, rec = newAuthRequest(http.MethodPut, "/v1/aid/requests/"+created.ID+"/approve", managerToken, marchallObj(t, approval))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var approved aid.Request
	if err := json.Unmarshal(rec.Body.Bytes(), &approved); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if approved.Status != aid.StatusApproved {
		t.Fatalf("status = %v; want %v", approved.Status, aid.StatusApproved)
	}
	if approved.ApprovedBy != manager.ID {
		t.Errorf("approved_by = %v; want %v", approved.ApprovedBy, manager.ID)
	}

	// approving twice is a conflict
	req, rec = newAuthRequest(http.MethodPut, "/v1/aid/requests/"+created.ID+"/approve", managerToken, marchallObj(t, approval))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: aid.ErrInvalidTransition.Error()}),
	}, rec)

	// preparation verifies stock and marks the request ready
	req, rec = newAuthRequest(http.MethodPut, "/v1/aid/requests/"+created.ID+"/prepare", workerToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("prepare failed! code = %v; body %v", rec.Code, rec.Body.String())
	}

	// distribution hands the aid out and decrements stock
	req, rec = newAuthRequest(http.MethodPut, "/v1/aid/requests/"+created.ID+"/distribute", workerToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("distribute failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var distributed aid.Request
	if err := json.Unmarshal(rec.Body.Bytes(), &distributed); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if distributed.Status != aid.StatusDistributed {
		t.Fatalf("status = %v; want %v", distributed.Status, aid.StatusDistributed)
	}

	// 3 of the 10 units went out, per the approved quantity
	stocked, err := invRepo.GetItemByID(ctx, itm.ID)
	if err != nil {
		t.Fatalf("GetItemByID() failed: %v", err)
	}
	if stocked.StockAmount != 7 {
		t.Errorf("stock = %g; want 7", stocked.StockAmount)
	}
}

func Test_aidApi_reject(t *testing.T) {
	db.Reset()

	manager := createUser(t, "Koordinator", "koordinator", "koordinator@yardimel.org", []string{user.RoleManager}, true)
	worker := createUser(t, "Saha Gorevlisi", "sahaci", "saha@yardimel.org", []string{user.RoleFieldWorker}, true)
	fam := createFamily(t, "10000000146", "Fatma Yilmaz")

	newReq := aid.NewRequest{
		FamilyID:   fam.ID,
		Type:       aid.TypeCash,
		CashAmount: 150000, // 1500 TL in kuruş
		Reason:     "kira destegi",
	}
	req, rec := newAuthRequest(http.MethodPost, "/v1/aid/requests", getToken(t, worker), marchallObj(t, newReq))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var created aid.Request
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	// rejection requires a reason
	req, rec = newAuthRequest(http.MethodPut, "/v1/aid/requests/"+created.ID+"/reject", getToken(t, manager), marchallObj(t, aid.RejectRequest{}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"reason": "this field is required"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodPut, "/v1/aid/requests/"+created.ID+"/reject", getToken(t, manager), marchallObj(t, aid.RejectRequest{Reason: "butce yetersiz"}))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("reject failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var rejected aid.Request
	if err := json.Unmarshal(rec.Body.Bytes(), &rejected); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if rejected.Status != aid.StatusRejected {
		t.Errorf("status = %v; want %v", rejected.Status, aid.StatusRejected)
	}
}

func Test_aidApi_distributions(t *testing.T) {
	db.Reset()

	manager := createUser(t, "Koordinator", "koordinator", "koordinator@yardimel.org", []string{user.RoleManager}, true)
	viewer := createUser(t, "Izleyici", "izleyici", "izleyici@yardimel.org", []string{user.RoleViewer}, true)
	token := getToken(t, manager)

	newDist := aid.NewDistribution{
		Name: "Fatih bolgesi kis dagitimi",
		Date: time.Now().AddDate(0, 0, 7),
		Type: aid.DistributionField,
		Zone: "Fatih",
	}

	// only managers may plan distributions
	req, rec := newAuthRequest(http.MethodPost, "/v1/aid/distributions", getToken(t, viewer), marchallObj(t, newDist))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusForbidden)
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/aid/distributions", token, marchallObj(t, newDist))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var dist aid.Distribution
	if err := json.Unmarshal(rec.Body.Bytes(), &dist); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if dist.IsCompleted {
		t.Error("expected a fresh distribution to be open")
	}

	req, rec = newAuthRequest(http.MethodPut, "/v1/aid/distributions/"+dist.ID+"/complete", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var done aid.Distribution
	if err := json.Unmarshal(rec.Body.Bytes(), &done); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if !done.IsCompleted {
		t.Error("expected distribution to be completed")
	}

	// completing twice is a conflict
	req, rec = newAuthRequest(http.MethodPut, "/v1/aid/distributions/"+dist.ID+"/complete", token)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: aid.ErrDistributionClosed.Error()}),
	}, rec)
}

// Test_aidApi_distributeRetry checks that a distribution attempt blocked by a
// stock shortfall deducts nothing, and that a retry never hands out a line
// that an earlier attempt already stamped.
func Test_aidApi_distributeRetry(t *testing.T) {
	db.Reset()

	manager := createUser(t, "Koordinator", "koordinator", "koordinator@yardimel.org", []string{user.RoleManager}, true)
	fam := createFamily(t, "10000000146", "Fatma Yilmaz")
	blanket := createItem(t, "Battaniye", 10)
	food := createItem(t, "Gida Kolisi", 10)
	token := getToken(t, manager)

	newReq := aid.NewRequest{
		FamilyID: fam.ID,
		Type:     aid.TypeInKind,
		Reason:   "kis yardimi",
		Items: []aid.NewRequestItem{
			{ItemID: blanket.ID, RequestedQty: 4},
			{ItemID: food.ID, RequestedQty: 4},
		},
	}
	req, rec := newAuthRequest(http.MethodPost, "/v1/aid/requests", token, marchallObj(t, newReq))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var created aid.Request
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	for _, path := range []string{"/approve", "/prepare"} {
		req, rec = newAuthRequest(http.MethodPut, "/v1/aid/requests/"+created.ID+path, token, marchallObj(t, aid.ApproveRequest{}))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s failed! code = %v; body %v", path, rec.Code, rec.Body.String())
		}
	}

	// the food stock drains between prepare and distribute
	itm, err := invRepo.GetItemByID(context.Background(), food.ID)
	if err != nil {
		t.Fatal(err)
	}
	itm.StockAmount = 2
	if _, err = invRepo.UpdateItem(context.Background(), itm); err != nil {
		t.Fatal(err)
	}

	req, rec = newAuthRequest(http.MethodPut, "/v1/aid/requests/"+created.ID+"/distribute", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusBadRequest, rec.Body.String())
	}

	// nothing was handed out: the blanket stock is untouched and the
	// request is still prepared
	itm, err = invRepo.GetItemByID(context.Background(), blanket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if itm.StockAmount != 10 {
		t.Fatalf("blanket stock = %v; want 10", itm.StockAmount)
	}
	got, err := aidRepo.GetRequestByID(context.Background(), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != aid.StatusPrepared {
		t.Fatalf("status = %v; want %v", got.Status, aid.StatusPrepared)
	}

	// a line stamped by an earlier attempt must not be deducted again
	lines, err := aidRepo.GetRequestItems(context.Background(), created.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range lines {
		if line.ItemID == blanket.ID {
			qty := 4.0
			line.DistributedQty = &qty
			if _, err = aidRepo.UpdateRequestItem(context.Background(), line); err != nil {
				t.Fatal(err)
			}
		}
	}
	itm, err = invRepo.GetItemByID(context.Background(), food.ID)
	if err != nil {
		t.Fatal(err)
	}
	itm.StockAmount = 10
	if _, err = invRepo.UpdateItem(context.Background(), itm); err != nil {
		t.Fatal(err)
	}

	req, rec = newAuthRequest(http.MethodPut, "/v1/aid/requests/"+created.ID+"/distribute", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("distribute failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	itm, err = invRepo.GetItemByID(context.Background(), blanket.ID)
	if err != nil {
		t.Fatal(err)
	}
	if itm.StockAmount != 10 {
		t.Errorf("blanket stock = %v; the stamped line must not be re-deducted", itm.StockAmount)
	}
	itm, err = invRepo.GetItemByID(context.Background(), food.ID)
	if err != nil {
		t.Fatal(err)
	}
	if itm.StockAmount != 6 {
		t.Errorf("food stock = %v; want 6", itm.StockAmount)
	}
}
