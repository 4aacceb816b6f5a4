package tests

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	. "github.com/yardimel/yardimel/apps/api/echo"
	"github.com/yardimel/yardimel/core/inventory"
	"github.com/yardimel/yardimel/core/user"
)

func Test_inventoryApi_categories(t *testing.T) {
	db.Reset()

	manager := createUser(t, "Koordinator", "koordinator", "koordinator@yardimel.org", []string{user.RoleManager}, true)
	viewer := createUser(t, "Izleyici", "izleyici", "izleyici@yardimel.org", []string{user.RoleViewer}, true)
	token := getToken(t, manager)

	newCat := inventory.NewCategory{Name: "Gida", Description: "Temel gida kolileri"}

	req, rec := newAuthRequest(http.MethodPost, "/v1/inventory/categories", getToken(t, viewer), marchallObj(t, newCat))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusForbidden)
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/inventory/categories", token, marchallObj(t, newCat))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body %v", rec.Code, rec.Body.String())
	}

	// category names are unique
	req, rec = newAuthRequest(http.MethodPost, "/v1/inventory/categories", token, marchallObj(t, newCat))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"name": inventory.ErrCategoryExists.Error()}),
	}, rec)
}

func Test_inventoryApi_movements(t *testing.T) {
	db.Reset()

	manager := createUser(t, "Koordinator", "koordinator", "koordinator@yardimel.org", []string{user.RoleManager}, true)
	itm := createItem(t, "Battaniye", 5)
	token := getToken(t, manager)
	ctx := context.Background()

	// incoming donation
	in := inventory.NewMovement{ItemID: itm.ID, Type: inventory.MovementIn, Quantity: 20, DonorName: "Hayirsever"}
	req, rec := newAuthRequest(http.MethodPost, "/v1/inventory/movements", token, marchallObj(t, in))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("movement in failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var mv inventory.Movement
	if err := json.Unmarshal(rec.Body.Bytes(), &mv); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if mv.StockBefore != 5 || mv.StockAfter != 25 {
		t.Errorf("stock went %g -> %g; want 5 -> 25", mv.StockBefore, mv.StockAfter)
	}

	// outgoing
	out := inventory.NewMovement{ItemID: itm.ID, Type: inventory.MovementOut, Quantity: 8}
	req, rec = newAuthRequest(http.MethodPost, "/v1/inventory/movements", token, marchallObj(t, out))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("movement out failed! code = %v; body %v", rec.Code, rec.Body.String())
	}

	// stock can never go negative
	tooMuch := inventory.NewMovement{ItemID: itm.ID, Type: inventory.MovementOut, Quantity: 100}
	req, rec = newAuthRequest(http.MethodPost, "/v1/inventory/movements", token, marchallObj(t, tooMuch))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{
			"quantity": fmt.Sprintf("%s: %s has %g, requested %g", inventory.ErrInsufficientStock, itm.Name, 17.0, 100.0),
		}),
	}, rec)

	stocked, err := invRepo.GetItemByID(ctx, itm.ID)
	if err != nil {
		t.Fatalf("GetItemByID() failed: %v", err)
	}
	if stocked.StockAmount != 17 {
		t.Errorf("stock = %g; want 17", stocked.StockAmount)
	}
}

func Test_inventoryApi_counts(t *testing.T) {
	db.Reset()

	manager := createUser(t, "Koordinator", "koordinator", "koordinator@yardimel.org", []string{user.RoleManager}, true)
	itm := createItem(t, "Battaniye", 30)
	token := getToken(t, manager)

	newCnt := inventory.NewCount{Name: "Yil sonu sayimi", CountDate: time.Now()}
	req, rec := newAuthRequest(http.MethodPost, "/v1/inventory/counts", token, marchallObj(t, newCnt))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var cnt inventory.Count
	if err := json.Unmarshal(rec.Body.Bytes(), &cnt); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if cnt.Status != inventory.CountPlanned {
		t.Fatalf("status = %v; want %v", cnt.Status, inventory.CountPlanned)
	}

	// counting the first item moves the count in progress and snapshots the
	// system quantity
	nci := inventory.NewCountItem{ItemID: itm.ID, CountedQty: 27}
	req, rec = newAuthRequest(http.MethodPost, "/v1/inventory/counts/"+cnt.ID+"/items", token, marchallObj(t, nci))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add count item failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var ci inventory.CountItem
	if err := json.Unmarshal(rec.Body.Bytes(), &ci); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if ci.SystemQuantity != 30 {
		t.Errorf("system_quantity = %g; want 30", ci.SystemQuantity)
	}
	if ci.Discrepancy() != -3 {
		t.Errorf("discrepancy = %g; want -3", ci.Discrepancy())
	}

	// an item can only be counted once per count
	req, rec = newAuthRequest(http.MethodPost, "/v1/inventory/counts/"+cnt.ID+"/items", token, marchallObj(t, nci))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"item_id": inventory.ErrCountItemExists.Error()}),
	}, rec)

	req, rec = newAuthRequest(http.MethodPut, "/v1/inventory/counts/"+cnt.ID+"/complete", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete failed! code = %v; body %v", rec.Code, rec.Body.String())
	}

	// no more counting once the count is closed
	late := inventory.NewCountItem{ItemID: itm.ID, CountedQty: 1}
	req, rec = newAuthRequest(http.MethodPost, "/v1/inventory/counts/"+cnt.ID+"/items", token, marchallObj(t, late))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, httpErr{Error: inventory.ErrCountClosed.Error()}),
	}, rec)
}
