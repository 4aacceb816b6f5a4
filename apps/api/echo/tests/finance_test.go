package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/yardimel/yardimel/core/finance"
	"github.com/yardimel/yardimel/core/user"
)

func Test_financeApi_cashAidWorkflow(t *testing.T) {
	db.Reset()

	accountant := createUser(t, "Muhasebe", "muhasebe", "muhasebe@yardimel.org", []string{user.RoleAccountant}, true)
	manager := createUser(t, "Koordinator", "koordinator", "koordinator@yardimel.org", []string{user.RoleManager}, true)
	fam := createFamily(t, "10000000146", "Fatma Yilmaz")
	token := getToken(t, accountant)

	newCA := finance.NewCashAid{
		FamilyID: fam.ID,
		Amount:   250000, // 2500 TL in kuruş
		Reason:   "kira destegi",
	}

	// finance is off-limits to managers without the accountant role
	req, rec := newAuthRequest(http.MethodPost, "/v1/finance/cash-aids", getToken(t, manager), marchallObj(t, newCA))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusForbidden,
		wantData: marchallObj(t, httpErr{Error: "permission denied"}),
	}, rec)

	req, rec = newAuthRequest(http.MethodPost, "/v1/finance/cash-aids", token, marchallObj(t, newCA))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var ca finance.CashAid
	if err := json.Unmarshal(rec.Body.Bytes(), &ca); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if ca.Status != finance.CashAidPending {
		t.Fatalf("status = %v; want %v", ca.Status, finance.CashAidPending)
	}

	// paying before approval is a conflict
	pay := finance.PayCashAid{PaymentMethod: "bank_transfer", ReferenceNo: "TRF-2024-0042"}
	req, rec = newAuthRequest(http.MethodPut, "/v1/finance/cash-aids/"+ca.ID+"/pay", token, marchallObj(t, pay))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: finance.ErrInvalidTransition.Error()}),
	}, rec)

	req, rec = newAuthRequest(http.MethodPut, "/v1/finance/cash-aids/"+ca.ID+"/approve", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve failed! code = %v; body %v", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodPut, "/v1/finance/cash-aids/"+ca.ID+"/pay", token, marchallObj(t, pay))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("pay failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var paid finance.CashAid
	if err := json.Unmarshal(rec.Body.Bytes(), &paid); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if paid.Status != finance.CashAidPaid {
		t.Fatalf("status = %v; want %v", paid.Status, finance.CashAidPaid)
	}
	// the payment books an expense transaction
	if paid.TransactionID == "" {
		t.Fatal("expected a transaction_id on the paid cash aid")
	}
	req, rec = newAuthRequest(http.MethodGet, "/v1/finance/transactions/"+paid.TransactionID, token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("retrieve transaction failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var trx finance.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &trx); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if trx.Type != finance.TransactionExpense || trx.Amount != newCA.Amount {
		t.Errorf("transaction = %v %v; want %v %v", trx.Type, trx.Amount, finance.TransactionExpense, newCA.Amount)
	}
}

func Test_financeApi_invoiceLifecycle(t *testing.T) {
	db.Reset()

	accountant := createUser(t, "Muhasebe", "muhasebe", "muhasebe@yardimel.org", []string{user.RoleAccountant}, true)
	fam := createFamily(t, "10000000146", "Fatma Yilmaz")
	token := getToken(t, accountant)

	newInv := finance.NewPendingInvoice{
		Type:         finance.InvoiceElectric,
		Amount:       85000,
		SubscriberNo: "ELK-102030",
		Provider:     "BEDAS",
		DueDate:      time.Now().AddDate(0, 0, 15),
	}
	req, rec := newAuthRequest(http.MethodPost, "/v1/finance/invoices", token, marchallObj(t, newInv))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var inv finance.PendingInvoice
	if err := json.Unmarshal(rec.Body.Bytes(), &inv); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if inv.Status != finance.InvoiceAvailable {
		t.Fatalf("status = %v; want %v", inv.Status, finance.InvoiceAvailable)
	}

	// a donor picks the bill up for a family
	reserve := marchallObj(t, map[string]string{"family_id": fam.ID})
	req, rec = newAuthRequest(http.MethodPut, "/v1/finance/invoices/"+inv.ID+"/reserve", token, reserve)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("reserve failed! code = %v; body %v", rec.Code, rec.Body.String())
	}

	// a reserved bill cannot be reserved again
	req, rec = newAuthRequest(http.MethodPut, "/v1/finance/invoices/"+inv.ID+"/reserve", token, reserve)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: finance.ErrInvoiceNotAvailable.Error()}),
	}, rec)

	req, rec = newAuthRequest(http.MethodPut, "/v1/finance/invoices/"+inv.ID+"/use", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("use failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var used finance.PendingInvoice
	if err := json.Unmarshal(rec.Body.Bytes(), &used); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if used.Status != finance.InvoiceUsed {
		t.Errorf("status = %v; want %v", used.Status, finance.InvoiceUsed)
	}

	// releasing a used bill is a conflict
	req, rec = newAuthRequest(http.MethodPut, "/v1/finance/invoices/"+inv.ID+"/release", token)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: finance.ErrInvoiceNotReserved.Error()}),
	}, rec)
}

func Test_financeApi_summary(t *testing.T) {
	db.Reset()

	accountant := createUser(t, "Muhasebe", "muhasebe", "muhasebe@yardimel.org", []string{user.RoleAccountant}, true)
	token := getToken(t, accountant)
	now := time.Now().UTC()

	record := func(typ, category string, amount int64) {
		t.Helper()
		nt := finance.NewTransaction{
			Type:        typ,
			Category:    category,
			Amount:      amount,
			Date:        now,
			Description: "test kaydi",
		}
		req, rec := newAuthRequest(http.MethodPost, "/v1/finance/transactions", token, marchallObj(t, nt))
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("record transaction failed! code = %v; body %v", rec.Code, rec.Body.String())
		}
	}

	record(finance.TransactionIncome, finance.CategoryDonation, 500000)
	record(finance.TransactionExpense, finance.CategoryAid, 200000)
	record(finance.TransactionExpense, finance.CategoryRent, 100000)

	req, rec := newAuthRequest(http.MethodGet, "/v1/finance/summary", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var sum finance.Summary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if sum.TotalIncome != 500000 {
		t.Errorf("total_income = %v; want 500000", sum.TotalIncome)
	}
	if sum.TotalExpense != 300000 {
		t.Errorf("total_expense = %v; want 300000", sum.TotalExpense)
	}
	if sum.Balance != 200000 {
		t.Errorf("balance = %v; want 200000", sum.Balance)
	}
	if sum.ByCategory[finance.CategoryDonation] != 500000 || sum.ByCategory[finance.CategoryAid] != -200000 {
		t.Errorf("by_category = %v", sum.ByCategory)
	}

	// a bad time filter is rejected
	req, rec = newAuthRequest(http.MethodGet, "/v1/finance/summary?from=yesterday", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusBadRequest)
	}
}

func Test_financeApi_payCashAid_insufficientAccount(t *testing.T) {
	db.Reset()

	accountant := createUser(t, "Muhasebe", "muhasebe", "muhasebe@yardimel.org", []string{user.RoleAccountant}, true)
	fam := createFamily(t, "10000000146", "Fatma Yilmaz")
	acct := createItem(t, "Nakit kasa", 10) // 10 lira
	token := getToken(t, accountant)

	newCA := finance.NewCashAid{
		FamilyID:      fam.ID,
		Amount:        150000, // 1500 TL in kuruş
		Reason:        "kira destegi",
		AccountItemID: acct.ID,
	}
	req, rec := newAuthRequest(http.MethodPost, "/v1/finance/cash-aids", token, marchallObj(t, newCA))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed! code = %v; body %v", rec.Code, rec.Body.String())
	}
	var ca finance.CashAid
	if err := json.Unmarshal(rec.Body.Bytes(), &ca); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	req, rec = newAuthRequest(http.MethodPut, "/v1/finance/cash-aids/"+ca.ID+"/approve", token)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve failed! code = %v; body %v", rec.Code, rec.Body.String())
	}

	// the account cannot cover the aid; the payment must fail without
	// booking an expense or flipping the aid to paid
	pay := finance.PayCashAid{PaymentMethod: "bank_transfer", ReferenceNo: "TRF-2024-0099"}
	req, rec = newAuthRequest(http.MethodPut, "/v1/finance/cash-aids/"+ca.ID+"/pay", token, marchallObj(t, pay))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("failed! code = %v; wantCode %v; body %v", rec.Code, http.StatusBadRequest, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/finance/transactions", token)
	app.ServeHTTP(rec, req)
	var trxs []finance.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &trxs); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(trxs) != 0 {
		t.Fatalf("transactions = %v; a failed payment must not book an expense", trxs)
	}
	got, err := finRepo.GetCashAidByID(context.Background(), ca.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != finance.CashAidApproved {
		t.Fatalf("status = %v; want %v", got.Status, finance.CashAidApproved)
	}

	// fund the account and retry; exactly one expense lands
	acct, err = invRepo.GetItemByID(context.Background(), acct.ID)
	if err != nil {
		t.Fatal(err)
	}
	acct.StockAmount = 2500
	if _, err = invRepo.UpdateItem(context.Background(), acct); err != nil {
		t.Fatal(err)
	}
	req, rec = newAuthRequest(http.MethodPut, "/v1/finance/cash-aids/"+ca.ID+"/pay", token, marchallObj(t, pay))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("pay failed! code = %v; body %v", rec.Code, rec.Body.String())
	}

	req, rec = newAuthRequest(http.MethodGet, "/v1/finance/transactions", token)
	app.ServeHTTP(rec, req)
	trxs = nil
	if err := json.Unmarshal(rec.Body.Bytes(), &trxs); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if len(trxs) != 1 || trxs[0].Amount != newCA.Amount {
		t.Fatalf("transactions = %v; want a single expense of %v", trxs, newCA.Amount)
	}
	itm, err := invRepo.GetItemByID(context.Background(), acct.ID)
	if err != nil {
		t.Fatal(err)
	}
	if itm.StockAmount != 1000 {
		t.Errorf("account balance = %v; want 1000", itm.StockAmount)
	}
}
