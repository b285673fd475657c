package omada

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/camstm/voucherhub/app/models"
)

// testClient wires a client against the given server with a pre-seeded valid
// token so calls skip the grant round trip unless the token gets invalidated.
func testClient(srvURL string) (*Client, *memoryConfigStore) {
	expiry := time.Now().Add(time.Hour)
	store := &memoryConfigStore{cfg: &models.OmadaConfig{
		ControllerURL:  srvURL,
		OmadacID:       "omadac-1",
		ClientID:       "id",
		ClientSecret:   "secret",
		AccessToken:    "seeded-token",
		TokenExpiresAt: &expiry,
		IsActive:       true,
	}}
	return NewClient(NewTokenManager(store)), store
}

func TestListSites(t *testing.T) {
	var gotPath, gotAuth, gotRequestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode(map[string]any{
			"errorCode": 0,
			"msg":       "Success.",
			"result": map[string]any{
				"totalRows":   1,
				"currentPage": 1,
				"currentSize": 10,
				"data": []map[string]any{
					{"siteId": "site-abc", "name": "Cafe", "region": "BR", "timeZone": "America/Sao_Paulo", "scenario": "Hotel", "type": 0},
				},
			},
		})
	}))
	defer srv.Close()

	client, _ := testClient(srv.URL)
	page, err := client.ListSites(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/openapi/v1/omadac-1/sites" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotAuth != "AccessToken=seeded-token" {
		t.Fatalf("unexpected authorization header: %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Fatalf("expected a request id header")
	}
	if page.TotalRows != 1 || len(page.Data) != 1 || page.Data[0].SiteID != "site-abc" {
		t.Fatalf("unexpected page: %+v", page)
	}
}

func TestDoRetriesOnceOnTokenRejection(t *testing.T) {
	var calls int
	var tokens []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "authorize/token") {
			w.Write([]byte(tokenEnvelope("regranted-token", "", 3600)))
			return
		}
		calls++
		tokens = append(tokens, r.Header.Get("Authorization"))
		if calls == 1 {
			w.Write([]byte(`{"errorCode":-44112,"msg":"The Access Token has expired"}`))
			return
		}
		w.Write([]byte(`{"errorCode":0,"msg":"Success.","result":{"totalRows":0,"currentPage":1,"currentSize":10,"data":[]}}`))
	}))
	defer srv.Close()

	client, _ := testClient(srv.URL)
	if _, err := client.ListSites(context.Background(), 1, 10); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", calls)
	}
	if tokens[0] != "AccessToken=seeded-token" || tokens[1] != "AccessToken=regranted-token" {
		t.Fatalf("expected a fresh token on retry, got %v", tokens)
	}
}

func TestDoDoesNotLoopWhenRetryRejectedAgain(t *testing.T) {
	var dataCalls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "authorize/token") {
			w.Write([]byte(tokenEnvelope("still-bad-token", "", 3600)))
			return
		}
		dataCalls++
		w.Write([]byte(`{"errorCode":-44112,"msg":"The Access Token has expired"}`))
	}))
	defer srv.Close()

	client, _ := testClient(srv.URL)
	_, err := client.ListSites(context.Background(), 1, 10)
	var apiErr *ApiError
	if !errors.As(err, &apiErr) || apiErr.Code != CodeTokenExpired {
		t.Fatalf("expected token expired error, got %v", err)
	}
	if dataCalls != 2 {
		t.Fatalf("expected exactly two data calls, got %d", dataCalls)
	}
}

func TestApiErrorPropagation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errorCode":-33000,"msg":"The site does not exist."}`))
	}))
	defer srv.Close()

	client, _ := testClient(srv.URL)
	_, err := client.GetVoucherGroups(context.Background(), "gone-site", 1, 100, nil)
	var apiErr *ApiError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *ApiError, got %v", err)
	}
	if apiErr.Code != CodeSiteNotFound {
		t.Fatalf("unexpected code: %d", apiErr.Code)
	}
}

func TestNon2xxBecomesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	client, _ := testClient(srv.URL)
	_, err := client.ListSites(context.Background(), 1, 10)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
}

func TestMissingResultOnDecodedCallIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errorCode":0,"msg":"Success."}`))
	}))
	defer srv.Close()

	client, _ := testClient(srv.URL)
	_, err := client.ListSites(context.Background(), 1, 10)
	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected *TransportError for missing result, got %v", err)
	}
}

func TestCreateVoucherGroupReturnsRemoteID(t *testing.T) {
	var gotBody VoucherGroupCreateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"errorCode":0,"msg":"Success.","result":{"id":"remote-group-9"}}`))
	}))
	defer srv.Close()

	client, _ := testClient(srv.URL)
	id, err := client.CreateVoucherGroup(context.Background(), "site-1", &VoucherGroupCreateRequest{
		Name:   "promo_20260831",
		Amount: 25,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "remote-group-9" {
		t.Fatalf("unexpected remote id: %q", id)
	}
	if gotBody.Name != "promo_20260831" || gotBody.Amount != 25 {
		t.Fatalf("request body not forwarded: %+v", gotBody)
	}
}

func TestCreateVoucherGroupMissingIDFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errorCode":0,"msg":"Success.","result":{}}`))
	}))
	defer srv.Close()

	client, _ := testClient(srv.URL)
	if _, err := client.CreateVoucherGroup(context.Background(), "site-1", &VoucherGroupCreateRequest{}); err == nil {
		t.Fatalf("expected missing group id to fail")
	}
}

func TestDeleteExpiredVouchersAcceptsEmptyResult(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.Write([]byte(`{"errorCode":0,"msg":"Success."}`))
	}))
	defer srv.Close()

	client, _ := testClient(srv.URL)
	if err := client.DeleteExpiredVouchers(context.Background(), "site-1", "group-7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != http.MethodDelete {
		t.Fatalf("unexpected method: %q", gotMethod)
	}
	if gotPath != "/openapi/v1/omadac-1/sites/site-1/hotspot/voucher-groups/group-7/clear-invalid" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
}
