package refdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"darkpattern-scanner/internal/utils"
)

func newTestClient(baseURL string) *Client {
	httpClient := utils.NewHTTPClient(utils.ClientConfig{
		Timeout: 5 * time.Second,
		Logger:  zerolog.Nop(),
	})
	c := NewClient("test-key", "appBASE", "tblTABLE", httpClient, zerolog.Nop())
	c.baseURL = baseURL
	return c
}

func TestFetchAllFollowsOffsetCursor(t *testing.T) {
	var authHeaders []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		if r.URL.Path != "/appBASE/tblTABLE" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}

		if r.URL.Query().Get("offset") == "" {
			w.Write([]byte(`{"records":[{"id":"rec1","fields":{"Law / Guidance":"Code de la consommation"}},{"id":"rec2","fields":{"Law / Guidance":"Loi influence"}}],"offset":"page2"}`))
			return
		}
		w.Write([]byte(`{"records":[{"id":"rec3","fields":{"Law / Guidance":"ARPP"}}]}`))
	}))
	defer server.Close()

	records, err := newTestClient(server.URL).FetchAll(context.Background())
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("Expected 3 records across pages, got %d", len(records))
	}
	if records[2].ID != "rec3" {
		t.Errorf("Page order lost: %s", records[2].ID)
	}
	for _, h := range authHeaders {
		if h != "Bearer test-key" {
			t.Errorf("Missing bearer auth, got %q", h)
		}
	}
}

func TestRecordFieldTolerantLookup(t *testing.T) {
	record := Record{
		ID: "rec1",
		Fields: map[string]interface{}{
			"Law / Guidance": "Code de la consommation",
			"Order":          3.0,
		},
	}

	if got := record.Field("Law / Guidance"); got != "Code de la consommation" {
		t.Errorf("Unexpected value: %s", got)
	}
	if got := record.Field("Missing Column"); got != "" {
		t.Errorf("Missing column must yield empty string, got %q", got)
	}
	if got := record.Field("Order"); got != "" {
		t.Errorf("Non-string column must yield empty string, got %q", got)
	}
}

func TestFetchAllErrorsOnHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	if _, err := newTestClient(server.URL).FetchAll(context.Background()); err == nil {
		t.Fatal("expected error on HTTP 401")
	}
}

func TestFetchAllRequiresCredentials(t *testing.T) {
	httpClient := utils.NewHTTPClient(utils.ClientConfig{Timeout: time.Second, Logger: zerolog.Nop()})
	c := NewClient("", "", "", httpClient, zerolog.Nop())

	if _, err := c.FetchAll(context.Background()); err == nil {
		t.Fatal("expected error without credentials")
	}
}
