package xts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	appconfig "masterflow/config"
	"masterflow/models"
)

func testConfig(shape string) *appconfig.Config {
	return &appconfig.Config{
		Masterflow: appconfig.MasterflowConfig{Name: "masterflow", Version: "test"},
		Marketdata: appconfig.MarketdataConfig{
			WireShape:      shape,
			TimeoutSeconds: 2,
			RateLimit:      appconfig.RateLimitConfig{RequestsPerSecond: 100, BurstSize: 10},
		},
	}
}

func testCredentials(baseURL string) models.Credentials {
	return models.Credentials{
		APIKey:    "testkey",
		SecretKey: "testsecret",
		Source:    "TWSAPI",
		BaseURL:   baseURL,
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://mtrade.arhamshare.com", "https://mtrade.arhamshare.com/marketdata"},
		{"https://mtrade.arhamshare.com/", "https://mtrade.arhamshare.com/marketdata"},
		{"https://mtrade.arhamshare.com/apimarketdata", "https://mtrade.arhamshare.com/marketdata"},
		{"https://mtrade.arhamshare.com/marketdata", "https://mtrade.arhamshare.com/marketdata"},
	}
	for _, c := range cases {
		if got := NormalizeBaseURL(c.in); got != c.want {
			t.Errorf("NormalizeBaseURL(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestLoginSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/marketdata/auth/login" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode login body: %v", err)
		}
		if body["appKey"] != "testkey" || body["secretKey"] != "testsecret" || body["source"] != "TWSAPI" {
			t.Errorf("unexpected login body: %v", body)
		}
		fmt.Fprintln(w, `{"type":"success","result":{"token":"tok123","userID":"U1"}}`)
	}))
	defer server.Close()

	client := NewClient(testConfig(appconfig.WireShapeQuery), testCredentials(server.URL))
	session, err := client.Login(context.Background())
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if session.Token != "tok123" || session.UserID != "U1" || !session.Authenticated {
		t.Errorf("unexpected session: %+v", session)
	}
	if client.Session() == nil {
		t.Error("session not stored on client")
	}
}

func TestLoginRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, `{"type":"error","description":"Invalid appKey"}`)
	}))
	defer server.Close()

	client := NewClient(testConfig(appconfig.WireShapeQuery), testCredentials(server.URL))
	_, err := client.Login(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Type != "error" || apiErr.Description != "Invalid appKey" {
		t.Errorf("unexpected api error: %+v", apiErr)
	}
	if client.Session() != nil {
		t.Error("rejected login must not store a session")
	}
}

func TestLoginHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(testConfig(appconfig.WireShapeQuery), testCredentials(server.URL))
	_, err := client.Login(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Errorf("unexpected status: %d", apiErr.Status)
	}
}

func TestFetchWithoutLogin(t *testing.T) {
	client := NewClient(testConfig(appconfig.WireShapeQuery), testCredentials("https://example.com"))
	_, err := client.FetchIndexList(context.Background(), models.SegmentNSECM)
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestFetchIndexListQueryShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/marketdata/auth/login":
			fmt.Fprintln(w, `{"type":"success","result":{"token":"tok123"}}`)
		case "/marketdata/instruments/indexlist":
			if r.Method != http.MethodGet {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if got := r.URL.Query().Get("exchangeSegment"); got != "1" {
				t.Errorf("unexpected segment param: %s", got)
			}
			if got := r.Header.Get("authorization"); got != "tok123" {
				t.Errorf("unexpected auth header: %s", got)
			}
			fmt.Fprintln(w, `{"type":"success","result":[{"name":"Nifty 50_26000"},{"name":"SENSEX","exchangeInstrumentID":1}]}`)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(testConfig(appconfig.WireShapeQuery), testCredentials(server.URL))
	if _, err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	list, err := client.FetchIndexList(context.Background(), models.SegmentNSECM)
	if err != nil {
		t.Fatalf("FetchIndexList failed: %v", err)
	}
	if len(list.Records) != 2 {
		t.Fatalf("unexpected record count: %d", len(list.Records))
	}
	if list.Records[0].Name != "Nifty 50_26000" {
		t.Errorf("unexpected first record: %+v", list.Records[0])
	}
	if list.Records[1].ExchangeInstrumentID.String() != "1" {
		t.Errorf("unexpected instrument id: %s", list.Records[1].ExchangeInstrumentID)
	}
}

// Header.Get is case-insensitive, so the httptest assertions above
// cannot tell a canonical Authorization header from the lowercase one
// the query-shape deployment requires. Serialize the request and check
// the literal wire bytes.
func TestQueryShapeAuthHeaderLowercaseOnWire(t *testing.T) {
	client := NewClient(testConfig(appconfig.WireShapeQuery), testCredentials("https://md.example.com"))

	req, err := client.buildIndexListRequest(context.Background(), models.SegmentNSECM, "tok123")
	if err != nil {
		t.Fatalf("buildIndexListRequest failed: %v", err)
	}

	var buf bytes.Buffer
	if err := req.Write(&buf); err != nil {
		t.Fatalf("serialize request: %v", err)
	}
	wire := buf.String()

	if !strings.Contains(wire, "authorization: tok123") {
		t.Errorf("lowercase auth header missing from wire form:\n%s", wire)
	}
	if strings.Contains(wire, "Authorization:") {
		t.Errorf("auth header was canonicalized on the wire:\n%s", wire)
	}
}

func TestFetchIndexListBodyShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/marketdata/auth/login":
			fmt.Fprintln(w, `{"type":"success","result":{"token":"tok456"}}`)
		case "/marketdata/instruments/indexlist":
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method: %s", r.Method)
			}
			if got := r.Header.Get("Authorization"); got != "tok456" {
				t.Errorf("unexpected auth header: %s", got)
			}
			var body map[string][]int
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode request body: %v", err)
			}
			if segs := body["exchangeSegmentList"]; len(segs) != 1 || segs[0] != 11 {
				t.Errorf("unexpected segment list: %v", segs)
			}
			fmt.Fprintln(w, `{"type":"success","result":{"indexList":[{"name":"SENSEX_1","exchangeInstrumentID":1}]}}`)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(testConfig(appconfig.WireShapeBody), testCredentials(server.URL))
	if _, err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	list, err := client.FetchIndexList(context.Background(), models.SegmentBSECM)
	if err != nil {
		t.Fatalf("FetchIndexList failed: %v", err)
	}
	if len(list.Records) != 1 || list.Records[0].Name != "SENSEX_1" {
		t.Errorf("unexpected records: %+v", list.Records)
	}
}

func TestFetchIndexListMissingResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/marketdata/auth/login":
			fmt.Fprintln(w, `{"type":"success","result":{"token":"tok"}}`)
		default:
			fmt.Fprintln(w, `{"type":"success"}`)
		}
	}))
	defer server.Close()

	client := NewClient(testConfig(appconfig.WireShapeQuery), testCredentials(server.URL))
	if _, err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	list, err := client.FetchIndexList(context.Background(), models.SegmentNSECM)
	if err != nil {
		t.Fatalf("FetchIndexList failed: %v", err)
	}
	if len(list.Records) != 0 {
		t.Errorf("expected empty record list, got %d", len(list.Records))
	}
	if string(list.Raw) != "[]" {
		t.Errorf("expected empty raw array, got %s", list.Raw)
	}
}

func TestFetchIndexListNonSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/marketdata/auth/login":
			fmt.Fprintln(w, `{"type":"success","result":{"token":"tok"}}`)
		default:
			fmt.Fprintln(w, `{"type":"error","description":"Invalid Token"}`)
		}
	}))
	defer server.Close()

	client := NewClient(testConfig(appconfig.WireShapeQuery), testCredentials(server.URL))
	if _, err := client.Login(context.Background()); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	_, err := client.FetchIndexList(context.Background(), models.SegmentNSECM)
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Description != "Invalid Token" {
		t.Errorf("unexpected description: %s", apiErr.Description)
	}
}
