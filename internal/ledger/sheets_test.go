package ledger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestSheets(t *testing.T, handler http.HandlerFunc) (*Sheets, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	s, err := NewSheets("sheet-id", "test-token")
	if err != nil {
		t.Fatalf("NewSheets failed: %v", err)
	}
	s.baseURL = server.URL
	return s, server
}

func TestSheetsExists(t *testing.T) {
	s, _ := newTestSheets(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "GET" {
			t.Errorf("expected GET, got %s", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header: %q", got)
		}
		if !strings.Contains(r.URL.Path, "sheet-id") {
			t.Errorf("spreadsheet ID missing from path: %s", r.URL.Path)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"values": [][]string{
				{"URL"}, // header row
				{"https://example.jp/a"},
				{"写真展_2024-06-01"},
			},
		})
	})

	for _, tt := range []struct {
		key      string
		expected bool
	}{
		{"https://example.jp/a", true},
		{"写真展_2024-06-01", true},
		{"https://example.jp/b", false},
		{"", false},
	} {
		exists, err := s.Exists(tt.key)
		if err != nil {
			t.Fatalf("Exists(%q) failed: %v", tt.key, err)
		}
		if exists != tt.expected {
			t.Errorf("Exists(%q) = %v, expected %v", tt.key, exists, tt.expected)
		}
	}
}

func TestSheetsExistsError(t *testing.T) {
	s, _ := newTestSheets(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := s.Exists("anything"); err == nil {
		t.Error("expected an error on backend failure; the caller decides to fail open")
	}
}

func TestSheetsAppend(t *testing.T) {
	var gotBody struct {
		Values [][]string `json:"values"`
	}

	s, _ := newTestSheets(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if !strings.Contains(r.URL.RawQuery, "valueInputOption=RAW") {
			t.Errorf("missing value input option: %s", r.URL.RawQuery)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decoding request body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	})

	rec := Record{
		SentDate: "2024-05-01",
		Name:     "写真展",
		Period:   "2024-05-01 〜 2024-05-31",
		Key:      "https://example.jp/",
		Venue:    "横浜美術館",
	}
	if err := s.Append(rec); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	if len(gotBody.Values) != 1 {
		t.Fatalf("expected 1 appended row, got %d", len(gotBody.Values))
	}
	row := gotBody.Values[0]
	if len(row) != 5 || row[3] != rec.Key {
		t.Errorf("unexpected row: %v", row)
	}
}
