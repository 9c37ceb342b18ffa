package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	sheetsAPIBase = "https://sheets.googleapis.com"
	sheetsTimeout = 15 * time.Second

	// DefaultSheetName is the worksheet holding delivered-event rows.
	DefaultSheetName = "sent_events"
)

// Sheets is a Ledger backed by a Google Sheets worksheet via the values
// REST API. Each Append adds one row; Exists scans the key column.
type Sheets struct {
	spreadsheetID string
	sheetName     string
	accessToken   string
	baseURL       string
	httpClient    *http.Client
}

// NewSheets creates a Sheets ledger for the given spreadsheet. The
// access token must carry the spreadsheets scope.
func NewSheets(spreadsheetID, accessToken string) (*Sheets, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet ID is required")
	}
	if accessToken == "" {
		return nil, fmt.Errorf("access token is required")
	}

	return &Sheets{
		spreadsheetID: spreadsheetID,
		sheetName:     DefaultSheetName,
		accessToken:   accessToken,
		baseURL:       sheetsAPIBase,
		httpClient: &http.Client{
			Timeout: sheetsTimeout,
		},
	}, nil
}

// Exists fetches the key column and scans it for key.
func (s *Sheets) Exists(key string) (bool, error) {
	if key == "" {
		return false, nil
	}

	keys, err := s.keyColumnValues()
	if err != nil {
		return false, err
	}
	for _, k := range keys {
		if k == key {
			return true, nil
		}
	}
	return false, nil
}

// keyColumnValues returns every value in the dedupe key column.
func (s *Sheets) keyColumnValues() ([]string, error) {
	colLetter := string(rune('A' + KeyColumn - 1))
	rangeRef := fmt.Sprintf("%s!%s:%s", s.sheetName, colLetter, colLetter)
	reqURL := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s",
		s.baseURL, s.spreadsheetID, url.PathEscape(rangeRef))

	req, err := http.NewRequest("GET", reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching key column: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheets API error (status %d)", resp.StatusCode)
	}

	var result struct {
		Values [][]string `json:"values"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding values response: %w", err)
	}

	keys := make([]string, 0, len(result.Values))
	for _, row := range result.Values {
		if len(row) > 0 {
			keys = append(keys, row[0])
		}
	}
	return keys, nil
}

// Append adds one row to the worksheet.
func (s *Sheets) Append(rec Record) error {
	rangeRef := fmt.Sprintf("%s!A:E", s.sheetName)
	reqURL := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=RAW",
		s.baseURL, s.spreadsheetID, url.PathEscape(rangeRef))

	payload := map[string]interface{}{
		"values": [][]string{rec.Fields()},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling append payload: %w", err)
	}

	req, err := http.NewRequest("POST", reqURL, bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("appending row: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sheets API error (status %d)", resp.StatusCode)
	}
	return nil
}
