package ledger

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File is a Ledger backed by a local JSONL file, one row per line in
// append order. It keeps the same row contract as the sheet backend and
// needs no credentials, which makes it the default for local operation.
type File struct {
	path string
}

// fileRow is the on-disk encoding of one Record.
type fileRow struct {
	SentDate string `json:"sent_date"`
	Name     string `json:"name"`
	Period   string `json:"period"`
	Key      string `json:"key"`
	Venue    string `json:"venue"`
}

// NewFile creates a File ledger at path, creating parent directories as
// needed. A leading ~/ expands to the home directory.
func NewFile(path string) (*File, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	return &File{path: path}, nil
}

// Exists scans every recorded row's key column for key.
func (f *File) Exists(key string) (bool, error) {
	file, err := os.Open(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			// No history yet, nothing is a duplicate
			return false, nil
		}
		return false, fmt.Errorf("opening ledger: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var row fileRow
		if err := json.Unmarshal(scanner.Bytes(), &row); err != nil {
			// A corrupt line is skipped rather than blocking the scan
			continue
		}
		if row.Key == key {
			return true, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("reading ledger: %w", err)
	}
	return false, nil
}

// Append writes one row to the end of the file.
func (f *File) Append(rec Record) error {
	data, err := json.Marshal(fileRow{
		SentDate: rec.SentDate,
		Name:     rec.Name,
		Period:   rec.Period,
		Key:      rec.Key,
		Venue:    rec.Venue,
	})
	if err != nil {
		return fmt.Errorf("encoding row: %w", err)
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening ledger: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing row: %w", err)
	}
	return nil
}
