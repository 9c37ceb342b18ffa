package ledger

// Row column order is the storage contract shared by all backends:
// reordering it requires migrating previously written data.
//
//	sent_date | name | period | key | venue
const (
	colSentDate = iota
	colName
	colPeriod
	colKey
	colVenue
	columnCount
)

// KeyColumn is the 1-based position of the dedupe key column.
const KeyColumn = colKey + 1

// Record is one delivered-event row.
type Record struct {
	SentDate string // YYYY-MM-DD delivery date
	Name     string
	Period   string
	Key      string // dedupe key: official URL or synthesized name_date
	Venue    string
}

// Fields returns the row values in the fixed column order.
func (r Record) Fields() []string {
	fields := make([]string, columnCount)
	fields[colSentDate] = r.SentDate
	fields[colName] = r.Name
	fields[colPeriod] = r.Period
	fields[colKey] = r.Key
	fields[colVenue] = r.Venue
	return fields
}

// Ledger is the dedupe store used by the pipeline.
type Ledger interface {
	// Exists reports whether key appears in the key column of any
	// previously recorded row.
	Exists(key string) (bool, error)

	// Append records one delivered event unconditionally.
	Append(rec Record) error
}
