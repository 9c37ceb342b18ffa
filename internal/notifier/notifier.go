package notifier

// Notifier sends one text chunk to the configured channel. The pipeline
// does not retry a failed broadcast; re-running the pipeline is the
// retry mechanism, kept safe by the dedupe ledger.
type Notifier interface {
	Broadcast(text string) error
}
