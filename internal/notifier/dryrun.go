package notifier

import "fmt"

// DryRun prints what would be broadcast without posting anything.
type DryRun struct {
	sent int
}

// NewDryRun creates a new dry-run notifier.
func NewDryRun() *DryRun {
	return &DryRun{}
}

// Broadcast prints the chunk that would be sent.
func (d *DryRun) Broadcast(text string) error {
	d.sent++
	fmt.Printf("--- Chunk %d ---\n", d.sent)
	fmt.Println(text)
	fmt.Printf("\n(Length: %d characters)\n\n", len([]rune(text)))
	return nil
}
