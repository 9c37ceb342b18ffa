// Package cli wires configuration, collaborators and the pipeline behind
// the event-bot command.
package cli
