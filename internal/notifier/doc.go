// Package notifier delivers outgoing message chunks to the notification
// channel.
package notifier
