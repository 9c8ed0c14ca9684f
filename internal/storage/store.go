// Package storage provides the key-value persistence capability consumed by
// the relay stores and the history pruner. Keys are namespaced strings of the
// form "wc@2:bridge:1//<name>".
package storage

import "context"

// Store is the persistence capability. A nil value with a nil error from Get
// means the key is absent.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	ListKeys(ctx context.Context) ([]string, error)
}

const (
	// Namespace prefixes every key written by this module, versioned so a
	// future layout change can migrate or ignore old records.
	Namespace = "wc@2:bridge:1//"

	KeyHistory     = Namespace + "history"
	KeySessions    = Namespace + "session"
	KeyPairings    = Namespace + "pairing"
	KeyProposals   = Namespace + "proposal"
	MessagesPrefix = Namespace + "messages:"
)

// MessageKey builds the per-topic message buffer key.
func MessageKey(topic string) string {
	return MessagesPrefix + topic
}
