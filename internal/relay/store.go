package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lunarfield/walletbridge-backend/internal/storage"
)

// Store persists the protocol collections (pairings, sessions, proposals,
// history, per-topic message buffers) through the key-value capability. All
// writes are funneled through the owning client or the pruner, never from
// request handlers directly.
type Store struct {
	kv storage.Store
}

// NewStore wraps the key-value capability.
func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv}
}

// StoredMessage is one buffered relay message for a topic.
type StoredMessage struct {
	ReceivedAt time.Time       `json:"receivedAt"`
	Payload    json.RawMessage `json:"payload"`
}

func loadList[T any](ctx context.Context, kv storage.Store, key string) ([]T, error) {
	raw, err := kv.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("relay: load %q: %w", key, err)
	}
	if raw == nil {
		return nil, nil
	}
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("relay: decode %q: %w", key, err)
	}
	return items, nil
}

func saveList[T any](ctx context.Context, kv storage.Store, key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("relay: encode %q: %w", key, err)
	}
	if err := kv.Set(ctx, key, raw); err != nil {
		return fmt.Errorf("relay: save %q: %w", key, err)
	}
	return nil
}

func (s *Store) Pairings(ctx context.Context) ([]Pairing, error) {
	return loadList[Pairing](ctx, s.kv, storage.KeyPairings)
}

func (s *Store) SavePairings(ctx context.Context, pairings []Pairing) error {
	return saveList(ctx, s.kv, storage.KeyPairings, pairings)
}

func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	return loadList[Session](ctx, s.kv, storage.KeySessions)
}

func (s *Store) SaveSessions(ctx context.Context, sessions []Session) error {
	return saveList(ctx, s.kv, storage.KeySessions, sessions)
}

func (s *Store) Proposals(ctx context.Context) ([]Proposal, error) {
	return loadList[Proposal](ctx, s.kv, storage.KeyProposals)
}

func (s *Store) SaveProposals(ctx context.Context, proposals []Proposal) error {
	return saveList(ctx, s.kv, storage.KeyProposals, proposals)
}

func (s *Store) History(ctx context.Context) ([]HistoryRecord, error) {
	return loadList[HistoryRecord](ctx, s.kv, storage.KeyHistory)
}

func (s *Store) SaveHistory(ctx context.Context, records []HistoryRecord) error {
	return saveList(ctx, s.kv, storage.KeyHistory, records)
}

// AppendHistory adds a record, replacing any previous record with the same id
// so a replayed request never duplicates its history entry.
func (s *Store) AppendHistory(ctx context.Context, record HistoryRecord) error {
	records, err := s.History(ctx)
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].ID == record.ID {
			records[i] = record
			return s.SaveHistory(ctx, records)
		}
	}
	return s.SaveHistory(ctx, append(records, record))
}

// ResolveHistory attaches the response to the record with the given id.
func (s *Store) ResolveHistory(ctx context.Context, id int64, resp Response) error {
	records, err := s.History(ctx)
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].ID == id {
			records[i].Response = &resp
			return s.SaveHistory(ctx, records)
		}
	}
	return nil
}

// SetHistoryExpiry overrides the expiry of the record with the given id.
func (s *Store) SetHistoryExpiry(ctx context.Context, id int64, expiry int64) error {
	records, err := s.History(ctx)
	if err != nil {
		return err
	}
	for i := range records {
		if records[i].ID == id {
			records[i].Expiry = expiry
			return s.SaveHistory(ctx, records)
		}
	}
	return nil
}

// DeleteHistory removes the records whose ids are in the set.
func (s *Store) DeleteHistory(ctx context.Context, ids map[int64]struct{}) error {
	records, err := s.History(ctx)
	if err != nil {
		return err
	}
	kept := records[:0]
	for _, rec := range records {
		if _, drop := ids[rec.ID]; !drop {
			kept = append(kept, rec)
		}
	}
	return s.SaveHistory(ctx, kept)
}

// AppendMessage buffers one inbound relay message for a topic.
func (s *Store) AppendMessage(ctx context.Context, topic string, payload json.RawMessage) error {
	key := storage.MessageKey(topic)
	messages, err := loadList[StoredMessage](ctx, s.kv, key)
	if err != nil {
		return err
	}
	messages = append(messages, StoredMessage{ReceivedAt: time.Now().UTC(), Payload: payload})
	return saveList(ctx, s.kv, key, messages)
}

// SaveMessages rewrites the message buffer for a topic; an empty list removes
// the buffer key entirely.
func (s *Store) SaveMessages(ctx context.Context, topic string, messages []StoredMessage) error {
	if len(messages) == 0 {
		return s.DeleteMessages(ctx, topic)
	}
	return saveList(ctx, s.kv, storage.MessageKey(topic), messages)
}

// Messages returns the buffered messages for a topic.
func (s *Store) Messages(ctx context.Context, topic string) ([]StoredMessage, error) {
	return loadList[StoredMessage](ctx, s.kv, storage.MessageKey(topic))
}

// DeleteMessages drops the message buffer for a topic.
func (s *Store) DeleteMessages(ctx context.Context, topic string) error {
	if err := s.kv.Delete(ctx, storage.MessageKey(topic)); err != nil {
		return fmt.Errorf("relay: delete messages for %q: %w", topic, err)
	}
	return nil
}

// MessageTopics lists every topic that still has a message buffer.
func (s *Store) MessageTopics(ctx context.Context) ([]string, error) {
	keys, err := s.kv.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("relay: list message topics: %w", err)
	}
	var topics []string
	for _, key := range keys {
		if topic, ok := strings.CutPrefix(key, storage.MessagesPrefix); ok {
			topics = append(topics, topic)
		}
	}
	return topics, nil
}

// Clear removes every key written under the protocol namespace.
func (s *Store) Clear(ctx context.Context) error {
	keys, err := s.kv.ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("relay: list keys for clear: %w", err)
	}
	for _, key := range keys {
		if !strings.HasPrefix(key, storage.Namespace) {
			continue
		}
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("relay: clear %q: %w", key, err)
		}
	}
	return nil
}
