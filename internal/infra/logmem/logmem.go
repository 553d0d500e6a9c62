// Package logmem is the in-memory immutable log store. Appends to one
// log are strictly serialized; different logs append independently.
package logmem

import (
	"crypto/rand"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"sc3/internal/domain"
	"sc3/internal/infra/crypto"
	"sc3/internal/usecase"
)

// SignFunc produces the signature for an entry's signing payload.
type SignFunc func(payload []byte) (domain.Signature, error)

type Store struct {
	mu    sync.RWMutex
	logs  map[string]*logState
	clock func() time.Time
	sign  SignFunc
}

type logState struct {
	mu  sync.Mutex
	log domain.ImmutableLog
}

type Option func(*Store)

// WithSigner installs an asymmetric signer for entries. Without one the
// store falls back to HMAC with a per-store random secret.
func WithSigner(sign SignFunc) Option {
	return func(s *Store) { s.sign = sign }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

func New(opts ...Option) *Store {
	s := &Store{
		logs:  make(map[string]*logState),
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sign == nil {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			panic(fmt.Sprintf("logmem: generate hmac secret: %v", err))
		}
		s.sign = func(payload []byte) (domain.Signature, error) {
			return crypto.SignHMAC(payload, "log-hmac", secret), nil
		}
	}
	return s
}

// Create opens a new unsealed log with a genesis head.
func (s *Store) Create(name string) domain.ImmutableLog {
	log := domain.ImmutableLog{
		ID:        uuid.NewString(),
		Name:      name,
		Entries:   []domain.ImmutableLogEntry{},
		HeadHash:  domain.GenesisHash,
		CreatedAt: s.clock().UTC(),
	}
	s.mu.Lock()
	s.logs[log.ID] = &logState{log: log}
	s.mu.Unlock()
	return log
}

// Append adds one entry to the chain. Appending to an unknown or sealed
// log is a programmer error and fails loudly.
func (s *Store) Append(logID string, input usecase.LogAppendInput) (domain.ImmutableLogEntry, error) {
	state, err := s.state(logID)
	if err != nil {
		return domain.ImmutableLogEntry{}, err
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if state.log.Sealed {
		return domain.ImmutableLogEntry{}, fmt.Errorf("append to log %s: %w", logID, domain.ErrLogSealed)
	}

	entryType := input.Type
	if entryType == "" {
		entryType = domain.LogEntryGeneric
	}

	sequence := int64(len(state.log.Entries))
	previousHash := domain.GenesisHash
	if sequence > 0 {
		previousHash, err = crypto.EntryChainHash(state.log.Entries[sequence-1])
		if err != nil {
			return domain.ImmutableLogEntry{}, fmt.Errorf("chain hash of entry %d: %w", sequence-1, err)
		}
	}
	dataHash, err := crypto.EntryDataHash(entryType, input.ArtifactHash, input.BuildID, input.Payload)
	if err != nil {
		return domain.ImmutableLogEntry{}, fmt.Errorf("data hash: %w", err)
	}
	signature, err := s.sign(crypto.EntrySigningPayload(logID, dataHash, previousHash))
	if err != nil {
		return domain.ImmutableLogEntry{}, fmt.Errorf("sign entry: %w", err)
	}

	entry := domain.ImmutableLogEntry{
		Sequence:     sequence,
		Timestamp:    s.clock().UTC(),
		Type:         entryType,
		ArtifactHash: input.ArtifactHash,
		BuildID:      input.BuildID,
		DataHash:     dataHash,
		PreviousHash: previousHash,
		Payload:      input.Payload,
		Signature:    &signature,
	}

	headHash, err := crypto.EntryChainHash(entry)
	if err != nil {
		return domain.ImmutableLogEntry{}, fmt.Errorf("chain hash: %w", err)
	}

	state.log.Entries = append(state.log.Entries, entry)
	state.log.HeadHash = headHash
	state.log.EntryCount = int64(len(state.log.Entries))
	state.log.LastEntryAt = entry.Timestamp
	return entry, nil
}

// Seal permanently blocks further appends.
func (s *Store) Seal(logID string) error {
	state, err := s.state(logID)
	if err != nil {
		return err
	}
	state.mu.Lock()
	state.log.Sealed = true
	state.mu.Unlock()
	return nil
}

// Get returns a deep copy; callers can never mutate the stored chain.
func (s *Store) Get(logID string) (domain.ImmutableLog, error) {
	state, err := s.state(logID)
	if err != nil {
		return domain.ImmutableLog{}, err
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return cloneLog(state.log), nil
}

// List returns copies of every log, ordered by creation time.
func (s *Store) List() []domain.ImmutableLog {
	s.mu.RLock()
	states := make([]*logState, 0, len(s.logs))
	for _, state := range s.logs {
		states = append(states, state)
	}
	s.mu.RUnlock()

	logs := make([]domain.ImmutableLog, 0, len(states))
	for _, state := range states {
		state.mu.Lock()
		logs = append(logs, cloneLog(state.log))
		state.mu.Unlock()
	}
	sort.Slice(logs, func(i, j int) bool {
		if logs[i].CreatedAt.Equal(logs[j].CreatedAt) {
			return logs[i].ID < logs[j].ID
		}
		return logs[i].CreatedAt.Before(logs[j].CreatedAt)
	})
	return logs
}

func (s *Store) state(logID string) (*logState, error) {
	s.mu.RLock()
	state, ok := s.logs[logID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("log %s: %w", logID, domain.ErrNotFound)
	}
	return state, nil
}

func cloneLog(log domain.ImmutableLog) domain.ImmutableLog {
	out := log
	out.Entries = make([]domain.ImmutableLogEntry, len(log.Entries))
	copy(out.Entries, log.Entries)
	return out
}

var _ usecase.LogStore = (*Store)(nil)
