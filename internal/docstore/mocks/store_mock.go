package mocks

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"catalogsync/internal/docstore"
)

// MockStore is an in-memory docstore.Store that records calls for tests.
type MockStore struct {
	mu     sync.RWMutex
	docs   map[string]docstore.Document
	assets map[string]docstore.Asset

	// For tracking calls in tests
	FetchCalls  []docstore.Query
	CommitCalls [][]docstore.Mutation
	UploadCalls []UploadCall

	FetchErr  error
	CommitErr error
	// UploadErr fails uploads; UploadCallback takes precedence when set.
	UploadErr      error
	UploadCallback func(kind string, data []byte, opts docstore.AssetOptions) (*docstore.Asset, error)
}

// UploadCall records parameters passed to UploadAsset
type UploadCall struct {
	Kind string
	Size int
	Opts docstore.AssetOptions
}

func NewMockStore() *MockStore {
	return &MockStore{
		docs:   make(map[string]docstore.Document),
		assets: make(map[string]docstore.Asset),
	}
}

// Seed stores documents directly, bypassing call tracking.
func (m *MockStore) Seed(values ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range values {
		doc, err := docstore.NewDocument(v)
		if err != nil {
			return err
		}
		m.docs[doc.ID] = *doc
	}
	return nil
}

// Documents returns every stored document of a type, ordered by id.
func (m *MockStore) Documents(docType string) []docstore.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []docstore.Document
	for _, d := range m.docs {
		if d.Type == docType {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *MockStore) Fetch(ctx context.Context, q docstore.Query) ([]docstore.Document, error) {
	m.mu.Lock()
	m.FetchCalls = append(m.FetchCalls, q)
	err := m.FetchErr
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var out []docstore.Document
	for _, d := range m.Documents(q.Type) {
		if q.Field != "" && !fieldEquals(d.Data, q.Field, q.Equals) {
			continue
		}
		out = append(out, d)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func (m *MockStore) Get(ctx context.Context, id string) (*docstore.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, docstore.ErrNotFound)
	}
	return &d, nil
}

func (m *MockStore) Create(ctx context.Context, doc *docstore.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apply(docstore.Mutation{Kind: docstore.OpCreate, ID: doc.ID, Doc: doc})
}

func (m *MockStore) Patch(ctx context.Context, id string, p docstore.Patch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apply(docstore.Mutation{Kind: docstore.OpPatch, ID: id, Patch: p})
}

func (m *MockStore) Transaction() docstore.Transaction {
	return &mockTransaction{store: m}
}

func (m *MockStore) UploadAsset(ctx context.Context, kind string, data []byte, opts docstore.AssetOptions) (*docstore.Asset, error) {
	m.mu.Lock()
	m.UploadCalls = append(m.UploadCalls, UploadCall{Kind: kind, Size: len(data), Opts: opts})
	callback, uploadErr := m.UploadCallback, m.UploadErr
	m.mu.Unlock()

	if callback != nil {
		return callback(kind, data, opts)
	}
	if uploadErr != nil {
		return nil, uploadErr
	}

	sum := sha1.Sum(data)
	hash := hex.EncodeToString(sum[:])
	asset := docstore.Asset{
		ID:          docstore.AssetID(kind, hash),
		Kind:        kind,
		SHA1:        hash,
		Filename:    opts.Filename,
		ContentType: opts.ContentType,
		Size:        int64(len(data)),
	}
	m.mu.Lock()
	m.assets[asset.ID] = asset
	m.mu.Unlock()
	return &asset, nil
}

// AssetCount reports how many distinct assets were stored.
func (m *MockStore) AssetCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.assets)
}

// Commits reports how many transactions were committed.
func (m *MockStore) Commits() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.CommitCalls)
}

func (m *MockStore) apply(op docstore.Mutation) error {
	switch op.Kind {
	case docstore.OpCreate:
		if _, exists := m.docs[op.ID]; exists {
			return fmt.Errorf("%s: %w", op.ID, docstore.ErrConflict)
		}
		m.docs[op.ID] = *op.Doc
	case docstore.OpPatch:
		d, ok := m.docs[op.ID]
		if !ok {
			return fmt.Errorf("%s: %w", op.ID, docstore.ErrNotFound)
		}
		body, err := op.Patch.Apply(d.Data)
		if err != nil {
			return err
		}
		d.Data = body
		m.docs[op.ID] = d
	case docstore.OpDelete:
		delete(m.docs, op.ID)
	}
	return nil
}

type mockTransaction struct {
	docstore.Mutations
	store *MockStore
}

// Commit applies all queued operations or none of them.
func (t *mockTransaction) Commit(ctx context.Context) error {
	m := t.store
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CommitCalls = append(m.CommitCalls, t.Ops())
	if m.CommitErr != nil {
		return m.CommitErr
	}

	snapshot := make(map[string]docstore.Document, len(m.docs))
	for k, v := range m.docs {
		snapshot[k] = v
	}
	for _, op := range t.Ops() {
		if err := m.apply(op); err != nil {
			m.docs = snapshot
			return err
		}
	}
	return nil
}

func fieldEquals(data json.RawMessage, field, want string) bool {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return false
	}
	v, ok := fields[field]
	if !ok || v == nil {
		return false
	}
	return fmt.Sprint(v) == want
}
