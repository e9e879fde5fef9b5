// Package docstore is the catalog's document store: JSON documents keyed by
// id and typed by _type, batched transactions and content-addressed binary
// assets.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrConflict = errors.New("document already exists")
)

// Document is a stored JSON document. Data is the complete body; ID and Type
// mirror its _id and _type fields.
type Document struct {
	ID   string
	Type string
	Data json.RawMessage
}

// NewDocument marshals v and lifts its _id and _type.
func NewDocument(v any) (*Document, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	var head struct {
		ID   string `json:"_id"`
		Type string `json:"_type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to read document header: %w", err)
	}
	if head.ID == "" || head.Type == "" {
		return nil, fmt.Errorf("document requires _id and _type")
	}
	return &Document{ID: head.ID, Type: head.Type, Data: data}, nil
}

func (d *Document) Decode(v any) error {
	return json.Unmarshal(d.Data, v)
}

// Query selects documents of one type, optionally where a top-level field
// equals a string value.
type Query struct {
	Type   string
	Field  string
	Equals string
	Limit  int
}

// Patch sets and unsets top-level fields of an existing document.
type Patch struct {
	Set   map[string]any
	Unset []string
}

func (p Patch) Empty() bool {
	return len(p.Set) == 0 && len(p.Unset) == 0
}

// Apply returns body with the patch applied. _id and _type are immutable.
func (p Patch) Apply(body json.RawMessage) (json.RawMessage, error) {
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("failed to decode document body: %w", err)
	}
	for _, key := range p.Unset {
		if key == "_id" || key == "_type" {
			continue
		}
		delete(fields, key)
	}
	for key, value := range p.Set {
		if key == "_id" || key == "_type" {
			continue
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("failed to encode field %s: %w", key, err)
		}
		fields[key] = raw
	}
	return json.Marshal(fields)
}

type AssetOptions struct {
	Filename    string
	ContentType string
}

type Asset struct {
	ID          string `json:"_id"`
	Kind        string `json:"kind"`
	SHA1        string `json:"sha1hash"`
	Filename    string `json:"originalFilename,omitempty"`
	ContentType string `json:"mimeType,omitempty"`
	Size        int64  `json:"size"`
}

type Store interface {
	Fetch(ctx context.Context, q Query) ([]Document, error)
	Get(ctx context.Context, id string) (*Document, error)
	Create(ctx context.Context, doc *Document) error
	Patch(ctx context.Context, id string, p Patch) error
	Transaction() Transaction
	UploadAsset(ctx context.Context, kind string, data []byte, opts AssetOptions) (*Asset, error)
}

// Transaction queues mutations and applies them atomically on Commit.
type Transaction interface {
	Create(doc *Document)
	Patch(id string, p Patch)
	Delete(id string)
	Len() int
	Commit(ctx context.Context) error
}

type OpKind string

const (
	OpCreate OpKind = "create"
	OpPatch  OpKind = "patch"
	OpDelete OpKind = "delete"
)

// Mutation is one queued transaction operation.
type Mutation struct {
	Kind  OpKind
	ID    string
	Doc   *Document
	Patch Patch
}

// Mutations is an ordered list of queued operations. Store implementations
// embed it to get the queueing half of Transaction.
type Mutations struct {
	ops []Mutation
}

func (m *Mutations) Create(doc *Document) {
	m.ops = append(m.ops, Mutation{Kind: OpCreate, ID: doc.ID, Doc: doc})
}

func (m *Mutations) Patch(id string, p Patch) {
	m.ops = append(m.ops, Mutation{Kind: OpPatch, ID: id, Patch: p})
}

func (m *Mutations) Delete(id string) {
	m.ops = append(m.ops, Mutation{Kind: OpDelete, ID: id})
}

func (m *Mutations) Len() int {
	return len(m.ops)
}

func (m *Mutations) Ops() []Mutation {
	return m.ops
}

// AssetID is the content address of an asset.
func AssetID(kind, sha1Hex string) string {
	return kind + "-" + sha1Hex
}
