package docstore

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"catalogsync/internal/models"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore keeps documents and assets in the service database.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Fetch(ctx context.Context, q Query) ([]Document, error) {
	query := s.db.WithContext(ctx).Model(&models.DocumentRecord{}).Order("id")
	if q.Type != "" {
		query = query.Where("type = ?", q.Type)
	}
	if q.Field != "" {
		query = query.Where(datatypes.JSONQuery("body").Equals(q.Equals, q.Field))
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var records []models.DocumentRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch %s documents: %w", q.Type, err)
	}

	docs := make([]Document, len(records))
	for i, r := range records {
		docs[i] = fromRecord(r)
	}
	return docs, nil
}

func (s *GormStore) Get(ctx context.Context, id string) (*Document, error) {
	var record models.DocumentRecord
	err := s.db.WithContext(ctx).First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document %s: %w", id, err)
	}
	doc := fromRecord(record)
	return &doc, nil
}

func (s *GormStore) Create(ctx context.Context, doc *Document) error {
	return createDocument(s.db.WithContext(ctx), doc)
}

func (s *GormStore) Patch(ctx context.Context, id string, p Patch) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return patchDocument(tx, id, p)
	})
}

func (s *GormStore) Transaction() Transaction {
	return &gormTransaction{db: s.db}
}

// UploadAsset stores data under its content address. Uploading identical
// bytes again returns the existing asset.
func (s *GormStore) UploadAsset(ctx context.Context, kind string, data []byte, opts AssetOptions) (*Asset, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("refusing to upload empty %s asset", kind)
	}
	sum := sha1.Sum(data)
	hash := hex.EncodeToString(sum[:])

	record := models.AssetRecord{
		ID:          AssetID(kind, hash),
		Kind:        kind,
		SHA1:        hash,
		Filename:    opts.Filename,
		ContentType: opts.ContentType,
		Size:        int64(len(data)),
		Data:        data,
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&record).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upload asset: %w", err)
	}

	return &Asset{
		ID:          record.ID,
		Kind:        kind,
		SHA1:        hash,
		Filename:    opts.Filename,
		ContentType: opts.ContentType,
		Size:        record.Size,
	}, nil
}

type gormTransaction struct {
	Mutations
	db *gorm.DB
}

func (t *gormTransaction) Commit(ctx context.Context) error {
	if t.Len() == 0 {
		return nil
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, op := range t.Ops() {
			var err error
			switch op.Kind {
			case OpCreate:
				err = createDocument(tx, op.Doc)
			case OpPatch:
				err = patchDocument(tx, op.ID, op.Patch)
			case OpDelete:
				err = tx.Delete(&models.DocumentRecord{}, "id = ?", op.ID).Error
			default:
				err = fmt.Errorf("unknown operation %q", op.Kind)
			}
			if err != nil {
				return fmt.Errorf("%s %s: %w", op.Kind, op.ID, err)
			}
		}
		return nil
	})
}

func createDocument(db *gorm.DB, doc *Document) error {
	record := models.DocumentRecord{
		ID:   doc.ID,
		Type: doc.Type,
		Body: datatypes.JSON(doc.Data),
	}
	if err := db.Create(&record).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", doc.ID, ErrConflict)
		}
		return fmt.Errorf("failed to create document %s: %w", doc.ID, err)
	}
	return nil
}

func patchDocument(db *gorm.DB, id string, p Patch) error {
	var record models.DocumentRecord
	err := db.First(&record, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to load document %s: %w", id, err)
	}

	body, err := p.Apply(json.RawMessage(record.Body))
	if err != nil {
		return err
	}
	return db.Model(&record).Update("body", datatypes.JSON(body)).Error
}

// isUniqueViolation recognizes duplicate keys from the postgres driver and
// from gorm's translated errors (sqlite).
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func fromRecord(r models.DocumentRecord) Document {
	return Document{ID: r.ID, Type: r.Type, Data: json.RawMessage(r.Body)}
}
