package docstore

import (
	"context"
	"path/filepath"
	"testing"

	"catalogsync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "docs.db")), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.DocumentRecord{}, &models.AssetRecord{}))
	return NewGormStore(db)
}

func mustDocument(t *testing.T, v any) *Document {
	t.Helper()
	doc, err := NewDocument(v)
	require.NoError(t, err)
	return doc
}

func TestNewDocument_RequiresHeader(t *testing.T) {
	_, err := NewDocument(map[string]string{"name": "x"})
	assert.Error(t, err)

	doc, err := NewDocument(models.Brand{ID: "brand-acer", Type: models.TypeBrand, Name: "Acer"})
	require.NoError(t, err)
	assert.Equal(t, "brand-acer", doc.ID)
	assert.Equal(t, models.TypeBrand, doc.Type)
}

func TestPatch_Apply(t *testing.T) {
	body := []byte(`{"_id":"a","_type":"brand","name":"Old","category":{"_ref":"x"}}`)

	out, err := Patch{
		Set:   map[string]any{"name": "New", "_id": "hijack"},
		Unset: []string{"category", "_type"},
	}.Apply(body)

	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"a","_type":"brand","name":"New"}`, string(out))
}

func TestGormStore_CreateGetFetch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, mustDocument(t, models.Brand{ID: "brand-acer", Type: models.TypeBrand, Name: "Acer"})))
	require.NoError(t, store.Create(ctx, mustDocument(t, models.Brand{ID: "brand-hp", Type: models.TypeBrand, Name: "HP"})))
	require.NoError(t, store.Create(ctx, mustDocument(t, models.Category{ID: "category-1", Type: models.TypeCategory, SupplierID: "1", Name: "Laptops"})))

	doc, err := store.Get(ctx, "brand-hp")
	require.NoError(t, err)
	var brand models.Brand
	require.NoError(t, doc.Decode(&brand))
	assert.Equal(t, "HP", brand.Name)

	brands, err := store.Fetch(ctx, Query{Type: models.TypeBrand})
	require.NoError(t, err)
	require.Len(t, brands, 2)
	assert.Equal(t, "brand-acer", brands[0].ID)

	byName, err := store.Fetch(ctx, Query{Type: models.TypeCategory, Field: "name", Equals: "Laptops"})
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "category-1", byName[0].ID)

	none, err := store.Fetch(ctx, Query{Type: models.TypeCategory, Field: "name", Equals: "Phones"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGormStore_GetMissing(t *testing.T) {
	_, err := newTestStore(t).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGormStore_CreateDuplicateIsConflict(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	doc := mustDocument(t, models.Brand{ID: "brand-acer", Type: models.TypeBrand, Name: "Acer"})

	require.NoError(t, store.Create(ctx, doc))
	assert.ErrorIs(t, store.Create(ctx, doc), ErrConflict)
}

func TestGormStore_Patch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, mustDocument(t, models.Brand{ID: "brand-acer", Type: models.TypeBrand, Name: "Acer"})))

	require.NoError(t, store.Patch(ctx, "brand-acer", Patch{Set: map[string]any{"name": "ACER"}}))

	doc, err := store.Get(ctx, "brand-acer")
	require.NoError(t, err)
	assert.JSONEq(t, `{"_id":"brand-acer","_type":"brand","name":"ACER","slug":{"_type":"","current":""}}`, string(doc.Data))

	assert.ErrorIs(t, store.Patch(ctx, "missing", Patch{Set: map[string]any{"name": "x"}}), ErrNotFound)
}

func TestGormStore_TransactionCommitsAtomically(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Create(ctx, mustDocument(t, models.Brand{ID: "brand-acer", Type: models.TypeBrand, Name: "Acer"})))

	tx := store.Transaction()
	tx.Create(mustDocument(t, models.Brand{ID: "brand-hp", Type: models.TypeBrand, Name: "HP"}))
	tx.Patch("missing", Patch{Set: map[string]any{"name": "x"}})
	require.Equal(t, 2, tx.Len())

	err := tx.Commit(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, "brand-hp")
	assert.ErrorIs(t, err, ErrNotFound, "failed commit must not leave partial writes")

	tx = store.Transaction()
	tx.Create(mustDocument(t, models.Brand{ID: "brand-hp", Type: models.TypeBrand, Name: "HP"}))
	tx.Delete("brand-acer")
	require.NoError(t, tx.Commit(ctx))

	brands, err := store.Fetch(ctx, Query{Type: models.TypeBrand})
	require.NoError(t, err)
	require.Len(t, brands, 1)
	assert.Equal(t, "brand-hp", brands[0].ID)
}

func TestGormStore_UploadAssetIsContentAddressed(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	png := []byte("\x89PNG fake image bytes")

	first, err := store.UploadAsset(ctx, "image", png, AssetOptions{Filename: "a.png", ContentType: "image/png"})
	require.NoError(t, err)
	second, err := store.UploadAsset(ctx, "image", png, AssetOptions{Filename: "b.png", ContentType: "image/png"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Regexp(t, `^image-[0-9a-f]{40}$`, first.ID)

	var count int64
	require.NoError(t, store.db.Model(&models.AssetRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = store.UploadAsset(ctx, "image", nil, AssetOptions{})
	assert.Error(t, err)
}
