package importer

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"sync"
	"testing"

	"catalogsync/internal/docstore/mocks"
	"catalogsync/internal/logger"
	"catalogsync/internal/services/logicom"

	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.NewWithWriter("error", io.Discard)
}

// fakeSupplier serves canned payloads. A nil error field means success.
type fakeSupplier struct {
	mu         sync.Mutex
	brands     []logicom.Brand
	categories []logicom.Category
	products   []logicom.Product

	brandsErr     error
	categoriesErr error
	productsErr   error

	// block, when set, holds GetBrands until closed.
	block chan struct{}
	calls []string
}

func (f *fakeSupplier) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeSupplier) GetBrands(ctx context.Context) ([]logicom.Brand, error) {
	f.record(logicom.EndpointBrands)
	if f.block != nil {
		<-f.block
	}
	return f.brands, f.brandsErr
}

func (f *fakeSupplier) GetProductCategories(ctx context.Context) ([]logicom.Category, error) {
	f.record(logicom.EndpointCategories)
	return f.categories, f.categoriesErr
}

func (f *fakeSupplier) GetProducts(ctx context.Context, params url.Values) ([]logicom.Product, error) {
	f.record(logicom.EndpointProducts)
	return f.products, f.productsErr
}

func decodeJSON[T any](t *testing.T, raw string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func newTestOrchestrator(t *testing.T, supplier Supplier, store *mocks.MockStore, opts Options) *Orchestrator {
	t.Helper()
	images := NewImagePipeline(store, ImageConfig{Retries: 0}, testLogger(), nil)
	return NewOrchestrator(supplier, store, images, testLogger(), opts)
}
