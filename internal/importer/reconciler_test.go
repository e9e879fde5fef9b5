package importer

import (
	"errors"
	"testing"

	"catalogsync/internal/models"
	"catalogsync/internal/slug"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func brand(name string) models.Brand {
	return models.Brand{
		ID:   slug.BrandID(name),
		Type: models.TypeBrand,
		Name: name,
		Slug: models.NewSlug(slug.Make(name)),
	}
}

func TestReconcile_NormalizedKeyMatchIsSkip(t *testing.T) {
	existing := []models.Brand{{ID: "brand-acer", Type: models.TypeBrand, Name: "Acer", Slug: models.NewSlug("acer")}}
	incoming := []models.Brand{brand("ACER ")}

	decisions, dropped := Reconcile(existing, incoming, brandPolicy)

	assert.Empty(t, dropped)
	require.Len(t, decisions, 1)
	assert.Equal(t, ActionSkip, decisions[0].Action)
	assert.Equal(t, "brand-acer", decisions[0].ID)
}

func TestReconcile_CreateUpdateSkip(t *testing.T) {
	existing := []models.Brand{
		{ID: "brand-hp", Type: models.TypeBrand, Name: "HP", Slug: models.NewSlug("hp")},
		{ID: "legacy-dell", Type: models.TypeBrand, Name: "Dell", Slug: models.NewSlug("dell-inc")},
	}
	incoming := []models.Brand{brand("HP"), brand("Dell"), brand("Lenovo")}

	decisions, dropped := Reconcile(existing, incoming, brandPolicy)

	assert.Empty(t, dropped)
	require.Len(t, decisions, 3)
	assert.Equal(t, ActionSkip, decisions[0].Action)
	assert.Equal(t, ActionUpdate, decisions[1].Action)
	assert.Equal(t, "legacy-dell", decisions[1].ID, "updates target the stored document")
	require.NotNil(t, decisions[1].Existing)
	assert.Equal(t, ActionCreate, decisions[2].Action)
	assert.Equal(t, "brand-lenovo", decisions[2].ID)
}

func TestReconcile_DropsBlankAndDuplicateKeys(t *testing.T) {
	incoming := []models.Brand{brand("  "), brand("Acer"), brand("acer"), brand("")}

	decisions, dropped := Reconcile(nil, incoming, brandPolicy)

	require.Len(t, decisions, 1)
	assert.Equal(t, "Acer", decisions[0].Incoming.Name)
	require.Len(t, dropped, 3)
	for _, err := range dropped {
		var recErr *ReconciliationError
		assert.True(t, errors.As(err, &recErr))
		assert.Equal(t, StageBrands, recErr.Stage)
	}
}

func TestReconcile_DropsCreateWithTakenID(t *testing.T) {
	existing := []models.Brand{{ID: "brand-acer", Type: models.TypeBrand, Name: "Acer Inc", Slug: models.NewSlug("acer-inc")}}
	incoming := []models.Brand{brand("Acer"), brand("Acer!")}

	decisions, dropped := Reconcile(existing, incoming, brandPolicy)

	assert.Empty(t, decisions)
	assert.Len(t, dropped, 2)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "create", ActionCreate.String())
	assert.Equal(t, "update", ActionUpdate.String())
	assert.Equal(t, "skip", ActionSkip.String())
	assert.Equal(t, "unknown", Action(0).String())
}
