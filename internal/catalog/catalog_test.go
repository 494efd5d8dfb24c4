package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/types"
)

func testLogger() *logger.Logger {
	return &logger.Logger{SugaredLogger: zap.NewNop().Sugar()}
}

const formsYAML = `
- key: exhibitor
  name: Exhibitor contact
  active: true
  fields:
    - key: name
      label: Name
      type: string
      required: true
    - key: email
      label: Email
      type: email
      required: true
    - key: booth_size
      label: Booth size
      type: number
    - key: newsletter
      label: Newsletter
      type: checkbox
`

func writeCatalogDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "forms.yaml"), []byte(formsYAML), 0o644); err != nil {
		t.Fatalf("write forms.yaml: %v", err)
	}
	return dir
}

func TestLoadTracksOnlyPresentFiles(t *testing.T) {
	dir := writeCatalogDir(t)
	svc, err := NewService(testLogger(), dir)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	cat := svc.Catalog()
	if len(cat.Forms) != 1 {
		t.Fatalf("forms: want=1 got=%d", len(cat.Forms))
	}
	if cat.Forms[0].Key != "exhibitor" || len(cat.Forms[0].Fields) != 4 {
		t.Fatalf("exhibitor form: got key=%q fields=%d", cat.Forms[0].Key, len(cat.Forms[0].Fields))
	}
	// payments.yaml and calendar.yaml are absent and simply empty
	if len(cat.Payments) != 0 || len(cat.Calendar) != 0 {
		t.Fatalf("missing files must load as empty sections")
	}
}

func TestJSONSchemaRendering(t *testing.T) {
	dir := writeCatalogDir(t)
	svc, err := NewService(testLogger(), dir)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	schema := svc.Catalog().Forms[0].JSONSchema()
	if schema["type"] != "object" {
		t.Fatalf("schema type: want=object got=%v", schema["type"])
	}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("schema has no properties map")
	}
	if got := props["booth_size"].(map[string]any)["type"]; got != "number" {
		t.Fatalf("booth_size type: want=number got=%v", got)
	}
	if got := props["newsletter"].(map[string]any)["type"]; got != "boolean" {
		t.Fatalf("newsletter type: want=boolean got=%v", got)
	}
	required, ok := schema["required"].([]string)
	if !ok || len(required) != 2 {
		t.Fatalf("required fields: want=[name email] got=%v", schema["required"])
	}
}

type memFormTypeRepo struct {
	byKey map[string]*types.FormType
}

func newMemFormTypeRepo() *memFormTypeRepo {
	return &memFormTypeRepo{byKey: make(map[string]*types.FormType)}
}

func (r *memFormTypeRepo) Create(ctx context.Context, tx *gorm.DB, ft *types.FormType) (*types.FormType, error) {
	if ft.ID == uuid.Nil {
		ft.ID = uuid.New()
	}
	r.byKey[ft.Key] = ft
	return ft, nil
}

func (r *memFormTypeRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*types.FormType, error) {
	for _, ft := range r.byKey {
		if ft.ID == id {
			return ft, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memFormTypeRepo) GetByKey(ctx context.Context, tx *gorm.DB, key string) (*types.FormType, error) {
	ft, ok := r.byKey[key]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return ft, nil
}

func (r *memFormTypeRepo) List(ctx context.Context, tx *gorm.DB) ([]*types.FormType, error) {
	out := make([]*types.FormType, 0, len(r.byKey))
	for _, ft := range r.byKey {
		out = append(out, ft)
	}
	return out, nil
}

func (r *memFormTypeRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	return nil
}

func TestSeedFormTypesIsIdempotent(t *testing.T) {
	dir := writeCatalogDir(t)
	svc, err := NewService(testLogger(), dir)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	repo := newMemFormTypeRepo()
	ctx := context.Background()
	if err := svc.SeedFormTypes(ctx, repo); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(repo.byKey) != 1 {
		t.Fatalf("seeded form types: want=1 got=%d", len(repo.byKey))
	}
	created := repo.byKey["exhibitor"]
	if len(created.Schema) == 0 {
		t.Fatalf("seeded form type must carry a rendered schema")
	}

	// second seed must not overwrite or duplicate
	created.Name = "renamed by admin"
	if err := svc.SeedFormTypes(ctx, repo); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if repo.byKey["exhibitor"].Name != "renamed by admin" {
		t.Fatalf("seeding must never overwrite existing rows")
	}
}
