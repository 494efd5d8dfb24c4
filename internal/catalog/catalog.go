package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/repos"
	"github.com/expohall/expoadmin-backend/internal/types"
)

// FieldDef is one expected field of a form, as configured in forms.yaml.
type FieldDef struct {
	Key      string `yaml:"key" json:"key"`
	Label    string `yaml:"label" json:"label"`
	Type     string `yaml:"type" json:"type"`
	Required bool   `yaml:"required" json:"required"`
}

type FormDef struct {
	Key    string     `yaml:"key" json:"key"`
	Name   string     `yaml:"name" json:"name"`
	Active bool       `yaml:"active" json:"active"`
	Fields []FieldDef `yaml:"fields" json:"fields"`
}

type PaymentOption struct {
	Code        string `yaml:"code" json:"code"`
	Label       string `yaml:"label" json:"label"`
	AmountCents int    `yaml:"amount_cents" json:"amount_cents"`
}

type CalendarEntry struct {
	Title    string    `yaml:"title" json:"title"`
	Location string    `yaml:"location" json:"location"`
	StartsAt time.Time `yaml:"starts_at" json:"starts_at"`
	EndsAt   time.Time `yaml:"ends_at" json:"ends_at"`
}

type Catalog struct {
	Forms    []FormDef       `json:"forms"`
	Payments []PaymentOption `json:"payments"`
	Calendar []CalendarEntry `json:"calendar"`
}

// Service loads the static catalog from a directory of YAML files and keeps
// it fresh via fsnotify. The catalog is pure configuration; the record store
// is never written from here except for seeding missing form types.
type Service struct {
	log *logger.Logger
	dir string

	mu  sync.RWMutex
	cat Catalog
}

func NewService(baseLog *logger.Logger, dir string) (*Service, error) {
	s := &Service{
		log: baseLog.With("service", "CatalogService"),
		dir: dir,
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) Load() error {
	var cat Catalog
	if err := readYAML(filepath.Join(s.dir, "forms.yaml"), &cat.Forms); err != nil {
		return fmt.Errorf("load forms.yaml: %w", err)
	}
	if err := readYAML(filepath.Join(s.dir, "payments.yaml"), &cat.Payments); err != nil {
		return fmt.Errorf("load payments.yaml: %w", err)
	}
	if err := readYAML(filepath.Join(s.dir, "calendar.yaml"), &cat.Calendar); err != nil {
		return fmt.Errorf("load calendar.yaml: %w", err)
	}

	s.mu.Lock()
	s.cat = cat
	s.mu.Unlock()

	s.log.Info("Catalog loaded", "forms", len(cat.Forms), "payments", len(cat.Payments), "calendar_entries", len(cat.Calendar))
	return nil
}

func (s *Service) Catalog() Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cat
}

// Watch reloads the catalog whenever a YAML file in the directory changes.
// Returns when ctx is cancelled.
func (s *Service) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(s.dir); err != nil {
		return fmt.Errorf("watch %s: %w", s.dir, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Ext(ev.Name) != ".yaml" && filepath.Ext(ev.Name) != ".yml" {
				continue
			}
			s.log.Info("Catalog file changed, reloading", "file", ev.Name)
			if err := s.Load(); err != nil {
				s.log.Warn("Catalog reload failed, keeping previous catalog", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn("Catalog watcher error", "error", err)
		}
	}
}

// SeedFormTypes creates a FormType row for every catalog form that does not
// exist yet. Existing rows are left untouched; seeding is never destructive.
func (s *Service) SeedFormTypes(ctx context.Context, formTypes repos.FormTypeRepo) error {
	for _, form := range s.Catalog().Forms {
		if _, err := formTypes.GetByKey(ctx, nil, form.Key); err == nil {
			continue
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check form type %q: %w", form.Key, err)
		}

		rawSchema, err := json.Marshal(form.JSONSchema())
		if err != nil {
			return fmt.Errorf("render schema for form type %q: %w", form.Key, err)
		}
		ft := &types.FormType{
			Key:    form.Key,
			Name:   form.Name,
			Active: form.Active,
			Schema: datatypes.JSON(rawSchema),
		}
		if _, err := formTypes.Create(ctx, nil, ft); err != nil {
			return fmt.Errorf("seed form type %q: %w", form.Key, err)
		}
		s.log.Info("Form type seeded from catalog", "key", form.Key)
	}
	return nil
}

// JSONSchema renders the form's field definitions as the JSON schema
// submissions are validated against.
func (f FormDef) JSONSchema() map[string]any {
	properties := make(map[string]any, len(f.Fields))
	var required []string
	for _, field := range f.Fields {
		prop := map[string]any{}
		switch field.Type {
		case "number":
			prop["type"] = "number"
		case "bool", "checkbox":
			prop["type"] = "boolean"
		case "email":
			prop["type"] = "string"
			prop["format"] = "email"
		default:
			prop["type"] = "string"
		}
		properties[field.Key] = prop
		if field.Required {
			required = append(required, field.Key)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func readYAML(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(raw, out)
}
