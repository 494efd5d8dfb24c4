package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"gorm.io/gorm"

	"github.com/expohall/expoadmin-backend/internal/apperr"
	"github.com/expohall/expoadmin-backend/internal/logger"
	"github.com/expohall/expoadmin-backend/internal/realtime"
	"github.com/expohall/expoadmin-backend/internal/realtime/bus"
	"github.com/expohall/expoadmin-backend/internal/repos"
	"github.com/expohall/expoadmin-backend/internal/types"
)

type PreRegistrationInput struct {
	Name      string `json:"name"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	StandCode string `json:"stand_code"`
}

// IntakeService is the inbound edge: it turns raw form submissions into
// contacts (validated against the form type's schema and seeded with the
// pipeline's first stage) and raw newsletter/pre-registration rows (published
// as insert events for the notification relay).
type IntakeService interface {
	SubmitContact(ctx context.Context, formTypeID uuid.UUID, payload map[string]any, source string) (*types.Contact, error)
	SubmitNewsletter(ctx context.Context, email, name string) (*types.NewsletterSignup, error)
	SubmitPreRegistration(ctx context.Context, in PreRegistrationInput) (*types.PreRegistration, error)
}

type intakeService struct {
	db          *gorm.DB
	log         *logger.Logger
	formTypes   repos.FormTypeRepo
	contacts    repos.ContactRepo
	submissions repos.SubmissionRepo
	router      ContactService
	history     HistoryService
	bus         bus.Bus
	notifier    BoardNotifier

	schemaMu    sync.Mutex
	schemaCache map[uuid.UUID]cachedSchema
}

type cachedSchema struct {
	updatedAt time.Time
	schema    *jsonschema.Schema
}

func NewIntakeService(db *gorm.DB, baseLog *logger.Logger, formTypes repos.FormTypeRepo, contacts repos.ContactRepo, submissions repos.SubmissionRepo, router ContactService, history HistoryService, b bus.Bus, notifier BoardNotifier) IntakeService {
	return &intakeService{
		db:          db,
		log:         baseLog.With("service", "IntakeService"),
		formTypes:   formTypes,
		contacts:    contacts,
		submissions: submissions,
		router:      router,
		history:     history,
		bus:         b,
		notifier:    notifier,
		schemaCache: make(map[uuid.UUID]cachedSchema),
	}
}

func (s *intakeService) SubmitContact(ctx context.Context, formTypeID uuid.UUID, payload map[string]any, source string) (*types.Contact, error) {
	ft, err := s.formTypes.GetByID(ctx, nil, formTypeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("form type", formTypeID)
		}
		return nil, apperr.Store("get form type", err)
	}
	if !ft.Active {
		return nil, apperr.Validation("form type %q is not accepting submissions", ft.Key)
	}

	if len(ft.Schema) > 0 {
		sch, err := s.compiledSchema(ft)
		if err != nil {
			return nil, err
		}
		if err := sch.Validate(normalizePayload(payload)); err != nil {
			return nil, apperr.Validation("payload rejected by form schema: %v", err)
		}
	}

	stage, err := s.router.InitialStageFor(ctx, formTypeID)
	if err != nil {
		return nil, err
	}

	contact := &types.Contact{
		FormTypeID: &ft.ID,
		Payload:    mustJSON(payload),
		Status:     types.ContactStatusNew,
		Priority:   types.ContactPriorityNormal,
		Source:     source,
	}
	if stage != nil {
		contact.StageID = &stage.ID
	}
	if _, err := s.contacts.Create(ctx, nil, contact); err != nil {
		return nil, apperr.Store("create contact", err)
	}

	desc := fmt.Sprintf("contact created from %q submission", ft.Name)
	after := map[string]any{"status": contact.Status}
	if stage != nil {
		desc = fmt.Sprintf("%s, assigned to stage %q", desc, stage.Name)
		after["stage_id"] = stage.ID
	}
	if _, err := s.history.Append(ctx, nil, contact.ID, types.HistoryKindCreated, desc, nil, after, nil); err != nil {
		s.log.Warn("History append failed after contact creation", "contact_id", contact.ID, "error", err)
	}

	if s.notifier != nil {
		s.notifier.ContactCreated(contact)
	}
	return contact, nil
}

func (s *intakeService) SubmitNewsletter(ctx context.Context, email, name string) (*types.NewsletterSignup, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}

	row := &types.NewsletterSignup{Email: email, Name: strings.TrimSpace(name)}
	if _, err := s.submissions.CreateNewsletterSignup(ctx, nil, row); err != nil {
		return nil, apperr.Store("create newsletter signup", err)
	}

	s.publish(ctx, realtime.InsertEvent{
		Category:   realtime.CategoryNewsletterSignup,
		RecordID:   row.ID,
		OccurredAt: time.Now().UTC(),
		Data:       map[string]any{"email": row.Email, "name": row.Name},
	})
	return row, nil
}

func (s *intakeService) SubmitPreRegistration(ctx context.Context, in PreRegistrationInput) (*types.PreRegistration, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	if in.Name == "" {
		return nil, apperr.Validation("a name is required")
	}
	if in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, apperr.Validation("a valid email is required")
	}

	row := &types.PreRegistration{
		Name:      in.Name,
		Email:     in.Email,
		Company:   strings.TrimSpace(in.Company),
		StandCode: strings.TrimSpace(in.StandCode),
	}
	if _, err := s.submissions.CreatePreRegistration(ctx, nil, row); err != nil {
		return nil, apperr.Store("create pre-registration", err)
	}

	s.publish(ctx, realtime.InsertEvent{
		Category:   realtime.CategoryPreRegistration,
		RecordID:   row.ID,
		OccurredAt: time.Now().UTC(),
		Data: map[string]any{
			"name":       row.Name,
			"email":      row.Email,
			"company":    row.Company,
			"stand_code": row.StandCode,
		},
	})
	return row, nil
}

// publish is best-effort: the row is already durable, a missed insert event
// only means no realtime toast for it.
func (s *intakeService) publish(ctx context.Context, ev realtime.InsertEvent) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, ev); err != nil {
		s.log.Warn("Publish insert event failed", "category", ev.Category, "record_id", ev.RecordID, "error", err)
	}
}

// compiledSchema compiles and caches the form type's JSON schema, invalidated
// by the form type's updated_at.
func (s *intakeService) compiledSchema(ft *types.FormType) (*jsonschema.Schema, error) {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()

	if cached, ok := s.schemaCache[ft.ID]; ok && cached.updatedAt.Equal(ft.UpdatedAt) {
		return cached.schema, nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(ft.Schema))
	if err != nil {
		return nil, apperr.Validation("form type %q has an unreadable schema: %v", ft.Key, err)
	}
	compiler := jsonschema.NewCompiler()
	url := fmt.Sprintf("formtype://%s/schema.json", ft.ID)
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, apperr.Validation("form type %q schema rejected: %v", ft.Key, err)
	}
	sch, err := compiler.Compile(url)
	if err != nil {
		return nil, apperr.Validation("form type %q schema does not compile: %v", ft.Key, err)
	}

	s.schemaCache[ft.ID] = cachedSchema{updatedAt: ft.UpdatedAt, schema: sch}
	return sch, nil
}

// normalizePayload round-trips the payload through encoding/json so the
// validator sees exactly what a decoded submission body looks like. Go ints
// handed in by callers come out as float64, same as any other number.
func normalizePayload(payload map[string]any) any {
	raw, err := json.Marshal(payload)
	if err != nil {
		return payload
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return payload
	}
	return out
}
