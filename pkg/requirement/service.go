package requirement

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/reqman/reqman/pkg/audit"
	"github.com/reqman/reqman/pkg/metrics"
	"github.com/reqman/reqman/pkg/project"
	"github.com/reqman/reqman/pkg/workflow"
)

// ErrNotFound is returned when no requirement matches the lookup.
var ErrNotFound = errors.New("requirement not found")

// Service implements requirement mutations. Every mutation and its history
// records commit as one transaction; there is no code path that changes a
// requirement without leaving a record.
type Service struct {
	db       *gorm.DB
	machine  *workflow.Machine
	history  *audit.Store
	recorder *audit.Recorder
	projects *project.Store
}

// NewService creates a Service. projects may be nil when requirement codes
// should always use the default prefix.
func NewService(db *gorm.DB, machine *workflow.Machine, history *audit.Store, recorder *audit.Recorder, projects *project.Store) *Service {
	return &Service{
		db:       db,
		machine:  machine,
		history:  history,
		recorder: recorder,
		projects: projects,
	}
}

// AutoMigrate creates or updates the requirement tables.
func (s *Service) AutoMigrate() error {
	if err := s.db.AutoMigrate(&Requirement{}); err != nil {
		return fmt.Errorf("auto-migrate requirements: %w", err)
	}
	if err := s.db.AutoMigrate(&Comment{}); err != nil {
		return fmt.Errorf("auto-migrate requirement_comments: %w", err)
	}
	return nil
}

// CreateRequest carries the fields for a new requirement.
type CreateRequest struct {
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Type               Type     `json:"type,omitempty"`
	Priority           Priority `json:"priority,omitempty"`
	ProjectID          *uint    `json:"projectId,omitempty"`
	AssigneeID         *uint    `json:"assigneeId,omitempty"`
	ReviewerID         *uint    `json:"reviewerId,omitempty"`
	Version            string   `json:"version,omitempty"`
	Background         string   `json:"background,omitempty"`
	Objective          string   `json:"objective,omitempty"`
	Scope              string   `json:"scope,omitempty"`
	AcceptanceCriteria string   `json:"acceptanceCriteria,omitempty"`
	Source             string   `json:"source,omitempty"`
	DueDate            *string  `json:"dueDate,omitempty"` // YYYY-MM-DD
}

// Create persists a new requirement in draft status together with its
// creation record.
func (s *Service) Create(ctx context.Context, req CreateRequest, actorID uint) (*Requirement, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, &ValidationError{Field: "title", Message: "title is required"}
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, &ValidationError{Field: "description", Message: "description is required"}
	}
	if req.Type == "" {
		req.Type = TypeFunctional
	}
	if !req.Type.Valid() {
		return nil, &ValidationError{Field: "type", Message: "unknown requirement type " + string(req.Type)}
	}
	if req.Priority == "" {
		req.Priority = PriorityMedium
	}
	if !req.Priority.Valid() {
		return nil, &ValidationError{Field: "priority", Message: "unknown priority " + string(req.Priority)}
	}

	var dueDate *time.Time
	if req.DueDate != nil {
		t, err := time.Parse(dateLayout, *req.DueDate)
		if err != nil {
			return nil, &ValidationError{Field: "due_date", Message: "invalid date " + *req.DueDate + ", expected YYYY-MM-DD"}
		}
		dueDate = &t
	}

	now := s.recorder.Now()
	rec := &Requirement{
		Title:              req.Title,
		Description:        req.Description,
		Type:               req.Type,
		Status:             workflow.StatusDraft,
		Priority:           req.Priority,
		CreatorID:          actorID,
		AssigneeID:         req.AssigneeID,
		ReviewerID:         req.ReviewerID,
		ProjectID:          req.ProjectID,
		Version:            req.Version,
		Background:         req.Background,
		Objective:          req.Objective,
		Scope:              req.Scope,
		AcceptanceCriteria: req.AcceptanceCriteria,
		Source:             req.Source,
		DueDate:            dueDate,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		code, err := s.nextCode(tx, req.ProjectID, now)
		if err != nil {
			return err
		}
		rec.Code = code

		if err := tx.Create(rec).Error; err != nil {
			return fmt.Errorf("create requirement: %w", err)
		}
		return s.history.WithTx(tx).Append(s.recorder.Creation(rec.ID, actorID, now))
	})
	if err != nil {
		return nil, err
	}

	metrics.RecordCreation()
	metrics.RecordHistoryAppend(string(audit.ActionCreate))
	return rec, nil
}

// nextCode generates the next requirement code, PREFIX-YYYYMM-NNNN. The
// prefix is the owning project's code when set, REQ otherwise. The sequence
// continues from the highest existing number under the same prefix.
func (s *Service) nextCode(tx *gorm.DB, projectID *uint, now time.Time) (string, error) {
	prefix := "REQ"
	if projectID != nil && s.projects != nil {
		p, err := s.projects.Get(*projectID)
		if err != nil {
			if errors.Is(err, project.ErrNotFound) {
				return "", &ValidationError{Field: "project_id", Message: fmt.Sprintf("project %d does not exist", *projectID)}
			}
			return "", err
		}
		prefix = p.Code
	}

	var last Requirement
	err := tx.Where("code LIKE ?", prefix+"-%").Order("id DESC").First(&last).Error
	seq := 1
	if err == nil {
		parts := strings.Split(last.Code, "-")
		if n, perr := strconv.Atoi(parts[len(parts)-1]); perr == nil {
			seq = n + 1
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("find last requirement code: %w", err)
	}

	return fmt.Sprintf("%s-%s-%04d", prefix, now.Format("200601"), seq), nil
}

// Get retrieves a requirement by ID.
func (s *Service) Get(ctx context.Context, id uint) (*Requirement, error) {
	var rec Requirement
	if err := s.db.WithContext(ctx).First(&rec, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get requirement: %w", err)
	}
	return &rec, nil
}

// GetByCode retrieves a requirement by its unique code.
func (s *Service) GetByCode(ctx context.Context, code string) (*Requirement, error) {
	var rec Requirement
	if err := s.db.WithContext(ctx).First(&rec, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get requirement by code: %w", err)
	}
	return &rec, nil
}

// Update applies a partial update. The row is re-loaded inside the
// transaction and the diff is computed against that state, one update
// record per field whose value actually changed. A payload identical to
// the current state writes nothing.
func (s *Service) Update(ctx context.Context, id uint, upd UpdateRequest, actorID uint) (*Requirement, error) {
	var rec Requirement
	var changes []FieldChange

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load requirement: %w", err)
		}

		var err error
		changes, err = applyAndDiff(&rec, &upd)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			return nil
		}

		at := s.recorder.Now()
		rec.UpdatedAt = at
		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("update requirement: %w", err)
		}

		history := s.history.WithTx(tx)
		for _, c := range changes {
			if err := history.Append(s.recorder.FieldUpdate(rec.ID, actorID, c.Name, c.OldValue, c.NewValue, at)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for range changes {
		metrics.RecordHistoryAppend(string(audit.ActionUpdate))
	}
	return &rec, nil
}

// ChangeStatus transitions a requirement to a new status. The transition is
// validated before any write; an illegal one aborts with no state change
// and no record. A self-transition is legal and used to attach a comment.
func (s *Service) ChangeStatus(ctx context.Context, id uint, to workflow.Status, actorID uint, comment string) (*Requirement, error) {
	if !to.Valid() {
		return nil, &ValidationError{Field: "status", Message: "unknown status " + string(to)}
	}

	var rec Requirement
	var from workflow.Status
	var completionSet bool

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load requirement: %w", err)
		}

		from = rec.Status
		if err := s.machine.ValidateTransition(from, to); err != nil {
			return err
		}

		at := s.recorder.Now()
		rec.Status = to
		rec.UpdatedAt = at
		if to == workflow.StatusCompleted && rec.CompletionDate == nil {
			d := at
			rec.CompletionDate = &d
			completionSet = true
		}
		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("update requirement status: %w", err)
		}

		history := s.history.WithTx(tx)
		if err := history.Append(
			s.recorder.StatusChange(rec.ID, actorID, string(from), string(to), comment, at)); err != nil {
			return err
		}
		// The derived completion date is a real field write and stays on
		// record like any other.
		if completionSet {
			if err := history.Append(
				s.recorder.FieldUpdate(rec.ID, actorID, "completion_date", "", at.Format(dateLayout), at)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		var te *workflow.TransitionError
		if errors.As(err, &te) {
			metrics.RecordTransition(string(te.From), string(te.To), "denied")
		}
		return nil, err
	}

	metrics.RecordTransition(string(from), string(to), "success")
	metrics.RecordHistoryAppend(string(audit.ActionStatusChange))
	if completionSet {
		metrics.RecordHistoryAppend(string(audit.ActionUpdate))
	}
	return &rec, nil
}

// Delete removes a requirement and its owned history, then appends the
// delete tombstone inside the same transaction so the deletion itself stays
// on record.
func (s *Service) Delete(ctx context.Context, id uint, actorID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec Requirement
		if err := tx.First(&rec, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return fmt.Errorf("load requirement: %w", err)
		}

		history := s.history.WithTx(tx)
		if _, err := history.DeleteByRequirement(id); err != nil {
			return err
		}
		if err := tx.Where("requirement_id = ?", id).Delete(&Comment{}).Error; err != nil {
			return fmt.Errorf("delete requirement comments: %w", err)
		}
		if err := tx.Delete(&Requirement{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete requirement: %w", err)
		}

		return history.Append(s.recorder.Deletion(id, actorID, s.recorder.Now()))
	})
	if err != nil {
		return err
	}

	metrics.RecordHistoryAppend(string(audit.ActionDelete))
	return nil
}

// ListFilter defines filters for listing requirements.
type ListFilter struct {
	Keyword    string
	Status     workflow.Status
	Type       Type
	Priority   Priority
	ProjectID  uint
	AssigneeID uint
	CreatorID  uint
	Since      *time.Time
	Until      *time.Time
}

// List returns paginated requirements matching the filter, newest first.
// pageToken is an opaque cursor from a previous call; pass "" for the first page.
func (s *Service) List(ctx context.Context, filter ListFilter, pageSize int, pageToken string) ([]Requirement, string, int, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	buildQuery := func(base *gorm.DB) *gorm.DB {
		q := base.Model(&Requirement{})
		if filter.Keyword != "" {
			kw := "%" + filter.Keyword + "%"
			q = q.Where("title LIKE ? OR description LIKE ? OR code LIKE ?", kw, kw, kw)
		}
		if filter.Status != "" {
			q = q.Where("status = ?", filter.Status)
		}
		if filter.Type != "" {
			q = q.Where("type = ?", filter.Type)
		}
		if filter.Priority != "" {
			q = q.Where("priority = ?", filter.Priority)
		}
		if filter.ProjectID != 0 {
			q = q.Where("project_id = ?", filter.ProjectID)
		}
		if filter.AssigneeID != 0 {
			q = q.Where("assignee_id = ?", filter.AssigneeID)
		}
		if filter.CreatorID != 0 {
			q = q.Where("creator_id = ?", filter.CreatorID)
		}
		if filter.Since != nil {
			q = q.Where("created_at >= ?", *filter.Since)
		}
		if filter.Until != nil {
			q = q.Where("created_at <= ?", *filter.Until)
		}
		return q
	}

	db := s.db.WithContext(ctx)

	var totalSize int64
	if err := buildQuery(db).Count(&totalSize).Error; err != nil {
		return nil, "", 0, fmt.Errorf("count requirements: %w", err)
	}

	query := buildQuery(db).Order("created_at DESC, id DESC").Limit(pageSize + 1)
	if pageToken != "" {
		at, lastID, err := decodeListToken(pageToken)
		if err != nil {
			return nil, "", 0, err
		}
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", at, at, lastID)
	}

	var records []Requirement
	if err := query.Find(&records).Error; err != nil {
		return nil, "", 0, fmt.Errorf("list requirements: %w", err)
	}

	var nextToken string
	if len(records) > pageSize {
		last := records[pageSize-1]
		nextToken = encodeListToken(last.CreatedAt, last.ID)
		records = records[:pageSize]
	}

	return records, nextToken, int(totalSize), nil
}

// encodeListToken builds a cursor over (created_at, id) so that rows sharing
// a creation instant still paginate without loss.
func encodeListToken(at time.Time, id uint) string {
	return at.Format(time.RFC3339Nano) + "|" + strconv.FormatUint(uint64(id), 10)
}

func decodeListToken(token string) (time.Time, uint, error) {
	ts, rawID, ok := strings.Cut(token, "|")
	if !ok {
		return time.Time{}, 0, fmt.Errorf("invalid page token: %q", token)
	}
	at, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid page token: %w", err)
	}
	id, err := strconv.ParseUint(rawID, 10, 32)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid page token: %w", err)
	}
	return at, uint(id), nil
}

// History returns paginated history records for a requirement, newest
// first. The requirement may already be deleted; its tombstone remains
// retrievable.
func (s *Service) History(ctx context.Context, id uint, action audit.Action, pageSize int, pageToken string) ([]audit.Record, string, int, error) {
	return s.history.ListFiltered(audit.ListFilter{RequirementID: id, Action: action}, pageSize, pageToken)
}

// HistoryAscending returns the full history trail oldest first, replaying
// the requirement's evolution in order.
func (s *Service) HistoryAscending(ctx context.Context, id uint) ([]audit.Record, error) {
	return s.history.ListByRequirement(id, true)
}

// AllowedTargets returns the legal target statuses for a requirement's
// current status.
func (s *Service) AllowedTargets(ctx context.Context, id uint) (workflow.Status, []workflow.Status, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return "", nil, err
	}
	return rec.Status, s.machine.AllowedTargets(rec.Status), nil
}

// AddComment attaches a free-form comment to a requirement.
func (s *Service) AddComment(ctx context.Context, id uint, actorID uint, content string) (*Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &ValidationError{Field: "content", Message: "content is required"}
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	now := s.recorder.Now()
	c := &Comment{
		RequirementID: id,
		UserID:        actorID,
		Content:       content,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return c, nil
}

// ListComments returns a requirement's comments oldest first.
func (s *Service) ListComments(ctx context.Context, id uint) ([]Comment, error) {
	var comments []Comment
	err := s.db.WithContext(ctx).Where("requirement_id = ?", id).
		Order("created_at ASC, id ASC").Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}
