package audit

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Store provides append-only operations for requirement history records.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the requirement_history table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&Record{}); err != nil {
		return fmt.Errorf("auto-migrate requirement_history: %w", err)
	}
	return nil
}

// WithTx returns a view of the store bound to the given transaction. Every
// mutation's records must be appended through the same transaction as the
// requirement write itself.
func (s *Store) WithTx(tx *gorm.DB) *Store {
	return &Store{db: tx}
}

// Append persists a new immutable history record.
func (s *Store) Append(record *Record) error {
	if !record.Action.Valid() {
		return fmt.Errorf("append history record: unknown action %q", record.Action)
	}
	if err := s.db.Create(record).Error; err != nil {
		return fmt.Errorf("append history record: %w", err)
	}
	return nil
}

// ListByRequirement returns all records for a requirement ordered by
// creation time, ascending or descending per the caller's choice.
func (s *Store) ListByRequirement(requirementID uint, ascending bool) ([]Record, error) {
	order := "created_at DESC, id DESC"
	if ascending {
		order = "created_at ASC, id ASC"
	}
	var records []Record
	err := s.db.Where("requirement_id = ?", requirementID).Order(order).Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("list history records: %w", err)
	}
	return records, nil
}

// ListFilter defines filters for listing history records.
type ListFilter struct {
	RequirementID uint
	ActorID       uint
	Action        Action
	FieldName     string
}

// ListFiltered returns paginated history records matching the filter,
// ordered by created_at DESC (newest first).
// pageToken is an opaque cursor from a previous call; pass "" for the first page.
func (s *Store) ListFiltered(filter ListFilter, pageSize int, pageToken string) ([]Record, string, int, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	buildQuery := func(base *gorm.DB) *gorm.DB {
		q := base.Model(&Record{})
		if filter.RequirementID != 0 {
			q = q.Where("requirement_id = ?", filter.RequirementID)
		}
		if filter.ActorID != 0 {
			q = q.Where("actor_id = ?", filter.ActorID)
		}
		if filter.Action != "" {
			q = q.Where("action = ?", filter.Action)
		}
		if filter.FieldName != "" {
			q = q.Where("field_name = ?", filter.FieldName)
		}
		return q
	}

	var totalSize int64
	if err := buildQuery(s.db).Count(&totalSize).Error; err != nil {
		return nil, "", 0, fmt.Errorf("count history records: %w", err)
	}

	query := buildQuery(s.db).Order("created_at DESC, id DESC").Limit(pageSize + 1)
	if pageToken != "" {
		at, id, err := decodePageToken(pageToken)
		if err != nil {
			return nil, "", 0, err
		}
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", at, at, id)
	}

	var records []Record
	if err := query.Find(&records).Error; err != nil {
		return nil, "", 0, fmt.Errorf("list history records: %w", err)
	}

	var nextToken string
	if len(records) > pageSize {
		last := records[pageSize-1]
		nextToken = encodePageToken(last.CreatedAt, last.ID)
		records = records[:pageSize]
	}

	return records, nextToken, int(totalSize), nil
}

// encodePageToken builds a cursor over (created_at, id). All records of one
// mutation batch share a single instant, so the timestamp alone cannot split
// a batch across a page boundary without losing its remainder; the id breaks
// the tie.
func encodePageToken(at time.Time, id string) string {
	return at.Format(time.RFC3339Nano) + "|" + id
}

func decodePageToken(token string) (time.Time, string, error) {
	ts, id, ok := strings.Cut(token, "|")
	if !ok {
		return time.Time{}, "", fmt.Errorf("invalid page token: %q", token)
	}
	at, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("invalid page token: %w", err)
	}
	return at, id, nil
}

// CountByRequirement returns the number of records for a requirement.
func (s *Store) CountByRequirement(requirementID uint) (int, error) {
	var count int64
	err := s.db.Model(&Record{}).Where("requirement_id = ?", requirementID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count history records: %w", err)
	}
	return int(count), nil
}

// DeleteByRequirement removes all records owned by a requirement. This is
// the cascade path of requirement deletion and the only way records are
// ever removed.
func (s *Store) DeleteByRequirement(requirementID uint) (int64, error) {
	result := s.db.Where("requirement_id = ?", requirementID).Delete(&Record{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete history records: %w", result.Error)
	}
	return result.RowsAffected, nil
}
