package project

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound is returned when no project matches the lookup.
var ErrNotFound = errors.New("project not found")

// Store provides CRUD operations for projects.
type Store struct {
	db *gorm.DB
}

// NewStore creates a new Store.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the projects table.
func (s *Store) AutoMigrate() error {
	if err := s.db.AutoMigrate(&Project{}); err != nil {
		return fmt.Errorf("auto-migrate projects: %w", err)
	}
	return nil
}

// Create persists a new project.
func (s *Store) Create(p *Project) error {
	if p.Status == "" {
		p.Status = "active"
	}
	if err := s.db.Create(p).Error; err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// Get retrieves a project by ID.
func (s *Store) Get(id uint) (*Project, error) {
	var p Project
	if err := s.db.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &p, nil
}

// GetByCode retrieves a project by its unique code.
func (s *Store) GetByCode(code string) (*Project, error) {
	var p Project
	if err := s.db.First(&p, "code = ?", code).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project by code: %w", err)
	}
	return &p, nil
}

// Update saves changes to an existing project.
func (s *Store) Update(p *Project) error {
	result := s.db.Model(&Project{}).Where("id = ?", p.ID).Updates(map[string]any{
		"name":        p.Name,
		"description": p.Description,
		"status":      p.Status,
		"manager_id":  p.ManagerID,
		"start_date":  p.StartDate,
		"end_date":    p.EndDate,
	})
	if result.Error != nil {
		return fmt.Errorf("update project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a project by ID. Requirements keep their project reference
// historically through their generated codes.
func (s *Store) Delete(id uint) error {
	result := s.db.Delete(&Project{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("delete project: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns paginated projects ordered by ID.
// pageToken is the ID of the last record from the previous page; pass "" for the first page.
func (s *Store) List(pageSize int, pageToken string) ([]Project, string, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	query := s.db.Order("id ASC").Limit(pageSize + 1)
	if pageToken != "" {
		query = query.Where("id > ?", pageToken)
	}

	var records []Project
	if err := query.Find(&records).Error; err != nil {
		return nil, "", fmt.Errorf("list projects: %w", err)
	}

	var nextToken string
	if len(records) > pageSize {
		nextToken = fmt.Sprintf("%d", records[pageSize-1].ID)
		records = records[:pageSize]
	}

	return records, nextToken, nil
}
