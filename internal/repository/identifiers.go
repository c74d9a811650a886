package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/zaqqye/toolcrib/internal/codegen"
	"github.com/zaqqye/toolcrib/internal/models"
)

// IdentifierStore is the committed set of tool identifiers. Callers take a
// snapshot with ListIdentifiers, derive the next id and commit it with
// Reserve; Reserve fails with ErrIdentifierTaken if someone got there first.
type IdentifierStore interface {
	ListIdentifiers(ctx context.Context, workshop string) ([]string, error)
	Reserve(ctx context.Context, id, workshop, reservedBy string) error
}

type GormIdentifierStore struct {
	DB *gorm.DB
}

func NewGormIdentifierStore(db *gorm.DB) *GormIdentifierStore {
	return &GormIdentifierStore{DB: db}
}

// ListIdentifiers returns every reserved or stored id in the workshop's
// prefix family.
func (s *GormIdentifierStore) ListIdentifiers(ctx context.Context, workshop string) ([]string, error) {
	prefix := codegen.ToolPrefix(workshop)
	var reserved []string
	if err := s.DB.WithContext(ctx).Model(&models.ToolIdentifier{}).Where("id LIKE ?", prefix+"-%").Pluck("id", &reserved).Error; err != nil {
		return nil, err
	}
	stored, err := NewToolRepository(s.DB).AllIDs(ctx, prefix)
	if err != nil {
		return nil, err
	}
	return append(reserved, stored...), nil
}

func (s *GormIdentifierStore) Reserve(ctx context.Context, id, workshop, reservedBy string) error {
	rec := models.ToolIdentifier{ID: id, Workshop: workshop, ReservedBy: reservedBy}
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		if IsUniqueViolation(err) {
			return ErrIdentifierTaken
		}
		return err
	}
	return nil
}

// MemoryIdentifierStore keeps identifiers in a map. Used by the CLI and
// tests.
type MemoryIdentifierStore struct {
	mu  sync.RWMutex
	ids map[string]string // id -> workshop
}

func NewMemoryIdentifierStore(seed ...string) *MemoryIdentifierStore {
	m := &MemoryIdentifierStore{ids: make(map[string]string, len(seed))}
	for _, id := range seed {
		m.ids[id] = ""
	}
	return m
}

func (m *MemoryIdentifierStore) ListIdentifiers(_ context.Context, workshop string) ([]string, error) {
	prefix := codegen.ToolPrefix(workshop) + "-"
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.ids))
	for id := range m.ids {
		if strings.HasPrefix(id, prefix) {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemoryIdentifierStore) Reserve(_ context.Context, id, workshop, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.ids[id]; ok {
		return ErrIdentifierTaken
	}
	m.ids[id] = workshop
	return nil
}
