package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/madrasahapp/madrasah/core/class"
)

type classRepository struct {
	db *DB
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) class.Repository {
	return &classRepository{db: db}
}

func (repo *classRepository) CheckNameUniqueness(ctx context.Context, name string, excluded ...class.Class) error {
	repo.db.classes.RLock()
	defer repo.db.classes.RUnlock()

	exclIDs := make(map[string]struct{}, len(excluded))
	for _, cls := range excluded {
		exclIDs[cls.ID] = struct{}{}
	}

	name = strings.ToLower(name)
	for _, cls := range repo.db.classes.table {
		if _, ok := exclIDs[cls.ID]; ok {
			continue
		}
		if strings.ToLower(cls.Name) == name {
			return class.ErrNameExists
		}
	}
	return nil
}

func (repo *classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	repo.db.classes.Lock()
	defer repo.db.classes.Unlock()

	if cls.ID == "" {
		cls.ID = uuid.NewString()
	}
	repo.db.classes.table[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) GetClass(ctx context.Context, filter class.GetFilter) (class.Class, error) {
	repo.db.classes.RLock()
	defer repo.db.classes.RUnlock()

	if filter.ID != "" {
		if cls, ok := repo.db.classes.table[filter.ID]; ok {
			return *cls, nil
		}
		return class.Class{}, class.ErrNotFound
	}
	name := strings.ToLower(filter.Name)
	for _, cls := range repo.db.classes.table {
		if name != "" && strings.ToLower(cls.Name) == name {
			return *cls, nil
		}
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *classRepository) FilterClasses(ctx context.Context, filter class.QueryFilter) ([]class.Class, int, error) {
	repo.db.classes.RLock()
	defer repo.db.classes.RUnlock()

	search := strings.ToLower(filter.Search)
	matches := make([]class.Class, 0, len(repo.db.classes.table))
	for _, cls := range repo.db.classes.table {
		if search != "" && !strings.Contains(strings.ToLower(cls.Name), search) {
			continue
		}
		matches = append(matches, *cls)
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })

	total := len(matches)
	if filter.Limit > 0 {
		start := (filter.Page - 1) * filter.Limit
		if start > total {
			start = total
		}
		end := start + filter.Limit
		if end > total {
			end = total
		}
		matches = matches[start:end]
	}
	return matches, total, nil
}

func (repo *classRepository) UpdateClass(ctx context.Context, cls class.Class, isActive *bool) (class.Class, error) {
	repo.db.classes.Lock()
	defer repo.db.classes.Unlock()

	stored, ok := repo.db.classes.table[cls.ID]
	if !ok {
		return class.Class{}, class.ErrNotFound
	}
	if isActive != nil {
		cls.IsActive = *isActive
	} else {
		cls.IsActive = stored.IsActive
	}
	repo.db.classes.table[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) DeleteClass(ctx context.Context, id string) error {
	repo.db.classes.Lock()
	defer repo.db.classes.Unlock()

	if _, ok := repo.db.classes.table[id]; !ok {
		return class.ErrNotFound
	}
	delete(repo.db.classes.table, id)
	return nil
}
