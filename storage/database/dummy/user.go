package dummydb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/madrasahapp/madrasah/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckUniqueness(ctx context.Context, email, phone, studentID string, excluded ...user.User) error {
	repo.db.users.RLock()
	defer repo.db.users.RUnlock()

	exclIDs := make(map[string]struct{}, len(excluded))
	for _, usr := range excluded {
		exclIDs[usr.ID] = struct{}{}
	}

	for _, usr := range repo.db.users.table {
		if _, ok := exclIDs[usr.ID]; ok {
			continue
		}
		if email != "" && usr.Email == email {
			return user.ErrEmailExists
		}
		if phone != "" && usr.Phone == phone {
			return user.ErrPhoneExists
		}
		if studentID != "" && usr.StudentID == studentID {
			return user.ErrStudentIDExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.db.users.Lock()
	defer repo.db.users.Unlock()

	if usr.ID == "" {
		usr.ID = uuid.NewString()
	}
	repo.db.users.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.users.RLock()
	defer repo.db.users.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.users.table[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.db.users.table {
		switch {
		case filter.Email != "" && usr.Email == filter.Email,
			filter.Phone != "" && usr.Phone == filter.Phone,
			filter.StudentID != "" && usr.StudentID == filter.StudentID:
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, int, error) {
	repo.db.users.RLock()
	defer repo.db.users.RUnlock()

	search := strings.ToLower(filter.Search)
	matches := make([]user.User, 0, len(repo.db.users.table))
	for _, usr := range repo.db.users.table {
		if filter.Role != "" && usr.Role != filter.Role {
			continue
		}
		if search != "" && !userMatchesSearch(*usr, search) {
			continue
		}
		matches = append(matches, *usr)
	}
	// newest first, matching the real store's sort
	sort.Slice(matches, func(i, j int) bool { return matches[i].CreatedAt.After(matches[j].CreatedAt) })

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

func userMatchesSearch(usr user.User, search string) bool {
	for _, field := range []string{usr.FirstName, usr.LastName, usr.Email, usr.Phone, usr.StudentID} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	repo.db.users.Lock()
	defer repo.db.users.Unlock()

	stored, ok := repo.db.users.table[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if isActive != nil {
		usr.IsActive = *isActive
	} else {
		usr.IsActive = stored.IsActive
	}
	repo.db.users.table[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) CountStudentsByClass(ctx context.Context, classID string) (int, error) {
	repo.db.users.RLock()
	defer repo.db.users.RUnlock()

	var count int
	for _, usr := range repo.db.users.table {
		if usr.Role == user.RoleStudent && usr.ClassID == classID {
			count++
		}
	}
	return count, nil
}
