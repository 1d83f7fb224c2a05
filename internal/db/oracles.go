package db

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/coursehive/forumcore/internal/models"
)

// Repository provides database access methods
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// UserRepository answers role questions about users. It is the role oracle
// behind the privilege resolver.
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, uid int64) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, uid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// IsAdmin reports whether the user is a site administrator
func (r *UserRepository) IsAdmin(ctx context.Context, uid int64) (bool, error) {
	if uid <= 0 {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND admin = true", uid).
		Count(&count).Error
	return count > 0, err
}

// IsInstructor reports whether the user holds the instructor role
func (r *UserRepository) IsInstructor(ctx context.Context, uid int64) (bool, error) {
	if uid <= 0 {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND role = ?", uid, models.RoleInstructor).
		Count(&count).Error
	return count > 0, err
}

// IsModerator reports whether the user moderates the given category
func (r *UserRepository) IsModerator(ctx context.Context, uid, cid int64) (bool, error) {
	if uid <= 0 {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Moderator{}).
		Where("user_id = ? AND category_id = ?", uid, cid).
		Count(&count).Error
	return count > 0, err
}

// CategoryRepository answers per-category ACL questions. It is the category
// ACL oracle behind the privilege resolver.
type CategoryRepository struct {
	*Repository
}

// NewCategoryRepository creates a new category repository
func NewCategoryRepository(repo *Repository) *CategoryRepository {
	return &CategoryRepository{Repository: repo}
}

// GetByID retrieves a category by ID
func (r *CategoryRepository) GetByID(ctx context.Context, cid int64) (*models.Category, error) {
	var category models.Category
	if err := r.db.WithContext(ctx).First(&category, cid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

// ListIDs returns the ids of every category
func (r *CategoryRepository) ListIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	err := r.db.WithContext(ctx).
		Model(&models.Category{}).
		Order("id").
		Pluck("id", &ids).Error
	return ids, err
}

// Allows reports whether the user holds the named privilege in the
// category. A grant with user_id 0 applies to everyone.
func (r *CategoryRepository) Allows(ctx context.Context, uid, cid int64, privilege string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CategoryPrivilege{}).
		Where("category_id = ? AND privilege = ? AND user_id IN (0, ?)", cid, privilege, uid).
		Count(&count).Error
	return count > 0, err
}

// AllowsAll resolves several privileges in one query
func (r *CategoryRepository) AllowsAll(ctx context.Context, uid, cid int64, privileges []string) (map[string]bool, error) {
	result := make(map[string]bool, len(privileges))
	for _, p := range privileges {
		result[p] = false
	}
	if len(privileges) == 0 {
		return result, nil
	}

	var granted []string
	err := r.db.WithContext(ctx).
		Model(&models.CategoryPrivilege{}).
		Where("category_id = ? AND privilege IN ? AND user_id IN (0, ?)", cid, privileges, uid).
		Distinct().
		Pluck("privilege", &granted).Error
	if err != nil {
		return nil, err
	}
	for _, p := range granted {
		result[p] = true
	}
	return result, nil
}

// Disabled reports whether the category is disabled. Unknown categories are
// treated as disabled.
func (r *CategoryRepository) Disabled(ctx context.Context, cid int64) (bool, error) {
	category, err := r.GetByID(ctx, cid)
	if err != nil {
		return false, err
	}
	if category == nil {
		return true, nil
	}
	return category.Disabled, nil
}
