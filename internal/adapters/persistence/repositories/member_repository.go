package repositories

import (
	"context"
	"strconv"

	"emergency-fund/internal/adapters/persistence/models"
	"emergency-fund/internal/core/domain"

	"gorm.io/gorm"
)

// MemberRepository handles member data access
type MemberRepository struct {
	db *gorm.DB
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{db: db}
}

// Create creates a new member
func (r *MemberRepository) Create(ctx context.Context, member *models.Member) error {
	return wrapErr("create member", "member", member.Matricule, r.db.WithContext(ctx).Create(member).Error)
}

// GetByID gets a member by ID
func (r *MemberRepository) GetByID(ctx context.Context, id uint) (*domain.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).First(&member, id).Error
	if err != nil {
		return nil, wrapErr("get member", "member", strconv.FormatUint(uint64(id), 10), err)
	}
	return member.ToDomain(), nil
}

// GetByMatricule gets a member by matricule
func (r *MemberRepository) GetByMatricule(ctx context.Context, matricule string) (*domain.Member, error) {
	var member models.Member
	err := r.db.WithContext(ctx).Where("matricule = ?", matricule).First(&member).Error
	if err != nil {
		return nil, wrapErr("get member", "member", matricule, err)
	}
	return member.ToDomain(), nil
}

// Search searches for members by name or matricule
func (r *MemberRepository) Search(ctx context.Context, query string, limit int) ([]*domain.Member, error) {
	var rows []*models.Member
	searchQuery := "%" + query + "%"
	err := r.db.WithContext(ctx).
		Where("matricule LIKE ? OR first_name LIKE ? OR last_name LIKE ?", searchQuery, searchQuery, searchQuery).
		Order("matricule ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, domain.Store("search members", err)
	}
	members := make([]*domain.Member, 0, len(rows))
	for _, row := range rows {
		members = append(members, row.ToDomain())
	}
	return members, nil
}
