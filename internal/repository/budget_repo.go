package repository

import (
	"context"
	"sort"

	"go-schoolfeeding/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BudgetRepository interface {
	CreateGov(tx *gorm.DB, gov *model.BudgetGov) error
	LockGov(tx *gorm.DB, id uuid.UUID) (*model.BudgetGov, error)
	ExistsFiscalYear(tx *gorm.DB, fiscalYear string, excludeID *uuid.UUID) (bool, error)
	SaveGov(tx *gorm.DB, gov *model.BudgetGov) error
	DeleteGov(tx *gorm.DB, id uuid.UUID, deletedBy string) error
	// SupersedeDerived flags every current district and school row of gov.
	SupersedeDerived(tx *gorm.DB, govID uuid.UUID) error
	CreateDistrictBudget(tx *gorm.DB, bd *model.BudgetDistrict) error

	FindGovs(ctx context.Context) ([]model.BudgetGov, error)
	FindGov(ctx context.Context, id uuid.UUID) (*model.BudgetGov, error)
	FindByFiscalYear(ctx context.Context, fiscalYear string) (*model.BudgetGov, error)
	// FindAllocation loads gov with its current snapshot, districts and schools by name.
	FindAllocation(ctx context.Context, id uuid.UUID) (*model.BudgetGov, error)
	FindDistrictBudgets(ctx context.Context, districtID uuid.UUID) ([]model.BudgetDistrict, error)
	FindSchoolBudgets(ctx context.Context, schoolID uuid.UUID) ([]model.BudgetSchool, error)
}

type budgetRepo struct {
	db *gorm.DB
}

func NewBudgetRepo(db *gorm.DB) BudgetRepository {
	return &budgetRepo{db}
}

func (r *budgetRepo) CreateGov(tx *gorm.DB, gov *model.BudgetGov) error {
	return tx.Omit(clause.Associations).Create(gov).Error
}

func (r *budgetRepo) LockGov(tx *gorm.DB, id uuid.UUID) (*model.BudgetGov, error) {
	var gov model.BudgetGov
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&gov, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &gov, nil
}

func (r *budgetRepo) ExistsFiscalYear(tx *gorm.DB, fiscalYear string, excludeID *uuid.UUID) (bool, error) {
	q := tx.Unscoped().Model(&model.BudgetGov{}).Where("fiscal_year = ?", fiscalYear)
	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}
	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *budgetRepo) SaveGov(tx *gorm.DB, gov *model.BudgetGov) error {
	return tx.Omit(clause.Associations).Save(gov).Error
}

func (r *budgetRepo) DeleteGov(tx *gorm.DB, id uuid.UUID, deletedBy string) error {
	if err := tx.Model(&model.BudgetGov{}).Where("id = ?", id).Update("deleted_by", deletedBy).Error; err != nil {
		return err
	}
	return tx.Delete(&model.BudgetGov{}, "id = ?", id).Error
}

func (r *budgetRepo) SupersedeDerived(tx *gorm.DB, govID uuid.UUID) error {
	var districtIDs []uuid.UUID
	if err := tx.Model(&model.BudgetDistrict{}).
		Where("budget_gov_id = ? AND superseded = ?", govID, false).
		Pluck("id", &districtIDs).Error; err != nil {
		return err
	}
	if len(districtIDs) == 0 {
		return nil
	}
	if err := tx.Model(&model.BudgetSchool{}).
		Where("budget_district_id IN ?", districtIDs).
		Update("superseded", true).Error; err != nil {
		return err
	}
	return tx.Model(&model.BudgetDistrict{}).
		Where("id IN ?", districtIDs).
		Update("superseded", true).Error
}

func (r *budgetRepo) CreateDistrictBudget(tx *gorm.DB, bd *model.BudgetDistrict) error {
	schools := bd.Schools
	bd.Schools = nil
	if err := tx.Omit(clause.Associations).Create(bd).Error; err != nil {
		return err
	}
	for i := range schools {
		schools[i].BudgetDistrictID = bd.ID
	}
	if len(schools) > 0 {
		if err := tx.Omit(clause.Associations).Create(&schools).Error; err != nil {
			return err
		}
	}
	bd.Schools = schools
	return nil
}

func (r *budgetRepo) FindGovs(ctx context.Context) ([]model.BudgetGov, error) {
	var govs []model.BudgetGov
	err := r.db.WithContext(ctx).Order("fiscal_year DESC").Find(&govs).Error
	return govs, err
}

func (r *budgetRepo) FindGov(ctx context.Context, id uuid.UUID) (*model.BudgetGov, error) {
	var gov model.BudgetGov
	if err := r.db.WithContext(ctx).First(&gov, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &gov, nil
}

func (r *budgetRepo) FindByFiscalYear(ctx context.Context, fiscalYear string) (*model.BudgetGov, error) {
	var gov model.BudgetGov
	if err := r.db.WithContext(ctx).First(&gov, "fiscal_year = ?", fiscalYear).Error; err != nil {
		return nil, err
	}
	return &gov, nil
}

func (r *budgetRepo) FindAllocation(ctx context.Context, id uuid.UUID) (*model.BudgetGov, error) {
	current := func(db *gorm.DB) *gorm.DB {
		return db.Where("superseded = ?", false)
	}
	var gov model.BudgetGov
	err := r.db.WithContext(ctx).
		Preload("Districts", current).
		Preload("Districts.District").
		Preload("Districts.Schools", current).
		Preload("Districts.Schools.School").
		First(&gov, "id = ?", id).Error
	if err != nil {
		return nil, err
	}

	sort.Slice(gov.Districts, func(i, j int) bool {
		return districtLabel(gov.Districts[i]) < districtLabel(gov.Districts[j])
	})
	for i := range gov.Districts {
		schools := gov.Districts[i].Schools
		sort.Slice(schools, func(a, b int) bool {
			return schoolLabel(schools[a]) < schoolLabel(schools[b])
		})
	}
	return &gov, nil
}

func districtLabel(d model.BudgetDistrict) string {
	if d.District != nil {
		return d.District.Name
	}
	return d.DistrictID.String()
}

func schoolLabel(s model.BudgetSchool) string {
	if s.School != nil {
		return s.School.Name
	}
	return s.SchoolID.String()
}

func (r *budgetRepo) FindDistrictBudgets(ctx context.Context, districtID uuid.UUID) ([]model.BudgetDistrict, error) {
	var rows []model.BudgetDistrict
	err := r.db.WithContext(ctx).
		Joins("JOIN budget_govs ON budget_govs.id = budget_districts.budget_gov_id AND budget_govs.deleted_at IS NULL").
		Preload("District").
		Where("budget_districts.district_id = ? AND budget_districts.superseded = ?", districtID, false).
		Order("budget_districts.created_at DESC").
		Find(&rows).Error
	return rows, err
}

func (r *budgetRepo) FindSchoolBudgets(ctx context.Context, schoolID uuid.UUID) ([]model.BudgetSchool, error) {
	var rows []model.BudgetSchool
	err := r.db.WithContext(ctx).
		Joins("JOIN budget_districts ON budget_districts.id = budget_schools.budget_district_id").
		Joins("JOIN budget_govs ON budget_govs.id = budget_districts.budget_gov_id AND budget_govs.deleted_at IS NULL").
		Preload("School").
		Where("budget_schools.school_id = ? AND budget_schools.superseded = ?", schoolID, false).
		Order("budget_schools.created_at DESC").
		Find(&rows).Error
	return rows, err
}
