package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"time"

	"go-schoolfeeding/internal/lock"
	"go-schoolfeeding/internal/model"
	"go-schoolfeeding/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BudgetInput struct {
	FiscalYear  string          `json:"fiscal_year"`
	Budget      decimal.Decimal `json:"budget"`
	Description string          `json:"description"`
	Status      bool            `json:"status"`
}

// BudgetService cascades a fiscal-year budget down to districts and schools.
// Each write produces a new allocation snapshot; older snapshots are kept but
// flagged as superseded.
type BudgetService interface {
	Create(ctx context.Context, actor Actor, in BudgetInput) (*model.BudgetGov, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, in BudgetInput) (*model.BudgetGov, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
	GetAllocation(ctx context.Context, id uuid.UUID) (*model.BudgetGov, error)
	GetAllocationByFiscalYear(ctx context.Context, fiscalYear string) (*model.BudgetGov, error)
	List(ctx context.Context) ([]model.BudgetGov, error)
	ListDistrictBudgets(ctx context.Context, districtID uuid.UUID) ([]model.BudgetDistrict, error)
	ListSchoolBudgets(ctx context.Context, schoolID uuid.UUID) ([]model.BudgetSchool, error)
}

type budgetService struct {
	db         *gorm.DB
	budgetRepo repository.BudgetRepository
	schoolRepo repository.SchoolRepository
	locker     lock.Locker
	lockTTL    time.Duration
	events     *Events
}

func NewBudgetService(db *gorm.DB, budgetRepo repository.BudgetRepository, schoolRepo repository.SchoolRepository,
	locker lock.Locker, lockTTL time.Duration, events *Events) BudgetService {
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if lockTTL <= 0 {
		lockTTL = 30 * time.Second
	}
	return &budgetService{
		db:         db,
		budgetRepo: budgetRepo,
		schoolRepo: schoolRepo,
		locker:     locker,
		lockTTL:    lockTTL,
		events:     events,
	}
}

func (in *BudgetInput) normalize() error {
	in.FiscalYear = strings.TrimSpace(in.FiscalYear)
	if in.FiscalYear == "" {
		return validationErr("fiscal_year is required")
	}
	if !in.Budget.IsPositive() {
		return allocationErr("budget must be positive, got %s", in.Budget)
	}
	return nil
}

// withLock runs fn holding the allocation lock of every given fiscal year.
// Keys are taken in sorted order so two renames never wait on each other.
func (s *budgetService) withLock(ctx context.Context, fiscalYears []string, fn func() error) error {
	keys := append([]string(nil), fiscalYears...)
	sort.Strings(keys)
	for i, fy := range keys {
		if i > 0 && fy == keys[i-1] {
			continue
		}
		release, err := s.locker.Acquire(ctx, "budget:"+fy, s.lockTTL)
		if err != nil {
			return conflictErr("allocation for %s is in progress: %v", fy, err)
		}
		defer release()
	}
	return fn()
}

func (s *budgetService) Create(ctx context.Context, actor Actor, in BudgetInput) (*model.BudgetGov, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	gov := &model.BudgetGov{
		FiscalYear:  in.FiscalYear,
		Budget:      in.Budget,
		Description: in.Description,
		Status:      in.Status,
		Version:     1,
	}
	gov.CreatedBy = actor.UserID
	gov.UpdatedBy = actor.UserID

	err := s.withLock(ctx, []string{in.FiscalYear}, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			exists, err := s.budgetRepo.ExistsFiscalYear(tx, in.FiscalYear, nil)
			if err != nil {
				return err
			}
			if exists {
				return conflictErr("fiscal year %s already has a budget", in.FiscalYear)
			}
			if err := s.budgetRepo.CreateGov(tx, gov); err != nil {
				return err
			}
			return s.allocate(tx, actor, gov)
		})
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, actor, model.AuditCreate, "budget_allocated", gov)
	return gov, nil
}

// Update replaces the allocation: the version is bumped, the previous
// snapshot superseded and a fresh one written, atomically.
func (s *budgetService) Update(ctx context.Context, actor Actor, id uuid.UUID, in BudgetInput) (*model.BudgetGov, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}

	stored, err := s.budgetRepo.FindGov(ctx, id)
	if err != nil {
		return nil, notFound(err, "budget", id)
	}

	var gov *model.BudgetGov
	err = s.withLock(ctx, []string{stored.FiscalYear, in.FiscalYear}, func() error {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var err error
			gov, err = s.budgetRepo.LockGov(tx, id)
			if err != nil {
				return notFound(err, "budget", id)
			}
			if gov.FiscalYear != stored.FiscalYear {
				return conflictErr("budget %s was renamed to %s concurrently", id, gov.FiscalYear)
			}
			if gov.FiscalYear != in.FiscalYear {
				exists, err := s.budgetRepo.ExistsFiscalYear(tx, in.FiscalYear, &gov.ID)
				if err != nil {
					return err
				}
				if exists {
					return conflictErr("fiscal year %s already has a budget", in.FiscalYear)
				}
			}
			if err := s.budgetRepo.SupersedeDerived(tx, gov.ID); err != nil {
				return err
			}

			gov.FiscalYear = in.FiscalYear
			gov.Budget = in.Budget
			gov.Description = in.Description
			gov.Status = in.Status
			gov.Version++
			gov.UpdatedBy = actor.UserID
			if err := s.budgetRepo.SaveGov(tx, gov); err != nil {
				return err
			}
			return s.allocate(tx, actor, gov)
		})
	})
	if err != nil {
		return nil, err
	}

	s.announce(ctx, actor, model.AuditUpdate, "budget_reallocated", gov)
	return gov, nil
}

// allocate writes the district and school rows of gov's current version.
func (s *budgetService) allocate(tx *gorm.DB, actor Actor, gov *model.BudgetGov) error {
	districts, err := s.schoolRepo.FindAllocatable(tx)
	if err != nil {
		return err
	}

	units := make([]allocUnit, len(districts))
	for i, d := range districts {
		units[i] = allocUnit{Name: d.Name}
		for _, sc := range d.Schools {
			units[i].Students += sc.StudentCount
		}
	}
	districtShares, err := splitProportionally(gov.Budget, units)
	if err != nil {
		return err
	}

	status := gov.StatusForChildren()
	gov.Districts = make([]model.BudgetDistrict, 0, len(districts))
	for i, d := range districts {
		bd := model.BudgetDistrict{
			BudgetGovID:  gov.ID,
			DistrictID:   d.ID,
			Version:      gov.Version,
			StudentCount: units[i].Students,
			Budget:       districtShares[i],
			BudgetStatus: status,
		}
		bd.CreatedBy = actor.UserID
		bd.UpdatedBy = actor.UserID

		if units[i].Students > 0 {
			schoolUnits := make([]allocUnit, len(d.Schools))
			for j, sc := range d.Schools {
				schoolUnits[j] = allocUnit{Name: sc.Name, Students: sc.StudentCount}
			}
			schoolShares, err := splitProportionally(bd.Budget, schoolUnits)
			if err != nil {
				return err
			}
			for j, sc := range d.Schools {
				bs := model.BudgetSchool{
					SchoolID:     sc.ID,
					Version:      gov.Version,
					StudentCount: sc.StudentCount,
					Budget:       schoolShares[j],
					BudgetStatus: status,
				}
				bs.CreatedBy = actor.UserID
				bs.UpdatedBy = actor.UserID
				bd.Schools = append(bd.Schools, bs)
			}
		}

		if err := s.budgetRepo.CreateDistrictBudget(tx, &bd); err != nil {
			return err
		}
		gov.Districts = append(gov.Districts, bd)
	}
	return nil
}

func (s *budgetService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	var gov *model.BudgetGov
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		gov, err = s.budgetRepo.LockGov(tx, id)
		if err != nil {
			return notFound(err, "budget", id)
		}
		if err := s.budgetRepo.SupersedeDerived(tx, id); err != nil {
			return err
		}
		return s.budgetRepo.DeleteGov(tx, id, actor.UserID)
	})
	if err != nil {
		return err
	}

	s.announce(ctx, actor, model.AuditDelete, "budget_deleted", gov)
	return nil
}

func (s *budgetService) announce(ctx context.Context, actor Actor, action model.AuditAction, wsAction string, gov *model.BudgetGov) {
	s.events.record(ctx, actor, action, "budget", gov.ID, gov.FiscalYear+" v"+strconv.Itoa(gov.Version))
	s.events.broadcast("budget_update", wsAction, map[string]interface{}{
		"budget_id":   gov.ID,
		"fiscal_year": gov.FiscalYear,
		"budget":      gov.Budget,
		"version":     gov.Version,
		"districts":   len(gov.Districts),
	}, actor, actor.Name+" allocated the "+gov.FiscalYear+" budget")
}

func (s *budgetService) GetAllocation(ctx context.Context, id uuid.UUID) (*model.BudgetGov, error) {
	gov, err := s.budgetRepo.FindAllocation(ctx, id)
	if err != nil {
		return nil, notFound(err, "budget", id)
	}
	return gov, nil
}

func (s *budgetService) GetAllocationByFiscalYear(ctx context.Context, fiscalYear string) (*model.BudgetGov, error) {
	fiscalYear = strings.TrimSpace(fiscalYear)
	gov, err := s.budgetRepo.FindByFiscalYear(ctx, fiscalYear)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &NotFoundError{Resource: "budget", ID: fiscalYear}
	}
	if err != nil {
		return nil, err
	}
	return s.GetAllocation(ctx, gov.ID)
}

func (s *budgetService) List(ctx context.Context) ([]model.BudgetGov, error) {
	return s.budgetRepo.FindGovs(ctx)
}

func (s *budgetService) ListDistrictBudgets(ctx context.Context, districtID uuid.UUID) ([]model.BudgetDistrict, error) {
	return s.budgetRepo.FindDistrictBudgets(ctx, districtID)
}

func (s *budgetService) ListSchoolBudgets(ctx context.Context, schoolID uuid.UUID) ([]model.BudgetSchool, error) {
	return s.budgetRepo.FindSchoolBudgets(ctx, schoolID)
}
