package service

import (
	"context"
	"strings"
	"testing"

	"go-schoolfeeding/internal/audit"
	"go-schoolfeeding/internal/lock"
	"go-schoolfeeding/internal/model"
	"go-schoolfeeding/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testActor = Actor{UserID: "tester", Name: "Tester"}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// One connection: a transaction must never wait on the outer handle.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := db.AutoMigrate(model.AllModels()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	db       *gorm.DB
	sink     *audit.DBSink
	ledger   InventoryLedger
	stockIn  StockInService
	stockOut StockOutService
	requests RequestService
	orders   OrderService
	budgets  BudgetService

	district model.District
	school   model.School
	maize    model.Item
	beans    model.Item
	supplier model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := openTestDB(t)
	sink := audit.NewDBSink(db)
	events := NewEvents(sink, nil, nil)

	stockRepo := repository.NewStockRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	requestRepo := repository.NewRequestRepo(db)
	itemRepo := repository.NewItemRepo(db)

	f := &fixture{db: db, sink: sink}
	f.ledger = NewInventoryLedger(stockRepo, decimal.NewFromInt(10))
	f.stockIn = NewStockInService(stockRepo, f.ledger, events)
	f.stockOut = NewStockOutService(db, repository.NewStockOutRepo(db), itemRepo, f.ledger, events)
	f.requests = NewRequestService(db, requestRepo, itemRepo, events)
	f.orders = NewOrderService(db, orderRepo, requestRepo, repository.NewUserRepo(db), f.stockIn, events)
	f.budgets = NewBudgetService(db, repository.NewBudgetRepo(db), repository.NewSchoolRepo(db), lock.NewLocalLocker(), 0, events)

	f.district = f.addDistrict("Gasabo")
	f.school = f.addSchool("GS Kacyiru", f.district.ID, 50)
	f.maize = f.addItem("Maize")
	f.beans = f.addItem("Beans")
	f.supplier = f.addUser("supplier@example.com", model.RoleSupplier)
	return f
}

func (f *fixture) mustCreate(value interface{}) {
	if err := f.db.Create(value).Error; err != nil {
		panic(err)
	}
}

func (f *fixture) addDistrict(name string) model.District {
	d := model.District{Name: name, IsActive: true}
	f.mustCreate(&d)
	return d
}

func (f *fixture) addSchool(name string, districtID uuid.UUID, students int) model.School {
	s := model.School{Name: name, DistrictID: districtID, StudentCount: students, IsActive: true}
	f.mustCreate(&s)
	return s
}

func (f *fixture) addItem(name string) model.Item {
	it := model.Item{Name: name, GramsPerStudent: decimal.NewFromInt(150), Unit: "kg"}
	f.mustCreate(&it)
	return it
}

func (f *fixture) addUser(email, roleCode string) model.User {
	var role model.Role
	if err := f.db.Where(model.Role{Code: roleCode}).FirstOrCreate(&role, model.Role{Code: roleCode, Name: roleCode}).Error; err != nil {
		panic(err)
	}
	u := model.User{Email: email, FullName: email, RoleID: &role.ID, IsActive: true}
	f.mustCreate(&u)
	u.Role = &role
	return u
}

func (f *fixture) deactivate(value interface{}, id uuid.UUID) {
	if err := f.db.Model(value).Where("id = ?", id).Update("is_active", false).Error; err != nil {
		panic(err)
	}
}

// seedStock credits the ledger directly, outside any order.
func (f *fixture) seedStock(t *testing.T, schoolID, itemID uuid.UUID, qty int64) {
	t.Helper()
	err := f.db.Transaction(func(tx *gorm.DB) error {
		_, err := f.ledger.Credit(tx, testActor, schoolID, itemID, decimal.NewFromInt(qty))
		return err
	})
	if err != nil {
		t.Fatalf("seed stock: %v", err)
	}
}

func (f *fixture) balance(t *testing.T, schoolID, itemID uuid.UUID) decimal.Decimal {
	t.Helper()
	stock, err := f.ledger.FindBalance(context.Background(), schoolID, itemID)
	if err != nil {
		t.Fatalf("find balance: %v", err)
	}
	return stock.Quantity
}

func (f *fixture) assertBalance(t *testing.T, schoolID, itemID uuid.UUID, want int64) {
	t.Helper()
	if got := f.balance(t, schoolID, itemID); !got.Equal(decimal.NewFromInt(want)) {
		t.Fatalf("expected balance %d, got %s", want, got)
	}
}

// approvedRequest creates and approves a request for the given lines.
func (f *fixture) approvedRequest(t *testing.T, lines ...LineInput) *model.RequestItem {
	t.Helper()
	ctx := context.Background()
	req, err := f.requests.Create(ctx, testActor, CreateRequestInput{SchoolID: f.school.ID, Lines: lines})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	if _, err := f.requests.Approve(ctx, testActor, req.ID); err != nil {
		t.Fatalf("approve request: %v", err)
	}
	return req
}

func line(itemID uuid.UUID, qty int64) LineInput {
	return LineInput{ItemID: itemID, Quantity: decimal.NewFromInt(qty)}
}
