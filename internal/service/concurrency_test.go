package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func TestConcurrentWithdrawalsNeverOverdraw(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seedStock(t, f.school.ID, f.maize.ID, 50)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.stockOut.Withdraw(ctx, testActor, StockOutInput{
				SchoolID: f.school.ID,
				Lines:    []LineInput{line(f.maize.ID, 10)},
			})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case !errors.Is(err, ErrInsufficientStock):
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 5 {
		t.Fatalf("expected exactly 5 withdrawals of 10 from 50, got %d", succeeded)
	}
	f.assertBalance(t, f.school.ID, f.maize.ID, 0)

	outs, err := f.stockOut.ListBySchool(ctx, f.school.ID)
	if err != nil || len(outs) != 5 {
		t.Fatalf("expected 5 stored withdrawals, got %d (%v)", len(outs), err)
	}
}

func TestConcurrentCreditsAndDebitsBalance(t *testing.T) {
	f := newFixture(t)
	f.seedStock(t, f.school.ID, f.maize.ID, 50)

	const rounds = 10
	var wg sync.WaitGroup
	errs := make(chan error, 2*rounds)
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			errs <- f.db.Transaction(func(tx *gorm.DB) error {
				_, err := f.ledger.Credit(tx, testActor, f.school.ID, f.maize.ID, decimal.NewFromInt(5))
				return err
			})
		}()
		go func() {
			defer wg.Done()
			errs <- f.db.Transaction(func(tx *gorm.DB) error {
				_, err := f.ledger.Debit(tx, testActor, f.school.ID, f.maize.ID, decimal.NewFromInt(5))
				return err
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	f.assertBalance(t, f.school.ID, f.maize.ID, 50)
}

func TestConcurrentConfirmationsCreditOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := f.approvedRequest(t, line(f.maize.ID, 50), line(f.beans.ID, 20))
	order := f.assign(t, req.ID, nil)
	f.deliver(t, order.ID)

	const workers = 4
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.orders.ConfirmReceipt(ctx, testActor, order.ID, ConfirmReceiptInput{Rating: 5})
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case !errors.Is(err, ErrInvalidStateTransition):
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one confirmation, got %d", succeeded)
	}

	ins, err := f.stockIn.ListByOrder(ctx, order.ID)
	if err != nil || len(ins) != 2 {
		t.Fatalf("expected one stock-in per request line, got %d (%v)", len(ins), err)
	}
	f.assertBalance(t, f.school.ID, f.maize.ID, 50)
	f.assertBalance(t, f.school.ID, f.beans.ID, 20)
}
