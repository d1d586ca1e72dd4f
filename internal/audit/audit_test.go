package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"go-schoolfeeding/internal/model"

	"github.com/glebarez/sqlite"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	if err := db.AutoMigrate(&model.AuditLog{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestDBSinkRecordAndList(t *testing.T) {
	sink := NewDBSink(openTestDB(t))
	ctx := context.Background()

	events := []Event{
		{ActorID: "u1", Action: model.AuditCreate, Resource: "stock_out", ResourceID: "so-1"},
		{ActorID: "u2", Action: model.AuditApprove, Resource: "request", ResourceID: "rq-1"},
		{ActorID: "u2", Action: model.AuditDelete, Resource: "stock_out", ResourceID: "so-1"},
	}
	for _, e := range events {
		if err := sink.Record(ctx, e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	logs, err := sink.List(ctx, "stock_out", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("expected 2 stock_out entries, got %d", len(logs))
	}
	if logs[0].Action != model.AuditDelete {
		t.Fatalf("expected newest first, got %s", logs[0].Action)
	}
	if logs[0].Status != model.AuditSuccess || logs[0].Timestamp.IsZero() {
		t.Fatalf("expected defaults to be filled, got %+v", logs[0])
	}
}

type failingSink struct{ calls int }

func (f *failingSink) Record(context.Context, Event) error {
	f.calls++
	return errors.New("unavailable")
}

type captureSink struct{ events []Event }

func (c *captureSink) Record(_ context.Context, e Event) error {
	c.events = append(c.events, e)
	return nil
}

func TestMultiSinkSwallowsFailures(t *testing.T) {
	bad := &failingSink{}
	good := &captureSink{}
	m := NewMultiSink(nil, bad, good)

	if err := m.Record(context.Background(), Event{Action: model.AuditPay, Resource: "order"}); err != nil {
		t.Fatalf("multi sink must not return errors, got %v", err)
	}
	if bad.calls != 1 || len(good.events) != 1 {
		t.Fatalf("expected both sinks called, got bad=%d good=%d", bad.calls, len(good.events))
	}
}

type fakeWriter struct {
	msgs []kafka.Message
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

func TestKafkaSinkMessageShape(t *testing.T) {
	w := &fakeWriter{}
	sink := &KafkaSink{writer: w, topic: "audit"}

	err := sink.Record(context.Background(), Event{
		ActorName: "Head Teacher", Action: model.AuditReceive, Resource: "order", ResourceID: "ord-9",
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}
	msg := w.msgs[0]
	if msg.Topic != "audit" || string(msg.Key) != "ord-9" {
		t.Fatalf("unexpected topic/key %s/%s", msg.Topic, msg.Key)
	}
	var got Event
	if err := json.Unmarshal(msg.Value, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got.Action != model.AuditReceive || got.Status != model.AuditSuccess {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestNewKafkaSinkRequiresBrokers(t *testing.T) {
	if _, err := NewKafkaSink(nil, "audit"); err == nil {
		t.Fatal("expected error without brokers")
	}
}
