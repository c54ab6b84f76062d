package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"tillcore/pkg/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestExporterGenerateScenario(t *testing.T) {
	// One shift with two payout children, one receipt, empty tables.
	opened := time.Date(2024, 5, 1, 7, 0, 0, 0, time.UTC)
	store := newStubStore()
	store.collections["shifts"] = []domain.Document{
		{ID: "shift_1", Fields: domain.Record{"openedAt": opened, "register": "front"}},
	}
	store.collections["receipts"] = []domain.Document{
		{ID: "r1", Fields: domain.Record{"total": 9.5}},
	}
	store.children[childKey("shifts", "shift_1", "payouts")] = []domain.Document{
		{ID: "p1", Fields: domain.Record{"amount": 20.0, "at": opened}},
		{ID: "p2", Fields: domain.Record{"amount": 35.0}},
	}

	exp := NewExporter(store, testSchema())
	exp.nowFn = fixedClock(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))
	env, err := exp.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if env.Version != FormatVersion {
		t.Fatalf("version %q", env.Version)
	}
	if env.ExportDate != "2024-05-02T00:00:00.000Z" {
		t.Fatalf("exportDate %q", env.ExportDate)
	}
	if len(env.Data) != 3 {
		t.Fatalf("expected all configured collections, got %d", len(env.Data))
	}

	shifts := env.Collection("shifts")
	if len(shifts) != 1 || shifts[0]["id"] != "shift_1" {
		t.Fatalf("unexpected shifts %v", shifts)
	}
	if shifts[0]["openedAt"] != "2024-05-01T07:00:00.000Z" {
		t.Fatalf("timestamp not normalized: %v", shifts[0]["openedAt"])
	}
	payouts, ok := shifts[0][PayoutsReservedKey].([]domain.Record)
	if !ok || len(payouts) != 2 {
		t.Fatalf("expected 2 payouts under reserved key, got %v", shifts[0][PayoutsReservedKey])
	}
	if payouts[0]["id"] != "p1" || payouts[0]["at"] != "2024-05-01T07:00:00.000Z" {
		t.Fatalf("child record mishandled: %v", payouts[0])
	}
	// Collections without children never get the reserved key.
	receipts := env.Collection("receipts")
	if _, ok := receipts[0][PayoutsReservedKey]; ok {
		t.Fatalf("reserved key leaked onto receipts")
	}
	if got := env.Collection("tables"); len(got) != 0 {
		t.Fatalf("tables should be empty, got %v", got)
	}
}

func TestExporterOmitsReservedKeyWhenNoChildren(t *testing.T) {
	store := newStubStore()
	store.collections["shifts"] = []domain.Document{
		{ID: "shift_1", Fields: domain.Record{"register": "front"}},
	}
	exp := NewExporter(store, testSchema())
	env, err := exp.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	rec := env.Collection("shifts")[0]
	if _, ok := rec[PayoutsReservedKey]; ok {
		t.Fatalf("reserved key attached despite zero children")
	}
}

func TestExporterDropsStrayReservedField(t *testing.T) {
	store := newStubStore()
	store.collections["shifts"] = []domain.Document{
		{ID: "shift_1", Fields: domain.Record{PayoutsReservedKey: "bogus"}},
	}
	exp := NewExporter(store, testSchema())
	env, err := exp.Generate(context.Background())
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	rec := env.Collection("shifts")[0]
	if _, ok := rec[PayoutsReservedKey]; ok {
		t.Fatalf("stray reserved field survived export")
	}
}

func TestExporterReadFailureAbortsWhole(t *testing.T) {
	store := newStubStore()
	store.collections["receipts"] = []domain.Document{{ID: "r1", Fields: domain.Record{}}}
	store.readErr["shifts"] = fmt.Errorf("backend down")

	exp := NewExporter(store, testSchema())
	env, err := exp.Generate(context.Background())
	if env != nil {
		t.Fatalf("no partial envelope on failure")
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Collection != "shifts" {
		t.Fatalf("expected FetchError for shifts, got %v", err)
	}
}

func TestExporterChildReadFailureAbortsWhole(t *testing.T) {
	store := newStubStore()
	store.collections["shifts"] = []domain.Document{{ID: "shift_1", Fields: domain.Record{}}}
	store.readErr[childKey("shifts", "shift_1", "payouts")] = fmt.Errorf("backend down")

	exp := NewExporter(store, testSchema())
	if _, err := exp.Generate(context.Background()); err == nil {
		t.Fatalf("expected child read failure to abort")
	} else {
		var fe *FetchError
		if !errors.As(err, &fe) {
			t.Fatalf("expected FetchError, got %v", err)
		}
	}
}
