package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/demandcast/backend-go/internal/domain"
	"github.com/demandcast/backend-go/internal/repository/postgres"
	"github.com/jmoiron/sqlx"
)

// recorder captures the driver-level calls a bulk insert makes.
type recorder struct {
	mu        sync.Mutex
	begins    int
	commits   int
	rollbacks int
	prepared  []string
	execs     [][]driver.Value
}

type fakeConnector struct{ rec *recorder }

func (c *fakeConnector) Connect(context.Context) (driver.Conn, error) { return &fakeConn{c.rec}, nil }
func (c *fakeConnector) Driver() driver.Driver                        { return &fakeDriver{c.rec} }

type fakeDriver struct{ rec *recorder }

func (d *fakeDriver) Open(string) (driver.Conn, error) { return &fakeConn{d.rec}, nil }

type fakeConn struct{ rec *recorder }

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	c.rec.mu.Lock()
	c.rec.prepared = append(c.rec.prepared, query)
	c.rec.mu.Unlock()
	return &fakeStmt{rec: c.rec}, nil
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) {
	c.rec.mu.Lock()
	c.rec.begins++
	c.rec.mu.Unlock()
	return &fakeTx{rec: c.rec}, nil
}

type fakeTx struct{ rec *recorder }

func (t *fakeTx) Commit() error {
	t.rec.mu.Lock()
	t.rec.commits++
	t.rec.mu.Unlock()
	return nil
}

func (t *fakeTx) Rollback() error {
	t.rec.mu.Lock()
	t.rec.rollbacks++
	t.rec.mu.Unlock()
	return nil
}

type fakeStmt struct{ rec *recorder }

func (s *fakeStmt) Close() error  { return nil }
func (s *fakeStmt) NumInput() int { return -1 }

func (s *fakeStmt) Exec(args []driver.Value) (driver.Result, error) {
	s.rec.mu.Lock()
	s.rec.execs = append(s.rec.execs, append([]driver.Value(nil), args...))
	s.rec.mu.Unlock()
	return driver.RowsAffected(1), nil
}

func (s *fakeStmt) Query([]driver.Value) (driver.Rows, error) {
	return nil, errors.New("not implemented")
}

func newFakeStore(t *testing.T) (ForecastStore, *recorder) {
	t.Helper()
	rec := &recorder{}
	db := sqlx.NewDb(sql.OpenDB(&fakeConnector{rec: rec}), "postgres")
	return NewForecastRepository(postgres.NewWithDB(db), time.Minute), rec
}

func TestBulkInsertForecastsRunsInOneTransaction(t *testing.T) {
	store, rec := newFakeStore(t)

	rows := []domain.ForecastRow{
		{ProductID: "P1", Value: 120, Category: "Snacks", LastWeekSales: 100},
		{ProductID: "P1", Value: 121, Category: "Snacks", LastWeekSales: 100},
		{ProductID: "P2", Value: 5, Category: "Beverages", LastWeekSales: 5},
	}
	if err := store.BulkInsertForecasts(context.Background(), rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.begins != 1 || rec.commits != 1 || rec.rollbacks != 0 {
		t.Errorf("tx lifecycle = %d begins, %d commits, %d rollbacks; want 1, 1, 0",
			rec.begins, rec.commits, rec.rollbacks)
	}
	if len(rec.prepared) != 1 || !strings.Contains(rec.prepared[0], "INSERT INTO forecasts") {
		t.Errorf("prepared statements = %v, want one forecasts insert", rec.prepared)
	}
	if len(rec.execs) != len(rows) {
		t.Fatalf("got %d execs, want %d", len(rec.execs), len(rows))
	}
	if rec.execs[0][0] != "P1" || rec.execs[0][1] != 120.0 {
		t.Errorf("first exec args = %v", rec.execs[0])
	}
}

func TestBulkInsertAlertsRunsInOneTransaction(t *testing.T) {
	store, rec := newFakeStore(t)

	alerts := []domain.Alert{
		{ProductID: "P1", Forecast: 120, Message: "stable demand", Decision: domain.DecisionHold, Risk: domain.RiskLow, Category: "Snacks"},
	}
	if err := store.BulkInsertAlerts(context.Background(), alerts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.begins != 1 || rec.commits != 1 {
		t.Errorf("tx lifecycle = %d begins, %d commits; want 1, 1", rec.begins, rec.commits)
	}
	if len(rec.prepared) != 1 || !strings.Contains(rec.prepared[0], "INSERT INTO alerts") {
		t.Errorf("prepared statements = %v, want one alerts insert", rec.prepared)
	}
	if len(rec.execs) != 1 {
		t.Fatalf("got %d execs, want 1", len(rec.execs))
	}
}

func TestBulkInsertSkipsEmptyBatches(t *testing.T) {
	store, rec := newFakeStore(t)

	if err := store.BulkInsertForecasts(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.BulkInsertAlerts(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.begins != 0 {
		t.Errorf("empty batches should not open transactions, got %d begins", rec.begins)
	}
}
