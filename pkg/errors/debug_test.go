package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpTypedChain(t *testing.T) {
	cause := fmt.Errorf("get catalog: %w", fmt.Errorf("status 502"))
	err := fmt.Errorf("load products: %w", Wrap(CodeDependency, cause, "catalog request failed"))

	d := Dump(err)
	if d.Code != CodeDependency || d.Status != http.StatusServiceUnavailable || !d.Retryable {
		t.Fatalf("unexpected dump metadata %+v", d)
	}
	if len(d.Chain) != 4 {
		t.Fatalf("expected 4 links in chain, got %v", d.Chain)
	}
	if d.PG != nil {
		t.Fatalf("expected no pg details, got %+v", d.PG)
	}
	fields := d.Fields()
	if fields["error_status"] != http.StatusServiceUnavailable || fields["error_retryable"] != true {
		t.Fatalf("unexpected fields %v", fields)
	}
	if _, ok := fields["pg_code"]; ok {
		t.Fatalf("pg fields must be omitted without a pg error")
	}
}

func TestDumpPostgresDrivers(t *testing.T) {
	pgxErr := &pgconn.PgError{Code: "23505", ConstraintName: "session_entries_pkey", TableName: "session_entries"}
	d := Dump(Wrap(CodeInternal, pgxErr, "save session entry"))
	if d.PG == nil || d.PG.Code != "23505" || d.PG.Constraint != "session_entries_pkey" {
		t.Fatalf("unexpected pgx details %+v", d.PG)
	}

	pqErr := &pq.Error{Code: "42P01", Table: "session_entries", Message: "relation does not exist"}
	d = Dump(fmt.Errorf("sweep: %w", pqErr))
	if d.PG == nil || d.PG.Code != "42P01" || d.PG.Table != "session_entries" {
		t.Fatalf("unexpected pq details %+v", d.PG)
	}
	if d.Code != "" || d.Status != 0 {
		t.Fatalf("untyped errors carry no code, got %+v", d)
	}
	if d.Fields()["pg_message"] != "relation does not exist" {
		t.Fatalf("expected pg_message field, got %v", d.Fields())
	}
}

func TestDumpNil(t *testing.T) {
	if d := Dump(nil); d.TopMessage != "" || d.Chain != nil {
		t.Fatalf("expected empty dump, got %+v", d)
	}
}
