package testhelpers

import "testing"

func TestNewSQLiteDB_Seeded(t *testing.T) {
	db := NewSQLiteDB(t)

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM employees WHERE hire_date > '2020-01-01'").Scan(&n); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if n != len(EmployeesHiredAfter2020) {
		t.Errorf("expected %d employees hired after 2020, got %d", len(EmployeesHiredAfter2020), n)
	}
}

func TestNewSQLiteDB_Isolated(t *testing.T) {
	a := NewSQLiteDB(t)
	b := NewEmptySQLiteDB(t)

	if _, err := a.Exec("DELETE FROM employees"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	var n int
	if err := b.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type = 'table'").Scan(&n); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if n != 0 {
		t.Errorf("expected empty database, found %d tables", n)
	}
}
