package tenant_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"flowmaster/internal/tenant"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTenantTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:tenant_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("init sqlite failed: %v", err)
	}

	stmts := []string{
		`CREATE TABLE sys_tenant (
			id INTEGER PRIMARY KEY,
			name TEXT,
			tenant_code TEXT,
			status INTEGER,
			is_deleted BOOLEAN
		)`,
		`INSERT INTO sys_tenant (id, name, tenant_code, status, is_deleted) VALUES
			(1, 'Acme', 'acme', 1, 0),
			(2, 'Closed', 'closed', 2, 0),
			(3, 'Gone', 'gone', 1, 1)`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("setup failed: %v", err)
		}
	}
	return db
}

func TestGetIDByCode(t *testing.T) {
	store := tenant.NewStore(setupTenantTestDB(t))

	id, err := store.GetIDByCode(context.Background(), "acme")
	if err != nil {
		t.Fatalf("expected tenant, got error: %v", err)
	}
	if id != 1 {
		t.Fatalf("expected id 1, got %d", id)
	}
}

func TestGetIDByCodeUnknown(t *testing.T) {
	store := tenant.NewStore(setupTenantTestDB(t))

	if _, err := store.GetIDByCode(context.Background(), "nope"); !errors.Is(err, tenant.ErrTenantNotFound) {
		t.Fatalf("expected ErrTenantNotFound, got %v", err)
	}
}

func TestGetIDByCodeSkipsDisabledAndDeleted(t *testing.T) {
	store := tenant.NewStore(setupTenantTestDB(t))

	if _, err := store.GetIDByCode(context.Background(), "closed"); !errors.Is(err, tenant.ErrTenantNotFound) {
		t.Fatalf("disabled tenant must not resolve, got %v", err)
	}
	if _, err := store.GetIDByCode(context.Background(), "gone"); !errors.Is(err, tenant.ErrTenantNotFound) {
		t.Fatalf("deleted tenant must not resolve, got %v", err)
	}
}
