package database

import (
	"path/filepath"
	"testing"
)

type probe struct {
	ID   uint `gorm:"primaryKey"`
	Name string
}

func TestOpenSQLiteCreatesDirectoryAndMigrates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	db, err := OpenSQLite(path, &probe{})
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer CloseSQLite(db)

	if err := db.Create(&probe{Name: "x"}).Error; err != nil {
		t.Fatalf("Create: %v", err)
	}
	var count int64
	if err := db.Model(&probe{}).Count(&count).Error; err != nil || count != 1 {
		t.Fatalf("expected one row, got %d %v", count, err)
	}
}
