package models

import (
	"fmt"
	"sync/atomic"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDbSeq int64

// openTestDb opens a fresh in-memory database; shared cache keeps every
// pooled connection on the same DB.
func openTestDb(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:user_test_%d?mode=memory&cache=shared", atomic.AddInt64(&testDbSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, xp, level int) *User {
	t.Helper()

	u := &User{Email: "student@test.local", Password: "x", XP: xp, Level: level}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func reload(t *testing.T, db *gorm.DB, id uint) *User {
	t.Helper()

	var u User
	if err := db.First(&u, id).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	return &u
}

func TestGrantXP_LevelsUp(t *testing.T) {
	db := openTestDb(t)
	u := seedUser(t, db, 900, 1)

	if err := GrantXP(db, u.ID, 200); err != nil {
		t.Fatalf("GrantXP: %v", err)
	}

	got := reload(t, db, u.ID)
	if got.XP != 1100 {
		t.Errorf("XP = %d, want 1100", got.XP)
	}
	if got.Level != 2 {
		t.Errorf("Level = %d, want 2", got.Level)
	}
}

// Grants are in-database increments, so two grants issued against the same
// stale snapshot of the user must still both land.
func TestGrantXP_Accumulates(t *testing.T) {
	db := openTestDb(t)
	u := seedUser(t, db, 0, 1)

	if err := GrantXP(db, u.ID, 200); err != nil {
		t.Fatalf("GrantXP: %v", err)
	}
	if err := GrantXP(db, u.ID, 200); err != nil {
		t.Fatalf("GrantXP: %v", err)
	}

	got := reload(t, db, u.ID)
	if got.XP != 400 {
		t.Errorf("XP = %d, want 400 after two grants of 200", got.XP)
	}
	if got.Level != 1 {
		t.Errorf("Level = %d, want 1", got.Level)
	}
}

func TestRevokeXP_FloorsAtZero(t *testing.T) {
	db := openTestDb(t)
	u := seedUser(t, db, 100, 1)

	if err := RevokeXP(db, u.ID, 500); err != nil {
		t.Fatalf("RevokeXP: %v", err)
	}

	if got := reload(t, db, u.ID); got.XP != 0 {
		t.Errorf("XP = %d, want 0", got.XP)
	}
}

func TestRevokeXP_LevelNeverDrops(t *testing.T) {
	db := openTestDb(t)
	u := seedUser(t, db, 1100, 2)

	if err := RevokeXP(db, u.ID, 400); err != nil {
		t.Fatalf("RevokeXP: %v", err)
	}

	got := reload(t, db, u.ID)
	if got.XP != 700 {
		t.Errorf("XP = %d, want 700", got.XP)
	}
	if got.Level != 2 {
		t.Errorf("Level = %d, want 2 (levels are sticky)", got.Level)
	}
}

func TestLevelProgress(t *testing.T) {
	cases := []struct {
		xp, level, want int
	}{
		{0, 1, 0},
		{500, 1, 50},
		{1000, 2, 0},
		{1250, 2, 25},
		{700, 2, 0}, // XP below the level floor after a sticky level-up
	}

	for _, tc := range cases {
		u := &User{XP: tc.xp, Level: tc.level}
		if got := u.LevelProgress(); got != tc.want {
			t.Errorf("LevelProgress(xp=%d, level=%d) = %d, want %d", tc.xp, tc.level, got, tc.want)
		}
	}
}
