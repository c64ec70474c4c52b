package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model
	FirstName        string    `json:"first_name" gorm:"default:''"`
	LastName         string    `json:"last_name" gorm:"default:''"`
	Email            string    `json:"email" gorm:"unique;not null"`
	Password         string    `json:"-" gorm:"not null"`
	Avatar           string    `json:"avatar" gorm:"default:''"`
	Bio              string    `json:"bio" gorm:"default:''"`
	Role             string    `json:"role" gorm:"default:'STUDENT'"` // STUDENT, INSTRUCTOR, ADMIN
	XP               int       `json:"xp" gorm:"default:0"`
	Level            int       `json:"level" gorm:"default:1"`
	CoursesCompleted int       `json:"courses_completed" gorm:"default:0"`
	IsVerified       bool      `json:"is_verified" gorm:"default:false"`
	IsActive         bool      `json:"is_active" gorm:"default:true"`
	LastLogin        time.Time `json:"last_login" gorm:"default:NULL"`
	IsDeleted        bool      `json:"-" gorm:"default:false"`
}

// FullName returns the user's display name
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// GrantXP adds points to the user's XP and raises the level when a 1000-XP
// boundary is crossed. Both writes are in-database increments so concurrent
// grants accumulate instead of overwriting each other. Levels never go down.
func GrantXP(tx *gorm.DB, userID uint, points int) error {
	if err := tx.Model(&User{}).Where("id = ?", userID).
		Update("xp", gorm.Expr("xp + ?", points)).Error; err != nil {
		return err
	}

	return tx.Model(&User{}).Where("id = ? AND xp / 1000 + 1 > level", userID).
		Update("level", gorm.Expr("xp / 1000 + 1")).Error
}

// RevokeXP subtracts points from the user's XP, flooring at zero. The level
// is left where it is.
func RevokeXP(tx *gorm.DB, userID uint, points int) error {
	return tx.Model(&User{}).Where("id = ?", userID).
		Update("xp", gorm.Expr("CASE WHEN xp > ? THEN xp - ? ELSE 0 END", points, points)).Error
}

// LevelProgress returns the percentage of the way to the next level (0-100)
func (u *User) LevelProgress() int {
	level := u.Level
	if level < 1 {
		level = 1
	}

	xpForCurrentLevel := (level - 1) * 1000
	currentLevelXP := u.XP - xpForCurrentLevel
	if currentLevelXP < 0 {
		currentLevelXP = 0
	}
	if currentLevelXP > 1000 {
		currentLevelXP = 1000
	}

	return currentLevelXP * 100 / 1000
}
