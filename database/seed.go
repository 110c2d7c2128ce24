package database

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"taskmanager/model"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seedWords = []string{
	"review", "draft", "deploy", "invoice", "report", "meeting", "backlog", "design",
	"refactor", "release", "budget", "onboarding", "survey", "migration", "audit", "roadmap",
}

func sentence(r *rand.Rand, words int) string {
	parts := make([]string, words)
	for i := range parts {
		parts[i] = seedWords[r.Intn(len(seedWords))]
	}
	s := strings.Join(parts, " ")
	return strings.ToUpper(s[:1]) + s[1:]
}

// Seed creates two known users, ten generated ones, and for each user five
// top-level tasks with two subtasks apiece. Users that already exist are left alone.
func Seed(db *gorm.DB, passwordCost int) error {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), passwordCost)
	if err != nil {
		return fmt.Errorf("hash seed password: %w", err)
	}

	users := []model.User{
		{Name: "User One", Email: "user1@example.com"},
		{Name: "User Two", Email: "user2@example.com"},
	}
	for i := 1; i <= 10; i++ {
		users = append(users, model.User{Name: fmt.Sprintf("Demo User %d", i), Email: fmt.Sprintf("demo%d@example.com", i)})
	}

	r := rand.New(rand.NewSource(time.Now().UnixNano()))
	return db.Transaction(func(tx *gorm.DB) error {
		for _, u := range users {
			var existing int64
			if err := tx.Model(&model.User{}).Where("email = ?", u.Email).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				continue
			}
			u.HashedPassword = string(hash)
			if err := tx.Create(&u).Error; err != nil {
				return fmt.Errorf("seed user %s: %w", u.Email, err)
			}
			for i := 0; i < 5; i++ {
				parent := seedTask(r, u.ID, nil)
				if err := tx.Create(&parent).Error; err != nil {
					return err
				}
				for j := 0; j < 2; j++ {
					child := seedTask(r, u.ID, &parent.ID)
					if err := tx.Create(&child).Error; err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

func seedTask(r *rand.Rand, userID uint, parentID *uint) model.Task {
	description := sentence(r, 12) + "."
	return model.Task{
		UserID:      userID,
		Title:       sentence(r, 4),
		Description: &description,
		Status:      model.StatusTodo,
		Priority:    model.TaskPriorities[r.Intn(len(model.TaskPriorities))],
		ParentID:    parentID,
	}
}
