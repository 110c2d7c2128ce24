package model

import "time"

type User struct {
	ID             uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name           string    `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Email          string    `gorm:"column:email;type:varchar(255);not null;uniqueIndex" json:"email"`
	HashedPassword string    `gorm:"column:password;type:varchar(255);not null" json:"-"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
