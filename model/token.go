package model

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PersonalAccessToken is the server-side record of an issued bearer token.
// A token is only honoured while its row exists.
type PersonalAccessToken struct {
	ID         string     `gorm:"column:id;type:varchar(36);primaryKey"`
	UserID     uint       `gorm:"column:user_id;not null;index"`
	Name       string     `gorm:"column:name;type:varchar(255);not null"`
	ExpiresAt  time.Time  `gorm:"column:expires_at;not null"`
	LastUsedAt *time.Time `gorm:"column:last_used_at"`
	CreatedAt  time.Time  `gorm:"column:created_at"`

	// Relations
	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE"`
}

func (PersonalAccessToken) TableName() string {
	return "personal_access_tokens"
}

type AccessClaims struct {
	UserID  uint   `json:"userId"`
	TokenID string `json:"tokenId"`
	jwt.RegisteredClaims
}
