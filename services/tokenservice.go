package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskmanager/apperror"
	"taskmanager/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	tokenIssuer            = "taskmanager"
	MessageUnauthenticated = "Unauthenticated."
	DefaultTokenName       = "api"
	DefaultTokenTTL        = 24 * time.Hour
)

// TokenService issues HS256 bearer tokens backed by a personal_access_tokens
// row. Deleting the row revokes the token even before it expires.
type TokenService struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenService(db *gorm.DB, secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{db: db, secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue records a new token for user and returns its signed form.
func (s *TokenService) Issue(ctx context.Context, user *model.User, name string) (string, error) {
	now := s.now()
	row := model.PersonalAccessToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Name:      name,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}

	claims := &model.AccessClaims{
		UserID:  user.ID,
		TokenID: row.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        row.ID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(row.ExpiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Authenticate verifies the signature and expiry, then checks the token row
// still exists. It returns the owning user and the token record.
func (s *TokenService) Authenticate(ctx context.Context, raw string) (*model.User, *model.PersonalAccessToken, error) {
	unauthenticated := apperror.Unauthenticated(MessageUnauthenticated)

	claims := &model.AccessClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || claims.TokenID == "" {
		return nil, nil, unauthenticated
	}

	var row model.PersonalAccessToken
	err = s.db.WithContext(ctx).Preload("User").
		Where("id = ? AND user_id = ?", claims.TokenID, claims.UserID).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, unauthenticated
	}
	if err != nil {
		return nil, nil, err
	}
	if row.User == nil || !row.ExpiresAt.After(s.now()) {
		return nil, nil, unauthenticated
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&model.PersonalAccessToken{}).
		Where("id = ?", row.ID).
		Update("last_used_at", now).Error; err != nil {
		return nil, nil, err
	}
	row.LastUsedAt = &now
	return row.User, &row, nil
}

// RevokeAll deletes every token belonging to userID.
func (s *TokenService) RevokeAll(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.PersonalAccessToken{}).Error
}

// PruneExpired removes token rows that can no longer authenticate.
func (s *TokenService) PruneExpired(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).Where("expires_at <= ?", s.now()).Delete(&model.PersonalAccessToken{})
	return result.RowsAffected, result.Error
}
