package users

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"onda-backend/internal/domain"
	"onda-backend/internal/pkg/constants"
	"onda-backend/internal/pkg/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type Service struct {
	DB *gorm.DB
}

type RegisterInput struct {
	Fullname      string `json:"fullname"`
	Email         string `json:"email"`
	Password      string `json:"password"`
	WalletAddress string `json:"wallet_address"`
}

// Register creates a user bound to a wallet address. The caller sanitizes
// password_hash out of the response.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if in.Email == "" || !validation.IsValidEmail(in.Email) {
		return nil, errors.New("Invalid email format")
	}
	if in.Password == "" || !validation.IsValidPassword(in.Password) {
		return nil, errors.New("Invalid password format")
	}
	trimmed := strings.TrimSpace(in.Fullname)
	if trimmed == "" {
		return nil, errors.New("Full name is required and must be a non-empty string")
	}
	if !validation.IsValidFullname(trimmed) {
		return nil, errors.New("Full name contains invalid characters (only letters, spaces, hyphens, and apostrophes allowed)")
	}
	wallet := strings.TrimSpace(in.WalletAddress)
	if !validation.IsValidAddress(wallet) {
		return nil, errors.New("Invalid wallet address")
	}

	email := strings.TrimSpace(strings.ToLower(in.Email))

	var existing domain.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, errors.New("Email already registered")
	}
	if err := s.DB.WithContext(ctx).Where("wallet_address = ?", wallet).First(&existing).Error; err == nil {
		return nil, errors.New("Wallet already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 10)
	if err != nil {
		return nil, err
	}

	u := &domain.User{
		Fullname:      titleCaseAndNormalize(trimmed),
		Email:         email,
		PasswordHash:  string(hash),
		WalletAddress: wallet,
		Role:          constants.Trader,
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateRole assigns a new role. The role must be a known enum value.
func (s *Service) UpdateRole(ctx context.Context, userID, role string) (*domain.User, error) {
	if !constants.IsValidRole(role) {
		return nil, errors.New("Invalid role")
	}
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	u.Role = role
	if err := s.DB.WithContext(ctx).Save(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// ByWallet looks a user up by wallet address.
func (s *Service) ByWallet(ctx context.Context, wallet string) (*domain.User, error) {
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("wallet_address = ?", wallet).First(&u).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func titleCaseAndNormalize(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		runes := []rune(strings.ToLower(f))
		if len(runes) > 0 {
			runes[0] = unicode.ToUpper(runes[0])
		}
		fields[i] = string(runes)
	}
	return strings.Join(fields, " ")
}
