package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"regexp"

	"bandhan/config"
	"bandhan/internal/auth"
	"bandhan/internal/domain"
	"bandhan/internal/models"
	"bandhan/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists      = errors.New("email already registered")
	ErrPhoneExists      = errors.New("phone already registered")
	ErrInvalidPhone     = errors.New("invalid phone number")
	ErrInvalidCreds     = errors.New("invalid credentials")
	ErrAccountInactive  = errors.New("account is deactivated")
	ErrWrongOldPassword = errors.New("old password is incorrect")
)

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,15}$`)

type AuthService struct {
	cfg         *config.Config
	userRepo    *repository.UserRepository
	profileRepo *repository.ProfileRepository
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository, profileRepo *repository.ProfileRepository) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo, profileRepo: profileRepo}
}

// Register creates an account and returns the user together with a one-time
// recovery password the client shows once at signup.
func (s *AuthService) Register(name, email, phone, password string) (*models.User, string, error) {
	if !phonePattern.MatchString(phone) {
		return nil, "", ErrInvalidPhone
	}
	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return nil, "", ErrEmailExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}
	if _, err := s.userRepo.GetByPhone(phone); err == nil {
		return nil, "", ErrPhoneExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	recovery, err := generateRecoveryPassword()
	if err != nil {
		return nil, "", err
	}
	u := &models.User{
		Name:             name,
		Email:            email,
		Phone:            phone,
		PasswordHash:     string(hash),
		RecoveryPassword: recovery,
		Role:             domain.RoleUser,
		Status:           domain.UserStatusActive,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, "", err
	}
	return u, recovery, nil
}

// LoginResult carries the token plus the flags the app needs to route the
// user after login.
type LoginResult struct {
	User            *models.User
	Token           string
	ProfileComplete bool
}

// Login authenticates by email or phone. The stored recovery password is
// accepted as a fallback credential.
func (s *AuthService) Login(identifier, password string) (*LoginResult, error) {
	u, err := s.userRepo.GetByIdentifier(identifier)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCreds
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		if u.RecoveryPassword == "" || password != u.RecoveryPassword {
			return nil, ErrInvalidCreds
		}
	}
	token, err := auth.GenerateToken(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return nil, err
	}
	complete := false
	if p, err := s.profileRepo.GetByUserID(u.ID); err == nil {
		complete = p.Complete()
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return &LoginResult{User: u, Token: token, ProfileComplete: complete}, nil
}

// Verify resolves a bearer token back to its active user.
func (s *AuthService) Verify(token string) (*models.User, error) {
	claims, err := auth.ParseToken(&s.cfg.JWT, token)
	if err != nil {
		return nil, ErrInvalidCreds
	}
	u, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, ErrInvalidCreds
	}
	if !u.IsActive() {
		return nil, ErrAccountInactive
	}
	return u, nil
}

func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(oldPassword)) != nil {
		return ErrWrongOldPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(userID, string(hash))
}

// AdminResetPassword sets a user's password without the old one.
func (s *AuthService) AdminResetPassword(userID uint, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.userRepo.UpdatePassword(userID, string(hash))
}

func generateRecoveryPassword() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
