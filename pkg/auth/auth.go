package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/arnavshah/kitchen-planner-go/pkg/database"
	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var jwtAlgorithm = jwt.SigningMethodHS256

// BcryptCost is the work factor used for organizer passwords
var BcryptCost = 14

// ErrInvalidCredentials is returned when a login does not match any organizer
var ErrInvalidCredentials = errors.New("invalid credentials")

// Claims represents the JWT claims of an organizer session
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Service signs and verifies organizer tokens and cook API keys
type Service struct {
	jwtSecret    []byte
	masterSecret []byte
	TokenTTL     time.Duration
	Now          func() time.Time
}

// NewService creates a Service from the JWT and API master secrets
func NewService(jwtSecret, masterSecret string) *Service {
	return &Service{
		jwtSecret:    []byte(jwtSecret),
		masterSecret: []byte(masterSecret),
		TokenTTL:     24 * time.Hour,
		Now:          time.Now,
	}
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new JWT token for an organizer
func (s *Service) CreateToken(username string) (string, error) {
	now := s.Now()
	claims := &Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(s.jwtSecret)
}

// VerifyToken verifies a JWT token
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}

// GenerateHMACKey creates a signed API key for a cook using HMAC-SHA256
func (s *Service) GenerateHMACKey(cookID string) string {
	return cookID + "." + s.sign(cookID)
}

// VerifyHMACKey validates an HMAC-signed API key and returns the cook it belongs to
func (s *Service) VerifyHMACKey(key string) (string, error) {
	idx := strings.LastIndex(key, ".")
	if idx <= 0 || idx == len(key)-1 {
		return "", errors.New("invalid key format")
	}

	cookID := key[:idx]
	providedSignature := key[idx+1:]

	// Use constant-time comparison to prevent timing attacks
	if !hmac.Equal([]byte(providedSignature), []byte(s.sign(cookID))) {
		return "", errors.New("invalid signature")
	}

	return cookID, nil
}

func (s *Service) sign(cookID string) string {
	h := hmac.New(sha256.New, s.masterSecret)
	h.Write([]byte(cookID))
	return hex.EncodeToString(h.Sum(nil))
}

// KeyPreview masks all but the edges of a key
func KeyPreview(key string) string {
	if len(key) > 8 {
		return key[:3] + "..." + key[len(key)-4:]
	}
	return "****"
}

// Authenticate checks an organizer's credentials
func Authenticate(db *gorm.DB, username, password string) (*database.Organizer, error) {
	var user database.Organizer
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}

// EnsureOrganizerExists creates the bootstrap organizer when the table is empty
func EnsureOrganizerExists(db *gorm.DB, username, password string) error {
	var count int64
	if err := db.Model(&database.Organizer{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	user := database.Organizer{
		Username:     username,
		PasswordHash: hash,
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}
	log.Printf("Default organizer created: %s", username)
	return nil
}
