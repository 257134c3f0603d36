package server

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/moviements/auth-server/internal/config"
	"github.com/moviements/auth-server/users"
)

// InitialiseSystem creates the superuser account on first start.
// Returns silently when the account already exists.
func (s *Server) InitialiseSystem(config config.Config) error {
	username := config.GetAdminUsername()

	existing, err := s.repos.Users.GetByLogin(username)
	if err == nil && existing != nil {
		return nil
	}

	generatedPassword := config.GetAdminPassword()
	if generatedPassword == "" {
		// Generate a secure random password
		passwordBytes := make([]byte, 16)
		if _, err := rand.Read(passwordBytes); err != nil {
			return fmt.Errorf("[Server InitialiseSystem] failed to generate password: %w", err)
		}
		generatedPassword = base64.URLEncoding.EncodeToString(passwordBytes)
	}

	passwordHash, err := users.HashPassword(generatedPassword)
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to hash password: %w", err)
	}

	superuser := &users.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        config.GetAdminEmail(),
		PasswordHash: passwordHash,
		Active:       true,
		Superuser:    true,
		DateJoined:   time.Now(),
	}
	if err := s.repos.Users.Upsert(superuser); err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to create superuser: %w", err)
	}

	if config.GetAdminPassword() == "" {
		log.Printf("👤 Superuser Credentials:")
		log.Printf("   Username:    %s", username)
		log.Printf("   Password:    %s     (⚠️ change after first login)", generatedPassword)
	}
	return nil
}
