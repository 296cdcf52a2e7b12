package service

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const DefaultBcryptCost = 10

// CredentialService hashes and compares passwords.
type CredentialService struct {
	cost int
	// dummy is compared against when no user matched, so unknown emails
	// cost as much time as wrong passwords.
	dummy []byte
}

func NewCredentialService(cost int) *CredentialService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	dummy, _ := bcrypt.GenerateFromPassword([]byte("not-a-real-password"), cost)
	return &CredentialService{cost: cost, dummy: dummy}
}

func (s *CredentialService) Hash(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

func (s *CredentialService) Verify(password string, digest string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	return err == nil
}

// burn spends one comparison's worth of time without a real digest.
func (s *CredentialService) burn(password string) {
	_ = bcrypt.CompareHashAndPassword(s.dummy, []byte(password))
}
