package services

import (
	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/repositories"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"strings"
)

type IAccountService interface {
	Register(username, password string) (domain.UserID, error)
	Login(username, password string) (Token, error)
	Profile(id domain.UserID) (domain.User, error)
	ChangeUsername(ctx context.Context, id domain.UserID, newUsername string) error
	ChangePassword(id domain.UserID, oldPassword, newPassword string) error
}

type Token string

func (t Token) String() string {
	return string(t)
}

type AccountService struct {
	log            *slog.Logger
	userRepository repositories.IUserRepository
	issuer         auth.TokenIssuer
	relay          contract.IRelay
}

func NewAccountService(log *slog.Logger, repo repositories.IUserRepository, issuer auth.TokenIssuer, relay contract.IRelay) *AccountService {
	return &AccountService{log: log, userRepository: repo, issuer: issuer, relay: relay}
}

func (s *AccountService) Register(username, password string) (domain.UserID, error) {
	username = strings.TrimSpace(username)

	// Business rules first, before any expensive cryptographic operation
	if err := auth.ValidateCredentials(auth.Credentials{Username: username, Password: password}); err != nil {
		return 0, err
	}

	// Hashing stays in the service so the repository never sees plain passwords
	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return 0, fmt.Errorf("hashing failed: %w", err)
	}

	// Propagates ErrUserAlreadyExists if the name is taken
	return s.userRepository.CreateUser(username, hashedPassword)
}

func (s *AccountService) Login(username, password string) (Token, error) {
	user, err := s.userRepository.GetUserByName(strings.TrimSpace(username))
	if err != nil {
		// Generic error to prevent user enumeration
		return "", errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, user.PasswordHash)
	if err != nil || !match {
		return "", errors.ErrInvalidCredentials
	}

	token, err := s.issuer.GenerateToken(user.ID, user.Username)
	if err != nil {
		return "", errors.ErrTokenGeneration
	}
	return Token(token), nil
}

func (s *AccountService) Profile(id domain.UserID) (domain.User, error) {
	return s.userRepository.GetUserByID(id)
}

// ChangeUsername stores the new name, then tells the relay so live sessions get relabeled.
// The rename is durable even if the relay could not be reached.
func (s *AccountService) ChangeUsername(ctx context.Context, id domain.UserID, newUsername string) error {
	newUsername = strings.TrimSpace(newUsername)
	if err := auth.ValidateUsername(newUsername); err != nil {
		return err
	}

	user, err := s.userRepository.GetUserByID(id)
	if err != nil {
		return err
	}
	if user.Username == newUsername {
		return nil
	}

	if err := s.userRepository.UpdateUsername(id, newUsername); err != nil {
		return err
	}

	if err := s.relay.Rename(ctx, id, user.Username, newUsername); err != nil {
		s.log.Warn("Rename not propagated to the relay", "user_id", id, "error", err)
	}
	return nil
}

func (s *AccountService) ChangePassword(id domain.UserID, oldPassword, newPassword string) error {
	if err := auth.ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.userRepository.GetUserByID(id)
	if err != nil {
		return err
	}

	match, err := auth.ComparePassword(oldPassword, user.PasswordHash)
	if err != nil || !match {
		return errors.ErrInvalidCredentials
	}

	hashedPassword, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hashing failed: %w", err)
	}
	return s.userRepository.UpdatePasswordHash(id, hashedPassword)
}

// IsClientError tells whether err is the caller's fault rather than the server's.
func IsClientError(err error) bool {
	return stderrors.Is(err, errors.ErrInvalidUsername) ||
		stderrors.Is(err, errors.ErrInvalidPassword) ||
		stderrors.Is(err, errors.ErrUserAlreadyExists)
}
