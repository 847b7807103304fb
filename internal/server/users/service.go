// Package users is the credential store and session issuer: it registers
// accounts with salted password hashes and exchanges valid credentials for
// signed, self-contained tokens.
package users

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/go-playground/validator/v10"
)

// TokenIssuer signs tokens for authenticated accounts.
type TokenIssuer interface {
	Issue(email, name string) (*auth.IssuedToken, error)
}

// Service provides the two account operations:
// - Register: create an account
// - Authenticate: verify credentials and mint a token
type Service struct {
	repo     Repository
	hasher   auth.PasswordHasher
	issuer   TokenIssuer
	validate *validator.Validate
	now      func() time.Time

	// dummyHash is verified against when the email is unknown so that both
	// failure paths cost one hash comparison.
	dummyHash string
}

// NewService wires the store to its collaborators. It hashes a random value
// once, so a broken hasher fails here rather than on the first request.
func NewService(repo Repository, hasher auth.PasswordHasher, issuer TokenIssuer) (*Service, error) {
	dummy, err := hasher.Hash(hex.EncodeToString(common.GenerateRandByteArray(16)))
	if err != nil {
		return nil, fmt.Errorf("hasher self-check: %w", err)
	}

	return &Service{
		repo:      repo,
		hasher:    hasher,
		issuer:    issuer,
		validate:  validator.New(),
		now:       time.Now,
		dummyHash: dummy,
	}, nil
}

// Register creates an account for email. It returns common.ErrorAlreadyExists
// when the email is taken and common.ErrorValidation for malformed input.
// Hashing runs before the store is locked; a ctx cancelled while hashing
// aborts without touching the store.
func (s *Service) Register(ctx context.Context, name, email, password string) error {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	if err := s.validateRegistration(name, email, password); err != nil {
		return err
	}

	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return common.ErrorAlreadyExists
	} else if !errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("error looking up account: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, common.ErrorValidation) {
			return err
		}
		return fmt.Errorf("%w: hashing password: %v", common.ErrorInternal, err)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	account := &Account{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	if err := s.repo.InsertIfAbsent(ctx, account); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("error creating account: %w", err)
	}

	return nil
}

// Authenticate verifies email/password and returns a freshly signed token.
// An unknown email and a wrong password both yield
// common.ErrorInvalidCredentials. Nothing is written.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*auth.IssuedToken, error) {
	email = strings.TrimSpace(email)

	account, err := s.repo.GetByEmail(ctx, email)
	exists := err == nil
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("%w: looking up account: %v", common.ErrorInternal, err)
	}

	target := s.dummyHash
	if exists {
		target = account.PasswordHash
	}
	if len(password) > auth.MaxPasswordBytes {
		// cannot match anything Register accepted
		password, target, exists = password[:auth.MaxPasswordBytes], s.dummyHash, false
	}

	valid, err := s.hasher.Verify(password, target)
	if err != nil && exists {
		return nil, fmt.Errorf("%w: verifying password: %v", common.ErrorInternal, err)
	}
	if !exists || !valid {
		return nil, common.ErrorInvalidCredentials
	}

	token, err := s.issuer.Issue(account.Email, account.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: signing token: %v", common.ErrorInternal, err)
	}

	return token, nil
}

func (s *Service) validateRegistration(name, email, password string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is required", common.ErrorValidation)
	case email == "":
		return fmt.Errorf("%w: email is required", common.ErrorValidation)
	case password == "":
		return fmt.Errorf("%w: password is required", common.ErrorValidation)
	}

	if err := s.validate.Var(email, "email"); err != nil {
		return fmt.Errorf("%w: email is malformed", common.ErrorValidation)
	}
	if len(password) > auth.MaxPasswordBytes {
		return auth.ErrPasswordTooLong
	}

	return nil
}
