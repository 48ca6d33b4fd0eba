package application

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/uptrade-api/internal/domain/entity"
	"github.com/oksasatya/uptrade-api/internal/domain/policy"
	"github.com/oksasatya/uptrade-api/internal/domain/repository"
	"github.com/oksasatya/uptrade-api/pkg/helpers"
)

const minPasswordLength = 6

type AuthService struct {
	Store    repository.Store
	JWT      *helpers.JWTManager
	Notifier Notifier
	Logger   *logrus.Logger
	// PasswordCost is the bcrypt cost for new hashes; zero uses the default.
	PasswordCost int
}

func NewAuthService(store repository.Store, jwt *helpers.JWTManager, notifier Notifier, logger *logrus.Logger) *AuthService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &AuthService{Store: store, JWT: jwt, Notifier: notifier, Logger: logger}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     entity.Role
}

// PendingIdentity is the minimal identity returned with a pending-approval login.
type PendingIdentity struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Email  string            `json:"email"`
	Role   entity.Role       `json:"role"`
	Status entity.UserStatus `json:"status"`
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *entity.User `json:"user"`
}

// Register creates a pending account. It never logs the user in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	email := entity.NormalizeEmail(in.Email)
	details := map[string]string{}
	if _, err := mail.ParseAddress(email); err != nil || email == "" {
		details["email"] = "must be a valid email"
	}
	if len(in.Password) < minPasswordLength {
		details["password"] = "must be at least 6 characters long"
	}
	role := in.Role
	if role == "" {
		role = entity.RoleStudent
	}
	if role != entity.RoleStudent && role != entity.RoleCoach {
		details["role"] = "must be one of: student, coach"
	}
	if len(details) > 0 {
		return nil, validationError("invalid registration", details)
	}

	hash, err := helpers.HashPasswordCost(in.Password, s.PasswordCost)
	if err != nil {
		return nil, &AppError{Kind: KindInternal, Code: CodeInternal, Message: "hash password", Err: err}
	}
	u := &entity.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       entity.UserStatusPending,
	}
	if err := s.Store.CreateUser(ctx, u); err != nil {
		return nil, storeError(err, "user")
	}
	helpers.LogInfo(s.Logger, "user registered", logrus.Fields{"user_id": u.ID, "role": u.Role})
	if err := s.Notifier.AccountPending(ctx, u); err != nil {
		helpers.LogError(s.Logger, "account pending notification failed", err, logrus.Fields{"user_id": u.ID})
	}
	return u, nil
}

// Login verifies credentials and issues a bearer token. Pending accounts get a
// pending-approval error carrying their identity.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	u, err := s.Store.FindUserByEmail(ctx, entity.NormalizeEmail(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindAuth, CodeUserNotFound, "user not found")
	}
	if err != nil {
		return nil, storeError(err, "user")
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return nil, newError(KindAuth, CodeWrongPassword, "wrong password")
	}
	if u.Status == entity.UserStatusPending {
		return nil, &AppError{
			Kind:    KindForbidden,
			Code:    CodePendingApproval,
			Message: "account pending approval",
			Details: PendingIdentity{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role, Status: u.Status},
		}
	}
	token, exp, err := s.JWT.Issue(u.ID, u.Email, string(u.Role))
	if err != nil {
		return nil, &AppError{Kind: KindInternal, Code: CodeInternal, Message: "issue token", Err: err}
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: u}, nil
}

// Me returns the caller's current account.
func (s *AuthService) Me(ctx context.Context, actor policy.Actor) (*entity.User, error) {
	u, err := s.Store.GetUser(ctx, actor.ID)
	if err != nil {
		return nil, storeError(err, "user")
	}
	return u, nil
}
