package httpapi

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"kasirpos/backend/internal/domain"
	"kasirpos/backend/internal/store"
	"kasirpos/backend/internal/validation"
	"kasirpos/backend/internal/xid"
)

const tokenIssuer = "kasirpos"

var (
	ErrInvalidCredentials = errors.New("Email/username atau password salah")
	ErrInactiveAccount    = errors.New("Akun Anda tidak aktif. Silakan hubungi admin.")
	ErrInvalidToken       = errors.New("Token tidak valid atau sudah kedaluwarsa")
)

// UserStore is the slice of the repository the auth endpoints need.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByLogin(ctx context.Context, login string) (*domain.User, error)
	UpdateUserProfile(ctx context.Context, user domain.User) (*domain.User, error)
	UpdateUserPassword(ctx context.Context, id int64, passwordHash string) error
}

type AuthManager struct {
	secret   []byte
	tokenTTL time.Duration
	users    UserStore
	now      func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

type posCustomClaims struct {
	jwtlib.RegisteredClaims
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Session is a verified bearer token.
type Session struct {
	Actor     domain.Actor
	TokenID   string
	ExpiresAt time.Time
}

func NewAuthManager(secret string, tokenTTL time.Duration, users UserStore) *AuthManager {
	if tokenTTL <= 0 {
		tokenTTL = 12 * time.Hour
	}
	return &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		users:    users,
		now:      time.Now,
		revoked:  make(map[string]time.Time),
	}
}

func (a *AuthManager) Login(ctx context.Context, req domain.LoginRequest) (domain.LoginResponse, error) {
	req.Login = strings.TrimSpace(req.Login)
	if err := validation.Struct(req); err != nil {
		return domain.LoginResponse{}, err
	}

	user, err := a.users.GetUserByLogin(ctx, req.Login)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.LoginResponse{}, ErrInvalidCredentials
		}
		return domain.LoginResponse{}, err
	}
	if !a.checkPassword(ctx, user, req.Password) {
		return domain.LoginResponse{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return domain.LoginResponse{}, ErrInactiveAccount
	}
	return a.issue(*user)
}

// checkPassword verifies input against the stored hash. Accounts imported
// with a plain-text password are upgraded to bcrypt on their first login.
func (a *AuthManager) checkPassword(ctx context.Context, user *domain.User, input string) bool {
	if isPasswordHash(user.PasswordHash) {
		return verifyPassword(user.PasswordHash, input)
	}
	if user.PasswordHash == "" || subtle.ConstantTimeCompare([]byte(user.PasswordHash), []byte(input)) != 1 {
		return false
	}
	hashed, err := hashPassword(input)
	if err != nil {
		return true
	}
	if err := a.users.UpdateUserPassword(ctx, user.ID, hashed); err != nil {
		log.Printf("[auth] WARN: password upgrade failed user=%d: %v", user.ID, err)
	}
	return true
}

// Register creates an active cashier account and signs it in.
func (a *AuthManager) Register(ctx context.Context, req domain.RegisterRequest) (domain.LoginResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Struct(req); err != nil {
		return domain.LoginResponse{}, err
	}
	if err := a.checkUnique(ctx, 0, req.Username, req.Email); err != nil {
		return domain.LoginResponse{}, err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return domain.LoginResponse{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := a.users.CreateUser(ctx, domain.User{
		Name:         strings.TrimSpace(req.Name),
		Username:     req.Username,
		Email:        req.Email,
		Phone:        strings.TrimSpace(req.Phone),
		Role:         domain.RoleCashier,
		IsActive:     true,
		PasswordHash: hashed,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return domain.LoginResponse{}, validation.Field("username", "Username atau email sudah digunakan")
		}
		return domain.LoginResponse{}, err
	}
	log.Printf("[audit] actor=%s role=%s action=user.register entity=user/%d", user.Username, user.Role, user.ID)
	return a.issue(*user)
}

// checkUnique reports taken usernames or emails as field errors. selfID is
// skipped so a profile update may keep its own values.
func (a *AuthManager) checkUnique(ctx context.Context, selfID int64, username string, email string) error {
	verr := &validation.Error{}
	for field, value := range map[string]string{"username": username, "email": email} {
		existing, err := a.users.GetUserByLogin(ctx, value)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return err
		}
		if existing.ID == selfID {
			continue
		}
		// GetUserByLogin matches either column; only flag the one that collides.
		if field == "username" && !strings.EqualFold(existing.Username, value) {
			continue
		}
		if field == "email" && !strings.EqualFold(existing.Email, value) {
			continue
		}
		if field == "username" {
			verr.Add(field, "Username sudah digunakan")
		} else {
			verr.Add(field, "Email sudah terdaftar")
		}
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

func (a *AuthManager) issue(user domain.User) (domain.LoginResponse, error) {
	expiresAt := a.now().UTC().Add(a.tokenTTL)
	token, err := a.sign(user, expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}
	return domain.LoginResponse{
		User:      user,
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) sign(user domain.User, expiresAt time.Time) (string, error) {
	claims := posCustomClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			ID:        xid.New("tok"),
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwtlib.NewNumericDate(a.now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    tokenIssuer,
		},
		Username: user.Username,
		Role:     user.Role,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *AuthManager) ParseToken(tokenStr string) (Session, error) {
	claims := &posCustomClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithIssuer(tokenIssuer), jwtlib.WithTimeFunc(a.now))
	if err != nil || !token.Valid {
		return Session{}, ErrInvalidToken
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil || userID <= 0 || claims.ID == "" || claims.ExpiresAt == nil {
		return Session{}, ErrInvalidToken
	}
	if a.isRevoked(claims.ID) {
		return Session{}, ErrInvalidToken
	}

	return Session{
		Actor:     domain.Actor{UserID: userID, Username: claims.Username, Role: claims.Role},
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Authenticate parses tokenStr and reloads its account, so deactivation and
// role changes apply before the token expires.
func (a *AuthManager) Authenticate(ctx context.Context, tokenStr string) (Session, error) {
	session, err := a.ParseToken(tokenStr)
	if err != nil {
		return Session{}, err
	}
	user, err := a.users.GetUserByID(ctx, session.Actor.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, ErrInvalidToken
	}
	if err != nil {
		return Session{}, err
	}
	if !user.IsActive {
		return Session{}, ErrInactiveAccount
	}
	session.Actor.Username = user.Username
	session.Actor.Role = user.Role
	return session, nil
}

// Revoke denies the token until it would have expired anyway.
func (a *AuthManager) Revoke(session Session) {
	now := a.now()
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, until := range a.revoked {
		if !until.After(now) {
			delete(a.revoked, id)
		}
	}
	a.revoked[session.TokenID] = session.ExpiresAt
}

func (a *AuthManager) isRevoked(tokenID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	until, ok := a.revoked[tokenID]
	return ok && until.After(a.now())
}

func (a *AuthManager) Me(ctx context.Context, userID int64) (domain.User, error) {
	user, err := a.users.GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	return *user, nil
}

func (a *AuthManager) UpdateProfile(ctx context.Context, userID int64, req domain.ProfileUpdateRequest) (domain.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := validation.Struct(req); err != nil {
		return domain.User{}, err
	}
	if err := a.checkUnique(ctx, userID, req.Username, req.Email); err != nil {
		return domain.User{}, err
	}

	user, err := a.users.GetUserByID(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	user.Name = strings.TrimSpace(req.Name)
	user.Username = req.Username
	user.Email = req.Email
	user.Phone = strings.TrimSpace(req.Phone)
	updated, err := a.users.UpdateUserProfile(ctx, *user)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return domain.User{}, validation.Field("username", "Username atau email sudah digunakan")
		}
		return domain.User{}, err
	}
	return *updated, nil
}

func (a *AuthManager) UpdatePassword(ctx context.Context, userID int64, req domain.PasswordUpdateRequest) error {
	if err := validation.Struct(req); err != nil {
		return err
	}
	user, err := a.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !verifyPassword(user.PasswordHash, req.CurrentPassword) {
		return validation.Field("current_password", "Password saat ini tidak sesuai")
	}
	hashed, err := hashPassword(req.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := a.users.UpdateUserPassword(ctx, userID, hashed); err != nil {
		return err
	}
	log.Printf("[audit] actor=%s role=%s action=user.password entity=user/%d", user.Username, user.Role, user.ID)
	return nil
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
