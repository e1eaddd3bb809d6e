package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"waiasella/backend/internal/domain"
	"waiasella/backend/internal/store"
)

// AuthManager issues and validates HS256 bearer tokens. Accounts live
// in the "users" slice of the local gateway, loaded into an in-memory
// credential cache at startup. On a fresh store a default admin and
// cashier are seeded so the terminal is usable out of the box.
type AuthManager struct {
	mu       sync.RWMutex
	secret   []byte
	tokenTTL time.Duration
	gateway  store.Gateway
	users    map[string]credential
}

type credential struct {
	password string
	role     string
	active   bool
	created  time.Time
}

type posCustomClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

func NewAuthManager(ctx context.Context, secret string, tokenTTL time.Duration, gateway store.Gateway) *AuthManager {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}

	manager := &AuthManager{
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		gateway:  gateway,
		users:    make(map[string]credential),
	}
	manager.bootstrapUsers(ctx)
	return manager
}

func (a *AuthManager) Login(req domain.LoginRequest) (domain.LoginResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	a.mu.RLock()
	cred, ok := a.users[username]
	a.mu.RUnlock()
	if !ok {
		return domain.LoginResponse{}, errors.New("invalid credentials")
	}

	if !verifyPassword(cred.password, req.Password) {
		return domain.LoginResponse{}, errors.New("invalid credentials")
	}
	if !cred.active {
		return domain.LoginResponse{}, errors.New("account is inactive")
	}

	expiresAt := time.Now().UTC().Add(a.tokenTTL)
	token, err := a.sign(username, cred.role, expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		AccessToken: token,
		Role:        cred.role,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &posCustomClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	return domain.Actor{Username: sub, Role: claims.Role}, nil
}

func (a *AuthManager) sign(username, role string, expiresAt time.Time) (string, error) {
	claims := posCustomClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwtlib.NewNumericDate(time.Now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "waiasella",
		},
		Role: role,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *AuthManager) CreateCashier(ctx context.Context, req domain.CashierCreateRequest) (domain.CashierUser, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if len(username) < 4 {
		return domain.CashierUser{}, fmt.Errorf("username must be at least 4 characters")
	}
	if strings.ContainsAny(username, " \t\r\n") {
		return domain.CashierUser{}, fmt.Errorf("username must not contain spaces")
	}
	if len(strings.TrimSpace(req.Password)) < 6 {
		return domain.CashierUser{}, fmt.Errorf("password must be at least 6 characters")
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		return domain.CashierUser{}, fmt.Errorf("failed to hash password")
	}
	now := time.Now().UTC()

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.users[username]; exists {
		return domain.CashierUser{}, fmt.Errorf("username already exists")
	}

	next := a.accountsLocked()
	next = append(next, domain.UserAccount{
		Username:  username,
		Password:  passwordHash,
		Role:      "cashier",
		Active:    true,
		CreatedAt: now,
	})
	if err := store.SaveJSON(ctx, a.gateway, store.KeyUsers, next); err != nil {
		return domain.CashierUser{}, fmt.Errorf("saving users: %w", err)
	}

	a.users[username] = credential{
		password: passwordHash,
		role:     "cashier",
		active:   true,
		created:  now,
	}

	return domain.CashierUser{Username: username, Role: "cashier", Active: true, CreatedAt: now}, nil
}

func (a *AuthManager) ListCashiers() []domain.CashierUser {
	a.mu.RLock()
	result := make([]domain.CashierUser, 0, len(a.users))
	for username, user := range a.users {
		if user.role != "cashier" {
			continue
		}
		result = append(result, domain.CashierUser{
			Username:  username,
			Role:      user.role,
			Active:    user.active,
			CreatedAt: user.created,
		})
	}
	a.mu.RUnlock()
	sort.Slice(result, func(i, j int) bool {
		return result[i].Username < result[j].Username
	})
	return result
}

// accountsLocked rebuilds the persisted account slice from the cache.
// Callers must hold mu.
func (a *AuthManager) accountsLocked() []domain.UserAccount {
	accounts := make([]domain.UserAccount, 0, len(a.users))
	for username, cred := range a.users {
		accounts = append(accounts, domain.UserAccount{
			Username:  username,
			Password:  cred.password,
			Role:      cred.role,
			Active:    cred.active,
			CreatedAt: cred.created,
		})
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Username < accounts[j].Username
	})
	return accounts
}

// bootstrapUsers loads accounts from the gateway, seeding the defaults
// on an empty store. Legacy plain-text passwords are upgraded to bcrypt
// and written back.
func (a *AuthManager) bootstrapUsers(ctx context.Context) {
	var accounts []domain.UserAccount
	if !store.LoadJSON(ctx, a.gateway, store.KeyUsers, &accounts) || len(accounts) == 0 {
		accounts = defaultAccounts()
		if err := store.SaveJSON(ctx, a.gateway, store.KeyUsers, accounts); err != nil {
			log.Printf("[auth] WARN: failed to persist seeded accounts: %v", err)
		}
		log.Printf("[auth] seeded default admin and cashier accounts; change the passwords")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	upgraded := false
	for i, account := range accounts {
		username := strings.ToLower(strings.TrimSpace(account.Username))
		if username == "" {
			continue
		}
		password := account.Password
		if !isPasswordHash(password) {
			if hashed, err := hashPassword(password); err == nil {
				password = hashed
				accounts[i].Password = hashed
				upgraded = true
			}
		}
		a.users[username] = credential{
			password: password,
			role:     account.Role,
			active:   account.Active,
			created:  account.CreatedAt,
		}
	}
	if upgraded {
		if err := store.SaveJSON(ctx, a.gateway, store.KeyUsers, accounts); err != nil {
			log.Printf("[auth] WARN: failed to persist upgraded password hashes: %v", err)
		}
	}
}

func defaultAccounts() []domain.UserAccount {
	now := time.Now().UTC()
	accounts := []domain.UserAccount{
		{Username: "admin", Password: "admin123", Role: "admin", Active: true, CreatedAt: now},
		{Username: "cashier", Password: "cashier123", Role: "cashier", Active: true, CreatedAt: now},
	}
	for i := range accounts {
		if hashed, err := hashPassword(accounts[i].Password); err == nil {
			accounts[i].Password = hashed
		}
	}
	return accounts
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
