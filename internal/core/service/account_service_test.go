package service

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/memberbase/accounts-api/internal/core/domain"
	"github.com/memberbase/accounts-api/internal/core/ports"
)

type stubAccountRepo struct {
	accounts map[string]*domain.Account
	nextID   int
	saveErr  error
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	if a, ok := r.accounts[id]; ok {
		return cloneAccount(a), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	for _, a := range r.accounts {
		if a.Username == username {
			return cloneAccount(a), nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindAll(_ context.Context) ([]domain.Account, error) {
	out := make([]domain.Account, 0, len(r.accounts))
	for _, a := range r.accounts {
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *stubAccountRepo) CountByRole(_ context.Context, role string) (int64, error) {
	var n int64
	for _, a := range r.accounts {
		if a.Role == role {
			n++
		}
	}
	return n, nil
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	for _, a := range r.accounts {
		if a.Username == account.Username {
			return nil, domain.ErrUsernameTaken
		}
	}
	r.nextID++
	created := cloneAccount(account)
	created.ID = fmt.Sprintf("acc_%d", r.nextID)
	r.accounts[created.ID] = cloneAccount(created)
	return created, nil
}

func (r *stubAccountRepo) Update(_ context.Context, account *domain.Account) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	if _, ok := r.accounts[account.ID]; !ok {
		return domain.ErrAccountNotFound
	}
	r.accounts[account.ID] = cloneAccount(account)
	return nil
}

func (r *stubAccountRepo) DemoteAdmin(_ context.Context, account *domain.Account) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	for id, a := range r.accounts {
		if id != account.ID && a.Role == domain.RoleAdmin {
			r.accounts[account.ID] = cloneAccount(account)
			return nil
		}
	}
	return domain.ErrLastAdmin
}

func seedAccount(t *testing.T, repo *stubAccountRepo, username, password, name, role string) *domain.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	created, err := repo.Create(context.Background(), &domain.Account{
		Username:     username,
		Name:         name,
		PasswordHash: string(hash),
		Role:         role,
	})
	if err != nil {
		t.Fatalf("seed account %q: %v", username, err)
	}
	return created
}

func strPtr(s string) *string { return &s }

func TestAccountService_Create_Success(t *testing.T) {
	repo := newStubAccountRepo()
	svc := NewAccountService(repo, zerolog.Nop())

	created, err := svc.Create(context.Background(), "alice", "pass123", "Alice", domain.RoleUser)
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected assigned id")
	}
	if created.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
}

func TestAccountService_Create_Validation(t *testing.T) {
	repo := newStubAccountRepo()
	svc := NewAccountService(repo, zerolog.Nop())

	cases := []struct {
		username, password, name, role string
	}{
		{"", "pass", "No Name", domain.RoleUser},
		{"bob", "", "Bob", domain.RoleUser},
		{"bob", "pass", "", domain.RoleUser},
		{"bob", "pass", "Bob", "superuser"},
	}
	for _, tc := range cases {
		if _, err := svc.Create(context.Background(), tc.username, tc.password, tc.name, tc.role); err != domain.ErrValidation {
			t.Fatalf("expected ErrValidation for %+v, got %v", tc, err)
		}
	}
}

func TestAccountService_Create_ReservedUsername(t *testing.T) {
	repo := newStubAccountRepo()
	svc := NewAccountService(repo, zerolog.Nop())

	if _, err := svc.Create(context.Background(), "admin", "pass", "Imposter", domain.RoleUser); err != domain.ErrReservedUsername {
		t.Fatalf("expected ErrReservedUsername, got %v", err)
	}
	if n, _ := repo.CountByRole(context.Background(), domain.RoleUser); n != 0 {
		t.Fatalf("account should not have been created")
	}

	// An admin-role account may claim the reserved name.
	if _, err := svc.Create(context.Background(), "admin", "pass", "Admin", domain.RoleAdmin); err != nil {
		t.Fatalf("expected admin creation to succeed, got %v", err)
	}
}

func TestAccountService_Create_Duplicate(t *testing.T) {
	repo := newStubAccountRepo()
	svc := NewAccountService(repo, zerolog.Nop())

	if _, err := svc.Create(context.Background(), "carol", "pass", "Carol", domain.RoleUser); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	if _, err := svc.Create(context.Background(), "carol", "other", "Carol 2", domain.RoleUser); err != domain.ErrUsernameTaken {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestAccountService_Update_NameOnly(t *testing.T) {
	repo := newStubAccountRepo()
	svc := NewAccountService(repo, zerolog.Nop())
	target := seedAccount(t, repo, "dave", "pass", "Dave", domain.RoleUser)
	actor := domain.TokenClaims{AccountID: target.ID, Username: target.Username, Role: target.Role}

	updated, err := svc.Update(context.Background(), actor, target, ports.AccountPatch{Name: strPtr("David")})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Name != "David" {
		t.Fatalf("expected name applied, got %q", updated.Name)
	}

	stored, _ := repo.FindByID(context.Background(), target.ID)
	if stored.Name != "David" {
		t.Fatalf("expected name persisted, got %q", stored.Name)
	}
}

func TestAccountService_Update_ReservedUsername_Atomic(t *testing.T) {
	repo := newStubAccountRepo()
	svc := NewAccountService(repo, zerolog.Nop())
	target := seedAccount(t, repo, "eve", "pass", "Eve", domain.RoleUser)
	before, _ := repo.FindByID(context.Background(), target.ID)
	actor := domain.TokenClaims{AccountID: target.ID, Username: target.Username, Role: target.Role}

	// Both fields present: the reserved username must abort the whole patch,
	// the name change included.
	patch := ports.AccountPatch{Username: strPtr("admin"), Name: strPtr("Administrator")}
	if _, err := svc.Update(context.Background(), actor, target, patch); err != domain.ErrReservedUsername {
		t.Fatalf("expected ErrReservedUsername, got %v", err)
	}

	after, _ := repo.FindByID(context.Background(), target.ID)
	if *after != *before {
		t.Fatalf("account changed after rejected patch: before %+v, after %+v", before, after)
	}
}

func TestAccountService_Update_AdminKeepsReservedName(t *testing.T) {
	repo := newStubAccountRepo()
	svc := NewAccountService(repo, zerolog.Nop())
	target := seedAccount(t, repo, "root", "pass", "Root", domain.RoleAdmin)
	actor := domain.TokenClaims{AccountID: target.ID, Username: target.Username, Role: target.Role}

	// An existing admin may rename itself to a reserved name.
	updated, err := svc.Update(context.Background(), actor, target, ports.AccountPatch{Username: strPtr("admin")})
	if err != nil {
		t.Fatalf("expected rename to succeed, got %v", err)
	}
	if updated.Username != "admin" {
		t.Fatalf("expected username applied, got %q", updated.Username)
	}
}

func TestAccountService_Update_RoleChangeForbiddenForUser(t *testing.T) {
	repo := newStubAccountRepo()
	svc := NewAccountService(repo, zerolog.Nop())
	target := seedAccount(t, repo, "frank", "pass", "Frank", domain.RoleUser)
	before, _ := repo.FindByID(context.Background(), target.ID)
	actor := domain.TokenClaims{AccountID: target.ID, Username: target.Username, Role: domain.RoleUser}

	// A user attempting to promote itself is rejected, and the name change in
	// the same patch must not be applied either.
	patch := ports.AccountPatch{Name: strPtr("Franklin"), Role: strPtr(domain.RoleAdmin)}
	if _, err := svc.Update(context.Background(), actor, target, patch); err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	after, _ := repo.FindByID(context.Background(), target.ID)
	if *after != *before {
		t.Fatalf("account changed after forbidden patch")
	}
}

func TestAccountService_Update_LastAdminProtected(t *testing.T) {
	repo := newStubAccountRepo()
	svc := NewAccountService(repo, zerolog.Nop())
	admin := seedAccount(t, repo, "admin", "pass", "Admin", domain.RoleAdmin)
	before, _ := repo.FindByID(context.Background(), admin.ID)
	actor := domain.TokenClaims{AccountID: admin.ID, Username: admin.Username, Role: domain.RoleAdmin}

	// Even an admin actor cannot demote the only admin.
	if _, err := svc.Update(context.Background(), actor, admin, ports.AccountPatch{Role: strPtr(domain.RoleUser)}); err != domain.ErrLastAdmin {
		t.Fatalf("expected ErrLastAdmin, got %v", err)
	}

	after, _ := repo.FindByID(context.Background(), admin.ID)
	if *after != *before {
		t.Fatalf("account changed after rejected demotion")
	}
}

func TestAccountService_Update_DemoteWithSecondAdmin(t *testing.T) {
	repo := newStubAccountRepo()
	svc := NewAccountService(repo, zerolog.Nop())
	first := seedAccount(t, repo, "admin", "pass", "Admin", domain.RoleAdmin)
	seedAccount(t, repo, "grace", "pass", "Grace", domain.RoleAdmin)
	actor := domain.TokenClaims{AccountID: first.ID, Username: first.Username, Role: domain.RoleAdmin}

	updated, err := svc.Update(context.Background(), actor, first, ports.AccountPatch{Role: strPtr(domain.RoleUser)})
	if err != nil {
		t.Fatalf("expected demotion to succeed, got %v", err)
	}
	if updated.Role != domain.RoleUser {
		t.Fatalf("expected role applied, got %q", updated.Role)
	}

	if n, _ := repo.CountByRole(context.Background(), domain.RoleAdmin); n != 1 {
		t.Fatalf("expected one remaining admin, got %d", n)
	}
}

func TestAccountService_Update_PasswordRehashed(t *testing.T) {
	repo := newStubAccountRepo()
	svc := NewAccountService(repo, zerolog.Nop())
	target := seedAccount(t, repo, "heidi", "oldpass", "Heidi", domain.RoleUser)
	actor := domain.TokenClaims{AccountID: target.ID, Username: target.Username, Role: domain.RoleUser}

	if _, err := svc.Update(context.Background(), actor, target, ports.AccountPatch{Password: strPtr("newpass")}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	stored, _ := repo.FindByID(context.Background(), target.ID)
	if stored.PasswordHash == "newpass" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("newpass")); err != nil {
		t.Fatalf("stored hash does not match new password: %v", err)
	}
}

func TestAccountService_Update_EmptyPatch(t *testing.T) {
	repo := newStubAccountRepo()
	svc := NewAccountService(repo, zerolog.Nop())
	target := seedAccount(t, repo, "ivan", "pass", "Ivan", domain.RoleUser)
	actor := domain.TokenClaims{AccountID: target.ID, Username: target.Username, Role: domain.RoleUser}

	updated, err := svc.Update(context.Background(), actor, target, ports.AccountPatch{})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if *updated != *target {
		t.Fatalf("expected target returned unchanged")
	}
}

func TestAccountService_Update_PersistenceError(t *testing.T) {
	repo := newStubAccountRepo()
	svc := NewAccountService(repo, zerolog.Nop())
	target := seedAccount(t, repo, "judy", "pass", "Judy", domain.RoleUser)
	actor := domain.TokenClaims{AccountID: target.ID, Username: target.Username, Role: domain.RoleUser}

	repo.saveErr = domain.ErrPersistence
	if _, err := svc.Update(context.Background(), actor, target, ports.AccountPatch{Name: strPtr("Judith")}); err != domain.ErrPersistence {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}

	stored, _ := repo.FindByID(context.Background(), target.ID)
	if stored.Name != "Judy" {
		t.Fatalf("expected stored record untouched, got %q", stored.Name)
	}
}

func TestAccountService_EnsureAdmin(t *testing.T) {
	repo := newStubAccountRepo()
	svc := NewAccountService(repo, zerolog.Nop())

	if err := svc.EnsureAdmin(context.Background(), "changeme"); err != nil {
		t.Fatalf("EnsureAdmin returned error: %v", err)
	}

	admin, err := repo.FindByUsername(context.Background(), "admin")
	if err != nil {
		t.Fatalf("expected seeded admin: %v", err)
	}
	if admin.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %q", admin.Role)
	}

	// A second call is a no-op.
	if err := svc.EnsureAdmin(context.Background(), "changeme"); err != nil {
		t.Fatalf("EnsureAdmin second call returned error: %v", err)
	}
	if n, _ := repo.CountByRole(context.Background(), domain.RoleAdmin); n != 1 {
		t.Fatalf("expected exactly one admin, got %d", n)
	}
}

func TestAccountService_List_Ordered(t *testing.T) {
	repo := newStubAccountRepo()
	svc := NewAccountService(repo, zerolog.Nop())
	seedAccount(t, repo, "first", "pass", "First", domain.RoleAdmin)
	seedAccount(t, repo, "second", "pass", "Second", domain.RoleUser)

	accounts, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	if accounts[0].Username != "first" || accounts[1].Username != "second" {
		t.Fatalf("expected creation order, got %q then %q", accounts[0].Username, accounts[1].Username)
	}
}
