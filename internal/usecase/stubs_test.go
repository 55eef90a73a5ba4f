package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/repository"
)

var errStoreDown = errors.New("connection refused")

type memTokenRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string]domain.IssuedToken
	getErr error
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{rows: make(map[string]domain.IssuedToken)}
}

func (r *memTokenRepo) Create(_ context.Context, token *domain.IssuedToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rows[token.Token]; exists {
		return repository.ErrConflict
	}
	r.nextID++
	token.ID = r.nextID
	r.rows[token.Token] = *token
	return nil
}

func (r *memTokenRepo) GetWithOwner(_ context.Context, token string) (*domain.IssuedToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	row, ok := r.rows[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &row, nil
}

func (r *memTokenRepo) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, row := range r.rows {
		if row.ID == id {
			delete(r.rows, key)
		}
	}
	return nil
}

func (r *memTokenRepo) DeleteByToken(_ context.Context, token string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[token]; !ok {
		return 0, nil
	}
	delete(r.rows, token)
	return 1, nil
}

func (r *memTokenRepo) DeleteByIdentity(_ context.Context, identityID int64) (int64, error) {
	return r.deleteWhere(func(row domain.IssuedToken) bool { return row.IdentityID == identityID }), nil
}

func (r *memTokenRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	return r.deleteWhere(func(row domain.IssuedToken) bool { return row.ExpiresAt.Before(before) }), nil
}

func (r *memTokenRepo) deleteWhere(match func(domain.IssuedToken) bool) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for key, row := range r.rows {
		if match(row) {
			delete(r.rows, key)
			n++
		}
	}
	return n
}

func (r *memTokenRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *memTokenRepo) setExpiry(token string, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := r.rows[token]
	row.ExpiresAt = at
	r.rows[token] = row
}

type sequenceGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *sequenceGenerator) Generate(identity *domain.Identity) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("token-%d-%s", g.n, identity.Email), nil
}

type recordingPublisher struct {
	mu         sync.Mutex
	issued     []domain.TokenIssuedEvent
	revoked    []domain.TokenRevokedEvent
	revokedAll []domain.TokensRevokedAllEvent
	purged     []domain.TokensPurgedEvent
	err        error
}

func (p *recordingPublisher) PublishTokenIssued(_ context.Context, event domain.TokenIssuedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.issued = append(p.issued, event)
	return p.err
}

func (p *recordingPublisher) PublishTokenRevoked(_ context.Context, event domain.TokenRevokedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revoked = append(p.revoked, event)
	return p.err
}

func (p *recordingPublisher) PublishTokensRevokedAll(_ context.Context, event domain.TokensRevokedAllEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.revokedAll = append(p.revokedAll, event)
	return p.err
}

func (p *recordingPublisher) PublishTokensPurged(_ context.Context, event domain.TokensPurgedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.purged = append(p.purged, event)
	return p.err
}

type stubIdentityRepo struct {
	mu        sync.Mutex
	byEmail   map[string]domain.Identity
	nextID    int64
	calls     int
	err       error
	createErr error
}

func newStubIdentityRepo(identities ...domain.Identity) *stubIdentityRepo {
	repo := &stubIdentityRepo{byEmail: make(map[string]domain.Identity), nextID: 1000}
	for _, identity := range identities {
		repo.byEmail[identity.Email] = identity
	}
	return repo
}

func (r *stubIdentityRepo) GetByEmail(_ context.Context, email string) (*domain.Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	identity, ok := r.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &identity, nil
}

func (r *stubIdentityRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byEmail[email]
	return ok, r.err
}

func (r *stubIdentityRepo) Create(_ context.Context, identity *domain.Identity, roleIDs []int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	identity.ID = r.nextID
	for _, id := range roleIDs {
		identity.Roles = append(identity.Roles, domain.Role{ID: id, Name: fmt.Sprintf("ROLE_%d", id)})
	}
	r.byEmail[identity.Email] = *identity
	return nil
}

func (r *stubIdentityRepo) callCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type stubFunctionRepo struct {
	mu        sync.Mutex
	active    []domain.Function
	byRole    map[int64][]domain.Function
	activeErr error
	roleErr   error
	roleCalls int
}

func (r *stubFunctionRepo) ListActive(context.Context) ([]domain.Function, error) {
	if r.activeErr != nil {
		return nil, r.activeErr
	}
	return r.active, nil
}

func (r *stubFunctionRepo) ListByRoleIDs(_ context.Context, roleIDs []int64) ([]domain.Function, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roleCalls++
	if r.roleErr != nil {
		return nil, r.roleErr
	}
	var out []domain.Function
	for _, id := range roleIDs {
		out = append(out, r.byRole[id]...)
	}
	return out, nil
}
