package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/livedesk/internal/common"
	"github.com/dmitrijs2005/livedesk/internal/cryptox"
	"github.com/dmitrijs2005/livedesk/internal/server/models"
	"github.com/stretchr/testify/require"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// memRefreshRepo is a goroutine-safe in-memory refreshtokens.Repository.
type memRefreshRepo struct {
	mu     sync.Mutex
	rows   map[string]models.RefreshToken
	failOn map[string]error
}

func newMemRefreshRepo() *memRefreshRepo {
	return &memRefreshRepo{rows: map[string]models.RefreshToken{}, failOn: map[string]error{}}
}

func (r *memRefreshRepo) fail(op string) error {
	return r.failOn[op]
}

func (r *memRefreshRepo) Create(_ context.Context, t *models.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("create"); err != nil {
		return err
	}
	if _, ok := r.rows[t.Token]; ok {
		return common.ErrorAlreadyExists
	}
	r.rows[t.Token] = *t
	return nil
}

func (r *memRefreshRepo) Find(_ context.Context, token string) (*models.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("find"); err != nil {
		return nil, err
	}
	t, ok := r.rows[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r *memRefreshRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("delete"); err != nil {
		return err
	}
	delete(r.rows, token)
	return nil
}

func (r *memRefreshRepo) Rotate(_ context.Context, old string, next *models.RefreshToken, now time.Time) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("rotate"); err != nil {
		return "", err
	}
	t, ok := r.rows[old]
	if !ok {
		return "", common.ErrorNotFound
	}
	delete(r.rows, old)
	if t.Expired(now) {
		return "", common.ErrRefreshTokenExpired
	}
	next.UserID = t.UserID
	r.rows[next.Token] = *next
	return t.UserID, nil
}

func (r *memRefreshRepo) DeleteByUser(_ context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("deleteByUser"); err != nil {
		return 0, err
	}
	var n int64
	for k, t := range r.rows {
		if t.UserID == userID {
			delete(r.rows, k)
			n++
		}
	}
	return n, nil
}

func (r *memRefreshRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for k, t := range r.rows {
		if t.Expired(now) {
			delete(r.rows, k)
			n++
		}
	}
	return n, nil
}

func (r *memRefreshRepo) has(token string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[token]
	return ok
}

func (r *memRefreshRepo) put(t models.RefreshToken) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[t.Token] = t
}

func (r *memRefreshRepo) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// memSecretRepo is a goroutine-safe in-memory secretconfig.Repository.
type memSecretRepo struct {
	mu        sync.Mutex
	rows      map[string]models.SecretConfigEntry
	listErr   error
	upsertErr error
	deleteErr error
	// ctxErrs records ctx.Err() seen by writes.
	ctxErrs []error
}

func newMemSecretRepo() *memSecretRepo {
	return &memSecretRepo{rows: map[string]models.SecretConfigEntry{}}
}

func (r *memSecretRepo) Upsert(ctx context.Context, e *models.SecretConfigEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	if r.upsertErr != nil {
		return r.upsertErr
	}
	if e.Description == "" {
		e.Description = r.rows[e.Key].Description
	}
	e.UpdatedAt = time.Now()
	r.rows[e.Key] = *e
	return nil
}

func (r *memSecretRepo) Get(_ context.Context, key string) (*models.SecretConfigEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &e, nil
}

func (r *memSecretRepo) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.rows, key)
	return nil
}

func (r *memSecretRepo) List(_ context.Context) ([]*models.SecretConfigEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*models.SecretConfigEntry, 0, len(r.rows))
	for _, e := range r.rows {
		e := e
		out = append(out, &e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r *memSecretRepo) row(key string) (models.SecretConfigEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.rows[key]
	return e, ok
}

// memUsersRepo is an in-memory users.Repository.
type memUsersRepo struct {
	mu     sync.Mutex
	byName map[string]*models.User
	getErr error
	nextID int
}

func newMemUsersRepo() *memUsersRepo {
	return &memUsersRepo{byName: map[string]*models.User{}}
}

func (r *memUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[u.UserName]; ok {
		return nil, common.ErrorAlreadyExists
	}
	r.nextID++
	u.ID = fmt.Sprintf("user-%d", r.nextID)
	u.CreatedAt = time.Now()
	r.byName[u.UserName] = u
	return u, nil
}

func (r *memUsersRepo) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return nil, r.getErr
	}
	u, ok := r.byName[login]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func newEngine(t *testing.T) *cryptox.Engine {
	t.Helper()
	key, err := cryptox.GenerateKey()
	require.NoError(t, err)
	e, err := cryptox.NewEngine(key)
	require.NoError(t, err)
	return e
}
