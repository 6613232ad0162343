package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/martijn/userbase/internal/core/domain"
	"github.com/martijn/userbase/internal/core/repository"
	"github.com/martijn/userbase/internal/infrastructure/sqlstore"
	"github.com/martijn/userbase/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

// fixedClock returns a clock that reports t on every call.
func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestService(t *testing.T) *UserService {
	t.Helper()

	db, err := sqlstore.Open(sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	return NewUserService(sqlstore.NewUserRepository(db), logging.Discard())
}

func aliceFields() domain.UserFields {
	return domain.UserFields{
		Username:          ptr("alice"),
		FirstName:         ptr("Alice"),
		LastName:          ptr("Liddell"),
		Bio:               ptr("Curiouser and curiouser."),
		Bicycles:          ptr(int64(2)),
		GPA:               ptr(3.5),
		BirthDate:         ptr(time.Date(1999, 5, 4, 0, 0, 0, 0, time.UTC)),
		AccountExpiration: ptr(time.Date(2030, 1, 2, 15, 4, 0, 0, time.UTC)),
		Earthling:         ptr(true),
	}
}

func TestUserService_CreateThenRead(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	cases := []domain.UserFields{
		aliceFields(),
		{},
		{Username: ptr("bob"), Earthling: ptr(false)},
		{Bicycles: ptr(int64(-3)), GPA: ptr(-1.25)},
	}

	for _, fields := range cases {
		created, err := svc.Create(ctx, fields)
		require.NoError(t, err)
		require.NotZero(t, created.ID)
		assert.Equal(t, created.CreatedAt, created.UpdatedAt)

		got, err := svc.Read(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, fields, got.UserFields)
		assert.Equal(t, created.CreatedAt, got.CreatedAt)
	}
}

func TestUserService_CreateNormalizesDates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	loc := time.FixedZone("UTC+2", 2*60*60)
	fields := domain.UserFields{
		BirthDate:         ptr(time.Date(2001, 2, 3, 17, 30, 0, 0, loc)),
		AccountExpiration: ptr(time.Date(2030, 1, 2, 15, 4, 5, 999, loc)),
	}

	created, err := svc.Create(ctx, fields)
	require.NoError(t, err)

	got, err := svc.Read(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2001, 2, 3, 0, 0, 0, 0, time.UTC), *got.BirthDate)
	assert.Equal(t, time.Date(2030, 1, 2, 13, 4, 5, 0, time.UTC), *got.AccountExpiration)
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	t0 := time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC)
	svc.now = fixedClock(t0)
	created, err := svc.Create(ctx, aliceFields())
	require.NoError(t, err)

	changed := aliceFields()
	changed.Bicycles = ptr(int64(5))

	svc.now = fixedClock(t0.Add(time.Minute))
	updated, err := svc.Update(ctx, created.ID, changed)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)

	got, err := svc.Read(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, changed, got.UserFields)
	assert.Equal(t, t0, got.CreatedAt)
	assert.Equal(t, t0.Add(time.Minute), got.UpdatedAt)
}

func TestUserService_UpdateFullReplace(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	created, err := svc.Create(ctx, aliceFields())
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, domain.UserFields{Username: ptr("anon")})
	require.NoError(t, err)

	got, err := svc.Read(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.UserFields{Username: ptr("anon")}, got.UserFields)
}

func TestUserService_UpdatedAtStrictlyIncreases(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	t0 := time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC)
	svc.now = fixedClock(t0)

	created, err := svc.Create(ctx, aliceFields())
	require.NoError(t, err)

	prev := created.UpdatedAt
	for i := 0; i < 3; i++ {
		updated, err := svc.Update(ctx, created.ID, aliceFields())
		require.NoError(t, err)
		assert.True(t, updated.UpdatedAt.After(prev), "updated_at must advance on every update")
		assert.Equal(t, t0, updated.CreatedAt)
		prev = updated.UpdatedAt
	}

	// A clock that goes backwards still cannot move updated_at back.
	svc.now = fixedClock(t0.Add(-time.Hour))
	updated, err := svc.Update(ctx, created.ID, aliceFields())
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(prev))
}

func TestUserService_Destroy(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	created, err := svc.Create(ctx, aliceFields())
	require.NoError(t, err)

	require.NoError(t, svc.Destroy(ctx, created.ID))

	_, err = svc.Read(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = svc.Destroy(ctx, created.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_MissingIDIsNotFound(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	user, err := svc.Read(ctx, 99)
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrNotFound)

	user, err = svc.Update(ctx, 99, aliceFields())
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.Destroy(ctx, 99), ErrNotFound)
}

func TestUserService_ListAfterCreatesAndDestroys(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	const n, m = 7, 3
	var ids []int64
	for i := 0; i < n; i++ {
		u, err := svc.Create(ctx, domain.UserFields{Bicycles: ptr(int64(i))})
		require.NoError(t, err)
		ids = append(ids, u.ID)
	}
	for _, id := range ids[:m] {
		require.NoError(t, svc.Destroy(ctx, id))
	}

	users, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, users, n-m)

	count, err := svc.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, n-m, count)
}

func TestUserService_Scenario(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	t0 := time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC)
	svc.now = fixedClock(t0)

	fields := domain.UserFields{
		Username:  ptr("alice"),
		Bicycles:  ptr(int64(2)),
		GPA:       ptr(3.5),
		Earthling: ptr(true),
	}
	_, err := svc.Create(ctx, fields)
	require.NoError(t, err)

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	alice := users[0]
	assert.NotZero(t, alice.ID)
	assert.Equal(t, fields, alice.UserFields)

	svc.now = fixedClock(t0.Add(time.Second))
	edited := alice.UserFields
	edited.Bicycles = ptr(int64(5))
	_, err = svc.Update(ctx, alice.ID, edited)
	require.NoError(t, err)

	got, err := svc.Read(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), *got.Bicycles)
	assert.Equal(t, "alice", *got.Username)
	assert.Equal(t, 3.5, *got.GPA)
	assert.True(t, *got.Earthling)
	assert.True(t, got.UpdatedAt.After(alice.UpdatedAt))

	require.NoError(t, svc.Destroy(ctx, alice.ID))

	users, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	_, err = svc.Read(ctx, alice.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

// failingRepo fails every call with err.
type failingRepo struct {
	err error
}

func (r failingRepo) Create(context.Context, *domain.User) error { return r.err }
func (r failingRepo) FindByID(context.Context, int64) (*domain.User, error) {
	return nil, r.err
}
func (r failingRepo) Update(context.Context, *domain.User) error { return r.err }
func (r failingRepo) Delete(context.Context, int64) error { return r.err }
func (r failingRepo) List(context.Context) ([]*domain.User, error) { return nil, r.err }
func (r failingRepo) Count(context.Context) (int, error) { return 0, r.err }

var _ repository.UserRepository = failingRepo{}

func TestUserService_StorageUnavailable(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("database is locked")
	svc := NewUserService(failingRepo{err: cause}, logging.Discard())

	_, err := svc.List(ctx)
	assert.ErrorIs(t, err, ErrStorageUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, ErrNotFound)

	_, err = svc.Create(ctx, aliceFields())
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = svc.Read(ctx, 1)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	_, err = svc.Update(ctx, 1, aliceFields())
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	err = svc.Destroy(ctx, 1)
	assert.ErrorIs(t, err, ErrStorageUnavailable)

	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, "destroy user", svcErr.Op)
}
