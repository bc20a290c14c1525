package redistore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillauth/quillauth"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client)
}

func TestCreateAndFind(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	expiry := time.Now().Add(time.Hour).Truncate(time.Second).UTC()

	id, err := store.Create(ctx, "alice@example.com", "hash-a", "tok-a", expiry)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	byEmail, err := store.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, id, byEmail.ID)
	assert.Equal(t, "alice@example.com", byEmail.Email)
	assert.Equal(t, "hash-a", byEmail.PasswordHash)
	assert.Equal(t, "tok-a", byEmail.VerificationToken)
	assert.True(t, expiry.Equal(byEmail.TokenExpiresAt))
	assert.False(t, byEmail.Verified)

	byID, err := store.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, *byEmail, *byID)
}

func TestFindMissingReturnsNil(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	rec, err := store.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, rec)

	rec, err = store.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestCreateDuplicateEmail(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	_, err := store.Create(ctx, "bob@example.com", "", "tok", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, err = store.Create(ctx, "bob@example.com", "", "tok2", time.Now().Add(time.Hour))
	assert.ErrorIs(t, err, quillauth.ErrDuplicateEmail)
}

func TestSetVerified(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, "carol@example.com", "", "tok", time.Now().Add(time.Hour))
	require.NoError(t, err)

	existed, err := store.SetVerified(ctx, id)
	require.NoError(t, err)
	assert.True(t, existed)

	rec, err := store.FindByID(ctx, id)
	require.NoError(t, err)
	assert.True(t, rec.Verified)

	existed, err = store.SetVerified(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestSetTokenAndClear(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, "dave@example.com", "", "tok-1", time.Now().Add(time.Hour))
	require.NoError(t, err)

	rotated := time.Now().Add(2 * time.Hour).Truncate(time.Second).UTC()
	require.NoError(t, store.SetToken(ctx, id, "tok-2", rotated))

	tok, err := store.GetToken(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)

	expiry, err := store.GetExpiry(ctx, id)
	require.NoError(t, err)
	assert.True(t, rotated.Equal(expiry))

	require.NoError(t, store.SetToken(ctx, id, "", time.Time{}))

	tok, err = store.GetToken(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, tok)

	expiry, err = store.GetExpiry(ctx, id)
	require.NoError(t, err)
	assert.True(t, expiry.IsZero())
}

func TestSettersOnMissingRecord(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	assert.Error(t, store.SetPasswordHash(ctx, uuid.New(), "h"))
	assert.Error(t, store.SetToken(ctx, uuid.New(), "t", time.Now()))
}

func TestGettersOnMissingRecordReturnZero(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	id := uuid.New()

	tok, err := store.GetToken(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, tok)

	email, err := store.GetEmail(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, email)

	expiry, err := store.GetExpiry(ctx, id)
	require.NoError(t, err)
	assert.True(t, expiry.IsZero())
}

func TestSetPasswordHash(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	id, err := store.Create(ctx, "erin@example.com", "old", "tok", time.Now().Add(time.Hour))
	require.NoError(t, err)

	require.NoError(t, store.SetPasswordHash(ctx, id, "new"))

	hash, err := store.GetPasswordHash(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new", hash)
}
