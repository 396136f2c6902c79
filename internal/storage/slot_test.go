package storage

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisSlotStore(t *testing.T) {
	mr, rdb := setupTestRedis(t)
	s := NewRedisSlotStore(rdb, "slot", time.Hour)
	ctx := context.Background()

	_, err := s.Get(ctx, "sess", "cart")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, "sess", "cart", []byte(`{"id":"1"}`)))
	got, err := s.Get(ctx, "sess", "cart")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"1"}`, string(got))
	assert.True(t, mr.Exists("slot:sess:cart"))
	assert.Equal(t, time.Hour, mr.TTL("slot:sess:cart"))

	_, err = s.Get(ctx, "other", "cart")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx, "sess", "cart"))
	_, err = s.Get(ctx, "sess", "cart")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLSlotStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	s := NewSQLSlotStore(db)
	ctx := context.Background()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO storage_slots")).
		WithArgs("sess", "cart", []byte("v1")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	require.NoError(t, s.Set(ctx, "sess", "cart", []byte("v1")))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM storage_slots")).
		WithArgs("sess", "cart").
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte("v1")))
	got, err := s.Get(ctx, "sess", "cart")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT value FROM storage_slots")).
		WithArgs("sess", "wishlist").
		WillReturnRows(sqlmock.NewRows([]string{"value"}))
	_, err = s.Get(ctx, "sess", "wishlist")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM storage_slots")).
		WithArgs("sess", "cart").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Delete(ctx, "sess", "cart"))

	assert.NoError(t, mock.ExpectationsWereMet())
}
