package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"book-catalogue/internal/config"
	"book-catalogue/internal/core/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenKV(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	for _, c := range []config.CacheConfig{
		{Backend: config.BackendMemory},
		{Backend: config.BackendFile, Dir: t.TempDir()},
		{Backend: config.BackendBadger, Dir: t.TempDir()},
		{Backend: config.BackendRedis, Redis: config.RedisConfig{Addr: mr.Addr()}},
	} {
		kv, closer, err := openKV(ctx, c)
		require.NoError(t, err, c.Backend)
		require.NoError(t, kv.Set(ctx, "k", []byte("v")), c.Backend)
		got, err := kv.Get(ctx, "k")
		require.NoError(t, err, c.Backend)
		assert.Equal(t, "v", string(got))
		if closer != nil {
			require.NoError(t, closer.Close())
		}
	}

	_, _, err := openKV(ctx, config.CacheConfig{Backend: "s3"})
	assert.Error(t, err)
}

func TestValidateCommand(t *testing.T) {
	p := filepath.Join(t.TempDir(), "dados.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"records":[{"status":"Available"},{"status":"Bogus"}]}`), 0o600))

	var out bytes.Buffer
	validateCmd.SetOut(&out)
	require.NoError(t, runValidate(validateCmd, []string{p}))
	assert.Contains(t, out.String(), "total: 2\ncorrupted: 1\nrecovered: 1\nusable: 2\n")
	assert.Contains(t, out.String(), "record at position 1")

	require.NoError(t, os.WriteFile(p, []byte(`{"items":[]}`), 0o600))
	err := runValidate(validateCmd, []string{p})
	assert.ErrorIs(t, err, model.ErrStructural)
	assert.Contains(t, err.Error(), p)
}

func TestListRejectsUnknownSort(t *testing.T) {
	prev := listFlags.sort
	t.Cleanup(func() { listFlags.sort = prev })

	listFlags.sort = "isbn"
	err := runList(listCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--sort must be one of: title, author")
}
