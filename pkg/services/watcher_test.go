package services

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestWatchContentInvalidatesStore(t *testing.T) {
	store, repo := newTestStore(t, map[string]string{"posts/a.md": "---\ntitle: A\n---\n"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, err := WatchContent(ctx, store, newTestRenderer(t), zaptest.NewLogger(t))
	require.NoError(t, err)
	defer w.Close()

	docs, err := store.Documents(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	writeFiles(t, filepath.Join(repo, "content"), map[string]string{"posts/b.md": "---\ntitle: B\n---\n"})

	require.Eventually(t, func() bool {
		docs, err := store.Documents(ctx)
		return err == nil && len(docs) == 2
	}, 5*time.Second, 20*time.Millisecond)
}

func TestWatchContentMissingRoot(t *testing.T) {
	store := NewStore(t.TempDir(), "does-not-exist", 1, nil, nil)
	_, err := WatchContent(context.Background(), store, nil, nil)
	require.Error(t, err)
}
