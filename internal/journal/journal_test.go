// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pagemill/pkg/types"
)

func testJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "staging"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestOpenCreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "staging")
	j, err := Open(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, DBFile), j.Path())
	require.NoError(t, j.Close())

	// Reopening an existing journal keeps the schema intact.
	j, err = Open(dir)
	require.NoError(t, err)
	defer j.Close()
	runs, err := j.Recent(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunLifecycle(t *testing.T) {
	ctx := context.Background()
	j := testJournal(t)

	id, err := j.BeginRun(ctx, "novel.yaml", types.RunOptions{Force: true})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.NoError(t, j.RecordPage(ctx, id, PageRecord{Index: 1, Kind: "image", Source: "inks/p001.kra", Staged: "page_001.tif", Digest: "bb"}))
	require.NoError(t, j.RecordPage(ctx, id, PageRecord{Index: 0, Kind: "frontmatter", Staged: "page_000.tif", Digest: "aa"}))
	// Recording the same index again replaces the entry.
	require.NoError(t, j.RecordPage(ctx, id, PageRecord{Index: 1, Kind: "image", Source: "inks/p001.kra", Staged: "page_001.tif", Digest: "cc"}))
	require.NoError(t, j.FinishRun(ctx, id, 2, true))

	runs, err := j.Recent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)

	r := runs[0]
	assert.Equal(t, id, r.ID)
	assert.Equal(t, "novel.yaml", r.Project)
	assert.True(t, r.Force)
	assert.False(t, r.PDFOnly)
	assert.Equal(t, 2, r.Rendered)
	assert.True(t, r.Assembled)
	assert.False(t, r.StartedAt.IsZero())
	assert.False(t, r.FinishedAt.IsZero())

	require.Len(t, r.Pages, 2)
	assert.Equal(t, 0, r.Pages[0].Index)
	assert.Equal(t, "frontmatter", r.Pages[0].Kind)
	assert.Equal(t, "", r.Pages[0].Source)
	assert.Equal(t, 1, r.Pages[1].Index)
	assert.Equal(t, "cc", r.Pages[1].Digest)
	assert.False(t, r.Pages[1].RenderedAt.IsZero())
}

func TestRecentOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	j := testJournal(t)

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := j.BeginRun(ctx, "novel.yaml", types.RunOptions{})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	runs, err := j.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, ids[2], runs[0].ID)
	assert.Equal(t, ids[1], runs[1].ID)
	assert.True(t, runs[0].FinishedAt.IsZero(), "unfinished run has no finish time")
	assert.Empty(t, runs[0].Pages)
}

func TestFinishUnknownRun(t *testing.T) {
	j := testJournal(t)
	err := j.FinishRun(context.Background(), "no-such-run", 0, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown run")
}

func TestRecordPageRequiresRun(t *testing.T) {
	j := testJournal(t)
	err := j.RecordPage(context.Background(), "no-such-run", PageRecord{Index: 0, Kind: "blank", Staged: "page_000.tif", Digest: "aa"})
	require.Error(t, err, "foreign keys are enforced")
}
