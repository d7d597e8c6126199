package chromemdb

import (
	"context"
	"testing"

	"document-testset/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testChunks = []models.Chunk{
	{Content: "GST is charged on supplies of goods.", PageNumber: 1, ChunkID: 0},
	{Content: "Returns are filed every month.", PageNumber: 1, ChunkID: 1},
	{Content: "Late payment attracts interest.", PageNumber: 2, ChunkID: 2},
}

var testVectors = [][]float32{
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 2},
}

func newTestManager(t *testing.T) *VectorDBManager {
	t.Helper()
	m, err := NewVectorDBManager(t.TempDir(), "test_chunks", true, "", nil)
	require.NoError(t, err)
	return m
}

func Test_AddChunks_Count(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	require.NoError(t, m.AddChunks(ctx, testChunks, testVectors))

	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(testChunks), n)
}

func Test_AddChunks_MismatchedVectors(t *testing.T) {
	m := newTestManager(t)
	err := m.AddChunks(context.Background(), testChunks, testVectors[:2])
	assert.ErrorContains(t, err, "2 embeddings for 3 chunks")
}

func Test_Search(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	require.NoError(t, m.AddChunks(ctx, testChunks, testVectors))

	res, err := m.Search(ctx, []float32{0, 0.1, 3}, 2)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, 2, res[0].ChunkID)
	assert.Equal(t, 2, res[0].PageNumber)
	assert.Equal(t, "Late payment attracts interest.", res[0].Content)
	assert.Equal(t, 1, res[1].ChunkID)
	assert.Greater(t, res[0].Similarity, res[1].Similarity)
}

func Test_Search_ClampsToCount(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)

	res, err := m.Search(ctx, []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, res)

	require.NoError(t, m.AddChunks(ctx, testChunks, testVectors))
	res, err = m.Search(ctx, []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, res, 3)

	_, err = m.Search(ctx, nil, 1)
	assert.Error(t, err)
}

func Test_Export(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	require.NoError(t, m.AddChunks(ctx, testChunks, testVectors))

	require.NoError(t, m.Export())
	assert.FileExists(t, m.filePath)
}

func Test_PersistentDB(t *testing.T) {
	ctx := context.Background()
	m, err := NewVectorDBManager(t.TempDir(), "persisted", false, "", nil)
	require.NoError(t, err)
	require.NoError(t, m.AddChunks(ctx, testChunks, testVectors))

	n, err := m.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.NoError(t, m.DeleteCollection())
}

func Test_PersistentDB_ResetBetweenRuns(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := NewVectorDBManager(dir, "persisted", false, "", nil)
	require.NoError(t, err)
	require.NoError(t, first.Reset(ctx))
	require.NoError(t, first.AddChunks(ctx, testChunks, testVectors))

	second, err := NewVectorDBManager(dir, "persisted", false, "", nil)
	require.NoError(t, err)
	n, err := second.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n, "documents from the first run are persisted")

	require.NoError(t, second.Reset(ctx))
	require.NoError(t, second.AddChunks(ctx, testChunks[:1], testVectors[:1]))
	n, err = second.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	res, err := second.Search(ctx, []float32{0, 0, 1}, 5)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, 0, res[0].ChunkID)
}

func Test_Normalize(t *testing.T) {
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, normalize([]float32{3, 4}), 1e-6)
	assert.Equal(t, []float32{0, 0}, normalize([]float32{0, 0}))
}
