package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/codegraph/internal/config"
	"github.com/standardbeagle/codegraph/internal/store"
)

func setupProject(t *testing.T) (*config.Config, *store.Store, context.Context) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".codegraph.kdl"), []byte(`
index {
    respect_gitignore false
}
performance {
    parallel_file_workers 2
}
`), 0o644))

	cfg, err := config.Load(dir)
	require.NoError(t, err)

	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return cfg, s, context.Background()
}

func writeGoFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIndexDirectoryIndexesGoFiles(t *testing.T) {
	cfg, s, ctx := setupProject(t)

	writeGoFile(t, cfg.Project.Root, "a.go", `package a

func Hello() string {
	return "hi"
}
`)
	writeGoFile(t, cfg.Project.Root, "b.go", `package a

func Caller() string {
	return Hello()
}
`)

	report, err := IndexDirectory(ctx, s, cfg)
	require.NoError(t, err)

	assert.Equal(t, 2, report.FilesScanned)
	assert.Equal(t, 2, report.FilesIndexed)
	assert.Zero(t, report.FilesFailed)
	assert.Greater(t, report.Nodes, 0)

	nodes, err := s.GetAllNodes(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, nodes)
}

func TestIndexDirectorySkipsUnchangedFilesOnSecondRun(t *testing.T) {
	cfg, s, ctx := setupProject(t)
	writeGoFile(t, cfg.Project.Root, "a.go", `package a

func Hello() string { return "hi" }
`)

	_, err := IndexDirectory(ctx, s, cfg)
	require.NoError(t, err)

	report, err := IndexDirectory(ctx, s, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilesScanned)
	assert.Equal(t, 0, report.FilesIndexed)
	assert.Equal(t, 1, report.FilesUnchanged)
}

func TestIndexDirectoryReindexesChangedFile(t *testing.T) {
	cfg, s, ctx := setupProject(t)
	path := writeGoFile(t, cfg.Project.Root, "a.go", `package a

func Hello() string { return "hi" }
`)

	_, err := IndexDirectory(ctx, s, cfg)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte(`package a

func Hello() string { return "hi" }

func World() string { return "world" }
`), 0o644))

	report, err := IndexDirectory(ctx, s, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilesIndexed)
	assert.Equal(t, 0, report.FilesUnchanged)
}

func TestIndexDirectoryRemovesDeletedFiles(t *testing.T) {
	cfg, s, ctx := setupProject(t)
	path := writeGoFile(t, cfg.Project.Root, "a.go", `package a

func Hello() string { return "hi" }
`)

	_, err := IndexDirectory(ctx, s, cfg)
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	report, err := IndexDirectory(ctx, s, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, report.FilesScanned)

	files, err := s.GetIndexedFiles(ctx)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestIndexDirectorySkipsExcludedDirectories(t *testing.T) {
	cfg, s, ctx := setupProject(t)
	cfg.Exclude = append(cfg.Exclude, "**/vendor/**")

	writeGoFile(t, cfg.Project.Root, "a.go", `package a

func Hello() string { return "hi" }
`)
	vendorDir := filepath.Join(cfg.Project.Root, "vendor")
	require.NoError(t, os.MkdirAll(vendorDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(vendorDir, "dep.go"), []byte(`package vendor

func Unused() {}
`), 0o644))

	report, err := IndexDirectory(ctx, s, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, report.FilesScanned)
	assert.Equal(t, 1, report.FilesIndexed)
}
