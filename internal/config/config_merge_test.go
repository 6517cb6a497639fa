package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeConfigsExclusionsUnion(t *testing.T) {
	base := &Config{
		Exclude: []string{"**/node_modules/**", "**/vendor/**", "**/real_projects/**"},
	}
	project := &Config{
		Exclude: []string{"**/dist/**", "**/build/**"},
	}

	merged := mergeConfigs(base, project)

	assert.Contains(t, merged.Exclude, "**/node_modules/**")
	assert.Contains(t, merged.Exclude, "**/vendor/**")
	assert.Contains(t, merged.Exclude, "**/real_projects/**")
	assert.Contains(t, merged.Exclude, "**/dist/**")
	assert.Contains(t, merged.Exclude, "**/build/**")
	assert.Len(t, merged.Exclude, 5)
}

func TestMergeConfigsExclusionsDeduplicate(t *testing.T) {
	base := &Config{Exclude: []string{"**/node_modules/**", "**/vendor/**"}}
	project := &Config{Exclude: []string{"**/node_modules/**", "**/dist/**"}}

	merged := mergeConfigs(base, project)

	assert.Len(t, merged.Exclude, 3)
	assert.Contains(t, merged.Exclude, "**/node_modules/**")
	assert.Contains(t, merged.Exclude, "**/vendor/**")
	assert.Contains(t, merged.Exclude, "**/dist/**")
}

func TestMergeConfigsIncludeProjectOverridesBase(t *testing.T) {
	base := &Config{Include: []string{"*.go", "*.js"}}
	project := &Config{Include: []string{"*.py", "*.ts"}}

	merged := mergeConfigs(base, project)

	assert.Equal(t, project.Include, merged.Include)
}

func TestMergeConfigsIncludeFallsBackToBaseWhenProjectEmpty(t *testing.T) {
	base := &Config{Include: []string{"*.go", "*.js"}}
	project := &Config{Include: []string{}}

	merged := mergeConfigs(base, project)

	assert.Equal(t, base.Include, merged.Include)
}

func TestMergeConfigsProjectScalarsTakePrecedence(t *testing.T) {
	base := &Config{
		Index:       Index{MaxFileSize: 1024 * 1024},
		Performance: Performance{ParallelFileWorkers: 2},
	}
	project := &Config{
		Index:       Index{MaxFileSize: 10 * 1024 * 1024},
		Performance: Performance{ParallelFileWorkers: 8},
	}

	merged := mergeConfigs(base, project)

	assert.Equal(t, int64(10*1024*1024), merged.Index.MaxFileSize)
	assert.Equal(t, 8, merged.Performance.ParallelFileWorkers)
}

func TestMergeConfigsEmptyBaseExclusions(t *testing.T) {
	base := &Config{Exclude: []string{}}
	project := &Config{Exclude: []string{"**/dist/**"}}

	merged := mergeConfigs(base, project)

	assert.Equal(t, project.Exclude, merged.Exclude)
}

func TestMergeConfigsBoolFlagsOnlyWidenTrue(t *testing.T) {
	base := &Config{Index: Index{RespectGitignore: true}}
	project := &Config{Index: Index{FollowSymlinks: true}}

	merged := mergeConfigs(base, project)

	assert.True(t, merged.Index.RespectGitignore, "base true must survive a project that didn't set it")
	assert.True(t, merged.Index.FollowSymlinks, "project true must be picked up")
}

func withHome(t *testing.T, dir string) {
	t.Helper()
	original, had := os.LookupEnv("HOME")
	require.NoError(t, os.Setenv("HOME", dir))
	t.Cleanup(func() {
		if had {
			os.Setenv("HOME", original)
		} else {
			os.Unsetenv("HOME")
		}
	})
}

func TestLoadWithRootMergesGlobalAndProjectConfigs(t *testing.T) {
	tmpHome := t.TempDir()
	tmpProject := t.TempDir()

	globalConfig := `
exclude {
    "**/node_modules/**"
    "**/vendor/**"
    "**/real_projects/**"
}

index {
    max_file_size "5MB"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpHome, ".codegraph.kdl"), []byte(globalConfig), 0o644))

	projectConfig := `
project {
    name "test-project"
}

exclude {
    "**/dist/**"
    "**/build/**"
}

index {
    max_file_size "10MB"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpProject, ".codegraph.kdl"), []byte(projectConfig), 0o644))

	withHome(t, tmpHome)

	cfg, err := Load(tmpProject)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Contains(t, cfg.Exclude, "**/node_modules/**")
	assert.Contains(t, cfg.Exclude, "**/vendor/**")
	assert.Contains(t, cfg.Exclude, "**/real_projects/**")
	assert.Contains(t, cfg.Exclude, "**/dist/**")
	assert.Contains(t, cfg.Exclude, "**/build/**")

	assert.Equal(t, int64(10*1024*1024), cfg.Index.MaxFileSize, "project max_file_size should override global")
	assert.Equal(t, "test-project", cfg.Project.Name)
}

func TestLoadWithRootProjectConfigOnly(t *testing.T) {
	tmpProject := t.TempDir()

	projectConfig := `
project {
    name "test-project"
}

exclude {
    "**/dist/**"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpProject, ".codegraph.kdl"), []byte(projectConfig), 0o644))
	withHome(t, filepath.Join(t.TempDir(), "no-such-home"))

	cfg, err := Load(tmpProject)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Contains(t, cfg.Exclude, "**/dist/**")
	assert.Equal(t, "test-project", cfg.Project.Name)
}

func TestLoadWithRootGlobalConfigOnly(t *testing.T) {
	tmpHome := t.TempDir()
	tmpProject := t.TempDir()

	globalConfig := `
exclude {
    "**/node_modules/**"
    "**/real_projects/**"
}
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpHome, ".codegraph.kdl"), []byte(globalConfig), 0o644))
	withHome(t, tmpHome)

	cfg, err := Load(tmpProject)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Contains(t, cfg.Exclude, "**/node_modules/**")
	assert.Contains(t, cfg.Exclude, "**/real_projects/**")
}

func TestLoadDefaultConfigFallback(t *testing.T) {
	tmpProject := t.TempDir()
	withHome(t, filepath.Join(t.TempDir(), "no-such-home"))

	cfg, err := Load(tmpProject)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.NotEmpty(t, cfg.Exclude, "should have default exclusions")
	assert.Empty(t, cfg.Include, "default Include is empty: include everything, filtered only by Exclude")
}

func TestMergeConfigsPreservesBaseExclusionsWhenProjectHasNone(t *testing.T) {
	base := &Config{
		Exclude: []string{"**/real_projects/**", "**/testing/**", "**/testdata/**"},
	}
	project := &Config{
		Project: Project{Name: "test-project"},
		Exclude: []string{},
	}

	merged := mergeConfigs(base, project)

	assert.Contains(t, merged.Exclude, "**/real_projects/**")
	assert.Contains(t, merged.Exclude, "**/testing/**")
	assert.Contains(t, merged.Exclude, "**/testdata/**")
}
