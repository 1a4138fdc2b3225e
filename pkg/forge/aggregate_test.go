package forge

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"forgecat/pkg/config"
	"forgecat/pkg/ignore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func testConfig(t *testing.T, project, working string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		ProjectRoot: project,
		WorkingRoot: working,
		Exclude:     append([]string(nil), config.DefaultExclude...),
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func readOutput(t *testing.T, cfg *config.Config) string {
	t.Helper()
	data, err := os.ReadFile(cfg.OutputFile())
	require.NoError(t, err)
	return string(data)
}

func TestAggregateExplicitMode(t *testing.T) {
	project, working := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(project, "a.txt"), "alpha")
	writeFile(t, filepath.Join(project, "docs", "b.md"), "beta")
	writeFile(t, filepath.Join(working, "notes.txt"), "gamma")
	writeFile(t, filepath.Join(working, config.InputFileName), "\n  a.txt  \nmissing.txt\n\n@forge notes.txt\ndocs\n")

	core, logs := observer.New(zap.WarnLevel)
	cfg := testConfig(t, project, working)
	agg := NewAggregatorWith(cfg, ignore.New(cfg.Exclude, nil), NoRevisions, zap.New(core))

	require.NoError(t, agg.Run(context.Background()))

	want := BuildReport([]string{
		FormatCurrent("a.txt", "alpha"),
		FormatCurrent("notes.txt", "gamma"),
		FormatCurrent("b.md", "beta"),
	})
	assert.Equal(t, want, readOutput(t, cfg))

	notFound := logs.FilterMessage("Path not found").All()
	require.Len(t, notFound, 1)
	assert.Equal(t, filepath.Join(project, "missing.txt"), notFound[0].ContextMap()["path"])
}

func TestAggregateOrderAcrossEntries(t *testing.T) {
	project, working := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(project, "A", "1.txt"), "a1")
	writeFile(t, filepath.Join(project, "A", "2.txt"), "a2")
	writeFile(t, filepath.Join(project, "B.txt"), "b1")
	writeFile(t, filepath.Join(project, "C", "1.txt"), "c1")
	writeFile(t, filepath.Join(project, "C", "2.txt"), "c2")
	writeFile(t, filepath.Join(project, "C", "3.txt"), "c3")
	writeFile(t, filepath.Join(working, config.InputFileName), "A\nB.txt\nC\n")

	for _, size := range []int{1, 2, 10} {
		cfg := testConfig(t, project, working)
		cfg.BatchSize = size
		agg := NewAggregatorWith(cfg, ignore.New(cfg.Exclude, nil), NoRevisions, nil)

		blocks, err := agg.Collect(context.Background())
		require.NoError(t, err)

		var bodies []string
		for _, b := range blocks {
			lines := strings.Split(strings.TrimSpace(b), "\n")
			bodies = append(bodies, lines[len(lines)-1])
		}
		assert.Equal(t, []string{"- a1", "- a2", "- b1", "- c1", "- c2", "- c3"}, bodies, "batch size %d", size)
	}
}

func TestAggregateMissingInputFile(t *testing.T) {
	project, working := t.TempDir(), t.TempDir()
	cfg := testConfig(t, project, working)
	core, logs := observer.New(zap.ErrorLevel)
	agg := NewAggregatorWith(cfg, ignore.New(cfg.Exclude, nil), NoRevisions, zap.New(core))

	err := agg.Run(context.Background())
	require.ErrorIs(t, err, ErrInputNotFound)
	assert.Zero(t, logs.Len(), "returned errors are logged by the caller")

	_, statErr := os.Stat(cfg.OutputFile())
	assert.True(t, os.IsNotExist(statErr), "no output must be written")
}

func TestAggregateCanceledRun(t *testing.T) {
	project, working := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(project, "a.txt"), "alpha")
	writeFile(t, filepath.Join(working, config.InputFileName), "a.txt\n")
	cfg := testConfig(t, project, working)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	core, logs := observer.New(zap.ErrorLevel)
	agg := NewAggregatorWith(cfg, ignore.New(cfg.Exclude, nil), NoRevisions, zap.New(core))

	err := agg.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, logs.Len())

	_, statErr := os.Stat(cfg.OutputFile())
	assert.True(t, os.IsNotExist(statErr))
}

func TestAggregateOverwritesOutput(t *testing.T) {
	project, working := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(project, "a.txt"), "alpha")
	writeFile(t, filepath.Join(working, config.InputFileName), "a.txt\n")
	writeFile(t, filepath.Join(working, config.OutputFileName), strings.Repeat("stale ", 100))

	cfg := testConfig(t, project, working)
	agg := NewAggregatorWith(cfg, ignore.New(cfg.Exclude, nil), NoRevisions, nil)
	require.NoError(t, agg.Run(context.Background()))

	assert.Equal(t, BuildReport([]string{FormatCurrent("a.txt", "alpha")}), readOutput(t, cfg))
}

func TestAggregateAutoScanMode(t *testing.T) {
	project, working := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(working, "a.js"), "let a")
	writeFile(t, filepath.Join(working, "b.js"), "let b")
	writeFile(t, filepath.Join(working, "empty.js"), "")
	writeFile(t, filepath.Join(working, "nested", "c.js"), "let c")
	writeFile(t, filepath.Join(working, "package-lock.json"), "{}")
	writeFile(t, filepath.Join(working, config.InputFileName), "ignored in auto-scan")
	writeFile(t, filepath.Join(working, config.OutputFileName), "previous report")
	writeFile(t, filepath.Join(working, config.KeywordsFileName), `{"secret":"X"}`)

	cfg := testConfig(t, project, working)
	cfg.AutoScan = true
	agg := NewAggregatorWith(cfg, ignore.New(cfg.Exclude, nil), NoRevisions, nil)
	require.NoError(t, agg.Run(context.Background()))

	want := BuildReport([]string{
		FormatCurrent("a.js", "let a"),
		FormatCurrent("b.js", "let b"),
	})
	assert.Equal(t, want, readOutput(t, cfg))
}

func TestAggregateWithGitHistory(t *testing.T) {
	project := initRepo(t)
	working := t.TempDir()
	commitFile(t, project, "f.txt", "hi\n")
	writeFile(t, filepath.Join(project, "f.txt"), "hello\n")
	writeFile(t, filepath.Join(project, "untracked.txt"), "new\n")
	writeFile(t, filepath.Join(working, config.InputFileName), "f.txt\nuntracked.txt\n")

	cfg := testConfig(t, project, working)
	agg, err := NewAggregator(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, agg.Run(context.Background()))

	out := readOutput(t, cfg)
	current := "----> [f.txt]:\n\n- hello\n\n"
	previous := "----> [Previous Committed - f.txt]:\n\n- hi\n\n"

	assert.True(t, strings.HasPrefix(out, "START\n---\n"))
	assert.True(t, strings.HasSuffix(out, "---\nEND\n"))
	require.Contains(t, out, current)
	require.Contains(t, out, previous)
	assert.Less(t, strings.Index(out, current), strings.Index(out, previous))
	assert.Contains(t, out, "----> [untracked.txt]:\n\n- new\n\n")
	assert.NotContains(t, out, "Previous Committed - untracked.txt")
}

func TestAggregateForgeIgnoreFile(t *testing.T) {
	project, working := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(project, "src", "app.js"), "app")
	writeFile(t, filepath.Join(project, "src", "app.test.js"), "test")
	writeFile(t, filepath.Join(working, config.IgnoreFileName), "# tests stay out\n*.test.js\n")
	writeFile(t, filepath.Join(working, config.InputFileName), "src\n")

	cfg := testConfig(t, project, working)
	agg, err := NewAggregator(cfg, nil)
	require.NoError(t, err)

	blocks, err := agg.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{FormatCurrent("app.js", "app")}, blocks)
}
