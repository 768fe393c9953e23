package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kidopedia/kidopedia/internal/config"
	"github.com/kidopedia/kidopedia/internal/contentfilter"
	"github.com/kidopedia/kidopedia/internal/entrypoint"
	"github.com/kidopedia/kidopedia/internal/logger"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

const seedJSON = `[
  {"word": "apple", "phonetic": "/ˈæp.əl/", "meanings": [{"partOfSpeech": "noun", "definitions": [{"definition": "A round fruit with red or green skin.", "example": "I ate an apple."}]}], "translations": {"kn": "ಸೇಬು", "hi": "सेब"}},
  {"word": "apricot", "meanings": [{"partOfSpeech": "noun", "definitions": [{"definition": "A small orange fruit."}]}]}
]`

func offlineConfig() *config.Config {
	cfg := config.FromViper(viper.New())
	cfg.Remote.BaseURL = ""
	cfg.Dictionary.FunctionURL = ""
	cfg.Tasks.Enabled = false
	return cfg
}

func runCommand(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand(&rootOptions{version: "test", loadConfig: offlineConfig})
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs(append([]string{"--db", dbPath, "--log-mode", "quiet"}, args...))
	err := root.Execute()
	return buf.String(), err
}

func seededDB(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	seedPath := filepath.Join(dir, "seed.json")
	require.NoError(t, os.WriteFile(seedPath, []byte(seedJSON), 0o644))

	dbPath := filepath.Join(dir, "kidopedia.db")
	out, err := runCommand(t, dbPath, "seed", "--file", seedPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Loaded 2 words")
	return dbPath
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand("1.0.0")

	assert.Equal(t, "kidopedia", cmd.Use)
	assert.Equal(t, "1.0.0", cmd.Version)
	for _, name := range []string{"serve", "sync", "lookup", "search", "status", "seed", "cache", "profiles"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("db"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-mode"))
}

func TestRootOptions_ConfigOverrides(t *testing.T) {
	opts := &rootOptions{loadConfig: offlineConfig, databasePath: "/tmp/x.db", logMode: "quiet"}
	cfg := opts.config()
	assert.Equal(t, "/tmp/x.db", cfg.Database.Path)
	assert.Equal(t, "quiet", cfg.Log.Mode)

	opts = &rootOptions{loadConfig: offlineConfig}
	cfg = opts.config()
	assert.Equal(t, config.DefaultDatabasePath, cfg.Database.Path)
}

func TestLookupCommand(t *testing.T) {
	dbPath := seededDB(t)

	t.Run("local word", func(t *testing.T) {
		out, err := runCommand(t, dbPath, "lookup", "Apple", "--age", "6")
		require.NoError(t, err)
		assert.Contains(t, out, "apple")
		assert.Contains(t, out, "A round fruit with red or green skin.")
		assert.Contains(t, out, "Kannada: ಸೇಬು")
		assert.Contains(t, out, "source: local")
	})

	t.Run("blocked word", func(t *testing.T) {
		out, err := runCommand(t, dbPath, "lookup", "gun", "--age", "6")
		require.NoError(t, err)
		assert.Contains(t, out, contentfilter.BlockedMessage(6))
	})

	t.Run("unknown word offline", func(t *testing.T) {
		out, err := runCommand(t, dbPath, "lookup", "zyzzyva", "--age", "6")
		require.NoError(t, err)
		assert.Contains(t, out, `No definition found for "zyzzyva"`)
	})

	t.Run("requires a word", func(t *testing.T) {
		_, err := runCommand(t, dbPath, "lookup")
		assert.Error(t, err)
	})
}

func TestSearchCommand(t *testing.T) {
	dbPath := seededDB(t)

	out, err := runCommand(t, dbPath, "search", "ap", "--age", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "apple")
	assert.Contains(t, out, "apricot")
	assert.Contains(t, out, "2 result(s)")

	out, err = runCommand(t, dbPath, "search", "zz", "--age", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "No words found")
}

func TestStatusCommand(t *testing.T) {
	dbPath := seededDB(t)

	out, err := runCommand(t, dbPath, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "offline-only")
	assert.Contains(t, out, "Seed words:      yes")
	assert.Contains(t, out, "Words stored:    2")
}

func TestSyncCommand_Offline(t *testing.T) {
	_, err := runCommand(t, filepath.Join(t.TempDir(), "kidopedia.db"), "sync")
	assert.ErrorIs(t, err, errOffline)
}

func TestCacheCommands(t *testing.T) {
	dbPath := seededDB(t)

	out, err := runCommand(t, dbPath, "cache", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 2 words")

	out, err = runCommand(t, dbPath, "lookup", "apple", "--age", "6")
	require.NoError(t, err)
	assert.Contains(t, out, `No definition found for "apple"`)

	out, err = runCommand(t, dbPath, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Words stored:    0")
}

func TestProfilesCommands(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "kidopedia.db")

	out, err := runCommand(t, dbPath, "profiles", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No profiles yet")

	out, err = runCommand(t, dbPath, "profiles", "add", "--name", "Nia", "--age", "7", "--gender", "girl")
	require.NoError(t, err)
	assert.Contains(t, out, "Created profile Nia")

	_, err = runCommand(t, dbPath, "profiles", "add", "--name", "Old", "--age", "40")
	assert.Error(t, err)

	cfg := offlineConfig()
	cfg.Database.Path = dbPath
	app, err := entrypoint.Build(cfg, logger.Nop())
	require.NoError(t, err)
	list, err := app.Profiles.List()
	require.NoError(t, err)
	require.NoError(t, app.Close())
	require.Len(t, list, 1)
	id := list[0].ID

	out, err = runCommand(t, dbPath, "profiles", "use", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Active profile: Nia (age 7)")

	out, err = runCommand(t, dbPath, "profiles", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "* "+id)
	assert.Contains(t, out, "(not backed up)")

	out, err = runCommand(t, dbPath, "profiles", "use", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "No active profile")

	_, err = runCommand(t, dbPath, "profiles", "use")
	assert.Error(t, err)

	_, err = runCommand(t, dbPath, "profiles", "push")
	assert.ErrorIs(t, err, errOffline)

	out, err = runCommand(t, dbPath, "profiles", "remove", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed profile")

	out, err = runCommand(t, dbPath, "profiles", "list")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "No profiles yet"))
}

func TestLookupCommand_TracksProfileView(t *testing.T) {
	dbPath := seededDB(t)

	_, err := runCommand(t, dbPath, "profiles", "add", "--name", "Ravi", "--age", "6", "--gender", "boy")
	require.NoError(t, err)

	cfg := offlineConfig()
	cfg.Database.Path = dbPath
	app, err := entrypoint.Build(cfg, logger.Nop())
	require.NoError(t, err)
	list, err := app.Profiles.List()
	require.NoError(t, err)
	require.NoError(t, app.Close())
	require.Len(t, list, 1)

	out, err := runCommand(t, dbPath, "lookup", "apple", "--profile", list[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "New word for Ravi!")

	out, err = runCommand(t, dbPath, "lookup", "apple", "--profile", list[0].ID)
	require.NoError(t, err)
	assert.NotContains(t, out, "New word")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghijkl", 7))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "5", formatPercent(5, 0))
	assert.Equal(t, "5/20 (25%)", formatPercent(5, 20))
}
