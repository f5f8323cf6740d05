package cmd

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/dataprobe/internal/analysis"
)

const salesCSV = `region,units,price,note
N,1,2,fast delivery
S,2,4,late again
N,3,6,great value for money
S,4,8,ok
N,5,10,would buy again
S,6,12,box was damaged
N,7,14,five stars
S,8,16,meh
N,9,18,exactly as described
S,10,20,too small
`

// resetFlags restores every flag to its default so state from one
// invocation does not leak into the next.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// setupHome isolates the config directory and returns a scratch dir.
func setupHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })
	return home
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestProfileMarkdown(t *testing.T) {
	home := setupHome(t)
	path := writeFile(t, home, "sales.csv", salesCSV)

	out, err := runCmd(t, "profile", path, "--target", "price", "--format", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "[DATASET SUMMARY]\nFile: sales.csv\nRows: 10\nColumns: 4\n")
	assert.Contains(t, out, "[RELATIONSHIPS TO price]\n- region (Categorical): N=10(n=5), S=12(n=5)\n")
	assert.Contains(t, out, "- units (Integer): r=1.000 (pairs 10)\n")
	assert.Contains(t, out, "- Text: note\n")
}

func TestProfileWritesJSONFile(t *testing.T) {
	home := setupHome(t)
	path := writeFile(t, home, "sales.csv", salesCSV)
	outPath := filepath.Join(home, "out.json")

	out, err := runCmd(t, "profile", path, "-f", "json", "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Wrote report to "+outPath)

	b, err := os.ReadFile(outPath)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, float64(10), got["rows"])
	assert.Equal(t, "sales.csv", got["name"])
	assert.NotContains(t, got, "relationships")
}

func TestProfileRejectsBadFormat(t *testing.T) {
	home := setupHome(t)
	path := writeFile(t, home, "sales.csv", salesCSV)
	_, err := runCmd(t, "profile", path, "-f", "html")
	assert.ErrorContains(t, err, "unknown format")

	_, err = runCmd(t, "profile", filepath.Join(home, "notes.txt"))
	assert.Error(t, err)
}

func TestClassifyCommand(t *testing.T) {
	home := setupHome(t)
	path := writeFile(t, home, "sales.csv", salesCSV)

	out, err := runCmd(t, "classify", path, "-f", "markdown", "--workers", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "[CATEGORIES]\n- Integer: units, price\n- Categorical: region\n- Text: note\n")
	assert.NotContains(t, out, "[DATA QUALITY]")
}

func TestClassifyCategoricalFlag(t *testing.T) {
	home := setupHome(t)
	path := writeFile(t, home, "sales.csv", salesCSV)

	out, err := runCmd(t, "classify", path, "-f", "markdown", "--categorical", "units")
	require.NoError(t, err)
	assert.Contains(t, out, "- units: Categorical (category, missing 0.0%, unique 10)")
}

func TestQualityCommand(t *testing.T) {
	home := setupHome(t)
	path := writeFile(t, home, "sales.csv", salesCSV)

	out, err := runCmd(t, "quality", path, "-f", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "[DATA QUALITY]\n- missing: none\n- duplicate rows: 0\n- low variance: region\n")

	_, err = runCmd(t, "quality", path, "-f", "markdown", "--strict")
	assert.ErrorContains(t, err, "1 data quality findings")
}

func TestOutliersCommand(t *testing.T) {
	home := setupHome(t)
	path := writeFile(t, home, "v.csv", "label,v\na,1\nb,2\nc,3\nd,4\ne,5\nf,100\n")

	out, err := runCmd(t, "outliers", path, "--column", "v", "--show-rows", "-f", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "[OUTLIERS]\n- v by IQR: 1 rows outside -1.5..8.5: rows 5\n")
	assert.Contains(t, out, "row 5: label=f, v=100\n")

	out, err = runCmd(t, "outliers", path, "--column", "v", "--method", "z", "--z", "2", "-f", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "- v by Z-score: 1 rows outside")
	assert.NotContains(t, out, "row 5: label")

	_, err = runCmd(t, "outliers", path, "--column", "w")
	assert.ErrorIs(t, err, analysis.ErrNotFound)

	_, err = runCmd(t, "outliers", path, "--column", "label")
	assert.ErrorIs(t, err, analysis.ErrInvalidType)

	_, err = runCmd(t, "outliers", path)
	assert.ErrorContains(t, err, `required flag(s) "column" not set`)

	_, err = runCmd(t, "outliers", path, "--column", "v", "--method", "mad")
	assert.ErrorIs(t, err, analysis.ErrInvalidArgument)
}

func TestRelateCommand(t *testing.T) {
	home := setupHome(t)
	path := writeFile(t, home, "xy.csv", "x,y\n1,1\n2,2\n3,3\n4,4\n5,5\n6,100\n")

	out, err := runCmd(t, "relate", path, "--target", "y", "-f", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "[RELATIONSHIPS TO y]\n- x (Integer): r=")
	assert.NotContains(t, out, "Filtered:")

	out, err = runCmd(t, "relate", path, "--target", "y", "--drop-outliers", "iqr", "-f", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "Filtered: 1 IQR outlier rows removed\n")
	assert.Contains(t, out, "[NOTES]\n- dropped 1 IQR outlier rows")

	_, err = runCmd(t, "relate", path, "--target", "y", "--drop-outliers", "mad")
	assert.ErrorIs(t, err, analysis.ErrInvalidArgument)

	_, err = runCmd(t, "relate", path, "--target", "z")
	assert.ErrorIs(t, err, analysis.ErrNotFound)
}

func TestTextCommand(t *testing.T) {
	home := setupHome(t)
	path := writeFile(t, home, "sales.csv", salesCSV)

	out, err := runCmd(t, "text", path, "--column", "note", "-f", "json")
	require.NoError(t, err)
	var got struct {
		Text []analysis.TextStats `json:"text"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Text, 1)
	assert.Equal(t, 10, got.Text[0].Total)
	assert.InDelta(t, 2.3, got.Text[0].AvgWords, 1e-9)

	out, err = runCmd(t, "text", path, "-f", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "[TEXT]\n- note: total 10, empty 0, avg words 2.30")

	_, err = runCmd(t, "text", path, "--column", "units")
	assert.ErrorIs(t, err, analysis.ErrInvalidType)
}

func TestProfileSQLite(t *testing.T) {
	home := setupHome(t)
	dbPath := filepath.Join(home, "shop.db")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE orders (id INTEGER, city TEXT, amount REAL)`)
	require.NoError(t, err)
	for i, city := range []string{"Oslo", "Rome", "Oslo", "Rome", "Oslo", "Rome", "Oslo", "Rome"} {
		_, err = db.Exec(`INSERT INTO orders VALUES (?, ?, ?)`, i+1, city, float64(i+1)*1.5)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	out, err := runCmd(t, "profile-sql", "--driver", "sqlite3", "--dsn", dbPath,
		"--query", "SELECT id, city, amount FROM orders", "--target", "amount", "--name", "orders", "-f", "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "File: orders\nRows: 8\nColumns: 3\n")
	assert.Contains(t, out, "[RELATIONSHIPS TO amount]\n- id (Integer): r=1.000 (pairs 8)\n- city (Categorical): Oslo=")

	_, err = runCmd(t, "profile-sql", "--query", "SELECT 1")
	assert.ErrorContains(t, err, "--driver and --dsn are required")

	_, err = runCmd(t, "profile-sql", "--driver", "db2", "--dsn", "x", "--query", "SELECT 1")
	assert.ErrorContains(t, err, "unsupported data format")
}

func TestProfileBatch(t *testing.T) {
	home := setupHome(t)
	writeFile(t, home, "d1/metrics.csv", salesCSV)
	writeFile(t, home, "d2/metrics.csv", salesCSV)
	outDir := filepath.Join(home, "reports")

	out, err := runCmd(t, "profile-batch", filepath.Join(home, "d*", "metrics.csv"), "--out-dir", outDir, "-f", "markdown")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "✓ Wrote "))

	b1, err := os.ReadFile(filepath.Join(outDir, "metrics.md"))
	require.NoError(t, err)
	assert.Contains(t, string(b1), "[DATASET SUMMARY]\nFile: metrics.csv\n")
	_, err = os.Stat(filepath.Join(outDir, "metrics__2.md"))
	require.NoError(t, err)

	bad := writeFile(t, home, "notes.txt", "hello")
	out, err = runCmd(t, "profile-batch", bad, filepath.Join(home, "d1", "metrics.csv"), "--out-dir", outDir, "--quiet", "-f", "json")
	assert.ErrorContains(t, err, "1 of 2 files failed")
	assert.Empty(t, out)
	_, err = os.Stat(filepath.Join(outDir, "metrics.json"))
	require.NoError(t, err)

	_, err = runCmd(t, "profile-batch", filepath.Join(home, "nothing*.csv"))
	assert.ErrorContains(t, err, "no input files matched")
}

func TestExpandInputsDedup(t *testing.T) {
	home := t.TempDir()
	a := writeFile(t, home, "b.csv", "x\n1\n")
	b := writeFile(t, home, "a.csv", "x\n1\n")
	got := expandInputs([]string{a, filepath.Join(home, "*.csv"), filepath.Join(home, "missing.csv")})
	assert.Equal(t, []string{b, a}, got)
}

func TestConfigSetAndShow(t *testing.T) {
	home := setupHome(t)

	out, err := runCmd(t, "config", "set", "z_threshold", "2.5")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ Saved config")
	_, err = os.Stat(filepath.Join(home, ".dataprobe", "config.yaml"))
	require.NoError(t, err)

	out, err = runCmd(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "z_threshold: 2.5\n")

	_, err = runCmd(t, "config", "set", "colour", "red")
	assert.ErrorContains(t, err, "unknown key: colour")
}

func TestConfigDrivesDefaults(t *testing.T) {
	home := setupHome(t)
	path := writeFile(t, home, "v.csv", "label,v\na,1\nb,2\nc,3\nd,4\ne,5\nf,100\n")
	_, err := runCmd(t, "config", "set", "output_format", "markdown")
	require.NoError(t, err)
	_, err = runCmd(t, "config", "set", "outlier_method", "z-score")
	require.NoError(t, err)
	_, err = runCmd(t, "config", "set", "z_threshold", "2")
	require.NoError(t, err)

	out, err := runCmd(t, "outliers", path, "--column", "v")
	require.NoError(t, err)
	assert.Contains(t, out, "[OUTLIERS]\n- v by Z-score: 1 rows")
}

func TestLogLevelFlag(t *testing.T) {
	home := setupHome(t)
	path := writeFile(t, home, "sales.csv", salesCSV)
	_, err := runCmd(t, "classify", path, "--log-level", "loud")
	assert.ErrorContains(t, err, "invalid log level: loud")
}

func TestSetupLogging(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	var buf bytes.Buffer
	require.NoError(t, setupLogging(&buf, "debug", "json"))
	slog.Debug("probe", "rows", 3)
	assert.Contains(t, buf.String(), `"msg":"probe"`)
	assert.Contains(t, buf.String(), `"rows":3`)

	buf.Reset()
	require.NoError(t, setupLogging(&buf, "warn", "console"))
	slog.Info("hidden")
	assert.Empty(t, buf.String())

	assert.Error(t, setupLogging(&buf, "info", "xml"))
}
