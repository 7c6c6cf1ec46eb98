package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// resetFlags restores every flag of c and its subcommands to its default so
// values do not leak between invocations of the shared root command.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

func execCmd(args ...string) error {
	resetFlags(rootCmd)
	cfg = nil
	logger = zap.NewNop()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) {
	t.Helper()
	if err := execCmd(args...); err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
}

// tempHome isolates config, workspaces and cache under a fresh HOME.
func tempHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

// writeOrders writes 14 daily orders: 100 for the first week, 200 for the second.
func writeOrders(t *testing.T, path string) {
	t.Helper()
	var b strings.Builder
	b.WriteString("order_date,customer_id,product_name,quantity,order_amount\n")
	for i := 0; i < 14; i++ {
		amount := 100
		if i >= 7 {
			amount = 200
		}
		fmt.Fprintf(&b, "2024-01-%02d,c%d,%s,2,%d\n", i+1, i%5, []string{"Widget", "Gadget"}[i%2], amount)
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func readJSON(t *testing.T, path string, v any) {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(b, v))
}

func TestCLI_Init_Import_List_Analyze(t *testing.T) {
	home := tempHome(t)
	csvPath := filepath.Join(home, "orders.csv")
	writeOrders(t, csvPath)

	runCmd(t, "init", "sales", "-d", "q1 exports")
	runCmd(t, "import", csvPath, "-w", "sales", "--desc", "january")
	runCmd(t, "list", "-w", "sales")

	// Re-initializing the same workspace must fail.
	require.Error(t, execCmd("init", "sales"))

	mdPath := filepath.Join(home, "out", "analysis.md")
	runCmd(t, "analyze", "orders.csv", "-w", "sales", "--tz", "UTC", "-o", mdPath)
	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	require.Contains(t, string(md), "[KPIS]")
	require.Contains(t, string(md), "- Total sales: $2100.00")
	require.Contains(t, string(md), "[ANOMALIES]")

	jsonPath := filepath.Join(home, "out", "analysis.json")
	runCmd(t, "analyze", "orders.csv", "-w", "sales", "--tz", "UTC", "--json", "-o", jsonPath)
	var res struct {
		Rows int `json:"rows"`
		KPIs struct {
			TotalSales  float64 `json:"total_sales"`
			TotalOrders int     `json:"total_orders"`
		} `json:"kpis"`
		Anomalies []struct {
			Key string `json:"key"`
		} `json:"anomalies"`
	}
	readJSON(t, jsonPath, &res)
	require.Equal(t, 14, res.Rows)
	require.Equal(t, 2100.0, res.KPIs.TotalSales)
	require.Equal(t, 14, res.KPIs.TotalOrders)
	require.NotEmpty(t, res.Anomalies)
}

func TestCLI_DefaultWorkspaceCreatedOnImport(t *testing.T) {
	home := tempHome(t)
	csvPath := filepath.Join(home, "orders.csv")
	writeOrders(t, csvPath)

	runCmd(t, "import", csvPath, "--name", "jan")
	dir, err := resolveWorkspaceDirByName(defaultWorkspace)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(dir, "workspace.json"))

	runCmd(t, "remove", "jan")
	require.Error(t, execCmd("analyze", "jan"))
}

func TestCLI_WorkspaceFromCurrentDir(t *testing.T) {
	home := tempHome(t)
	csvPath := filepath.Join(home, "orders.csv")
	writeOrders(t, csvPath)

	runCmd(t, "init", "sales")
	runCmd(t, "import", csvPath, "-w", "sales", "--name", "jan")
	dir, err := resolveWorkspaceDirByName("sales")
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(filepath.Join(dir, "datasets")))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	out := filepath.Join(home, "jan.json")
	runCmd(t, "analyze", "jan", "--tz", "UTC", "--json", "-o", out)
	var res struct {
		DatasetName string `json:"dataset_name"`
		Rows        int    `json:"rows"`
	}
	readJSON(t, out, &res)
	require.Equal(t, "jan", res.DatasetName)
	require.Equal(t, 14, res.Rows)

	w, err := openWorkspace("")
	require.NoError(t, err)
	require.Equal(t, "sales", w.Name)
}

func TestCLI_ImportMissingWorkspace(t *testing.T) {
	home := tempHome(t)
	csvPath := filepath.Join(home, "orders.csv")
	writeOrders(t, csvPath)

	err := execCmd("import", csvPath, "-w", "nope")
	require.Error(t, err)
	require.Contains(t, err.Error(), "workspace not found")
}

func TestCLI_ForecastAndAlerts(t *testing.T) {
	home := tempHome(t)
	csvPath := filepath.Join(home, "orders.csv")
	writeOrders(t, csvPath)

	fcPath := filepath.Join(home, "forecast.json")
	runCmd(t, "forecast", csvPath, "--tz", "UTC", "--days", "3", "--json", "-o", fcPath)
	var fc struct {
		Mode        string `json:"mode"`
		Horizon     int    `json:"horizon"`
		Predictions []struct {
			Date string `json:"date"`
		} `json:"predictions"`
	}
	readJSON(t, fcPath, &fc)
	require.Equal(t, "ensemble", fc.Mode)
	require.Equal(t, 3, fc.Horizon)
	require.Len(t, fc.Predictions, 3)
	require.Equal(t, "2024-01-15", fc.Predictions[0].Date)

	// Seeded jitter is reproducible.
	a := filepath.Join(home, "a.json")
	b := filepath.Join(home, "b.json")
	runCmd(t, "forecast", csvPath, "--tz", "UTC", "--jitter", "--seed", "42", "--json", "-o", a)
	runCmd(t, "forecast", csvPath, "--tz", "UTC", "--jitter", "--seed", "42", "--json", "-o", b)
	var fa, fb struct {
		Predictions []struct {
			Value float64 `json:"value"`
		} `json:"predictions"`
	}
	readJSON(t, a, &fa)
	readJSON(t, b, &fb)
	require.Equal(t, fa.Predictions, fb.Predictions)

	thr := filepath.Join(home, "thresholds.yaml")
	require.NoError(t, os.WriteFile(thr, []byte("order_count:\n  min: 50\n  level: critical\n"), 0o644))
	alPath := filepath.Join(home, "alerts.md")
	runCmd(t, "alerts", csvPath, "--tz", "UTC", "--thresholds", thr, "-o", alPath)
	body, err := os.ReadFile(alPath)
	require.NoError(t, err)
	require.Contains(t, string(body), "[HEALTH]")
	require.Contains(t, string(body), "Threshold Alert: order_count")
}

func TestCLI_ForecastTooShort(t *testing.T) {
	home := tempHome(t)
	csvPath := filepath.Join(home, "short.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("order_date,order_amount\n2024-01-01,10\n2024-01-02,12\n"), 0o644))

	require.Error(t, execCmd("forecast", csvPath, "--mode", "short"))
}

func TestCLI_StrictRoles(t *testing.T) {
	home := tempHome(t)
	csvPath := filepath.Join(home, "odd.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("when,amount\n2024-01-01,10\n2024-01-02,12\n"), 0o644))

	out := filepath.Join(home, "odd.md")
	runCmd(t, "analyze", csvPath, "-o", out)
	body, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(body), "(fallback)")

	err = execCmd("analyze", csvPath, "--strict-roles")
	require.Error(t, err)
	require.Contains(t, err.Error(), "no column matches role")
}

func TestCLI_ConfigSetAndValidate(t *testing.T) {
	home := tempHome(t)

	runCmd(t, "config", "set", "anomaly_mode", "simple")
	runCmd(t, "config", "set", "roles.revenue", "net, gross")
	runCmd(t, "config", "show")

	b, err := os.ReadFile(filepath.Join(home, ".salesloom", "config.yaml"))
	require.NoError(t, err)
	require.Contains(t, string(b), "anomaly_mode: simple")
	require.Contains(t, string(b), "- net")
	require.Contains(t, string(b), "- gross")

	require.Error(t, execCmd("config", "set", "anomaly_mode", "bogus"))
	require.Error(t, execCmd("config", "set", "top_n", "many"))
	require.Error(t, execCmd("config", "set", "no_such_key", "1"))
}

func TestCLI_FileCachePurgeByDataset(t *testing.T) {
	home := tempHome(t)
	csvPath := filepath.Join(home, "orders.csv")
	writeOrders(t, csvPath)

	runCmd(t, "config", "set", "cache_backend", "file")
	runCmd(t, "import", csvPath)
	runCmd(t, "analyze", "orders.csv", "--tz", "UTC", "-o", filepath.Join(home, "a.md"))
	runCmd(t, "forecast", "orders.csv", "--tz", "UTC", "-o", filepath.Join(home, "f.md"))

	cachePath := filepath.Join(home, ".salesloom", "cache.json")
	var doc struct {
		Entries map[string]json.RawMessage `json:"entries"`
	}
	readJSON(t, cachePath, &doc)
	require.Len(t, doc.Entries, 2)

	runCmd(t, "cache", "purge", "--dataset", "orders.csv")
	doc.Entries = nil
	readJSON(t, cachePath, &doc)
	require.Empty(t, doc.Entries)

	runCmd(t, "analyze", "orders.csv", "--tz", "UTC", "-o", filepath.Join(home, "a.md"))
	runCmd(t, "cache", "clear")
	doc.Entries = nil
	readJSON(t, cachePath, &doc)
	require.Empty(t, doc.Entries)
}

func TestCLI_FileCacheKeyedByOptions(t *testing.T) {
	home := tempHome(t)
	csvPath := filepath.Join(home, "orders.csv")
	writeOrders(t, csvPath)

	runCmd(t, "config", "set", "cache_backend", "file")
	runCmd(t, "import", csvPath)
	runCmd(t, "analyze", "orders.csv", "--tz", "UTC", "-o", filepath.Join(home, "a.md"))
	runCmd(t, "analyze", "orders.csv", "--tz", "UTC", "--period", "week", "-o", filepath.Join(home, "w.md"))
	runCmd(t, "analyze", "orders.csv", "--tz", "UTC", "-o", filepath.Join(home, "a.md"))

	cachePath := filepath.Join(home, ".salesloom", "cache.json")
	var doc struct {
		Entries map[string]json.RawMessage `json:"entries"`
	}
	readJSON(t, cachePath, &doc)
	require.Len(t, doc.Entries, 2, "daily and weekly analyses are cached apart")

	all := filepath.Join(home, "all.json")
	windowed := filepath.Join(home, "windowed.json")
	runCmd(t, "forecast", "orders.csv", "--tz", "UTC", "--days", "2", "--json", "-o", all)
	runCmd(t, "forecast", "orders.csv", "--tz", "UTC", "--days", "2", "--linear-window", "7", "--json", "-o", windowed)
	var fa, fw struct {
		Predictions []struct {
			Value float64 `json:"value"`
		} `json:"predictions"`
	}
	readJSON(t, all, &fa)
	readJSON(t, windowed, &fw)
	require.NotEqual(t, fa.Predictions[0].Value, fw.Predictions[0].Value)

	doc.Entries = nil
	readJSON(t, cachePath, &doc)
	require.Len(t, doc.Entries, 4)

	require.Error(t, execCmd("forecast", "orders.csv", "--linear-window=-1"))
}

func TestCLI_ImportMaxRowsAndExternal(t *testing.T) {
	home := tempHome(t)
	csvPath := filepath.Join(home, "orders.csv")
	writeOrders(t, csvPath)
	sheet := filepath.Join(home, "sheet.json")
	require.NoError(t, os.WriteFile(sheet, []byte(`[["order_date","order_amount"],["2024-01-01",10],["2024-01-02",12]]`), 0o644))

	runCmd(t, "import", csvPath, "--name", "ten", "--max-rows", "10")
	runCmd(t, "import", sheet, "--name", "synced", "--external")

	w, err := openWorkspace("")
	require.NoError(t, err)
	ten, err := w.Lookup("ten")
	require.NoError(t, err)
	require.Equal(t, 10, ten.Rows)
	synced, err := w.Lookup("synced")
	require.NoError(t, err)
	require.Equal(t, "external", string(synced.Source))
	require.Equal(t, 2, synced.Rows)

	out := filepath.Join(home, "head.json")
	runCmd(t, "analyze", csvPath, "--max-rows", "3", "--json", "-o", out)
	var res struct {
		Rows int `json:"rows"`
	}
	readJSON(t, out, &res)
	require.Equal(t, 3, res.Rows)
}

func TestCLI_CacheDisabled(t *testing.T) {
	tempHome(t)
	runCmd(t, "config", "set", "cache_backend", "none")
	require.Error(t, execCmd("cache", "clear"))
}

func TestCLI_Schema(t *testing.T) {
	home := tempHome(t)
	csvPath := filepath.Join(home, "orders.csv")
	writeOrders(t, csvPath)

	runCmd(t, "schema", csvPath)
	runCmd(t, "schema", csvPath, "--json")
}
