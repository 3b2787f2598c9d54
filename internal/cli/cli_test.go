package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeConfigTOML points data_dir at dir and the advisor at gptURL.
func writeConfigTOML(t *testing.T, dir, gptURL string) string {
	t.Helper()
	cfg := filepath.Join(dir, "config.toml")
	content := `data_dir = "` + strings.ReplaceAll(dir, "\\", "\\\\") + `"
[gpt]
base_url = "` + gptURL + `"
api_key = "test-key"
[metrics]
enabled = false
`
	if err := os.WriteFile(cfg, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return cfg
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func fakeGPT(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]string{"role": "assistant", "content": answer}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInitDBAndSeedAndReport(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfigTOML(t, dir, fakeGPT(t, "**建议**：主推宫保鸡丁").URL)

	out, err := run(t, "--config", cfg, "init-db")
	require.NoError(t, err, out)
	assert.Contains(t, out, filepath.Join(dir, "restaurant.db"))

	out, err = run(t, "--config", cfg, "seed", "--users", "2", "--rand-seed", "3", "--no-images")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Created 2 users, 2 restaurants")
	assert.Contains(t, out, "Demo password: 123456")

	out, err = run(t, "--config", cfg, "report", "--restaurant", "美味餐厅")
	require.NoError(t, err, out)
	assert.Contains(t, out, "美味餐厅 销售报表")
	assert.Contains(t, out, "订单数:")

	out, err = run(t, "--config", cfg, "report", "-r", "1", "--json")
	require.NoError(t, err, out)
	var rep struct {
		Restaurant struct {
			Name string `json:"name"`
		} `json:"restaurant"`
		Chart struct {
			Labels []string `json:"labels"`
			Colors []string `json:"colors"`
		} `json:"chart"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep), out)
	assert.Equal(t, "美味餐厅", rep.Restaurant.Name)
	assert.Len(t, rep.Chart.Colors, len(rep.Chart.Labels))

	_, err = run(t, "--config", cfg, "report", "-r", "不存在")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAdvisorCommands(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfigTOML(t, dir, fakeGPT(t, "**建议**：主推宫保鸡丁").URL)
	_, err := run(t, "--config", cfg, "seed", "--users", "1", "--rand-seed", "1", "--no-images")
	require.NoError(t, err)

	out, err := run(t, "--config", cfg, "advisor", "ask", "-r", "美味餐厅", "哪道菜", "最赚钱？")
	require.NoError(t, err, out)
	assert.Contains(t, out, "**建议**：主推宫保鸡丁")

	out, err = run(t, "--config", cfg, "advisor", "context", "-r", "美味餐厅")
	require.NoError(t, err, out)
	assert.Contains(t, out, "美味餐厅")

	out, err = run(t, "--config", cfg, "advisor", "context", "-r", "美味餐厅", "--menu")
	require.NoError(t, err, out)
	assert.Contains(t, out, "菜品ID:")

	_, err = run(t, "--config", cfg, "advisor", "ask", "-r", "美味餐厅", "--dish", "9999", "好吃吗")
	require.Error(t, err)
}

func TestConfigCommands(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "nested", "config.toml")

	res, err := run(t, "--config", out, "config", "init", "-o", out)
	require.NoError(t, err, res)
	assert.Contains(t, res, "Wrote "+out)
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[gpt]")

	_, err = run(t, "--config", out, "config", "init", "-o", out)
	require.Error(t, err)

	res, err = run(t, "--config", out, "config", "init", "-o", out, "--update")
	require.NoError(t, err, res)
	assert.Contains(t, res, "Config already up to date")

	res, err = run(t, "--config", out, "config", "init", "-o", out, "--overwrite")
	require.NoError(t, err, res)
	assert.Contains(t, res, "Backup: "+out+".bak")

	t.Setenv("RESTAURANT_GPT_API_KEY", "sk-secret")
	res, err = run(t, "--config", out, "config", "show")
	require.NoError(t, err, res)
	assert.Contains(t, res, "http_addr = :5001")
	assert.Contains(t, res, "gpt.api_key = ********")
	assert.NotContains(t, res, "sk-secret")

	res, err = run(t, "--config", out, "config", "check")
	require.NoError(t, err, res)
	assert.Contains(t, res, "Config OK")

	_, err = run(t, "--config", out, "config", "check", "--serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.secret")
}

func TestServeRequiresSecret(t *testing.T) {
	dir := t.TempDir()
	cfg := writeConfigTOML(t, dir, "http://127.0.0.1:1")
	_, err := run(t, "--config", cfg, "serve", "--listen", "127.0.0.1:0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.secret")
}

func TestCompletion(t *testing.T) {
	out, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, out, "restaurant-cli")
}
