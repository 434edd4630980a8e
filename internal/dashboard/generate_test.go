package dashboard

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRenderMissingEnv(t *testing.T) {
	os.Unsetenv("GREPTIMEDB_DATASOURCE_UID")
	os.Unsetenv("PROMETHEUS_DATASOURCE_UID")
	if err := Render(t.TempDir()); err == nil {
		t.Fatalf("expected error for missing env vars")
	}
}

func TestRenderSuccess(t *testing.T) {
	os.Setenv("GREPTIMEDB_DATASOURCE_UID", "uid1")
	os.Setenv("PROMETHEUS_DATASOURCE_UID", "uid2")
	defer os.Unsetenv("GREPTIMEDB_DATASOURCE_UID")
	defer os.Unsetenv("PROMETHEUS_DATASOURCE_UID")

	dir := t.TempDir()
	if err := Render(dir); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	b, err := os.ReadFile(filepath.Join(dir, "grafana-dashboard.json"))
	if err != nil {
		t.Fatalf("read dashboard: %v", err)
	}
	rendered := string(b)
	if !strings.Contains(rendered, "uid1") {
		t.Fatalf("greptime uid not rendered")
	}
	if !strings.Contains(rendered, "uid2") {
		t.Fatalf("prometheus uid not rendered")
	}
	if strings.Contains(rendered, "env \"") {
		t.Fatalf("unrendered template actions left in output")
	}

	var dashboard map[string]any
	if err := json.Unmarshal(b, &dashboard); err != nil {
		t.Fatalf("rendered dashboard is not valid JSON: %v", err)
	}
	if dashboard["title"] != "TideWatch Fleet" {
		t.Errorf("unexpected dashboard title: %v", dashboard["title"])
	}
}
