package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/notepress/internal/ignore"
	"github.com/starford/notepress/internal/models"
	"github.com/starford/notepress/internal/storage"
	"github.com/starford/notepress/internal/testutil"
)

func testConfig(t *testing.T, driver string) (*Config, *storage.FS) {
	t.Helper()
	vaultDir, vault := testutil.TestVault(t)
	for p, body := range map[string]string{
		"Blog/First Post.md": "---\ntitle: First\n---\n![[pic.png|center]] then [[Second]]",
		"Blog/Second.md":     "# Second\nBody.",
		"Blog/Draft.md":      "---\npublish: false\n---\nSecret.",
		"media/pic.png":      "png",
	} {
		if err := vault.Write(p, []byte(body)); err != nil {
			t.Fatal(err)
		}
	}

	no := false
	cfg := NewDefaultConfig()
	cfg.Vault.Path = vaultDir
	cfg.Vault.Folders = []models.FolderConfig{{VaultFolder: "Blog", RouteBase: "/blog"}}
	cfg.Output.Path = filepath.Join(t.TempDir(), "site")
	cfg.Manifest.Driver = driver
	cfg.Manifest.SQLitePath = filepath.Join(t.TempDir(), "site.db")
	cfg.Pipeline.IgnoreRules = []ignore.Rule{{Property: "publish", IgnoreIf: &no}}
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}

	site, err := storage.NewOsFS(cfg.Output.Path)
	if err != nil {
		t.Fatal(err)
	}
	return cfg, site
}

func TestRunPublish(t *testing.T) {
	for _, driver := range []string{ManifestDriverFile, ManifestDriverSQLite} {
		t.Run(driver, func(t *testing.T) {
			cfg, site := testConfig(t, driver)
			var out bytes.Buffer

			err := RunPublish(context.Background(), WithConfig(cfg), WithOutput(&out), WithLogOutput(io.Discard))
			if err != nil {
				t.Fatal(err)
			}
			var res models.PublishResult
			if err := json.Unmarshal(out.Bytes(), &res); err != nil {
				t.Fatalf("output %q: %v", out.String(), err)
			}
			if res.Published != 2 || res.Skipped != 1 || len(res.Errors) != 0 {
				t.Errorf("result = %+v", res)
			}

			page, err := site.Read("blog/first-post.html")
			if err != nil {
				t.Fatal(err)
			}
			for _, want := range []string{`href="/blog/second"`, `src="/assets/pic.png"`} {
				if !strings.Contains(string(page), want) {
					t.Errorf("page missing %s", want)
				}
			}
			if ok, _ := site.Exists("assets/pic.png"); !ok {
				t.Error("embedded asset was not copied")
			}
			if ok, _ := site.Exists("blog/draft.html"); ok {
				t.Error("ignored note was published")
			}
			if driver == ManifestDriverFile {
				if ok, _ := site.Exists(storage.ManifestFile); !ok {
					t.Error("manifest file missing")
				}
			}
		})
	}
}

func TestRun_RequiresConfig(t *testing.T) {
	if err := RunPublish(context.Background(), WithLogOutput(io.Discard)); err == nil {
		t.Fatal("expected an error without config")
	}
}
