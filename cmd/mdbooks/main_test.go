package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDotEnv(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		env, err := loadDotEnv(t.TempDir())
		if err != nil || len(env) != 0 {
			t.Fatalf("loadDotEnv() = %v, %v", env, err)
		}
	})
	t.Run("values", func(t *testing.T) {
		dir := t.TempDir()
		content := "# comment\nPORT=8080\n\nBOOKS_ROOT = \"/srv/my books\"\nnoequals\nLOG_LEVEL=debug\n"
		if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		env, err := loadDotEnv(dir)
		if err != nil {
			t.Fatal(err)
		}
		want := map[string]string{"PORT": "8080", "BOOKS_ROOT": "/srv/my books", "LOG_LEVEL": "debug"}
		if len(env) != len(want) {
			t.Errorf("loadDotEnv() = %v, want %v", env, want)
		}
		for k, v := range want {
			if env[k] != v {
				t.Errorf("env[%s] = %q, want %q", k, env[k], v)
			}
		}
	})
	t.Run("single quotes", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("HTTP='x'\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := loadDotEnv(dir); err == nil {
			t.Error("Expected error for single quotes")
		}
	})
}
