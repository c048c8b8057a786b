package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStatusReportsConfigStoreAndDeps(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.proxyDir, 0o755); err != nil {
		t.Fatalf("create store: %v", err)
	}
	if err := os.WriteFile(filepath.Join(env.proxyDir, "0123456789abcdef.mp4"), []byte("payload"), 0o644); err != nil {
		t.Fatalf("seed proxy: %v", err)
	}

	stdout, _, err := runCLI(t, env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, stdout, "== Configuration ==")
	requireContains(t, stdout, env.configPath)
	requireContains(t, stdout, env.proxyDir)
	requireContains(t, stdout, "== Proxy store ==")
	requireContains(t, stdout, "1 (0 pending)")
	requireContains(t, stdout, "== Dependencies ==")
	requireContains(t, stdout, "[OK] "+env.ffmpegPath)
}

func TestStatusFlagsMissingBinary(t *testing.T) {
	env := setupCLITestEnv(t)
	env.ffmpegPath = filepath.Join(env.baseDir, "bin", "absent-ffmpeg")
	writeTestConfig(t, env)

	stdout, _, err := runCLI(t, env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, stdout, "[ERROR]")
	requireContains(t, stdout, "absent-ffmpeg")
}
