package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// cliTestEnv is a self-contained standin installation in a temp directory:
// a config file, an empty proxy store, a job journal path, and fake tool
// binaries that stand in for ffmpeg and ffprobe.
type cliTestEnv struct {
	baseDir     string
	configPath  string
	proxyDir    string
	historyPath string
	ffmpegPath  string
	ffprobePath string
	meltPath    string
}

// fakeFFmpeg answers both ways the binary is invoked: encoder detection gets
// a fixed listing, a transcode touches its destination, which the argument
// builder puts last.
const fakeFFmpeg = `#!/bin/sh
if [ "$1" = "-hide_banner" ]; then
	echo "V....D hevc_nvenc            NVENC hevc encoder"
	exit 0
fi
for last; do :; done
: > "$last"
`

const fakeFFprobe = `#!/bin/sh
cat <<'EOF'
{
  "streams": [
    {"index": 0, "codec_type": "video", "width": 1920, "height": 1080, "color_space": "bt709", "color_range": "tv"},
    {"index": 1, "codec_type": "audio", "channels": 2}
  ],
  "format": {"duration": "1.0"}
}
EOF
`

const fakeMelt = `#!/bin/sh
exit 0
`

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	env := &cliTestEnv{
		baseDir:     base,
		configPath:  filepath.Join(base, "config.toml"),
		proxyDir:    filepath.Join(base, "proxies"),
		historyPath: filepath.Join(base, "jobs.db"),
		ffmpegPath:  filepath.Join(base, "bin", "ffmpeg"),
		ffprobePath: filepath.Join(base, "bin", "ffprobe"),
		meltPath:    filepath.Join(base, "bin", "melt"),
	}
	writeScript(t, env.ffmpegPath, fakeFFmpeg)
	writeScript(t, env.ffprobePath, fakeFFprobe)
	writeScript(t, env.meltPath, fakeMelt)
	writeTestConfig(t, env)
	return env
}

func writeTestConfig(t *testing.T, env *cliTestEnv) {
	t.Helper()
	content := fmt.Sprintf(`[proxy]
enabled = true
folder = %q
use_project_folder = false

[encode]
ffmpeg = %q
ffprobe = %q
melt = %q

[jobs]
concurrency = 2
history = %q

[logging]
level = "error"
`, env.proxyDir, env.ffmpegPath, env.ffprobePath, env.meltPath, env.historyPath)
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeScript(t *testing.T, path, body string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("write script %s: %v", path, err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireNotContains(t *testing.T, output, substr string) {
	t.Helper()
	if strings.Contains(output, substr) {
		t.Fatalf("expected %q to not contain %q", output, substr)
	}
}
