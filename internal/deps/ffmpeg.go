package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DetectHardwareEncoders runs the configured ffmpeg binary and reports which
// of the candidate hardware encoders its build ships. The result preserves
// candidate order, since encoder preference follows the configured list.
//
// Shipping an encoder does not guarantee the device behind it works; a failed
// proxy job is still the only definitive answer. This check only filters out
// encoders the binary cannot even name.
func DetectHardwareEncoders(ctx context.Context, binary string, candidates []string) ([]string, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffmpeg"
	}

	cmd := exec.CommandContext(ctx, binary, "-hide_banner", "-encoders")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("detect encoders: %w", err)
	}
	return parseEncoders(output, candidates), nil
}

// parseEncoders scans `ffmpeg -encoders` output for video encoder lines and
// returns the candidates present, in candidate order. Lines look like
//
//	V....D h264_vaapi           H.264/AVC (VAAPI)
//
// where the first field is the capability flags and the second the encoder
// name.
func parseEncoders(output []byte, candidates []string) []string {
	available := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		if !strings.HasPrefix(fields[0], "V") {
			continue
		}
		available[fields[1]] = true
	}

	var found []string
	for _, candidate := range candidates {
		if available[candidate] {
			found = append(found, candidate)
		}
	}
	return found
}
