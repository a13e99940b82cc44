package assemble

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes the muxing tool.
type Runner interface {
	Run(ctx context.Context, exe string, args ...string) error
}

// ExecRunner runs commands as subprocesses.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, exe string, args ...string) error {
	cmd := exec.CommandContext(ctx, exe, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%s failed: %w\nOutput: %s", exe, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func concatArgs(list, codec, bitrate, out string) []string {
	return []string{
		"-y", "-f", "concat", "-safe", "0",
		"-i", list,
		"-c:a", codec, "-b:a", bitrate,
		out,
	}
}

func muxArgs(in, chapters, out string) []string {
	return []string{
		"-y",
		"-i", in,
		"-i", chapters,
		"-map", "0:a",
		"-map_metadata", "1",
		"-map_chapters", "1",
		"-c", "copy",
		"-f", "mp4",
		out,
	}
}
