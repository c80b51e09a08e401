package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"ebh/state"
)

// keepEnv are the only variables the external converter runs with. Python on
// Windows needs SystemRoot for hash randomization, macOS needs PATH to find
// the default ebook-convert.
var keepEnv = []string{"SystemDrive", "SystemRoot", "TEMP", "TMP", "PATH"}

// runConverter invokes Calibre ebook-convert producing an HTMLZ-style
// package in a temporary location. Returns the package path and the
// captured conversion log with local paths filtered out. The caller owns
// the temporary file.
func runConverter(ctx context.Context, src string, env *state.LocalEnv, log *zap.Logger) (string, string, error) {
	out := filepath.Join(os.TempDir(), fmt.Sprintf("ebh-%s.htmlz", uuid.New().String()))

	args := []string{
		src, out,
		// -vv makes the converter log its version
		"-vv",
		// page margins and line height are ours to manage
		"--margin-top=0",
		"--margin-bottom=0",
		"--margin-left=0",
		"--margin-right=0",
		"--minimum-line-height=0",
	}
	cmd := exec.CommandContext(ctx, env.Cfg.Document.Converter.Path, args...)
	cmd.Env = scrubbedEnv()

	log.Debug("Running external converter", zap.String("path", cmd.Path), zap.Strings("args", args))
	output, err := cmd.CombinedOutput()
	convLog := filterLocalPaths(string(output), src, out)
	if err != nil {
		os.Remove(out)
		return "", "", fmt.Errorf("external converter failed (is ebook-convert installed and configured?): %w\n%s", err, convLog)
	}
	if _, err := os.Stat(out); err != nil {
		return "", "", fmt.Errorf("external converter succeeded but produced no package at %q: %w", out, err)
	}
	return out, convLog, nil
}

func scrubbedEnv() []string {
	out := make([]string, 0, len(keepEnv))
	for _, name := range keepEnv {
		if value, ok := os.LookupEnv(name); ok {
			out = append(out, name+"="+value)
		}
	}
	return out
}

// filterLocalPaths strips machine-local directories from a log destined for
// the output document, leaving only base names.
func filterLocalPaths(text string, paths ...string) string {
	for _, p := range paths {
		if dir := filepath.Dir(p); len(dir) > 1 {
			text = strings.ReplaceAll(text, dir+string(filepath.Separator), "")
			text = strings.ReplaceAll(text, dir, "")
		}
	}
	if home, err := os.UserHomeDir(); err == nil && len(home) > 1 {
		text = strings.ReplaceAll(text, home, "~")
	}
	return text
}
