// Package misc provides program name and build information helpers.
package misc

import (
	"runtime/debug"
	"strings"
)

const appName = "ebh"

// GetAppName returns short program name used in logs, reports and temporary
// file names.
func GetAppName() string {
	return appName
}

// GetVersion returns module version recorded in build info.
func GetVersion() string {
	if bi, ok := debug.ReadBuildInfo(); ok && len(bi.Main.Version) > 0 {
		return bi.Main.Version
	}
	return "(devel)"
}

// GetGitHash returns short revision hash recorded in build info.
func GetGitHash() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	var hash, modified string
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			hash = s.Value
		case "vcs.modified":
			if s.Value == "true" {
				modified = "*"
			}
		}
	}
	if len(hash) == 0 {
		return "unknown"
	}
	if len(hash) > 12 {
		hash = hash[:12]
	}
	return hash + modified
}

// GetStamp builds single version string suitable for CLI output.
func GetStamp(goVersion string) string {
	var sb strings.Builder
	sb.WriteString(GetVersion())
	sb.WriteString(" (")
	sb.WriteString(goVersion)
	sb.WriteString(") : ")
	sb.WriteString(GetGitHash())
	return sb.String()
}
