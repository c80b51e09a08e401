package convert

import (
	"path/filepath"
	"strings"

	"github.com/gosimple/slug"

	"ebh/config"
	"ebh/state"
)

// ebookExtensions lists input formats we hand to the external converter.
var ebookExtensions = map[string]bool{
	".epub":  true,
	".mobi":  true,
	".azw":   true,
	".azw3":  true,
	".fb2":   true,
	".lit":   true,
	".lrf":   true,
	".pdb":   true,
	".rtf":   true,
	".docx":  true,
	".odt":   true,
	".htmlz": true,
}

// buildOutputPath constructs the destination file path. Default naming keeps
// the source file name (optionally with the ebook extension removed) and
// appends .html; title mode slugifies the book title instead. Directory
// structure of the source is preserved under dst unless NoDirs is set.
func buildOutputPath(src, dst, title string, env *state.LocalEnv) string {
	outDir := dst
	if !env.NoDirs {
		outDir = filepath.Join(dst, filepath.Dir(src))
	}

	name := filepath.Base(src)
	if env.Cfg.Document.TitleAsFileName && len(strings.TrimSpace(title)) > 0 {
		name = slug.Make(title)
	} else if env.Cfg.Document.RemoveSourceExt && ebookExtensions[strings.ToLower(filepath.Ext(name))] {
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}

	return filepath.Join(outDir, config.CleanFileName(name)+".html")
}
