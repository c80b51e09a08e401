package pack

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/maruel/natural"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"

	"ebh/archive"
)

const opfName = "metadata.opf"

// Load reads the whole package archive into memory. Entry names are
// normalized to forward slashes; when cp is not nil it is used to decode
// non UTF-8 entry names, same as everywhere else zip archives are handled.
func Load(path string, cp encoding.Encoding, log *zap.Logger) (*Package, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("pack")

	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("unable to stat package: %w", err)
	}

	pkg := &Package{
		Name:    path,
		Size:    fi.Size(),
		files:   make(map[string][]byte),
		read:    make(map[string]bool),
		missing: make(map[string]bool),
	}

	err = archive.Walk(path, "", func(arc string, f *zip.File) error {
		name := entryName(f, cp, log)

		r, err := f.Open()
		if err != nil {
			return fmt.Errorf("unable to open %q in %q: %w", name, arc, err)
		}
		defer r.Close()

		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("unable to read %q in %q: %w", name, arc, err)
		}
		pkg.files[name] = data
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unable to read package archive: %w", err)
	}

	if opf, ok := pkg.files[opfName]; ok {
		pkg.read[opfName] = true
		md, err := parseOPF(opf)
		if err != nil {
			log.Warn("Unable to parse package metadata", zap.Error(err))
		} else {
			pkg.Metadata = md
		}
	}

	pkg.collect(log)

	if len(pkg.Fragments) == 0 {
		return nil, fmt.Errorf("package %q contains no usable markup fragments", path)
	}
	log.Debug("Package loaded",
		zap.Int("fragments", len(pkg.Fragments)), zap.Int("styles", len(pkg.Styles)), zap.Int("files", len(pkg.files)))
	return pkg, nil
}

func entryName(f *zip.File, cp encoding.Encoding, log *zap.Logger) string {
	name := f.FileHeader.Name
	if cp != nil && f.FileHeader.NonUTF8 {
		if n, err := cp.NewDecoder().String(name); err == nil {
			name = n
		} else {
			cn, _ := ianaindex.IANA.Name(cp)
			log.Warn("Unable to convert entry name from specified encoding",
				zap.String("charset", cn), zap.String("path", name), zap.Error(err))
		}
	}
	return strings.ReplaceAll(name, `\`, "/")
}

// collect splits archive entries into ordered fragments and stylesheets.
// Spine order wins when the OPF declares one; fragments outside the spine
// (and all fragments when there is no spine) follow in natural name order.
func (p *Package) collect(log *zap.Logger) {
	var fragments, styles []string
	for name := range p.files {
		switch strings.ToLower(path.Ext(name)) {
		case ".html", ".htm", ".xhtml":
			fragments = append(fragments, name)
		case ".css":
			styles = append(styles, name)
		}
	}
	sort.Slice(fragments, func(i, j int) bool { return natural.Less(fragments[i], fragments[j]) })
	sort.Slice(styles, func(i, j int) bool { return natural.Less(styles[i], styles[j]) })

	ordered := make([]string, 0, len(fragments))
	inSpine := make(map[string]bool)
	for _, href := range p.Metadata.Spine {
		if _, ok := p.files[href]; !ok {
			log.Warn("Spine references a missing fragment", zap.String("href", href))
			p.missing[href] = true
			continue
		}
		if !inSpine[href] {
			ordered = append(ordered, href)
			inSpine[href] = true
		}
	}
	for _, name := range fragments {
		if !inSpine[name] {
			ordered = append(ordered, name)
		}
	}

	for _, name := range ordered {
		p.read[name] = true
		p.Fragments = append(p.Fragments, Fragment{Path: name, Data: p.files[name]})
	}
	for _, name := range styles {
		p.read[name] = true
		p.Styles = append(p.Styles, Sheet{Path: name, Data: p.files[name]})
	}
}
