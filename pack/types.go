// Package pack reads the intermediate bundle produced by the external
// format converter: an archive of markup fragments, stylesheets, binary
// assets and an OPF metadata file.
package pack

import (
	"sort"
)

// Fragment is one chapter-level markup sub-document in reading order.
type Fragment struct {
	Path string
	Data []byte
}

// Sheet is one stylesheet text from the package.
type Sheet struct {
	Path string
	Data []byte
}

// Metadata holds what we use from the OPF package document.
type Metadata struct {
	Raw   string   // indented OPF text for the output header comment
	Title string   // dc:title, empty when absent
	Cover string   // package path of the cover image, empty when absent
	Spine []string // fragment paths in reading order, empty when absent
}

// Package is the in-memory view of one converted book. Asset access is
// tracked so the output can report files that were never referenced and
// references that never resolved.
type Package struct {
	Name      string // path of the source archive
	Size      int64  // size of the source archive in bytes
	Fragments []Fragment
	Styles    []Sheet
	Metadata  Metadata

	files   map[string][]byte
	read    map[string]bool
	missing map[string]bool
}

// Asset returns the bytes of a package file and marks it read. A miss is
// recorded and reported once per path.
func (p *Package) Asset(path string) ([]byte, bool) {
	data, ok := p.files[path]
	if !ok {
		p.missing[path] = true
		return nil, false
	}
	p.read[path] = true
	return data, true
}

// Has reports whether the package contains the path, without affecting
// read accounting.
func (p *Package) Has(path string) bool {
	_, ok := p.files[path]
	return ok
}

// UnreadFiles lists package files that were never read, sorted.
func (p *Package) UnreadFiles() []string {
	var out []string
	for path := range p.files {
		if !p.read[path] {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// MissingFiles lists referenced paths absent from the package, sorted.
func (p *Package) MissingFiles() []string {
	out := make([]string, 0, len(p.missing))
	for path := range p.missing {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}
