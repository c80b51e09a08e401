package pack

import (
	"errors"
	"strings"

	"github.com/beevik/etree"
)

// parseOPF extracts title, reading order and the cover reference from an
// OPF package document.
func parseOPF(data []byte) (Metadata, error) {
	md := Metadata{Raw: strings.TrimSpace(string(data))}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return md, err
	}
	root := doc.Root()
	if root == nil || root.Tag != "package" {
		return md, errors.New("not an OPF package document")
	}

	if meta := root.SelectElement("metadata"); meta != nil {
		if title := meta.FindElement("dc:title"); title != nil {
			md.Title = strings.TrimSpace(title.Text())
		}
	}

	hrefByID := make(map[string]string)
	if manifest := root.SelectElement("manifest"); manifest != nil {
		for _, item := range manifest.SelectElements("item") {
			id := item.SelectAttrValue("id", "")
			href := item.SelectAttrValue("href", "")
			if id != "" && href != "" {
				hrefByID[id] = href
			}
		}
	}

	if spine := root.SelectElement("spine"); spine != nil {
		for _, ref := range spine.SelectElements("itemref") {
			if href, ok := hrefByID[ref.SelectAttrValue("idref", "")]; ok {
				md.Spine = append(md.Spine, href)
			}
		}
	}

	// EPUB 2 convention first, guide reference, then the meta/manifest pair
	if guide := root.SelectElement("guide"); guide != nil {
		for _, ref := range guide.SelectElements("reference") {
			if ref.SelectAttrValue("type", "") == "cover" {
				md.Cover = ref.SelectAttrValue("href", "")
				break
			}
		}
	}
	if md.Cover == "" {
		if meta := root.SelectElement("metadata"); meta != nil {
			for _, m := range meta.SelectElements("meta") {
				if m.SelectAttrValue("name", "") == "cover" {
					if href, ok := hrefByID[m.SelectAttrValue("content", "")]; ok {
						md.Cover = href
					}
					break
				}
			}
		}
	}
	return md, nil
}
