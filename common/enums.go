// Package common keeps enumerations shared between configuration and
// conversion code so that neither package has to import the other.
package common

import (
	"fmt"

	yaml "gopkg.in/yaml.v3"
)

// ReplacementMode specifies when font stacks of a category are overridden
// with the configured replacement family.
type ReplacementMode int

const (
	// ReplacementModeNever keeps the book's font stacks regardless of inventory.
	ReplacementModeNever ReplacementMode = iota
	// ReplacementModeIfOne replaces only when the governed category set holds
	// exactly one distinct stack across the whole package.
	ReplacementModeIfOne
	// ReplacementModeAlways replaces every occurrence in the governed category.
	ReplacementModeAlways
)

var replacementModeNames = []string{"never", "if-one", "always"}

func (m ReplacementMode) String() string {
	if m < 0 || int(m) >= len(replacementModeNames) {
		return fmt.Sprintf("ReplacementMode(%d)", int(m))
	}
	return replacementModeNames[m]
}

// ReplacementModeNames returns all valid mode names.
func ReplacementModeNames() []string {
	out := make([]string, len(replacementModeNames))
	copy(out, replacementModeNames)
	return out
}

// ParseReplacementMode converts textual mode name to ReplacementMode.
func ParseReplacementMode(name string) (ReplacementMode, error) {
	for i, n := range replacementModeNames {
		if n == name {
			return ReplacementMode(i), nil
		}
	}
	return ReplacementModeNever, fmt.Errorf("%s is not a valid replacement mode", name)
}

func (m *ReplacementMode) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	v, err := ParseReplacementMode(name)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m ReplacementMode) MarshalYAML() (any, error) {
	return m.String(), nil
}

// PolyfillMode specifies how the text fragment compatibility script is added
// to the output document.
type PolyfillMode int

const (
	// PolyfillModeNone omits the script entirely.
	PolyfillModeNone PolyfillMode = iota
	// PolyfillModeInline embeds the script source into the document.
	PolyfillModeInline
	// PolyfillModeUnpkg references the script by remote unpkg.com URL.
	PolyfillModeUnpkg
)

var polyfillModeNames = []string{"none", "inline", "unpkg"}

func (m PolyfillMode) String() string {
	if m < 0 || int(m) >= len(polyfillModeNames) {
		return fmt.Sprintf("PolyfillMode(%d)", int(m))
	}
	return polyfillModeNames[m]
}

// PolyfillModeNames returns all valid mode names.
func PolyfillModeNames() []string {
	out := make([]string, len(polyfillModeNames))
	copy(out, polyfillModeNames)
	return out
}

// ParsePolyfillMode converts textual mode name to PolyfillMode.
func ParsePolyfillMode(name string) (PolyfillMode, error) {
	for i, n := range polyfillModeNames {
		if n == name {
			return PolyfillMode(i), nil
		}
	}
	return PolyfillModeNone, fmt.Errorf("%s is not a valid polyfill mode", name)
}

func (m *PolyfillMode) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	v, err := ParsePolyfillMode(name)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m PolyfillMode) MarshalYAML() (any, error) {
	return m.String(), nil
}

// ImageResizeMode specifies cover image resizing behavior.
type ImageResizeMode int

const (
	ImageResizeModeNone ImageResizeMode = iota
	ImageResizeModeKeepAR
	ImageResizeModeStretch
)

var imageResizeModeNames = []string{"none", "keepAR", "stretch"}

func (m ImageResizeMode) String() string {
	if m < 0 || int(m) >= len(imageResizeModeNames) {
		return fmt.Sprintf("ImageResizeMode(%d)", int(m))
	}
	return imageResizeModeNames[m]
}

// ParseImageResizeMode converts textual mode name to ImageResizeMode.
func ParseImageResizeMode(name string) (ImageResizeMode, error) {
	for i, n := range imageResizeModeNames {
		if n == name {
			return ImageResizeMode(i), nil
		}
	}
	return ImageResizeModeNone, fmt.Errorf("%s is not a valid image resize mode", name)
}

func (m *ImageResizeMode) UnmarshalYAML(node *yaml.Node) error {
	var name string
	if err := node.Decode(&name); err != nil {
		return err
	}
	v, err := ParseImageResizeMode(name)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

func (m ImageResizeMode) MarshalYAML() (any, error) {
	return m.String(), nil
}
