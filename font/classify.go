// Package font classifies font-family stacks into generic categories,
// builds the whole package stack inventory and applies the configured
// replacement policy to stylesheets.
package font

import (
	"strings"
)

// Category is the generic family bucket a font stack falls into.
// Only Serif, SansSerif and Monospace ever take part in replacement,
// the rest always pass through verbatim.
type Category int

const (
	Unclassified Category = iota
	Serif
	SansSerif
	Monospace
	Cursive
	Fantasy
)

var categoryNames = []string{"unclassified", "serif", "sans-serif", "monospace", "cursive", "fantasy"}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unclassified"
	}
	return categoryNames[c]
}

// Categories lists all categories in reporting order.
func Categories() []Category {
	return []Category{Serif, SansSerif, Monospace, Cursive, Fantasy, Unclassified}
}

// genericKeywords are the CSS generic family keywords proper. When a stack
// contains one, the last keyword present decides the category, matching CSS
// fallback semantics where the generic is the author's declared intent.
var genericKeywords = map[string]Category{
	"serif":      Serif,
	"sans-serif": SansSerif,
	"monospace":  Monospace,
	"cursive":    Cursive,
	"fantasy":    Fantasy,
}

// Well known faces, lowercased. Books frequently end a font-family list
// without a generic keyword, so the web safe faces have to be recognizable
// by name. Based on https://www.w3.org/Style/Examples/007/fonts.en.html
// with additions seen in the wild.
var lowerFaceToCategory = buildFaceMap()

func buildFaceMap() map[string]Category {
	serif := []string{
		"Times", "TimesBold", "TimesBoldItalic", "TimesItalic", "Timesb", "Timesbi", "Timesbd", "Timesi",
		"Times (T1)", "Times New Roman", "Times New Roman Bold", "Times New Roman Bold Italic",
		"Times New Roman Italic", "Times New RomanB", "Times New RomanBI", "Times New RomanI",
		"TimesNewRomanPSMT",
		"Antiqua", "ANTQUAB", "ANTQUABI", "ANTQUAI", "Book Antiqua",
		"Didot", "Georgia", "Cambria", "Baskerville", "BaskervilleBold",
		"Palatino", "Palatino Linotype", "Palatino LT",
		"Garamond", "Adobe Garamond", "Adobe Garamond Pro", "AGaramondPro", "URW Palladio L",
		"Bookman", "URW Bookman L", "New Century Schoolbook", "TeX Gyre Schola",
		"American Typewriter", "BergamoStd",
		"Charis", "CharisSIL", "Charis SIL", "Charis SIL Regular", "Charis SIL Bold",
		"Charis SIL Bold Italic", "Charis SIL Italic", "CharisSILR", "CharisSILB", "CharisSILBI", "CharisSILI",
		"Bitstream Vera Serif",
		"DejaVu Serif", "DejaVu Serif Bold", "DejaVu Serif Bold Italic", "DejaVu Serif Italic", "DejaVuSerif",
		"Shift", "Shift Light", "Alegreya",
		"Genr102", "Geni102", // Gentium
		"Sylfaen", "Bodoni LT Pro", "Constantia", "Constantia Italic", "Adobe Caslon Pro",
		"LinLibertine", "Liberation Serif", "FreeSerif",
		"Minion", "Minion Pro", "Minion Pro Cond",
		"Kozuka Mincho Pr6N", "Kozuka Mincho Pr6N L", "Kozuka Mincho Pr6N R",
		"Trajan Pro", "Janson Text LT Std", "Adobe Song Std", "AdobeSongStd-Light",
		"VeljovicStd", "ITC Fenice Std", "Stempel Garamond LT Std",
		"FreeFontSerif", "FreeSerifItalic", "STKai",
		"Traveling _Typewriter", // not monospace despite the name
		"ui-serif",
	}

	sansSerif := []string{
		"Arial", "Arialb", "Arialbi", "Ariali", "ArialBold", "ArialBoldItalic", "ArialItalic",
		"Arial Unicode", "Arial Unicode MS", "ArialUnicodeMS", "ARIALUNI",
		"Helvetica", "HelveticaNeueLTStd", "HelveticaNeueLTStd-BdCn", "HelveticaNeueLTStd-BdCnO",
		"HelveticaNeueLTStd-Cn", "HelveticaNeueLTStd-Md", "HelveticaNeueLTStd-MdCn",
		"HelveticaNeueLTStd-MdCnO", "Helvetica LT",
		"Verdana", "Trebuchet MS", "Tahoma", "Lucida Grande",
		"Calibri", "CALIBRIB", "CALIBRII",
		"Gill Sans", "Noto Sans", "Avantgarde",
		"DejaVu Sans", "DejaVuSans", "Bitstream Vera Sans",
		"TeX Gyre Adventor", "URW Gothic L", "Optima", "Gotham", "AtkinsonHyperlegible",
		"Arial Narrow", "Roboto", "Inter", "PT Sans", "Open Sans", "Segoe UI", "Geneva",
		"Candara", "Franklin", "Franklin Medium",
		"Futura", "Futura Bold", "Futura Std Book",
		"DIN Next LT Pro", "Trade Gothic Next LT Pro",
		"Myriad", "Myriad Pro", "MyriadPro-Regular", "MyriadPro-Bold", "MyriadPro-BoldIt", "MyriadPro-It",
		"Quicksand", "Alegreya Sans", "Fort-Book",
		"Free Sans", "Free Sans Bold", "Liberation", "LiberationNarrow", "RotisSansSerif",
		"MgOpen Modata", "ＭＳ Ｐゴシック", "KaiTi", "SimHei",
		"AkzidenzStd", "ITCAvantGardeStd", "TradeGothicLTStd18", "TradeGothicLTStd20",
		"sans serif", // typo seen in a few books
		"ui-sans-serif", "system-ui", "-apple-system", "BlinkMacSystemFont",
	}

	monospace := []string{
		"Andale Mono",
		"Courier", "Courier New", "Courier New Bold", "Courier New Bold Italic", "Courier New Italic",
		"FreeMono", "OCR A Std",
		"DejaVu Sans Mono", "DejaVu Sans Mono Bold", "DejaVu Sans Mono Bold Oblique", "DejaVu Sans Mono Oblique",
		"Consolas", "Lucida Console",
		"UbuntuMono", "Ubuntu Mono", "Ubuntu Mono Bold", "Ubuntu Mono BoldItal", "Ubuntu Mono Ital",
		"Inconsolata Mono",
		"ui-monospace",
	}

	cursive := []string{
		"Comic Sans MS", "Comic Sans", "Segoe Script", "Apple Chancery", "Bradley Hand",
		"Lucida Calligraphy", "Lucida Handwriting", "Brush Script MT", "Brush Script Std",
		"Snell Roundhand", "URW Chancery L", "Great Vibes",
	}

	fantasy := []string{
		"Impact", "Luminari", "Chalkduster", "Jazz LET", "Blippo", "Stencil Std",
		"Marker Felt", "Segoe Print", "Trattatello",
	}

	m := make(map[string]Category, 256)
	for _, group := range []struct {
		faces []string
		cat   Category
	}{
		{serif, Serif},
		{sansSerif, SansSerif},
		{monospace, Monospace},
		{cursive, Cursive},
		{fantasy, Fantasy},
	} {
		for _, face := range group.faces {
			m[strings.ToLower(face)] = group.cat
		}
	}
	for kw, cat := range genericKeywords {
		m[kw] = cat
	}
	return m
}

// ParseStack splits a font-family value into individual family names,
// trimming whitespace and quotes. An empty value yields nil.
func ParseStack(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.Trim(p, " \t,'\""))
	}
	return out
}

// Normalize reduces a font-family value to its identity form: families
// unquoted, separated by a comma and a single space. Two declarations with
// the same Normalize result denote the same stack.
func Normalize(value string) string {
	return strings.Join(ParseStack(value), ", ")
}

// Classify buckets a font-family value. When the stack lists a generic
// keyword the LAST one present decides; otherwise the first family found in
// the known face list decides; a stack with no recognizable signal is
// Unclassified. The result depends only on the value text, never on
// surrounding rules.
func Classify(value string) Category {
	families := ParseStack(strings.ToLower(value))

	last := Unclassified
	for _, f := range families {
		if cat, ok := genericKeywords[f]; ok {
			last = cat
		}
	}
	if last != Unclassified {
		return last
	}
	for _, f := range families {
		if cat, ok := lowerFaceToCategory[f]; ok {
			return cat
		}
	}
	return Unclassified
}
