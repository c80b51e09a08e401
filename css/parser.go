package css

import (
	"bytes"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
)

// Parser turns raw CSS text into a Stylesheet. It never fails: a sheet the
// tokenizer cannot recover degrades to a single Raw item holding the
// original text, so author styles always survive to the output.
type Parser struct {
	log *zap.Logger
}

// NewParser creates a new CSS parser. A nil logger is tolerated.
func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("css")}
}

// Parse parses CSS text into a Stylesheet. The source parameter identifies
// what is being parsed, it only shows up in debug logging.
func (p *Parser) Parse(data []byte, source string) *Stylesheet {
	p.log.Debug("Parsing CSS", zap.String("source", source), zap.Int("bytes", len(data)))

	sheet := &Stylesheet{}
	input := parse.NewInput(bytes.NewReader(data))
	parser := css.NewParser(input, false)

	// items points into the container we are currently filling, the root
	// sheet or the innermost open at-rule block.
	items := &sheet.Items
	var stack []*AtRule
	var pendingSelectors []string
	var current *Rule

	for {
		gt, _, gtData := parser.Next()

		switch gt {
		case css.ErrorGrammar:
			err := parser.Err()
			if err == io.EOF || err == nil {
				return sheet
			}
			p.log.Warn("Unrecoverable CSS, passing sheet through unchanged",
				zap.String("source", source), zap.Error(err))
			return &Stylesheet{Items: []Item{{Raw: string(data)}}}

		case css.QualifiedRuleGrammar:
			// one member of a comma separated selector list
			pendingSelectors = append(pendingSelectors, selectorText(gtData, parser.Values()))

		case css.BeginRulesetGrammar:
			pendingSelectors = append(pendingSelectors, selectorText(gtData, parser.Values()))
			current = &Rule{Selectors: strings.Join(pendingSelectors, ", ")}
			pendingSelectors = nil

		case css.EndRulesetGrammar:
			if current != nil {
				*items = append(*items, Item{Rule: current})
				current = nil
			}

		case css.DeclarationGrammar, css.CustomPropertyGrammar:
			decl := makeDeclaration(string(gtData), parser.Values())
			switch {
			case current != nil:
				current.Declarations = append(current.Declarations, decl)
			case len(stack) > 0:
				at := stack[len(stack)-1]
				at.Declarations = append(at.Declarations, decl)
			}

		case css.BeginAtRuleGrammar:
			at := &AtRule{
				Name:    string(gtData),
				Prelude: tokensText(parser.Values()),
				Block:   true,
			}
			stack = append(stack, at)
			items = &at.Items

		case css.EndAtRuleGrammar:
			if len(stack) > 0 {
				at := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if len(stack) > 0 {
					items = &stack[len(stack)-1].Items
				} else {
					items = &sheet.Items
				}
				*items = append(*items, Item{AtRule: at})
			}

		case css.AtRuleGrammar:
			*items = append(*items, Item{AtRule: &AtRule{
				Name:    string(gtData),
				Prelude: tokensText(parser.Values()),
			}})

		case css.CommentGrammar:
			comment := strings.TrimSpace(string(gtData))
			if current != nil {
				current.Declarations = append(current.Declarations, Declaration{Comment: comment})
			} else {
				*items = append(*items, Item{Raw: comment})
			}

		case css.TokenGrammar:
			// stray tokens at stylesheet level, keep them verbatim
			if text := strings.TrimSpace(string(gtData)); text != "" {
				*items = append(*items, Item{Raw: text})
			}
		}
	}
}

// selectorText rebuilds the selector text from grammar data and value
// tokens. The parser eats whitespace around commas and combinators, put it
// back so the rebuilt text matches what the author wrote.
func selectorText(data []byte, tokens []css.Token) string {
	var sb strings.Builder
	sb.Write(data)
	for _, t := range tokens {
		switch {
		case t.TokenType == css.WhitespaceToken:
			writeSpace(&sb)
		case t.TokenType == css.CommaToken:
			sb.Write(t.Data)
			writeSpace(&sb)
		case t.TokenType == css.DelimToken && isCombinator(t.Data):
			writeSpace(&sb)
			sb.Write(t.Data)
			writeSpace(&sb)
		default:
			sb.Write(t.Data)
		}
	}
	return strings.TrimSpace(sb.String())
}

// tokensText joins value tokens into a single string, collapsing whitespace
// runs, restoring the space after commas and dropping comments.
func tokensText(tokens []css.Token) string {
	var sb strings.Builder
	for _, t := range tokens {
		switch t.TokenType {
		case css.WhitespaceToken:
			writeSpace(&sb)
		case css.CommaToken:
			sb.Write(t.Data)
			writeSpace(&sb)
		case css.CommentToken:
			// dropped
		default:
			sb.Write(t.Data)
		}
	}
	return strings.TrimSpace(sb.String())
}

// writeSpace appends a single space, never a leading one and never two in a
// row.
func writeSpace(sb *strings.Builder) {
	if s := sb.String(); len(s) > 0 && s[len(s)-1] != ' ' {
		sb.WriteByte(' ')
	}
}

func isCombinator(data []byte) bool {
	return len(data) == 1 && (data[0] == '>' || data[0] == '+' || data[0] == '~')
}

// makeDeclaration builds a Declaration from a property name and value
// tokens, splitting off the "!important" marker when present.
func makeDeclaration(property string, tokens []css.Token) Declaration {
	value := tokensText(tokens)
	decl := Declaration{Property: strings.ToLower(property), Value: value}

	lower := strings.ToLower(value)
	if idx := strings.LastIndex(lower, "!"); idx >= 0 && strings.TrimSpace(lower[idx+1:]) == "important" {
		decl.Important = true
		decl.Value = strings.TrimSpace(value[:idx])
	}
	return decl
}
