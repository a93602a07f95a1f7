// Package bracket rebuilds the nesting of bracket pairs from a Python
// token stream.
package bracket

import "github.com/furlinter/furlint/internal/tokenize"

// Kind is the bracket pair of a context.
type Kind string

const (
	Paren  Kind = "()"
	Square Kind = "[]"
	Curly  Kind = "{}"
)

var openerKinds = map[string]Kind{
	"(": Paren,
	"[": Square,
	"{": Curly,
}

// Context is the span between an opening bracket and the closer that
// completed it. A context that was never closed has Closed set to false
// and a zero Closer.
type Context struct {
	Kind       Kind
	Opener     tokenize.Position
	OpenerLine string // diagnostics only
	Depth      int    // stack depth at push time

	// InnerFirstColumns maps a physical line after the opener line to the
	// column of the first code token seen on it while the context was open.
	InnerFirstColumns map[int]int

	Closed bool
	Closer tokenize.Position

	// ElementAndCloserSameLine is set when code precedes the closer on the
	// closer's line.
	ElementAndCloserSameLine bool
}

// Multiline reports whether any inner line was recorded.
func (c Context) Multiline() bool {
	return len(c.InnerFirstColumns) > 0
}

// Build consumes a token stream and returns one Context per bracket pair
// in the order the closers appear, followed by the contexts that were
// never closed, innermost first.
//
// A closer always completes the most recently opened context, whatever its
// kind. Closers with no open context are ignored.
func Build(tokens []tokenize.Token) []Context {
	var b builder
	for _, tok := range tokens {
		b.feed(tok)
	}
	return b.finish()
}

type builder struct {
	stack []Context
	done  []Context
}

func (b *builder) feed(tok tokenize.Token) {
	if tok.IsOpener() {
		b.stack = append(b.stack, Context{
			Kind:              openerKinds[tok.Value],
			Opener:            tok.Start,
			OpenerLine:        tok.Line,
			Depth:             len(b.stack),
			InnerFirstColumns: make(map[int]int),
		})
	}

	if !tok.IsTrivia() {
		b.recordFirstColumn(tok.Start)
	}

	if tok.IsCloser() && len(b.stack) > 0 {
		top := len(b.stack) - 1
		ctx := b.stack[top]
		b.stack = b.stack[:top]

		ctx.Closed = true
		ctx.Closer = tok.Start
		if col, ok := ctx.InnerFirstColumns[tok.Start.Line]; ok && col < tok.Start.Column {
			ctx.ElementAndCloserSameLine = true
		}
		b.done = append(b.done, ctx)
	}
}

// recordFirstColumn offers pos to every open context. A token can be the
// first one on its line for several nesting levels at once.
func (b *builder) recordFirstColumn(pos tokenize.Position) {
	for i := range b.stack {
		ctx := &b.stack[i]
		if pos.Line <= ctx.Opener.Line {
			continue
		}
		if _, seen := ctx.InnerFirstColumns[pos.Line]; seen {
			continue
		}
		ctx.InnerFirstColumns[pos.Line] = pos.Column
	}
}

func (b *builder) finish() []Context {
	for len(b.stack) > 0 {
		top := len(b.stack) - 1
		b.done = append(b.done, b.stack[top])
		b.stack = b.stack[:top]
	}
	return b.done
}
