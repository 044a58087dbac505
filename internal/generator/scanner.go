package generator

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Scanner walks Solidity source and yields each documentation block together
// with the declaration that follows it. It owns its cursor, so independent
// scanners over the same text never interfere. A Scanner is not restartable.
type Scanner struct {
	src  string
	pos  int
	done bool
}

// NewScanner returns a scanner positioned at the start of src.
func NewScanner(src string) *Scanner {
	return &Scanner{src: src}
}

// Next returns the next block and its declaration in document order. The
// second return value is false once the source is exhausted or an
// unterminated block is met.
func (s *Scanner) Next() (Association, bool) {
	if s.done {
		return Association{}, false
	}
	block, ok := s.nextBlock()
	if !ok {
		s.done = true
		return Association{}, false
	}
	s.pos = block.End
	decl, _ := seekDeclaration(s.src, block.End)
	return Association{Block: block, Decl: decl}, true
}

// All drains the scanner.
func (s *Scanner) All() []Association {
	var out []Association
	for {
		a, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, a)
	}
}

// nextBlock advances past ordinary comments, string literals and code until a
// documentation opener is found, then reads the block.
func (s *Scanner) nextBlock() (CommentBlock, bool) {
	src := s.src
	for s.pos < len(src) {
		rest := src[s.pos:]
		switch {
		case strings.HasPrefix(rest, "/**") && !strings.HasPrefix(rest, "/**/"):
			start := s.pos
			closer := strings.Index(src[start+3:], "*/")
			if closer < 0 {
				return CommentBlock{}, false
			}
			return CommentBlock{
				Text:  src[start+3 : start+3+closer],
				Start: start,
				End:   start + 3 + closer + 2,
				Line:  lineAt(src, start),
			}, true
		case isDocLine(src, s.pos):
			return s.lineBlock(), true
		case strings.HasPrefix(rest, "//"):
			s.pos = skipLine(src, s.pos)
		case strings.HasPrefix(rest, "/*"):
			end, ok := skipBlockComment(src, s.pos)
			if !ok {
				return CommentBlock{}, false
			}
			s.pos = end
		case src[s.pos] == '"' || src[s.pos] == '\'':
			s.pos = skipString(src, s.pos)
		default:
			s.pos++
		}
	}
	return CommentBlock{}, false
}

// lineBlock reads a run of consecutive /// lines starting at the cursor.
func (s *Scanner) lineBlock() CommentBlock {
	src := s.src
	start := s.pos
	pos := start
	var lines []string
	for {
		nl := strings.IndexByte(src[pos:], '\n')
		if nl < 0 {
			lines = append(lines, strings.TrimPrefix(src[pos:], "///"))
			pos = len(src)
			break
		}
		lines = append(lines, strings.TrimPrefix(src[pos:pos+nl], "///"))
		next := pos + nl + 1
		for next < len(src) && (src[next] == ' ' || src[next] == '\t' || src[next] == '\r') {
			next++
		}
		if !isDocLine(src, next) {
			pos += nl
			break
		}
		pos = next
	}
	return CommentBlock{
		Text:  strings.Join(lines, "\n"),
		Start: start,
		End:   pos,
		Line:  lineAt(src, start),
	}
}

// seekDeclaration skips whitespace and comments from off and classifies the
// first significant token. It returns nil when that token is neither a
// contract nor a function header.
func seekDeclaration(src string, off int) (*Declaration, int) {
	pos := off
	for pos < len(src) {
		if n := spaceLen(src, pos); n > 0 {
			pos += n
			continue
		}
		rest := src[pos:]
		switch {
		case strings.HasPrefix(rest, "//"):
			pos = skipLine(src, pos)
		case strings.HasPrefix(rest, "/*"):
			end, ok := skipBlockComment(src, pos)
			if !ok {
				return nil, len(src)
			}
			pos = end
		default:
			if d, end := matchContract(src, pos); d != nil {
				return d, end
			}
			if d, end := matchFunction(src, pos); d != nil {
				return d, end
			}
			return nil, pos
		}
	}
	return nil, pos
}

// FindContracts returns the name of every contract declared in code, in
// order. Declarations inside comments and string literals are not counted.
func FindContracts(src string) []string {
	var names []string
	pos := 0
	for pos < len(src) {
		rest := src[pos:]
		switch {
		case strings.HasPrefix(rest, "//"):
			pos = skipLine(src, pos)
		case strings.HasPrefix(rest, "/*"):
			end, ok := skipBlockComment(src, pos)
			if !ok {
				return names
			}
			pos = end
		case src[pos] == '"' || src[pos] == '\'':
			pos = skipString(src, pos)
		case isIdentStart(src[pos]) && (pos == 0 || !isIdentChar(src[pos-1])):
			if d, end := matchContract(src, pos); d != nil {
				names = append(names, d.Name)
				pos = end
				continue
			}
			_, pos = readIdent(src, pos)
		default:
			pos++
		}
	}
	return names
}

// matchContract matches `[abstract] contract Name [is A, B(x)] {` at pos.
func matchContract(src string, pos int) (*Declaration, int) {
	word, next := readIdent(src, pos)
	if word == "abstract" {
		p := skipSpaces(src, next)
		if p == next {
			return nil, pos
		}
		word, next = readIdent(src, p)
	}
	if word != "contract" {
		return nil, pos
	}
	p := skipSpaces(src, next)
	if p == next {
		return nil, pos
	}
	name, q := readIdent(src, p)
	if name == "" {
		return nil, pos
	}
	q = skipSpaces(src, q)
	if q < len(src) && src[q] == '{' {
		return &Declaration{Kind: DeclContract, Name: name, Offset: pos}, q + 1
	}
	kw, r := readIdent(src, q)
	if kw != "is" {
		return nil, pos
	}
	depth := 0
	for i := r; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ';', '}':
			return nil, pos
		case '{':
			if depth == 0 {
				return &Declaration{Kind: DeclContract, Name: name, Offset: pos}, i + 1
			}
		}
	}
	return nil, pos
}

// matchFunction matches `function name(` at pos and captures the parameter
// list up to its matching close paren.
func matchFunction(src string, pos int) (*Declaration, int) {
	word, next := readIdent(src, pos)
	if word != "function" {
		return nil, pos
	}
	p := skipSpaces(src, next)
	if p == next {
		return nil, pos
	}
	name, q := readIdent(src, p)
	if name == "" {
		return nil, pos
	}
	q = skipSpaces(src, q)
	if q >= len(src) || src[q] != '(' {
		return nil, pos
	}
	open := q
	depth := 0
	for i := open; i < len(src); {
		rest := src[i:]
		switch {
		case strings.HasPrefix(rest, "//"):
			i = skipLine(src, i)
			continue
		case strings.HasPrefix(rest, "/*"):
			end, ok := skipBlockComment(src, i)
			if !ok {
				i = len(src)
				continue
			}
			i = end
			continue
		case src[i] == '(':
			depth++
		case src[i] == ')':
			depth--
			if depth == 0 {
				return &Declaration{
					Kind:     DeclFunction,
					Name:     name,
					Params:   stripComments(src[open+1 : i]),
					Balanced: true,
					Offset:   pos,
				}, i + 1
			}
		}
		i++
	}
	return &Declaration{Kind: DeclFunction, Name: name, Params: stripComments(src[open+1:]), Offset: pos}, len(src)
}

// stripComments replaces every // and /* */ comment in s with a single space.
func stripComments(s string) string {
	if !strings.Contains(s, "/") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		rest := s[i:]
		switch {
		case strings.HasPrefix(rest, "//"):
			b.WriteByte(' ')
			i = skipLine(s, i)
		case strings.HasPrefix(rest, "/*"):
			b.WriteByte(' ')
			i, _ = skipBlockComment(s, i)
		default:
			b.WriteByte(s[i])
			i++
		}
	}
	return b.String()
}

func isDocLine(src string, pos int) bool {
	rest := src[pos:]
	return strings.HasPrefix(rest, "///") && !strings.HasPrefix(rest, "////")
}

func skipLine(src string, pos int) int {
	if nl := strings.IndexByte(src[pos:], '\n'); nl >= 0 {
		return pos + nl
	}
	return len(src)
}

// skipBlockComment returns the offset after the first */ following pos. The
// boolean is false for an unterminated comment.
func skipBlockComment(src string, pos int) (int, bool) {
	closer := strings.Index(src[pos+2:], "*/")
	if closer < 0 {
		return len(src), false
	}
	return pos + 2 + closer + 2, true
}

func skipString(src string, pos int) int {
	quote := src[pos]
	for i := pos + 1; i < len(src); i++ {
		switch src[i] {
		case '\\':
			i++
		case quote:
			return i + 1
		case '\n':
			return i
		}
	}
	return len(src)
}

func spaceLen(src string, pos int) int {
	r, size := utf8.DecodeRuneInString(src[pos:])
	if unicode.IsSpace(r) {
		return size
	}
	return 0
}

func skipSpaces(src string, pos int) int {
	for pos < len(src) {
		n := spaceLen(src, pos)
		if n == 0 {
			break
		}
		pos += n
	}
	return pos
}

func readIdent(src string, pos int) (string, int) {
	if pos >= len(src) || !isIdentStart(src[pos]) {
		return "", pos
	}
	end := pos + 1
	for end < len(src) && isIdentChar(src[end]) {
		end++
	}
	return src[pos:end], end
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func lineAt(src string, off int) int {
	return strings.Count(src[:off], "\n") + 1
}
