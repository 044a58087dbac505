package generator

import (
	"encoding/hex"
	"errors"
	"strings"

	"golang.org/x/crypto/sha3"
)

// ErrUnbalancedParams is returned when a parameter list's parentheses do not
// pair up, in which case no selector can be derived.
var ErrUnbalancedParams = errors.New("unbalanced parentheses in parameter list")

// Selector is the 4-byte EVM function selector.
type Selector [4]byte

// Hex returns the selector as 0x followed by 8 lowercase hex digits.
func (s Selector) Hex() string {
	return "0x" + hex.EncodeToString(s[:])
}

func (s Selector) String() string {
	return s.Hex()
}

// ComputeSelector returns the first four bytes of
// keccak256("name(type1,type2,...)") for a raw Solidity parameter list.
func ComputeSelector(name, params string) (Selector, error) {
	sig, err := CanonicalSignature(name, params)
	if err != nil {
		return Selector{}, err
	}
	var sel Selector
	copy(sel[:], keccak256([]byte(sig)))
	return sel, nil
}

// CanonicalSignature builds the ABI signature string, e.g.
// "transfer(address,uint256)" for ("transfer", "address to, uint amount").
// Comments inside the list are ignored.
func CanonicalSignature(name, params string) (string, error) {
	params = stripComments(params)
	if !balancedParens(params) {
		return "", ErrUnbalancedParams
	}
	return name + "(" + strings.Join(ParamTypes(params), ",") + ")", nil
}

// ParamTypes returns the canonical type of every parameter in the list.
func ParamTypes(params string) []string {
	var types []string
	for _, part := range splitParams(stripComments(params)) {
		if t := paramType(part); t != "" {
			types = append(types, t)
		}
	}
	return types
}

// splitParams splits on commas outside of (), <> nesting. The > of a
// mapping arrow does not close anything.
func splitParams(params string) []string {
	var parts []string
	var current strings.Builder
	depth := 0
	var prev rune

	for _, ch := range params {
		switch {
		case ch == '(' || ch == '<':
			depth++
			current.WriteRune(ch)
		case ch == ')' || (ch == '>' && prev != '='):
			depth--
			current.WriteRune(ch)
		case ch == ',' && depth == 0:
			parts = append(parts, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(ch)
		}
		prev = ch
	}

	if last := strings.TrimSpace(current.String()); last != "" {
		parts = append(parts, last)
	}
	return parts
}

var dataLocations = map[string]bool{
	"memory":   true,
	"calldata": true,
	"storage":  true,
}

// paramType drops data locations and the parameter name, keeping the type.
func paramType(part string) string {
	var tokens []string
	for _, tok := range strings.Fields(part) {
		if !dataLocations[tok] {
			tokens = append(tokens, tok)
		}
	}
	switch len(tokens) {
	case 0:
		return ""
	case 1:
		return canonicalType(tokens[0])
	}
	return canonicalType(strings.Join(tokens[:len(tokens)-1], " "))
}

var typeAliases = map[string]string{
	"uint":   "uint256",
	"int":    "int256",
	"byte":   "bytes1",
	"fixed":  "fixed128x18",
	"ufixed": "ufixed128x18",
}

func canonicalType(t string) string {
	t = strings.TrimSpace(t)
	if rest, ok := strings.CutPrefix(t, "address payable"); ok {
		t = "address" + strings.TrimSpace(rest)
	}
	base, suffix := t, ""
	if i := strings.IndexByte(t, '['); i >= 0 {
		base, suffix = t[:i], t[i:]
	}
	if alias, ok := typeAliases[base]; ok {
		base = alias
	}
	return base + suffix
}

func balancedParens(s string) bool {
	depth := 0
	for _, ch := range s {
		switch ch {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

func keccak256(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write(data)
	return h.Sum(nil)
}
