package linkz

import (
	"strings"
	"unicode/utf8"
)

// TokenReader is a lazy tokenizer implementing Reader[string]. It walks a
// text once, forward only, splitting on a caller-supplied set of delimiter
// runes and discarding the empty substrings that appear between
// consecutive delimiters. Reset restarts from the beginning of the text.
type TokenReader struct {
	text   string
	delims string
	off    int
}

// NewTokenReader creates a TokenReader over text. Every rune in delims is
// a delimiter; runs of delimiters produce no empty tokens.
//
// Example:
//
//	r := linkz.NewTokenReader("wa wow, level; noon", " ;,")
//	// yields "wa", "wow", "level", "noon"
func NewTokenReader(text, delims string) *TokenReader {
	return &TokenReader{text: text, delims: delims}
}

// skipDelims advances the cursor past any delimiter run.
func (r *TokenReader) skipDelims() {
	for r.off < len(r.text) {
		c, size := utf8.DecodeRuneInString(r.text[r.off:])
		if !strings.ContainsRune(r.delims, c) {
			return
		}
		r.off += size
	}
}

// More reports whether another token is available.
func (r *TokenReader) More() bool {
	r.skipDelims()
	return r.off < len(r.text)
}

// Read returns the next non-empty token, or ErrEndOfStream.
func (r *TokenReader) Read() (string, error) {
	r.skipDelims()
	if r.off >= len(r.text) {
		return "", ErrEndOfStream
	}
	start := r.off
	for r.off < len(r.text) {
		c, size := utf8.DecodeRuneInString(r.text[r.off:])
		if strings.ContainsRune(r.delims, c) {
			break
		}
		r.off += size
	}
	return r.text[start:r.off], nil
}

// ReadInto reads up to n tokens into dst starting at off.
func (r *TokenReader) ReadInto(dst []string, off, n int) (int, error) {
	if off < 0 || n < 0 || off+n > len(dst) {
		return 0, ErrInvalidWindow
	}
	if !r.More() {
		return 0, ErrEndOfStream
	}
	read := 0
	for read < n {
		tok, err := r.Read()
		if err != nil {
			break
		}
		dst[off+read] = tok
		read++
	}
	return read, nil
}

// Skip advances past up to n tokens and returns how many were skipped.
func (r *TokenReader) Skip(n int) (int, error) {
	if n < 0 {
		return 0, ErrInvalidWindow
	}
	skipped := 0
	for skipped < n {
		if _, err := r.Read(); err != nil {
			break
		}
		skipped++
	}
	return skipped, nil
}

// Reset rewinds the reader to the beginning of the text.
func (r *TokenReader) Reset() error {
	r.off = 0
	return nil
}

// Split eagerly tokenizes text with the given delimiter set, discarding
// empty tokens. It is the one-shot form of NewTokenReader.
func Split(text, delims string) []string {
	r := NewTokenReader(text, delims)
	var tokens []string
	for {
		tok, err := r.Read()
		if err != nil {
			return tokens
		}
		tokens = append(tokens, tok)
	}
}

var _ Reader[string] = (*TokenReader)(nil)
