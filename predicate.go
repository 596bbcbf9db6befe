package linkz

import "strings"

// StartsWith returns a token predicate that accepts tokens beginning with
// prefix.
func StartsWith(prefix string) func(string) bool {
	return func(tok string) bool {
		return strings.HasPrefix(tok, prefix)
	}
}

// MaxLength returns a token predicate that accepts tokens of at most n
// bytes.
func MaxLength(n int) func(string) bool {
	return func(tok string) bool {
		return len(tok) <= n
	}
}

// IsPalindrome reports whether tok reads the same forward and backward,
// case-sensitively. The empty string is trivially a palindrome; upstream
// tokenization never produces one, but the predicate handles it anyway.
func IsPalindrome(tok string) bool {
	for i, j := 0, len(tok)-1; i < j; i, j = i+1, j-1 {
		if tok[i] != tok[j] {
			return false
		}
	}
	return true
}
