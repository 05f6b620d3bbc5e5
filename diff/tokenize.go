package diff

import (
	"unicode"
	"unicode/utf8"
)

type tokenClass int

const (
	classSpace tokenClass = iota
	classWord
	classPunct
)

// Tokenize splits text into runs of white space, runs of word characters
// (letters, numbers, '_', '\'' and '-'), and single punctuation characters.
// Concatenating the tokens yields text again.
func Tokenize(text string) []string {
	var tokens []string
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		class := classify(r)
		end := i + size

		if class != classPunct {
			for end < len(text) {
				next, n := utf8.DecodeRuneInString(text[end:])
				if classify(next) != class {
					break
				}
				end += n
			}
		}

		tokens = append(tokens, text[i:end])
		i = end
	}
	return tokens
}

func classify(r rune) tokenClass {
	switch {
	case isSpace(r):
		return classSpace
	case isWord(r):
		return classWord
	default:
		return classPunct
	}
}

// isSpace matches the Unicode White_Space set plus the byte order mark.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

func isWord(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' || r == '\'' || r == '-'
}
