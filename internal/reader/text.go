package reader

import (
	"strings"
	"unicode/utf8"
)

// ParseText splits text into words.
func ParseText(text string) []string {
	return strings.Fields(text)
}

// FindSentenceStarts returns indices of words that start sentences.
func FindSentenceStarts(words []string) []int {
	starts := []int{0}
	for i, word := range words {
		if len(word) > 0 {
			last := word[len(word)-1]
			if last == '.' || last == '!' || last == '?' {
				if i+1 < len(words) {
					starts = append(starts, i+1)
				}
			}
		}
	}
	return starts
}

// GetORPPosition returns the Optimal Recognition Point index for a word.
// This is the character (rune) position where the eye should focus for fastest recognition.
func GetORPPosition(word string) int {
	length := utf8.RuneCountInString(word)
	if length <= 1 {
		return 0
	} else if length <= 5 {
		return 1
	}
	return length / 3
}

// SplitORP splits word around its focus letter.
func SplitORP(word string) (before, focus, after string) {
	runes := []rune(word)
	if len(runes) == 0 {
		return "", "", ""
	}
	orp := min(GetORPPosition(word), len(runes)-1)
	return string(runes[:orp]), string(runes[orp]), string(runes[orp+1:])
}

// Context returns up to radius words on each side of index.
func Context(words []string, index, radius int) (before []string, current string, after []string) {
	if index < 0 || index >= len(words) {
		return nil, "", nil
	}
	start := max(0, index-radius)
	end := min(len(words), index+radius+1)
	return words[start:index], words[index], words[index+1 : end]
}
