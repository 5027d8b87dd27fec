// Package subject derives the destination-visible subject for a copied
// occurrence.
package subject

import "strings"

// Transform prefixes the original subject with the source account name,
// or derives an abbreviated form when abbreviate is set.
//
// Abbreviated form: the tag is the 2 characters after "@" in the source
// name, uppercased, when the name contains one; otherwise its first 4
// characters uppercased. The fragment is the first two whitespace words
// of the subject joined without a separator, truncated to 6 characters in
// the "@" branch and 5 otherwise. Inputs shorter than any slice length
// are clamped, never an error.
func Transform(original, sourceName string, abbreviate bool) string {
	if !abbreviate {
		return sourceName + " : " + original
	}

	var tag string
	var fragLen int
	if at := strings.Index(sourceName, "@"); at >= 0 {
		tag = strings.ToUpper(clip(sourceName[at+1:], 2))
		fragLen = 6
	} else {
		tag = strings.ToUpper(clip(sourceName, 4))
		fragLen = 5
	}

	words := strings.Fields(original)
	if len(words) > 2 {
		words = words[:2]
	}
	frag := clip(strings.Join(words, ""), fragLen)

	return tag + " : " + frag
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
