package model

import "strings"

// SplitName splits a display name into its base name and brand. The brand is
// the last whitespace-separated token; a single-token name has no brand.
// Multi-word brands are not representable under this convention.
func SplitName(name string) (base, brand string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return name, ""
	}
	return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
}

// JoinName rebuilds a display name from a base name and a brand. An empty
// brand falls back to the brand of previous, so editing the base name alone
// does not drop the brand.
func JoinName(base, brand, previous string) string {
	base = strings.TrimSpace(base)
	brand = strings.TrimSpace(brand)
	if brand == "" {
		_, brand = SplitName(previous)
	}
	if brand == "" {
		return base
	}
	return strings.TrimSpace(base + " " + brand)
}
