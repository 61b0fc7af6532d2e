// Package normalize cleans up generic names, dosage forms, and dosage
// strengths so the same product (e.g. Ibuprofen 400 mg tablets) is not split
// across multiple dashboard rows by inconsistent casing, trailing dosage-form
// words, or formatting noise. It runs at ingest to populate the normalized
// columns the canonical key prefers.
package normalize

import (
	"regexp"
	"strings"
)

// formSuffixes are dosage-form words stripped from the end of generic names.
// Longest phrases first so "oral suspension" is tried before "suspension".
var formSuffixes = []string{
	"oral suspension",
	"suspension",
	"tablets",
	"tablet",
	"capsules",
	"capsule",
	"injection",
	"syrup",
	"cream",
	"ointment",
	"gel",
	"drops",
	"solution",
	"powder",
}

var (
	formSuffixRe = regexp.MustCompile(`(?i)\s+(?:` + strings.Join(formSuffixes, "|") + `)\s*$`)

	// Trailing dosage info: "400 mg", "100mg/5ml", "400+325 mg", etc.
	trailingDosageRe = regexp.MustCompile(`(?i)\s+\d[\d\s.+/]*\s*(?:mg/\d+\s*ml|mg|ml|mcg|g|iu|%)\s*$`)

	// "BP" qualifier (British Pharmacopoeia).
	bpRe = regexp.MustCompile(`(?i)\s+bp\b`)

	// Combination separators: " & ", " and ", " / " -> "+".
	comboSepRe = regexp.MustCompile(`(?i)\s*(?:&|\band\b|/)\s*`)

	spaceRe = regexp.MustCompile(`\s+`)
)

// GenericName normalizes a generic drug name for grouping:
// "IBUPROFEN Tablets BP 400 mg" -> "ibuprofen",
// "Ibuprofen and Paracetamol Suspension" -> "ibuprofen+paracetamol".
func GenericName(name string) string {
	if name == "" {
		return ""
	}

	s := strings.ToLower(strings.TrimSpace(name))

	s = bpRe.ReplaceAllString(s, "")
	s = trailingDosageRe.ReplaceAllString(s, "")
	s = formSuffixRe.ReplaceAllString(s, "")
	s = comboSepRe.ReplaceAllString(s, "+")

	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

var (
	// Units stripped from strengths.
	unitRe = regexp.MustCompile(`(?i)\s*(?:(?:mg|ml|mcg|g|iu)\b|%)`)

	// Descriptive combo: "Ibuprofen 100 mg and Paracetamol 125mg".
	descriptiveComboRe = regexp.MustCompile(`(?i)^[a-z]+\s+\d[\d.]*\s*(?:mg|ml|mcg|g|iu|%)(?:\s*(?:and|&|\+|/)\s*[a-z]+\s+\d[\d.]*\s*(?:mg|ml|mcg|g|iu|%))+$`)
	comboNumberRe      = regexp.MustCompile(`(?i)[a-z]+\s+(\d[\d.]*)\s*(?:mg|ml|mcg|g|iu|%)`)

	// Trailing ".0" / ".00".
	trailingDecimalRe = regexp.MustCompile(`\.0+\b`)

	plusSpaceRe  = regexp.MustCompile(`\s*\+\s*`)
	slashSpaceRe = regexp.MustCompile(`\s*/\s*`)
)

// DosageStrength normalizes a dosage strength for grouping:
// "400.0 mg" -> "400", "100 mg/5 ml" -> "100/5",
// "Ibuprofen 100 mg and Paracetamol 125mg" -> "100+125".
func DosageStrength(strength string) string {
	if strength == "" {
		return ""
	}

	s := strings.TrimSpace(strength)

	// Descriptive combinations keep only the numeric values.
	if descriptiveComboRe.MatchString(s) {
		matches := comboNumberRe.FindAllStringSubmatch(s, -1)
		if len(matches) > 0 {
			parts := make([]string, len(matches))
			for i, m := range matches {
				parts[i] = trailingDecimalRe.ReplaceAllString(m[1], "")
			}
			return strings.Join(parts, "+")
		}
	}

	s = unitRe.ReplaceAllString(s, "")
	s = trailingDecimalRe.ReplaceAllString(s, "")
	s = plusSpaceRe.ReplaceAllString(s, "+")
	s = slashSpaceRe.ReplaceAllString(s, "/")

	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}
