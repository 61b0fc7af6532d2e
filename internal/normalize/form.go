package normalize

import (
	"os"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// defaultFormAliases maps a canonical dosage form to the raw spellings seen in
// permit data. Overridable via a YAML alias file (see NewWithAliasFile).
var defaultFormAliases = map[string][]string{
	"TABLET": {
		"tablet", "tablets",
		"film coated tablet", "film-coated tablet",
		"tablet film coated", "tablet coated", "coated tablet",
		"sugar coated tablet",
		"chewable tablet", "dispersible tablet",
		"effervescent tablet", "enteric coated tablet",
	},
	"CAPSULE": {
		"capsule", "capsules",
		"soft gelatin capsule", "hard gelatin capsule",
		"capsule liquid filled", "capsule gelatin",
	},
	"SUSPENSION": {
		"suspension", "oral suspension",
		"for suspension", "powder for suspension",
		"powder for oral suspension", "dry suspension",
	},
	"SYRUP": {"syrup"},
	"INJECTION": {
		"injection",
		"powder for injection", "solution for injection",
		"injection powder for solution",
		"lyophilized powder for injection",
	},
	"CREAM":       {"cream"},
	"OINTMENT":    {"ointment"},
	"GEL":         {"gel"},
	"DROPS":       {"drops", "eye drops", "ear drops", "nasal drops", "oral drops"},
	"SOLUTION":    {"solution", "oral solution"},
	"INHALER":     {"inhaler", "metered dose inhaler", "dry powder inhaler"},
	"SUPPOSITORY": {"suppository"},
}

var formCleanRe = regexp.MustCompile(`\s+`)

// Normalizer maps dosage-form spellings to their canonical form.
type Normalizer struct {
	formLookup map[string]string
}

// New returns a Normalizer using the built-in alias table.
func New() *Normalizer {
	return &Normalizer{formLookup: buildLookup(defaultFormAliases)}
}

// NewWithAliasFile returns a Normalizer whose alias table is the built-in one
// merged with entries from a YAML file of the shape
//
//	TABLET:
//	  - tab
//	  - tabs
//
// File entries extend the defaults; a canonical form present in both gains the
// file's extra aliases.
func NewWithAliasFile(path string) (*Normalizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "normalize: read alias file %s", path)
	}

	var extra map[string][]string
	if err := yaml.Unmarshal(data, &extra); err != nil {
		return nil, eris.Wrapf(err, "normalize: parse alias file %s", path)
	}

	lookup := buildLookup(defaultFormAliases)
	for alias, canonical := range buildLookupSource(extra) {
		lookup[alias] = canonical
	}
	return &Normalizer{formLookup: lookup}, nil
}

func buildLookup(aliases map[string][]string) map[string]string {
	lookup := make(map[string]string)
	for canonical, list := range aliases {
		for _, alias := range list {
			lookup[alias] = canonical
		}
	}
	return lookup
}

func buildLookupSource(aliases map[string][]string) map[string]string {
	lookup := make(map[string]string)
	for canonical, list := range aliases {
		upper := strings.ToUpper(strings.TrimSpace(canonical))
		for _, alias := range list {
			lookup[cleanForm(alias)] = upper
		}
	}
	return lookup
}

// DosageForm maps a dosage form string to its canonical form:
// "Film Coated Tablet" -> "TABLET", "Powder for Oral Suspension" ->
// "SUSPENSION". Unknown forms come back lowercased and trimmed.
func (n *Normalizer) DosageForm(form string) string {
	if form == "" {
		return ""
	}

	cleaned := cleanForm(form)
	if canonical, ok := n.formLookup[cleaned]; ok {
		return canonical
	}
	return cleaned
}

func cleanForm(form string) string {
	cleaned := strings.ToLower(strings.TrimSpace(form))
	cleaned = strings.ReplaceAll(cleaned, "-", " ")
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	return formCleanRe.ReplaceAllString(cleaned, " ")
}
