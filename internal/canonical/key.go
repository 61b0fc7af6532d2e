// Package canonical derives the stable grouping identity for product records
// and its reversible URL slug.
//
// The key format is a frozen contract: lower(trim(genericName)) + "||" +
// lower(trim(dosageForm)) + "||" + lower(trim(dosageStrength)). Encoded slugs
// are bookmarked in shared URLs, so any change to the separator or the
// normalization rules breaks every previously shared link. Treat changes as a
// new slug namespace, not an edit here.
package canonical

import "strings"

// Separator joins the three key components. It never appears in normalized
// permit text.
const Separator = "||"

// Key is the canonical grouping identity of a product. Components are stored
// already normalized; two line items are the same product iff their keys are
// byte-identical.
type Key struct {
	GenericName    string
	DosageForm     string
	DosageStrength string
}

// BuildKey derives a Key from raw field values. Missing dosage fields are
// legal and normalize to the empty string; whether records with an empty
// generic name are wanted is a data-quality policy for the caller, not an
// error here.
func BuildKey(genericName, dosageForm, dosageStrength string) Key {
	return Key{
		GenericName:    normalizeComponent(genericName),
		DosageForm:     normalizeComponent(dosageForm),
		DosageStrength: normalizeComponent(dosageStrength),
	}
}

func normalizeComponent(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// String renders the key in its wire format.
func (k Key) String() string {
	return k.GenericName + Separator + k.DosageForm + Separator + k.DosageStrength
}

// ParseKey splits a wire-format key back into components.
func ParseKey(s string) Key {
	parts := strings.SplitN(s, Separator, 3)
	k := Key{}
	if len(parts) > 0 {
		k.GenericName = parts[0]
	}
	if len(parts) > 1 {
		k.DosageForm = parts[1]
	}
	if len(parts) > 2 {
		k.DosageStrength = parts[2]
	}
	return k
}

// ColumnSet is the closed variant of which line-item columns feed the key
// expression: the raw text columns on legacy databases, the normalized ones
// where the schema has them. Resolved once per process by the capability
// detector and passed explicitly into query construction.
type ColumnSet int

const (
	Legacy ColumnSet = iota
	Extended
)

// String names the variant for logs.
func (c ColumnSet) String() string {
	if c == Extended {
		return "extended"
	}
	return "legacy"
}

// Columns returns the generic-name, dosage-form, and dosage-strength column
// names for this variant.
func (c ColumnSet) Columns() (generic, form, strength string) {
	if c == Extended {
		return "norm_generic_name", "norm_dosage_form", "norm_dosage_strength"
	}
	return "generic_name", "dosage_form", "dosage_strength"
}

// ComponentExprs returns the three normalized SQL expressions that feed the
// group key, in key order, against the given line-item alias. The SQL
// normalization must stay identical to BuildKey: trim, lower, null to empty
// string.
func (c ColumnSet) ComponentExprs(alias string) [3]string {
	generic, form, strength := c.Columns()
	norm := func(col string) string {
		return "lower(btrim(coalesce(" + alias + "." + col + ", '')))"
	}
	return [3]string{norm(generic), norm(form), norm(strength)}
}
