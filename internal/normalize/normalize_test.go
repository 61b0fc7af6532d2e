package normalize

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenericName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"IBUPROFEN TABLETS", "ibuprofen"},
		{"IBUPROFEN Tablets BP 400 mg", "ibuprofen"},
		{"IBUPROFEN ORAL SUSPENSION BP 100MG/5ML", "ibuprofen"},
		{"Ibuprofen and Paracetamol Suspension", "ibuprofen+paracetamol"},
		{"IBUPROFEN+PSEUDOEPHEDRINE HCL+CHLORPHENIRAMINE MALEATE", "ibuprofen+pseudoephedrine hcl+chlorpheniramine maleate"},
		{"Amoxicillin / Clavulanic Acid", "amoxicillin+clavulanic acid"},
		{"  Paracetamol  ", "paracetamol"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, GenericName(tt.in))
		})
	}
}

func TestDosageStrength(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"400 mg", "400"},
		{"400.0 mg", "400"},
		{"100 mg/5 ml", "100/5"},
		{"400 + 325 mg", "400+325"},
		{"Ibuprofen 100 mg and Paracetamol 125mg", "100+125"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, DosageStrength(tt.in))
		})
	}
}

func TestDosageForm_Defaults(t *testing.T) {
	n := New()

	tests := []struct {
		in   string
		want string
	}{
		{"Film Coated Tablet", "TABLET"},
		{"film-coated tablet", "TABLET"},
		{"Powder for Oral Suspension", "SUSPENSION"},
		{"CAPSULES", "CAPSULE"},
		{"Eye Drops", "DROPS"},
		{"Nebulizer", "nebulizer"}, // unknown: lowercased passthrough
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, n.DosageForm(tt.in))
		})
	}
}

func TestNewWithAliasFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aliases.yaml")
	yaml := `
TABLET:
  - tab
  - tabs
PESSARY:
  - pessary
  - vaginal tablet
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	n, err := NewWithAliasFile(path)
	require.NoError(t, err)

	assert.Equal(t, "TABLET", n.DosageForm("TAB"))
	assert.Equal(t, "PESSARY", n.DosageForm("Vaginal Tablet"))
	// Defaults still apply
	assert.Equal(t, "TABLET", n.DosageForm("Film Coated Tablet"))
}

func TestNewWithAliasFile_Missing(t *testing.T) {
	_, err := NewWithAliasFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestNewWithAliasFile_BadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("::::not yaml"), 0644))

	_, err := NewWithAliasFile(path)
	assert.Error(t, err)
}
