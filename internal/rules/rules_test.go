package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTableOrder(t *testing.T) {
	table := Default()

	want := []Subtype{
		SubtypePhone, SubtypeIDCard, SubtypePersonalID, SubtypePassport, SubtypeDriverLicense,
		SubtypeLicensePlate, SubtypeTaxIDPersonal, SubtypeSocialInsurance, SubtypeHealthInsurance,
		SubtypeTaxIDOrg, SubtypeBankAccount, SubtypeCardNumber, SubtypeSalary, SubtypeSecretKey,
		SubtypePassword,
	}

	var got []Subtype
	for _, r := range table.Rules() {
		got = append(got, r.Subtype)
		assert.NoError(t, r.PatternErr(), "rule %s", r.Subtype)
	}
	assert.Equal(t, want, got)
	assert.Len(t, table.BroadTypes(), 11)
	assert.Same(t, table, Default())
}

func TestTableIsReadOnly(t *testing.T) {
	table := Default()

	rs := table.Rules()
	rs[0].Keywords[0] = "mutated"
	rs[0].Subtype = "MUTATED"

	again := table.Rules()
	assert.Equal(t, SubtypePhone, again[0].Subtype)
	assert.Equal(t, "điện thoại", again[0].Keywords[0])

	bt := table.BroadTypes()
	bt[0].Keywords = nil
	assert.NotEmpty(t, table.BroadTypes()[0].Keywords)
}

func TestRuleLookup(t *testing.T) {
	r, ok := Default().Rule(SubtypePassword)
	require.True(t, ok)
	assert.False(t, r.HasPattern())
	assert.Equal(t, CategoryInternal, r.Category)

	_, ok = Default().Rule("NOPE")
	assert.False(t, ok)
}

func TestValidate(t *testing.T) {
	r, ok := Default().Rule(SubtypePhone)
	require.True(t, ok)

	got, ok := r.Validate("0912345678 ngay mai")
	require.True(t, ok)
	assert.Equal(t, "0912345678", got)

	_, ok = r.Validate("khong co so")
	assert.False(t, ok)
}

func TestMalformedPatternNeverMatches(t *testing.T) {
	table, err := NewBuilder().AddRule(Rule{
		Subtype:  "BROKEN",
		Category: CategoryInternal,
		Keywords: []string{"broken"},
		Pattern:  `(unclosed`,
	}).Build()
	require.NoError(t, err)

	r, ok := table.Rule("BROKEN")
	require.True(t, ok)
	assert.True(t, r.HasPattern())
	assert.Error(t, r.PatternErr())

	_, matched := r.Validate("(unclosed")
	assert.False(t, matched)
}

func TestBuildRejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Builder)
	}{
		{"missing subtype", func(b *Builder) {
			b.AddRule(Rule{Category: CategoryInternal, Keywords: []string{"x"}})
		}},
		{"unknown category", func(b *Builder) {
			b.AddRule(Rule{Subtype: "X", Category: "SECRET", Keywords: []string{"x"}})
		}},
		{"no keywords", func(b *Builder) {
			b.AddRule(Rule{Subtype: "X", Category: CategoryInternal})
		}},
		{"empty keyword", func(b *Builder) {
			b.AddRule(Rule{Subtype: "X", Category: CategoryInternal, Keywords: []string{""}})
		}},
		{"broad type without name", func(b *Builder) {
			b.AddBroadType(BroadDataType{Categories: []BroadCategory{BroadInternalSensitive}})
		}},
		{"broad type with not-classified category", func(b *Builder) {
			b.AddBroadType(BroadDataType{Name: "x", Categories: []BroadCategory{BroadNotClassified}})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuilder()
			tt.build(b)
			_, err := b.Build()
			assert.Error(t, err)
		})
	}
}

func TestFindPatterns(t *testing.T) {
	var location BroadDataType
	for _, bt := range Default().BroadTypes() {
		if bt.Name == "Dữ liệu vị trí" {
			location = bt
		}
	}
	require.NotEmpty(t, location.Name)

	got := location.FindPatterns("tọa độ gps: 21.0285, 105.8542")
	assert.Equal(t, []string{"tọa độ", "gps", "21.0285, 105.8542"}, got)
}

func TestLoadPack(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pack.yaml")
	content := `
rules:
  - subtype: EMPLOYEE_ID
    category: INTERNAL
    keywords: ["mã nhân viên", "employee id"]
    pattern: "\\bNV\\d{5}\\b"
broad_types:
  - name: Hợp đồng lao động
    categories: [INTERNAL_SENSITIVE]
    keywords: ["hợp đồng lao động"]
    description: Internal contracts
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	pack, err := LoadPack(path)
	require.NoError(t, err)
	assert.Equal(t, 2, pack.Len())

	table, err := pack.Apply(NewDefaultBuilder()).Build()
	require.NoError(t, err)

	rs := table.Rules()
	last := rs[len(rs)-1]
	assert.Equal(t, Subtype("EMPLOYEE_ID"), last.Subtype)
	assert.Equal(t, "EMPLOYEE_ID", last.Subtype.Label())

	got, ok := last.Validate("NV12345")
	require.True(t, ok)
	assert.Equal(t, "NV12345", got)

	bts := table.BroadTypes()
	assert.Equal(t, "Hợp đồng lao động", bts[len(bts)-1].Name)
}

func TestLoadPackErrors(t *testing.T) {
	pack, err := LoadPack("")
	require.NoError(t, err)
	assert.Zero(t, pack.Len())

	_, err = LoadPack("/nonexistent/pack.yaml")
	assert.Error(t, err)

	_, err = ParsePack([]byte("{{invalid yaml"))
	assert.Error(t, err)
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "Số điện thoại", SubtypePhone.Label())
	assert.Equal(t, "Dữ liệu định danh nhạy cảm", CategoryIdentifiable.Label())
	assert.Equal(t, "Không phân loại", BroadNotClassified.Label())
}

func TestLoadTable(t *testing.T) {
	table, err := LoadTable("")
	require.NoError(t, err)
	assert.Same(t, Default(), table)

	path := filepath.Join(t.TempDir(), "pack.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - subtype: EMPLOYEE_ID\n    category: INTERNAL\n    keywords: [\"employee id\"]\n"), 0600))

	table, err = LoadTable(path)
	require.NoError(t, err)
	assert.Len(t, table.Rules(), len(Default().Rules())+1)

	require.NoError(t, os.WriteFile(path, []byte("rules:\n  - subtype: BAD\n    category: OTHER\n    keywords: [x]\n"), 0600))
	_, err = LoadTable(path)
	assert.Error(t, err)
}
