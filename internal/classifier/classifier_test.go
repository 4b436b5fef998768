package classifier

import (
	"testing"

	"github.com/raaihank/doc-sentinel/internal/rules"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClassifier(t *testing.T) *Classifier {
	t.Helper()
	return New(rules.Default(), nil)
}

func TestClassify_NotClassified(t *testing.T) {
	c := newClassifier(t)

	res := c.Classify("Hôm nay trời đẹp")
	assert.Equal(t, []rules.BroadCategory{rules.BroadNotClassified}, res.Categories)
	assert.Empty(t, res.DetectedTypes)
	assert.Empty(t, res.Details)
	assert.Equal(t, "NOT_CLASSIFIED", c.Summary("Hôm nay trời đẹp"))
}

func TestClassify_EmptyText(t *testing.T) {
	c := newClassifier(t)

	res := c.Classify("")
	assert.Equal(t, []rules.BroadCategory{rules.BroadNotClassified}, res.Categories)
	assert.NotNil(t, res.DetectedTypes)
	assert.NotNil(t, res.Details)
}

func TestClassify_Password(t *testing.T) {
	c := newClassifier(t)

	res := c.Classify("Mật khẩu: abc123")
	assert.Equal(t, []rules.BroadCategory{rules.BroadInternalSensitive}, res.Categories)
	assert.Equal(t, []string{"Mật khẩu người dùng"}, res.DetectedTypes)

	require.Len(t, res.Details, 1)
	d := res.Details[0]
	assert.Equal(t, "Mật khẩu người dùng", d.Type)
	assert.Equal(t, []rules.BroadCategory{rules.BroadInternalSensitive}, d.Categories)
	assert.Equal(t, []string{"Keyword: mật khẩu", "Pattern: mật khẩu: abc123"}, d.Matches)
	assert.Contains(t, d.Description, "STT 11")

	assert.Equal(t, "INTERNAL_SENSITIVE", c.Summary("Mật khẩu: abc123"))
}

func TestClassify_BothCategories(t *testing.T) {
	c := newClassifier(t)
	text := "Bệnh án của bệnh nhân, api key: xyz"

	res := c.Classify(text)
	assert.Equal(t, []rules.BroadCategory{rules.BroadPersonalSensitive, rules.BroadInternalSensitive}, res.Categories)
	assert.Equal(t, []string{"Thông tin sức khỏe và bệnh án", "Secret Keys và Tokens"}, res.DetectedTypes)
	assert.True(t, res.Has(rules.BroadPersonalSensitive))
	assert.False(t, res.Has(rules.BroadNotClassified))

	assert.Equal(t, "PERSONAL_SENSITIVE, INTERNAL_SENSITIVE", c.Summary(text))
}

func TestClassify_CaseInsensitive(t *testing.T) {
	c := newClassifier(t)

	res := c.Classify("GPS: 21.0285, 105.8542")
	require.Len(t, res.Details, 1)
	assert.Equal(t, "Dữ liệu vị trí", res.Details[0].Type)
	assert.Equal(t, []string{"Keyword: gps", "Pattern: gps", "Pattern: 21.0285, 105.8542"}, res.Details[0].Matches)
}

func TestSummaryOf(t *testing.T) {
	tests := []struct {
		name string
		cats []rules.BroadCategory
		want string
	}{
		{"not classified wins", []rules.BroadCategory{rules.BroadNotClassified}, "NOT_CLASSIFIED"},
		{"personal only", []rules.BroadCategory{rules.BroadPersonalSensitive}, "PERSONAL_SENSITIVE"},
		{"internal only", []rules.BroadCategory{rules.BroadInternalSensitive}, "INTERNAL_SENSITIVE"},
		{"both", []rules.BroadCategory{rules.BroadPersonalSensitive, rules.BroadInternalSensitive}, "PERSONAL_SENSITIVE, INTERNAL_SENSITIVE"},
		{"empty", nil, "NOT_CLASSIFIED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SummaryOf(Result{Categories: tt.cats}))
		})
	}
}

func TestListCategories(t *testing.T) {
	c := newClassifier(t)

	got := c.ListCategories()
	require.Len(t, got, 2)
	assert.Len(t, got[rules.BroadPersonalSensitive], 9)
	assert.Equal(t, []string{"Secret Keys và Tokens", "Mật khẩu người dùng"}, got[rules.BroadInternalSensitive])
}
