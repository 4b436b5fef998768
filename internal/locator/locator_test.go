package locator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLocate(t *testing.T) {
	text := "Họ tên: Nguyễn Văn A\nSĐT: 0912345678\n\nMật khẩu: abc"

	tests := []struct {
		name   string
		offset int
		want   Position
	}{
		{"start of text", 0, Position{1, 1, "Họ tên: Nguyễn Văn A"}},
		{"inside first line counts runes", 8, Position{1, 9, "Họ tên: Nguyễn Văn A"}},
		{"newline belongs to its line", 20, Position{1, 21, "Họ tên: Nguyễn Văn A"}},
		{"second line", 21, Position{2, 1, "SĐT: 0912345678"}},
		{"value on second line", 26, Position{2, 6, "SĐT: 0912345678"}},
		{"empty line", 37, Position{3, 1, ""}},
		{"last line", 38, Position{4, 1, "Mật khẩu: abc"}},
		{"past the end clamps", 500, Position{4, 1, "Mật khẩu: abc"}},
		{"negative offset", -3, Position{1, 1, "Họ tên: Nguyễn Văn A"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Locate(text, tt.offset))
		})
	}
}

func TestLocateEmptyText(t *testing.T) {
	assert.Equal(t, Position{Line: 1, Column: 1, LineText: ""}, Locate("", 0))
	assert.Equal(t, Position{Line: 1, Column: 1, LineText: ""}, Locate("", 10))
}

func TestPositionString(t *testing.T) {
	assert.Equal(t, "2:6", Position{Line: 2, Column: 6}.String())
}
