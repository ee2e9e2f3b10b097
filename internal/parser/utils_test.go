package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thinhvd77/Tax/internal/model"
)

func TestToNumber(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   any
		want float64
	}{
		{nil, 0},
		{"", 0},
		{"   ", 0},
		{"abc", 0},
		{"1,234,567", 1234567},
		{" 2 500 000 ", 2500000},
		{"12.5", 12.5},
		{"-300", -300},
		{"150000đ", 150000},
		{42, 42},
		{int64(7), 7},
		{3.25, 3.25},
		{true, 1},
		{struct{}{}, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ToNumber(tc.in), "ToNumber(%#v)", tc.in)
	}
}

func TestParseNumber_ReportsFailure(t *testing.T) {
	t.Parallel()

	_, ok := ParseNumber("không")
	assert.False(t, ok)
	_, ok = ParseNumber("")
	assert.False(t, ok)

	v, ok := ParseNumber("1,000")
	assert.True(t, ok)
	assert.Equal(t, float64(1000), v)
}

func TestNormalizeName_Diacritics(t *testing.T) {
	t.Parallel()

	assert.Equal(t, model.NormalizedKey("nguyen van an"), NormalizeName("  Nguyễn Văn   An "))
	assert.Equal(t, NormalizeName("NGUYỄN VĂN AN"), NormalizeName("nguyen van an"))
	assert.Equal(t, model.NormalizedKey("do thi ha"), NormalizeName("Đỗ Thị Hà"))
	assert.Equal(t, model.NormalizedKey(""), NormalizeName(""))
	assert.Equal(t, model.NormalizedKey(""), NormalizeName("   "))
}

func TestNormalizeName_Idempotent(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"Trần Thị Bích Ngọc", "  LÊ  Đức ", "Phạm Quỳnh", "abc", "Ưng Hoàng Phúc"} {
		once := NormalizeName(name)
		assert.Equal(t, once, NormalizeName(string(once)), name)
	}
}

func TestNormalizeName_DecomposedInput(t *testing.T) {
	t.Parallel()

	// "Hà" typed with a combining grave accent
	decomposed := "Ha\u0300"
	assert.Equal(t, NormalizeName("H\u00e0"), NormalizeName(decomposed))
	assert.Equal(t, model.NormalizedKey("ha"), NormalizeName(decomposed))
}

func TestParseOrdinal(t *testing.T) {
	t.Parallel()

	n, ok := ParseOrdinal(" 12 ")
	assert.True(t, ok)
	assert.Equal(t, 12, n)

	_, ok = ParseOrdinal("I")
	assert.False(t, ok)
	_, ok = ParseOrdinal("")
	assert.False(t, ok)
	_, ok = ParseOrdinal("1a")
	assert.False(t, ok)
}

func TestIsTextAndStartsWithDigit(t *testing.T) {
	t.Parallel()

	assert.True(t, IsText("Nguyễn Văn An"))
	assert.False(t, IsText("12345"))
	assert.False(t, IsText(" "))

	assert.True(t, StartsWithDigit(" 1. Tổng"))
	assert.False(t, StartsWithDigit("Lê An"))
	assert.False(t, StartsWithDigit(""))
}

func TestContainsAny_FoldsBothSides(t *testing.T) {
	t.Parallel()

	assert.True(t, ContainsAny("Bảng Lương V1 tháng 5.xlsx", []string{"luong v1"}))
	assert.True(t, ContainsAny("NGUOI_PHU_THUOC.xlsx", []string{"phụ thuộc", "phu_thuoc"}))
	assert.False(t, ContainsAny("thuong tet.xlsx", []string{"truylinh", "truy linh"}))
	assert.False(t, ContainsAny("anything", []string{""}))
}

func TestNormalizeColumnName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "TỔNG THUẾ TNCN TẠM TÍNH", NormalizeColumnName(" TỔNG THUẾ\nTNCN  TẠM TÍNH "))
}
