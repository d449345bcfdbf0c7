package locale

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"kanakku/internal/core"
)

func TestMatch(t *testing.T) {
	tests := []struct {
		accept string
		want   language.Tag
	}{
		{"", language.English},
		{"en", language.English},
		{"en-US,en;q=0.9", language.English},
		{"ta", language.Tamil},
		{"ta-IN", language.Tamil},
		{"fr-FR,ta;q=0.8", language.Tamil},
		{"fr", language.English},
		{"!!garbage", language.English},
	}

	for _, tt := range tests {
		t.Run(tt.accept, func(t *testing.T) {
			assert.Equal(t, tt.want, Match(tt.accept))
		})
	}
}

func TestGregorian_MonthLabel(t *testing.T) {
	date := time.Date(2024, time.January, 15, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "January 2024", Gregorian(language.English, time.UTC).MonthLabel(date))
	assert.Equal(t, "ஜனவரி 2024", Gregorian(language.Tamil, time.UTC).MonthLabel(date))
	assert.Equal(t, "December 2023", Gregorian(language.English, nil).MonthLabel(time.Date(2023, 12, 31, 0, 0, 0, 0, time.UTC)))
}

func TestGregorian_UsesLocation(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 20:00 UTC on Jan 31 is already Feb 1 in India.
	date := time.Date(2024, time.January, 31, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "January 2024", Gregorian(language.English, time.UTC).MonthLabel(date))
	assert.Equal(t, "February 2024", Gregorian(language.English, kolkata).MonthLabel(date))
}

func TestGregorian_DistinguishesYears(t *testing.T) {
	l := Gregorian(language.Tamil, time.UTC)
	a := l.MonthLabel(time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC))
	b := l.MonthLabel(time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC))
	assert.NotEqual(t, a, b)
}

func TestJalali_MonthLabel(t *testing.T) {
	l := Jalali(nil)
	label := l.MonthLabel(time.Date(2024, time.April, 10, 12, 0, 0, 0, time.UTC))

	assert.Contains(t, label, "فروردین")
	assert.Contains(t, label, "1403")
}

func TestCacheKeys(t *testing.T) {
	en := Gregorian(language.English, time.UTC)
	ta := Gregorian(language.Tamil, time.UTC)
	jl := Jalali(time.UTC)

	assert.NotEqual(t, en.CacheKey(), ta.CacheKey())
	assert.NotEqual(t, en.CacheKey(), jl.CacheKey())
	assert.Equal(t, en.CacheKey(), Gregorian(language.MustParse("en-GB"), time.UTC).CacheKey())
}

func TestLabeler(t *testing.T) {
	l, err := Labeler("jalali", language.English, time.UTC)
	require.NoError(t, err)
	assert.IsType(t, JalaliLabeler{}, l)

	l, err = Labeler("", language.Tamil, time.UTC)
	require.NoError(t, err)
	assert.IsType(t, GregorianLabeler{}, l)

	_, err = Labeler("lunar", language.English, time.UTC)
	assert.Error(t, err)
}

func TestFormatter_Amount(t *testing.T) {
	f := NewFormatter(language.English, time.UTC)

	tests := []struct {
		in   string
		want string
	}{
		{"100", "₹100"},
		{"1234.5", "₹1,234.50"},
		{"0", "₹0"},
		{"-60", "-₹60"},
		{"0.05", "₹0.05"},
		{"-0.001", "₹0"},
		{"1234567", "₹1,234,567"},
		{"12345678901234567.89", "₹12,345,678,901,234,567.89"},
		{"-9007199254740993", "-₹9,007,199,254,740,993"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, f.Amount(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFormatter_Tamil(t *testing.T) {
	f := NewFormatter(language.Tamil, time.UTC)

	assert.Equal(t, language.Tamil, f.Language())
	assert.Contains(t, f.Amount(decimal.NewFromInt(100)), "₹")
	assert.True(t, strings.HasSuffix(f.Amount(decimal.NewFromInt(1234567)), "12,34,567"))
	assert.True(t, strings.HasSuffix(f.Amount(decimal.RequireFromString("12345678901234567.5")), "12,34,56,78,90,12,34,567.50"))
	assert.Equal(t, "3 பதிவுகள்", f.Entries(3))
}

func TestFormatter_Signed(t *testing.T) {
	f := NewFormatter(language.English, time.UTC)

	assert.Equal(t, "+ ₹100", f.Signed(core.Income, decimal.NewFromInt(100)))
	assert.Equal(t, "- ₹40", f.Signed(core.Expense, decimal.NewFromInt(40)))
}

func TestFormatter_TimeOfDayAndEntries(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	f := NewFormatter(language.English, kolkata)
	assert.Equal(t, "15:30", f.TimeOfDay(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "3 Entries", f.Entries(3))
}
