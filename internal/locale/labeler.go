// Package locale turns ledger values into display strings: month labels in
// the Gregorian or Jalali calendar, rupee amounts, times of day and counts.
package locale

import (
	"fmt"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
	"golang.org/x/text/language"
)

// MonthLabeler maps a timestamp to the label of its month bucket.
type MonthLabeler interface {
	MonthLabel(t time.Time) string
	// CacheKey identifies the labeling so derived results can be memoized per
	// labeler. Two labelers with equal keys must produce equal labels.
	CacheKey() string
}

var tamilMonths = [12]string{
	"ஜனவரி", "பிப்ரவரி", "மார்ச்", "ஏப்ரல்", "மே", "ஜூன்",
	"ஜூலை", "ஆகஸ்ட்", "செப்டம்பர்", "அக்டோபர்", "நவம்பர்", "டிசம்பர்",
}

// GregorianLabeler produces "January 2024" style labels.
type GregorianLabeler struct {
	lang language.Tag
	loc  *time.Location
}

// Gregorian returns a labeler for lang in loc. Unsupported languages fall back
// to English and a nil loc means UTC.
func Gregorian(lang language.Tag, loc *time.Location) GregorianLabeler {
	if loc == nil {
		loc = time.UTC
	}
	return GregorianLabeler{lang: Match(lang.String()), loc: loc}
}

func (g GregorianLabeler) MonthLabel(t time.Time) string {
	t = t.In(g.loc)
	name := t.Month().String()
	if g.lang == language.Tamil {
		name = tamilMonths[t.Month()-1]
	}
	return fmt.Sprintf("%s %d", name, t.Year())
}

func (g GregorianLabeler) CacheKey() string {
	return "gregorian:" + g.lang.String() + ":" + g.loc.String()
}

// JalaliLabeler produces Solar Hijri labels such as "فروردین 1403".
type JalaliLabeler struct {
	loc *time.Location
}

// Jalali returns a Solar Hijri labeler in loc. A nil loc means Asia/Tehran.
func Jalali(loc *time.Location) JalaliLabeler {
	if loc == nil {
		loc = ptime.Iran()
	}
	return JalaliLabeler{loc: loc}
}

func (j JalaliLabeler) MonthLabel(t time.Time) string {
	pt := ptime.New(t.In(j.loc))
	return fmt.Sprintf("%s %d", pt.Month().String(), pt.Year())
}

func (j JalaliLabeler) CacheKey() string {
	return "jalali:" + j.loc.String()
}

// Labeler picks a labeler by calendar name. Unknown calendars are an error.
func Labeler(calendar string, lang language.Tag, loc *time.Location) (MonthLabeler, error) {
	switch calendar {
	case "", "gregorian":
		return Gregorian(lang, loc), nil
	case "jalali":
		return Jalali(loc), nil
	default:
		return nil, fmt.Errorf("unsupported calendar %q", calendar)
	}
}
