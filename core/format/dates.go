// Package format renders bucket labels and trip figures for a locale.
package format

import (
	"fmt"
	"strconv"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DefaultLocale is used when the caller supplies no locale tag.
const DefaultLocale = "es"

type localeFormat struct {
	months [12]string
	// date renders day, month, year
	date func(d, m, y int) string
}

func dmy(sep string) func(d, m, y int) string {
	return func(d, m, y int) string { return fmt.Sprintf("%02d%s%02d%s%04d", d, sep, m, sep, y) }
}

func mdy(d, m, y int) string { return fmt.Sprintf("%02d/%02d/%04d", m, d, y) }

func ymd(d, m, y int) string { return fmt.Sprintf("%04d/%02d/%02d", y, m, d) }

var formats = map[language.Tag]localeFormat{
	language.Spanish: {
		months: [12]string{"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
		date:   dmy("/"),
	},
	language.AmericanEnglish: {
		months: [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
		date:   mdy,
	},
	language.BritishEnglish: {
		months: [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sept", "Oct", "Nov", "Dec"},
		date:   dmy("/"),
	},
	language.French: {
		months: [12]string{"janv.", "févr.", "mars", "avr.", "mai", "juin", "juil.", "août", "sept.", "oct.", "nov.", "déc."},
		date:   dmy("/"),
	},
	language.German: {
		months: [12]string{"Jan.", "Feb.", "März", "Apr.", "Mai", "Juni", "Juli", "Aug.", "Sept.", "Okt.", "Nov.", "Dez."},
		date:   dmy("."),
	},
	language.Italian: {
		months: [12]string{"gen", "feb", "mar", "apr", "mag", "giu", "lug", "ago", "set", "ott", "nov", "dic"},
		date:   dmy("/"),
	},
	language.Portuguese: {
		months: [12]string{"jan.", "fev.", "mar.", "abr.", "mai.", "jun.", "jul.", "ago.", "set.", "out.", "nov.", "dez."},
		date:   dmy("/"),
	},
	language.Catalan: {
		months: [12]string{"de gen.", "de febr.", "de març", "d’abr.", "de maig", "de juny", "de jul.", "d’ag.", "de set.", "d’oct.", "de nov.", "de des."},
		date:   dmy("/"),
	},
	language.Dutch: {
		months: [12]string{"jan", "feb", "mrt", "apr", "mei", "jun", "jul", "aug", "sep", "okt", "nov", "dec"},
		date:   dmy("-"),
	},
	language.Chinese: {
		months: [12]string{"1月", "2月", "3月", "4月", "5月", "6月", "7月", "8月", "9月", "10月", "11月", "12月"},
		date:   ymd,
	},
}

// supported lists the tags of formats, default first.
var supported = []language.Tag{
	language.Spanish,
	language.AmericanEnglish,
	language.BritishEnglish,
	language.French,
	language.German,
	language.Italian,
	language.Portuguese,
	language.Catalan,
	language.Dutch,
	language.Chinese,
}

var matcher = language.NewMatcher(supported)

// resolve returns the closest supported tag for a BCP 47 locale string.
func resolve(locale string) language.Tag {
	if locale == "" {
		locale = DefaultLocale
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return supported[0]
	}
	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		return supported[0]
	}
	return supported[idx]
}

// Month renders a YYYYMM key as a short month and year, first letter
// capitalised, e.g. "Ene 2025" for "202501" in Spanish. Keys that are too
// short are returned unchanged.
func Month(key, locale string) string {
	if len(key) < 6 {
		return key
	}
	y, err1 := strconv.Atoi(key[:4])
	m, err2 := strconv.Atoi(key[4:6])
	if err1 != nil || err2 != nil || m < 1 || m > 12 {
		return key
	}
	tag := resolve(locale)
	f := formats[tag]
	if tag == language.Chinese {
		return fmt.Sprintf("%d年%s", y, f.months[m-1])
	}
	return capitalize(fmt.Sprintf("%s %d", f.months[m-1], y), tag)
}

// Date renders a YYYYMMDD key in the locale's numeric date order, e.g.
// "14/01/2025" in Spanish. Keys that are too short are returned unchanged.
func Date(key, locale string) string {
	if len(key) < 8 {
		return key
	}
	y, err1 := strconv.Atoi(key[:4])
	m, err2 := strconv.Atoi(key[4:6])
	d, err3 := strconv.Atoi(key[6:8])
	if err1 != nil || err2 != nil || err3 != nil {
		return key
	}
	return formats[resolve(locale)].date(d, m, y)
}

func capitalize(s string, tag language.Tag) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return cases.Upper(tag).String(s[:size]) + s[size:]
}
