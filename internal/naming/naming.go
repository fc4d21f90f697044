// Package naming renders and recognises the names of automated playlists
package naming

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/desertthunder/spotsync/internal/shared"
)

const (
	DefaultMonthlyTemplate      = "{owner}{prefix}{mon}{year}"
	DefaultYearlyTemplate       = "{owner}{prefix}{year}"
	DefaultGenreMonthlyTemplate = "{genre}{prefix}{mon}{year}"
	DefaultGenreYearlyTemplate  = "{owner}{prefix}{genre}{year}"
	DefaultGenreMasterTemplate  = "{owner}{prefix}{genre}"
	DefaultDescriptionTemplate  = "{description} from {period}"
	DefaultGenreMasterPrefix    = "am"
)

// MonthKey identifies a calendar month.
type MonthKey struct {
	Year  int
	Month time.Month
}

// MonthOf returns the key of the month t falls in, in UTC.
func MonthOf(t time.Time) MonthKey {
	t = t.UTC()
	return MonthKey{Year: t.Year(), Month: t.Month()}
}

// String formats the key as YYYY-MM.
func (k MonthKey) String() string {
	return fmt.Sprintf("%04d-%02d", k.Year, int(k.Month))
}

// Period formats the key for descriptions, e.g. "Jan 2025".
func (k MonthKey) Period() string {
	return fmt.Sprintf("%s %d", k.Month.String()[:3], k.Year)
}

// Before reports whether k is an earlier month than o.
func (k MonthKey) Before(o MonthKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Month < o.Month
}

// AddMonths returns the key n months after k (n may be negative).
func (k MonthKey) AddMonths(n int) MonthKey {
	idx := k.Year*12 + int(k.Month) - 1 + n
	return MonthKey{Year: idx / 12, Month: time.Month(idx%12 + 1)}
}

// Namer builds playlist names from [shared.PlaylistsConfig].
type Namer struct {
	owner        string
	prefixes     map[string]string
	templates    shared.TemplateConfig
	dateFormat   string
	monthSep     string
	prefixSep    string
	caps         string
	descTemplate string

	monthly      *regexp.Regexp
	genreMonthly *regexp.Regexp
}

// New creates a [Namer], filling empty templates and prefixes with defaults.
func New(cfg shared.PlaylistsConfig) *Namer {
	t := cfg.Templates
	t.Monthly = fallback(t.Monthly, DefaultMonthlyTemplate)
	t.Yearly = fallback(t.Yearly, DefaultYearlyTemplate)
	t.GenreMonthly = fallback(t.GenreMonthly, DefaultGenreMonthlyTemplate)
	t.GenreYearly = fallback(t.GenreYearly, DefaultGenreYearlyTemplate)
	t.GenreMaster = fallback(t.GenreMaster, DefaultGenreMasterTemplate)

	n := &Namer{
		owner: cfg.OwnerName,
		prefixes: map[string]string{
			"monthly":       fallback(cfg.Prefixes.Monthly, cfg.Prefix),
			"genre_monthly": fallback(cfg.Prefixes.GenreMonthly, cfg.Prefix),
			"yearly":        fallback(cfg.Prefixes.Yearly, cfg.Prefix),
			"genre_master":  fallback(cfg.Prefixes.GenreMaster, DefaultGenreMasterPrefix),
		},
		templates:    t,
		dateFormat:   strings.ToLower(fallback(cfg.DateFormat, "short")),
		monthSep:     separator(cfg.SeparatorMonth),
		prefixSep:    separator(cfg.SeparatorPrefix),
		caps:         strings.ToLower(cfg.Capitalization),
		descTemplate: fallback(cfg.DescriptionTemplate, DefaultDescriptionTemplate),
	}
	n.monthly = n.pattern(t.Monthly, "monthly")
	n.genreMonthly = n.pattern(t.GenreMonthly, "genre_monthly")
	return n
}

// Monthly names the liked-songs playlist for a month, e.g. "AJFindsDec25".
func (n *Namer) Monthly(month time.Month, year int) string {
	return n.render(n.templates.Monthly, "monthly", "", n.datePart(month, year), "")
}

// Yearly names the consolidated playlist for a year.
func (n *Namer) Yearly(year int) string {
	return n.render(n.templates.Yearly, "yearly", "", "", n.yearOnly(year))
}

// GenreMonthly names the genre-split playlist for a month.
func (n *Namer) GenreMonthly(genre string, month time.Month, year int) string {
	return n.render(n.templates.GenreMonthly, "genre_monthly", genre, n.datePart(month, year), "")
}

// GenreYearly names the genre-split consolidated playlist for a year.
func (n *Namer) GenreYearly(genre string, year int) string {
	return n.render(n.templates.GenreYearly, "yearly", genre, "", n.yearOnly(year))
}

// GenreMaster names the all-time playlist for a broad genre.
func (n *Namer) GenreMaster(genre string) string {
	return n.render(n.templates.GenreMaster, "genre_master", genre, "", "")
}

// Description fills the description template.
func (n *Namer) Description(desc, period string) string {
	r := strings.NewReplacer("{description}", desc, "{period}", period)
	return strings.TrimSpace(r.Replace(n.descTemplate))
}

// ParseMonthly recognises names produced by [Namer.Monthly].
func (n *Namer) ParseMonthly(name string) (MonthKey, bool) {
	return n.match(n.monthly, name)
}

// ParseGenreMonthly recognises names produced by [Namer.GenreMonthly] and returns the genre.
func (n *Namer) ParseGenreMonthly(name string) (string, MonthKey, bool) {
	key, ok := n.match(n.genreMonthly, name)
	idx := n.genreMonthly.SubexpIndex("genre")
	if !ok || idx < 0 {
		return "", MonthKey{}, false
	}
	return n.genreMonthly.FindStringSubmatch(name)[idx], key, true
}

func (n *Namer) match(re *regexp.Regexp, name string) (MonthKey, bool) {
	mon, year := re.SubexpIndex("mon"), re.SubexpIndex("year")
	if mon < 0 || year < 0 {
		return MonthKey{}, false
	}
	m := re.FindStringSubmatch(name)
	if m == nil {
		return MonthKey{}, false
	}
	return n.parseDate(m[mon], m[year])
}

func (n *Namer) render(template, kind, genre, date, year string) string {
	owner := n.capitalize(n.owner)
	prefix := n.capitalize(n.prefixes[kind])

	joined := owner + prefix
	if owner != "" && prefix != "" {
		joined = owner + n.prefixSep + prefix
	}

	r := strings.NewReplacer(
		"{owner}{prefix}", joined,
		"{owner}", owner,
		"{prefix}", prefix,
		"{genre}", n.capitalize(genre),
		"{mon}", date,
		"{year}", year,
	)
	return r.Replace(template)
}

func (n *Namer) monthLabel(month time.Month) string {
	switch n.dateFormat {
	case "numeric":
		return fmt.Sprintf("%02d", int(month))
	case "medium", "long":
		return month.String()
	default:
		return month.String()[:3]
	}
}

func (n *Namer) yearLabel(year int) string {
	switch n.dateFormat {
	case "numeric", "medium", "long":
		return strconv.Itoa(year)
	default:
		return fmt.Sprintf("%02d", year%100)
	}
}

func (n *Namer) yearOnly(year int) string {
	if n.dateFormat == "numeric" {
		return strconv.Itoa(year)
	}
	return fmt.Sprintf("%02d", year%100)
}

// datePart is substituted for {mon}; it carries the year so {year} renders empty.
func (n *Namer) datePart(month time.Month, year int) string {
	return n.capitalize(n.monthLabel(month)) + n.monthSep + n.yearLabel(year)
}

const (
	genreMark = "\x00g\x00"
	dateMark  = "\x00d\x00"
)

func (n *Namer) pattern(template, kind string) *regexp.Regexp {
	// render capitalizes the genre, so the marker goes into the template instead.
	rendered := n.render(strings.ReplaceAll(template, "{genre}", genreMark), kind, "", dateMark, "")
	expr := regexp.QuoteMeta(rendered)
	expr = strings.Replace(expr, genreMark, `(?P<genre>.+?)`, 1)
	expr = strings.Replace(expr, dateMark, `(?P<mon>[A-Za-z]+|\d{2})`+regexp.QuoteMeta(n.monthSep)+`(?P<year>\d{4}|\d{2})`, 1)
	return regexp.MustCompile("^" + expr + "$")
}

func (n *Namer) parseDate(mon, year string) (MonthKey, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return MonthKey{}, false
	}
	if len(year) == 2 {
		y += 2000
	}
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(n.monthLabel(m), mon) {
			return MonthKey{Year: y, Month: m}, true
		}
	}
	return MonthKey{}, false
}

func (n *Namer) capitalize(s string) string {
	switch n.caps {
	case "upper":
		return strings.ToUpper(s)
	case "lower":
		return strings.ToLower(s)
	case "title":
		return titleCase(s)
	default:
		return s
	}
}

// titleCase upper-cases the first letter of every run of letters and lower-cases the rest.
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			if prevLetter {
				b.WriteRune(unicode.ToLower(r))
			} else {
				b.WriteRune(unicode.ToUpper(r))
			}
			prevLetter = true
			continue
		}
		prevLetter = false
		b.WriteRune(r)
	}
	return b.String()
}

func separator(name string) string {
	switch strings.ToLower(name) {
	case "space":
		return " "
	case "dash":
		return "-"
	case "underscore":
		return "_"
	default:
		return ""
	}
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
