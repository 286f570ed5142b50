package stine

import (
	"fmt"
	"regexp"
	"strconv"
)

type Season int

const (
	SummerSemester Season = iota
	WinterSemester
)

func (s Season) String() string {
	if s == WinterSemester {
		return "WiSe"
	}
	return "SuSe"
}

// Semester identifies one term. A winter semester spans two
// consecutive two-digit years (WiSe 22/23), a summer semester one
// (SuSe 22). SecondYear is only meaningful for winter semesters.
type Semester struct {
	Season     Season `json:"season"`
	Year       int    `json:"year"`
	SecondYear int    `json:"second_year,omitempty"`
}

func NewSummerSemester(year int) Semester {
	return Semester{Season: SummerSemester, Year: year}
}

func NewWinterSemester(year, secondYear int) Semester {
	return Semester{Season: WinterSemester, Year: year, SecondYear: secondYear}
}

func (s Semester) String() string {
	if s.SecondYear != 0 {
		return fmt.Sprintf("%s %02d/%02d", s.Season, s.Year, s.SecondYear)
	}
	return fmt.Sprintf("%s %02d", s.Season, s.Year)
}

var semesterRegex = regexp.MustCompile(`(?i)(wise|suse|sose)\s?(\d\d)(?:/(\d\d))?`)

// ParseSemester parses the portal's display strings in both
// languages, e.g. "WiSe 22/23", "SoSe 22" or "wise22/23".
func ParseSemester(s string) (Semester, error) {
	groups := semesterRegex.FindStringSubmatch(s)
	if groups == nil {
		return Semester{}, fmt.Errorf("invalid semester string %q, expected (wise|suse|sose)<yy>[/<yy>]", s)
	}

	var out Semester
	switch {
	case groups[1][0] == 'w' || groups[1][0] == 'W':
		out.Season = WinterSemester
	default:
		out.Season = SummerSemester
	}

	// the regex guarantees two digits
	out.Year, _ = strconv.Atoi(groups[2])
	if groups[3] != "" {
		out.SecondYear, _ = strconv.Atoi(groups[3])
	}
	return out, nil
}
