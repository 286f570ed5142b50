package stine

import "fmt"

// Language is the display language of the portal session. All scraped
// values (names, labels, descriptions) depend on it, cache files are
// therefore partitioned by language.
type Language string

const (
	German  Language = "de"
	English Language = "en"
)

func ParseLanguage(code string) (Language, error) {
	switch code {
	case "de":
		return German, nil
	case "en":
		return English, nil
	}
	return "", fmt.Errorf("unknown language code %q", code)
}

// argument accepted by the CHANGELANGUAGE screen
func (l Language) changeArg() string {
	if l == German {
		return "-N001"
	}
	return "-N002"
}
