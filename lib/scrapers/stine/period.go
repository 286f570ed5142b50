package stine

import (
	"fmt"
	"time"
)

type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (p Period) String() string {
	return fmt.Sprintf("%s - %s",
		p.Start.Format("2006-01-02 15:04:05"),
		p.End.Format("2006-01-02 15:04:05"))
}

func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.End)
}

type PeriodKind int

const (
	EarlyRegistration PeriodKind = iota
	GeneralRegistration
	LateRegistration
	FirstSemesterRegistration
	ChangesAndCorrections
)

// left-column labels of the registration period table, both languages
var periodKindLabels = map[string]PeriodKind{
	"Vorgezogene Phase":         EarlyRegistration,
	"Early registration period": EarlyRegistration,

	"Anmeldephase":                GeneralRegistration,
	"General registration period": GeneralRegistration,

	"Nachmeldephase":            LateRegistration,
	"Late registration period":  LateRegistration,

	"Erstsemester": FirstSemesterRegistration,
	"Registration period for first-semester students": FirstSemesterRegistration,

	"Ummelde- und Korrektur-Phase":   ChangesAndCorrections,
	"Changes and corrections period": ChangesAndCorrections,
}

func (k PeriodKind) String() string {
	switch k {
	case EarlyRegistration:
		return "Early registration period"
	case GeneralRegistration:
		return "General registration period"
	case LateRegistration:
		return "Late registration period"
	case FirstSemesterRegistration:
		return "Registration period for first-semester students"
	case ChangesAndCorrections:
		return "Changes and corrections period"
	}
	return fmt.Sprintf("PeriodKind(%d)", int(k))
}

// RegistrationPeriod is one row of the portal's registration phase
// table: a fixed kind wrapping a start/end range.
type RegistrationPeriod struct {
	Kind   PeriodKind `json:"kind"`
	Period Period     `json:"period"`
}

func parseRegistrationPeriod(label, dates string) (RegistrationPeriod, error) {
	kind, ok := periodKindLabels[label]
	if !ok {
		return RegistrationPeriod{}, fmt.Errorf("unknown registration period label %q", label)
	}
	period, err := parsePeriod(dates)
	if err != nil {
		return RegistrationPeriod{}, err
	}
	return RegistrationPeriod{Kind: kind, Period: period}, nil
}
