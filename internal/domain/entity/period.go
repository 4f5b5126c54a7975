package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Period identifica un mes de facturación.
type Period struct {
	Month int `json:"mes"`
	Year  int `json:"anio"`
}

// NewPeriod construye y valida un período.
func NewPeriod(month, year int) (Period, error) {
	p := Period{Month: month, Year: year}
	return p, p.Validate()
}

// Validate rechaza meses fuera de 1-12 y años fuera de 2000-2100.
func (p Period) Validate() error {
	if p.Month < 1 || p.Month > 12 {
		return fmt.Errorf("mes inválido: %d", p.Month)
	}
	if p.Year < 2000 || p.Year > 2100 {
		return fmt.Errorf("año inválido: %d", p.Year)
	}
	return nil
}

// ParsePeriod acepta "MM-YYYY" o "MM/YYYY".
func ParsePeriod(s string) (Period, error) {
	s = strings.TrimSpace(s)
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '/' })
	if len(parts) != 2 {
		return Period{}, fmt.Errorf("período mal formado: %q", s)
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil {
		return Period{}, fmt.Errorf("período mal formado: %q", s)
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return Period{}, fmt.Errorf("período mal formado: %q", s)
	}
	return NewPeriod(m, y)
}

// PeriodOf devuelve el período que contiene t.
func PeriodOf(t time.Time) Period {
	return Period{Month: int(t.Month()), Year: t.Year()}
}

func (p Period) String() string { return fmt.Sprintf("%02d/%d", p.Month, p.Year) }

// Index es un ordinal monótono (año*12 + mes) útil para comparar y recorrer rangos.
func (p Period) Index() int { return p.Year*12 + (p.Month - 1) }

func (p Period) Before(o Period) bool { return p.Index() < o.Index() }
func (p Period) After(o Period) bool  { return p.Index() > o.Index() }

// Next devuelve el mes siguiente.
func (p Period) Next() Period {
	i := p.Index() + 1
	return Period{Month: i%12 + 1, Year: i / 12}
}

// FirstDay es la fecha de referencia del período para ventanas de vigencia.
func (p Period) FirstDay() time.Time {
	return time.Date(p.Year, time.Month(p.Month), 1, 0, 0, 0, 0, time.UTC)
}

// Within indica si p cae en el rango cerrado [from, to].
func (p Period) Within(from, to Period) bool {
	return p.Index() >= from.Index() && p.Index() <= to.Index()
}

// PeriodRange enumera los meses de from a to inclusive. Vacío si from > to.
func PeriodRange(from, to Period) []Period {
	var out []Period
	for p := from; !p.After(to); p = p.Next() {
		out = append(out, p)
	}
	return out
}
