package entity

import "github.com/shopspring/decimal"

// Member representa a un socio que puede adeudar cuotas. Solo lectura.
type Member struct {
	ID         string
	FullName   string
	CategoryID string
	Active     bool
}

// Activity es una actividad arancelada a la que un socio puede estar inscripto.
type Activity struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Billable bool
}
