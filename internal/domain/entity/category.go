package entity

import "github.com/shopspring/decimal"

// Category representa una categoría de socio (tarifa). Pertenece al padrón externo: solo lectura aquí.
type Category struct {
	ID              string
	Code            string          // ACTIVO, ESTUDIANTE, VITALICIO...
	Name            string
	BaseAmount      decimal.Decimal // cuota mensual vigente
	DefaultDiscount decimal.Decimal // porcentaje 0-100 aplicado como DESCUENTO_CATEGORIA
}
