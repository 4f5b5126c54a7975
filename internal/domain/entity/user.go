package entity

// Roles válidos en el token. La autenticación la emite un servicio externo.
const (
	RoleAdmin    = "admin"
	RoleTesorero = "tesorero"
	RoleConsulta = "consulta"
)
