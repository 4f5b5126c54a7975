package memory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/cuotas-api/internal/domain/entity"
)

// SeedDemo carga un padrón chico para levantar la API con STORAGE_DRIVER=memory.
func SeedDemo(s *Store) {
	s.AddCategory(&entity.Category{ID: "cat-activo", Code: "ACTIVO", Name: "Activo", BaseAmount: decimal.NewFromInt(20000)})
	s.AddCategory(&entity.Category{ID: "cat-estudiante", Code: "ESTUDIANTE", Name: "Estudiante",
		BaseAmount: decimal.NewFromInt(15000), DefaultDiscount: decimal.NewFromInt(40)})
	s.AddCategory(&entity.Category{ID: "cat-vitalicio", Code: "VITALICIO", Name: "Vitalicio",
		BaseAmount: decimal.NewFromInt(20000), DefaultDiscount: decimal.NewFromInt(100)})

	s.AddActivity(&entity.Activity{ID: "act-natacion", Name: "Natación", Price: decimal.NewFromInt(3000), Billable: true})
	s.AddActivity(&entity.Activity{ID: "act-tenis", Name: "Tenis", Price: decimal.NewFromInt(4500), Billable: true})
	s.AddActivity(&entity.Activity{ID: "act-biblioteca", Name: "Biblioteca", Billable: false})

	s.AddMember(&entity.Member{ID: "socio-0001", FullName: "Ana Pérez", CategoryID: "cat-estudiante", Active: true})
	s.AddMember(&entity.Member{ID: "socio-0002", FullName: "Bruno Díaz", CategoryID: "cat-activo", Active: true})
	s.AddMember(&entity.Member{ID: "socio-0003", FullName: "Carla Gómez", CategoryID: "cat-activo", Active: true})
	s.AddMember(&entity.Member{ID: "socio-0004", FullName: "Darío Ruiz", CategoryID: "cat-vitalicio", Active: true})
	s.AddMember(&entity.Member{ID: "socio-0005", FullName: "Elena Sosa", CategoryID: "cat-activo", Active: false})

	s.Enroll("socio-0002", "act-natacion")
	s.Enroll("socio-0003", "act-natacion")
	s.Enroll("socio-0003", "act-tenis")
	s.Enroll("socio-0001", "act-biblioteca")

	s.PutReceipt(&entity.Receipt{ID: "recibo-1001", Number: 1001, Status: entity.ReceiptStatusPending})
	s.PutReceipt(&entity.Receipt{ID: "recibo-1002", Number: 1002, Status: entity.ReceiptStatusPaid})
}
