package fees

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/cuotas-api/internal/domain"
	"github.com/jhoicas/cuotas-api/internal/domain/entity"
	domfees "github.com/jhoicas/cuotas-api/internal/domain/fees"
	"github.com/jhoicas/cuotas-api/internal/domain/repository"
)

// ComputeInput datos para calcular una cuota. Si Member es nil se busca MemberID.
// CategoryID vacío usa la categoría actual del socio.
type ComputeInput struct {
	Member         *entity.Member
	MemberID       string
	CategoryID     string
	Period         entity.Period
	ApplyDiscounts bool
	Collect        CollectOptions
	Extra          []domfees.Effect
}

// Computation resultado del pipeline tarifa -> motor -> ítems. Fee no tiene id ni número.
type Computation struct {
	Member     *entity.Member
	Category   *entity.Category
	Period     entity.Period
	Activities []*entity.Activity
	Effects    []domfees.Effect
	Result     domfees.Result
	Fee        *entity.Fee
	Items      []*entity.LineItem
}

// Pipeline cálculo compartido por generación, preview y regeneración; no escribe nada.
type Pipeline struct {
	members    repository.MemberRepository
	activities repository.ActivityRepository
	rates      *CategoryRateResolver
	effects    *EffectCollector
	engine     domfees.Engine
}

// NewPipeline construye el pipeline.
func NewPipeline(
	members repository.MemberRepository,
	activities repository.ActivityRepository,
	rates *CategoryRateResolver,
	effects *EffectCollector,
	engine domfees.Engine,
) *Pipeline {
	return &Pipeline{
		members:    members,
		activities: activities,
		rates:      rates,
		effects:    effects,
		engine:     engine,
	}
}

// MaxPercent es el máximo por regla configurado en el motor.
func (p *Pipeline) MaxPercent() decimal.Decimal { return p.engine.MaxPercent }

// Compute calcula la cuota de un socio para un período.
func (p *Pipeline) Compute(ctx context.Context, in ComputeInput) (*Computation, error) {
	member := in.Member
	if member == nil {
		m, err := p.members.GetByID(ctx, in.MemberID)
		if err != nil {
			return nil, fmt.Errorf("socio %s: %w", in.MemberID, err)
		}
		if m == nil {
			return nil, domain.NewNotFoundError("socio %s no encontrado", in.MemberID)
		}
		member = m
	}
	categoryID := in.CategoryID
	if categoryID == "" {
		categoryID = member.CategoryID
	}
	category, err := p.rates.Resolve(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	activities, err := p.activities.ListBillableByMember(ctx, member.ID)
	if err != nil {
		return nil, fmt.Errorf("actividades del socio %s: %w", member.ID, err)
	}

	var effects []domfees.Effect
	if in.ApplyDiscounts {
		if effects, err = p.effects.Collect(ctx, member, category, in.Period, in.Collect); err != nil {
			return nil, err
		}
		effects = append(effects, in.Extra...)
	}

	actsTotal := decimal.Zero
	for _, a := range activities {
		actsTotal = actsTotal.Add(a.Price)
	}
	res, err := p.engine.Resolve(effects, domfees.FormulaVars{
		Base:       category.BaseAmount,
		Activities: actsTotal,
		Month:      in.Period.Month,
		Year:       in.Period.Year,
	})
	if err != nil {
		return nil, &domain.Error{Kind: domain.KindValidation, Message: "no se pudo resolver el descuento", Err: err}
	}

	items := Compose(category, activities, res)
	fee := &entity.Fee{
		MemberID:   member.ID,
		Period:     in.Period,
		CategoryID: category.ID,
		Status:     entity.FeeStatusPending,
	}
	ApplyTotals(fee, items)

	return &Computation{
		Member:     member,
		Category:   category,
		Period:     in.Period,
		Activities: activities,
		Effects:    effects,
		Result:     res,
		Fee:        fee,
		Items:      items,
	}, nil
}
