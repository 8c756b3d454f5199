package core

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type InvestmentType string

const (
	TesouroDireto     InvestmentType = "TESOURO_DIRETO"
	CDB               InvestmentType = "CDB"
	LCILCA            InvestmentType = "LCI_LCA"
	FundoInvestimento InvestmentType = "FUNDO_INVESTIMENTO"
	Acao              InvestmentType = "ACAO"
	Cripto            InvestmentType = "CRIPTO"
	Poupanca          InvestmentType = "POUPANCA"
	Outros            InvestmentType = "OUTROS"
)

// InvestmentTypes lists the accepted types in display order.
var InvestmentTypes = []InvestmentType{
	TesouroDireto, CDB, LCILCA, FundoInvestimento, Acao, Cripto, Poupanca, Outros,
}

func (t InvestmentType) Validate() error {
	for _, known := range InvestmentTypes {
		if t == known {
			return nil
		}
	}
	return ErrInvalidType
}

type Investment struct {
	Meta
	Name           string           `json:"name"`
	Type           InvestmentType   `json:"type"`
	InitialAmount  Money            `json:"initialAmount"`
	CurrentAmount  Money            `json:"currentAmount"`
	InvestmentDate Date             `json:"investmentDate"`
	Return         InvestmentReturn `json:"return"`
}

func (i Investment) Validate() error {
	if err := validateText("name", i.Name, ErrEmptyName); err != nil {
		return err
	}
	if err := i.Type.Validate(); err != nil {
		return Invalid("type", err)
	}
	if err := i.InitialAmount.ValidateNonNegative(); err != nil {
		return Invalid("initialAmount", err)
	}
	if err := i.CurrentAmount.ValidateNonNegative(); err != nil {
		return Invalid("currentAmount", err)
	}
	if err := i.InvestmentDate.Validate(); err != nil {
		return Invalid("investmentDate", err)
	}
	return nil
}

// WithReturn fills the derived return fields.
func (i Investment) WithReturn() Investment {
	i.Return = CalculateReturn(i.InitialAmount, i.CurrentAmount)
	return i
}

// InvestmentReturn is the absolute and percentage gain of a position.
type InvestmentReturn struct {
	Value      Money
	Percentage decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// CalculateReturn derives the return of current over initial. The percentage
// is rounded to two decimals and is zero when nothing was invested.
func CalculateReturn(initial, current Money) InvestmentReturn {
	r := InvestmentReturn{Value: current.Sub(initial), Percentage: decimal.Zero}
	if initial.Cents == 0 {
		return r
	}
	r.Percentage = decimal.NewFromInt(r.Value.Cents).
		Div(decimal.NewFromInt(initial.Cents)).
		Mul(hundred).
		Round(2)
	return r
}

func (r InvestmentReturn) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"value":%s,"percentage":%s}`, r.Value, r.Percentage.StringFixed(2))), nil
}

// Portfolio sums a set of positions.
type Portfolio struct {
	TotalInitial Money            `json:"totalInitial"`
	TotalCurrent Money            `json:"totalCurrent"`
	Return       InvestmentReturn `json:"return"`
}

func NewPortfolio(investments []Investment) Portfolio {
	var p Portfolio
	for _, inv := range investments {
		p.TotalInitial = p.TotalInitial.Add(inv.InitialAmount)
		p.TotalCurrent = p.TotalCurrent.Add(inv.CurrentAmount)
	}
	p.Return = CalculateReturn(p.TotalInitial, p.TotalCurrent)
	return p
}
