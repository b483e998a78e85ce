package usecase

import (
	"math"

	"github.com/vitos/riskbox/internal/domain"
)

// PriceLevelModel holds the three price levels and every value derived from
// them. Derived fields are recomputed from the prices on every Recalculate
// and never drift on their own.
type PriceLevelModel struct {
	Entry  float64
	Stop   float64
	Target float64

	StopTicks    int
	TargetTicks  int
	StopPoints   float64
	TargetPoints float64
	RiskAmount   float64
	RewardAmount float64
	Ratio        float64
	Quantity     int

	Initialized bool
}

// IsLong infers direction from the levels. A target equal to the entry
// classifies as short; direction is never stored separately.
func (m *PriceLevelModel) IsLong() bool {
	return m.Target > m.Entry
}

func (m *PriceLevelModel) Direction() domain.Side {
	if m.IsLong() {
		return domain.SideLong
	}
	return domain.SideShort
}

// SetFromMarket places the entry at the market price with the stop below and
// the target above by the given tick distances. Used on first initialization
// and on explicit reset.
func (m *PriceLevelModel) SetFromMarket(marketPrice float64, stopTicks, targetTicks int, instr domain.Instrument) {
	m.Entry = marketPrice
	m.Stop = instr.RoundToTick(m.Entry - float64(stopTicks)*instr.TickSize)
	m.Target = instr.RoundToTick(m.Entry + float64(targetTicks)*instr.TickSize)
	m.Initialized = true
}

// Recalculate recomputes all derived fields from the three prices. A
// non-positive tick size means instrument metadata has not loaded yet, so the
// pass is skipped entirely rather than treated as an error.
func (m *PriceLevelModel) Recalculate(instr domain.Instrument, cfg RiskConfig, account domain.AccountProvider) {
	if instr.TickSize <= 0 {
		return
	}

	m.StopTicks = int(math.Round(math.Abs(m.Entry-m.Stop) / instr.TickSize))
	m.TargetTicks = int(math.Round(math.Abs(m.Target-m.Entry) / instr.TickSize))

	m.StopPoints = math.Abs(m.Entry - m.Stop)
	m.TargetPoints = math.Abs(m.Target - m.Entry)

	m.Quantity = ComputeQuantity(m.StopTicks, instr.TickValue, cfg, account, instr.Currency)

	m.RiskAmount = float64(m.StopTicks) * instr.TickValue * float64(m.Quantity)
	m.RewardAmount = float64(m.TargetTicks) * instr.TickValue * float64(m.Quantity)

	if m.StopTicks > 0 {
		m.Ratio = float64(m.TargetTicks) / float64(m.StopTicks)
	} else {
		m.Ratio = 0
	}
}

// Flip mirrors the stop and target to the opposite side of the entry,
// preserving each level's distance, so a long setup becomes the equivalent
// short and vice versa.
func (m *PriceLevelModel) Flip(instr domain.Instrument) {
	stopDistance := math.Abs(m.Entry - m.Stop)
	targetDistance := math.Abs(m.Target - m.Entry)

	if m.IsLong() {
		m.Stop = m.Entry + stopDistance
		m.Target = m.Entry - targetDistance
	} else {
		m.Stop = m.Entry - stopDistance
		m.Target = m.Entry + targetDistance
	}

	m.Stop = instr.RoundToTick(m.Stop)
	m.Target = instr.RoundToTick(m.Target)
}
