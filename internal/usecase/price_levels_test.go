package usecase_test

import (
	"math"
	"testing"

	"github.com/vitos/riskbox/internal/domain"
	"github.com/vitos/riskbox/internal/usecase"
)

var es = domain.Instrument{Symbol: "ES", TickSize: 0.25, TickValue: 12.5, Currency: "USD"}

func fixedCash(value float64) usecase.RiskConfig {
	return usecase.RiskConfig{Mode: usecase.RiskModeFixedCash, Value: value}
}

func TestPriceLevelModel_SetFromMarket(t *testing.T) {
	m := &usecase.PriceLevelModel{}
	m.SetFromMarket(4500, 20, 40, es)

	if !m.Initialized {
		t.Fatal("Expected model to be initialized")
	}
	if m.Entry != 4500 {
		t.Errorf("Expected entry 4500, got %v", m.Entry)
	}
	// 20 ticks * 0.25 = 5 points below, 40 ticks * 0.25 = 10 points above
	if m.Stop != 4495 {
		t.Errorf("Expected stop 4495, got %v", m.Stop)
	}
	if m.Target != 4510 {
		t.Errorf("Expected target 4510, got %v", m.Target)
	}
	if !m.IsLong() {
		t.Error("Stop below and target above should read as long")
	}
}

func TestPriceLevelModel_Recalculate(t *testing.T) {
	m := &usecase.PriceLevelModel{Entry: 4500, Stop: 4495, Target: 4510}
	m.Recalculate(es, fixedCash(500), nil)

	if m.StopTicks != 20 {
		t.Errorf("Expected 20 stop ticks, got %d", m.StopTicks)
	}
	if m.TargetTicks != 40 {
		t.Errorf("Expected 40 target ticks, got %d", m.TargetTicks)
	}
	if m.StopPoints != 5 {
		t.Errorf("Expected 5 stop points, got %v", m.StopPoints)
	}
	if m.TargetPoints != 10 {
		t.Errorf("Expected 10 target points, got %v", m.TargetPoints)
	}

	// 500 / (20 * 12.5) = 2 contracts
	if m.Quantity != 2 {
		t.Errorf("Expected quantity 2, got %d", m.Quantity)
	}
	// Risk = 20 * 12.5 * 2 = 500, Reward = 40 * 12.5 * 2 = 1000
	if m.RiskAmount != 500 {
		t.Errorf("Expected risk 500, got %v", m.RiskAmount)
	}
	if m.RewardAmount != 1000 {
		t.Errorf("Expected reward 1000, got %v", m.RewardAmount)
	}
	if m.Ratio != 2.0 {
		t.Errorf("Expected ratio 2.0, got %v", m.Ratio)
	}
}

func TestPriceLevelModel_RecalculateIdempotent(t *testing.T) {
	m := &usecase.PriceLevelModel{Entry: 4500, Stop: 4495, Target: 4510}
	m.Recalculate(es, fixedCash(500), nil)
	first := *m
	m.Recalculate(es, fixedCash(500), nil)

	if *m != first {
		t.Errorf("Second recalculate changed the model: %+v vs %+v", first, *m)
	}
}

func TestPriceLevelModel_RecalculateSkipsWithoutTickSize(t *testing.T) {
	m := &usecase.PriceLevelModel{Entry: 4500, Stop: 4495, Target: 4510, Quantity: 7}
	m.Recalculate(domain.Instrument{TickSize: 0}, fixedCash(500), nil)

	if m.Quantity != 7 || m.StopTicks != 0 {
		t.Errorf("Expected no-op without tick size, got %+v", m)
	}
}

func TestPriceLevelModel_ZeroStopRatio(t *testing.T) {
	m := &usecase.PriceLevelModel{Entry: 4500, Stop: 4500, Target: 4510}
	m.Recalculate(es, fixedCash(500), nil)

	if m.Ratio != 0 {
		t.Errorf("Expected ratio 0 with stop on entry, got %v", m.Ratio)
	}
	if m.Quantity != 1 {
		t.Errorf("Expected quantity 1 with zero stop distance, got %d", m.Quantity)
	}
}

func TestPriceLevelModel_Direction(t *testing.T) {
	long := &usecase.PriceLevelModel{Entry: 4500, Target: 4510}
	if long.Direction() != domain.SideLong {
		t.Error("Target above entry should be long")
	}

	short := &usecase.PriceLevelModel{Entry: 4500, Target: 4490}
	if short.Direction() != domain.SideShort {
		t.Error("Target below entry should be short")
	}

	// Target exactly on the entry classifies as short
	flat := &usecase.PriceLevelModel{Entry: 4500, Target: 4500}
	if flat.Direction() != domain.SideShort {
		t.Error("Target on entry should read as short")
	}
}

func TestPriceLevelModel_Flip(t *testing.T) {
	m := &usecase.PriceLevelModel{Entry: 4500, Stop: 4495, Target: 4510}
	m.Flip(es)

	if m.Stop != 4505 {
		t.Errorf("Expected stop mirrored to 4505, got %v", m.Stop)
	}
	if m.Target != 4490 {
		t.Errorf("Expected target mirrored to 4490, got %v", m.Target)
	}
	if m.IsLong() {
		t.Error("Flipped long should be short")
	}

	// Ratio survives the flip because distances are preserved
	m.Recalculate(es, fixedCash(500), nil)
	if m.Ratio != 2.0 {
		t.Errorf("Expected ratio 2.0 after flip, got %v", m.Ratio)
	}
}

func TestPriceLevelModel_FlipTwiceRestores(t *testing.T) {
	m := &usecase.PriceLevelModel{Entry: 4500, Stop: 4495, Target: 4510}
	m.Flip(es)
	m.Flip(es)

	if math.Abs(m.Stop-4495) > 1e-9 || math.Abs(m.Target-4510) > 1e-9 {
		t.Errorf("Double flip should restore levels, got stop=%v target=%v", m.Stop, m.Target)
	}
}
