package usecase

import (
	"math"

	"github.com/vitos/riskbox/internal/domain"
)

type RiskMode string

const (
	RiskModeFixedCash        RiskMode = "fixed_cash"
	RiskModePercentOfAccount RiskMode = "percent_of_account"
	RiskModeFixedContracts   RiskMode = "fixed_contracts"
)

// RiskConfig is immutable during a calculation pass. Value is dollars,
// percent, or contracts depending on Mode.
type RiskConfig struct {
	Mode  RiskMode
	Value float64
}

// ComputeQuantity converts a stop distance into a contract quantity.
// Flooring keeps the sizing at or below the configured risk tolerance; the
// minimum of 1 guarantees a tradable order instead of a silently skipped one.
// With no stop distance yet the safe default is a single contract.
func ComputeQuantity(stopTicks int, tickValue float64, cfg RiskConfig, account domain.AccountProvider, currency string) int {
	stopValue := float64(stopTicks) * tickValue
	if stopValue <= 0 {
		return 1
	}

	switch cfg.Mode {
	case RiskModeFixedCash:
		return atLeastOne(math.Floor(cfg.Value / stopValue))

	case RiskModePercentOfAccount:
		balance := 0.0
		if account != nil {
			balance = account.Balance(currency)
		}
		accountRisk := balance * (cfg.Value / 100.0)
		return atLeastOne(math.Floor(accountRisk / stopValue))

	case RiskModeFixedContracts:
		return atLeastOne(math.Floor(cfg.Value))

	default:
		return 1
	}
}

func atLeastOne(n float64) int {
	if n < 1 {
		return 1
	}
	return int(n)
}
