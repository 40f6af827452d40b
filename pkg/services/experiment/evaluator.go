package experiment

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/de-tools/clickstream-atlas/pkg/models/domain"
	"github.com/de-tools/clickstream-atlas/pkg/services/stats"
	"github.com/rs/zerolog"
)

const DefaultAlpha = 0.05

// Assigner places a session into one of the two comparison groups.
type Assigner interface {
	Assign(session domain.SessionSummary) domain.ExperimentGroup
}

type randomAssigner struct {
	rng *rand.Rand
}

// NewRandomAssigner assigns each session to A or B with equal probability,
// independently of the session's attributes. The same seed gives the same
// partition for the same session order.
func NewRandomAssigner(seed uint64) Assigner {
	return &randomAssigner{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (a *randomAssigner) Assign(_ domain.SessionSummary) domain.ExperimentGroup {
	if a.rng.IntN(2) == 0 {
		return domain.GroupA
	}
	return domain.GroupB
}

type Settings struct {
	Alpha float64
	Seed  uint64
}

type Evaluator struct {
	settings Settings
	assigner Assigner
}

func NewEvaluator(settings Settings) *Evaluator {
	return NewEvaluatorWithAssigner(settings, NewRandomAssigner(settings.Seed))
}

func NewEvaluatorWithAssigner(settings Settings, assigner Assigner) *Evaluator {
	if settings.Alpha <= 0 || settings.Alpha >= 1 {
		settings.Alpha = DefaultAlpha
	}
	return &Evaluator{settings: settings, assigner: assigner}
}

// Evaluate partitions the sessions and compares purchase conversion between
// the two groups.
func (e *Evaluator) Evaluate(ctx context.Context, sessions []domain.SessionSummary) (domain.ExperimentResult, error) {
	a := domain.GroupStats{Group: domain.GroupA}
	b := domain.GroupStats{Group: domain.GroupB}

	for _, s := range sessions {
		g := &a
		if e.assigner.Assign(s) == domain.GroupB {
			g = &b
		}
		g.Total++
		if s.HasPurchase {
			g.Conversions++
		}
	}

	result, err := Compare(a, b, e.settings.Alpha)
	if err != nil {
		return result, err
	}
	result.Seed = e.settings.Seed

	msg := zerolog.Ctx(ctx).Info().
		Uint64("seed", result.Seed).
		Int("group_a_total", a.Total).
		Int("group_b_total", b.Total).
		Str("outcome", string(result.Outcome))
	if result.PValue != nil {
		msg = msg.Float64("p_value", *result.PValue)
	}
	msg.Msg("experiment evaluated")

	return result, nil
}

// Compare runs the two-proportion z-test on already aggregated groups.
// Rates are filled from the counts. An empty group yields
// domain.OutcomeInsufficientData rather than an error.
func Compare(a, b domain.GroupStats, alpha float64) (domain.ExperimentResult, error) {
	a.Rate, _ = stats.Percent(a.Conversions, a.Total)
	b.Rate, _ = stats.Percent(b.Conversions, b.Total)

	result := domain.ExperimentResult{
		GroupA: a,
		GroupB: b,
		Alpha:  alpha,
	}

	res, err := stats.TwoProportionZTest(
		[2]int{a.Conversions, b.Conversions},
		[2]int{a.Total, b.Total},
	)
	if errors.Is(err, stats.ErrInsufficientData) {
		result.Outcome = domain.OutcomeInsufficientData
		return result, nil
	}
	if err != nil {
		return result, fmt.Errorf("compare groups: %w", err)
	}

	result.ZStatistic = &res.Z
	result.PValue = &res.PValue
	result.Significant = res.PValue < alpha
	if result.Significant {
		result.Outcome = domain.OutcomeSignificant
	} else {
		result.Outcome = domain.OutcomeNotSignificant
	}
	return result, nil
}
