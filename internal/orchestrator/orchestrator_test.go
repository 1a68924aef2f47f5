package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"fund-economics-lab/internal/antidilution"
	"fund-economics-lab/internal/conversion"
	"fund-economics-lab/internal/domain"
	"fund-economics-lab/internal/idhash"
	"fund-economics-lab/internal/observability"
	"fund-economics-lab/internal/storage/memory"
	"fund-economics-lab/internal/waterfall"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testFund(t *testing.T) *domain.FundEconomics {
	t.Helper()
	eff := domain.DefaultCatchUpEfficiency
	f, err := domain.NewFundEconomics(domain.FundParams{
		FundSize:          100_000_000,
		ManagementFeeRate: 0.02,
		FeeBasis:          domain.BasisCommittedCapital,
		DeclineSchedule:   []domain.DeclineStep{{EffectiveYear: 6, Rate: 0.015}},
		CarryRate:         0.20,
		HurdleRate:        0.08,
		CatchUpEfficiency: &eff,
		WaterfallType:     domain.WaterfallAmerican,
	})
	require.NoError(t, err)
	return &f
}

func testOptions(t *testing.T) Options {
	return Options{
		CapStructure: &domain.CapitalStructure{
			OriginalInvestment:        10_000_000,
			OriginalPricePerShare:     2.00,
			ExistingSharesOutstanding: 10_000_000,
		},
		Conversion: &domain.ConversionInputs{
			OriginalInvestment:          10_000_000,
			TotalSharesOutstanding:      20_000_000,
			LiquidationPreferenceAmount: 10_000_000,
			CurrentCompanyValuation:     50_000_000,
			Right: domain.ConversionRight{
				ConversionPrice: 2.0,
				ConversionRatio: 1.0,
				ConversionType:  domain.ConversionOptional,
			},
		},
		Fund:      testFund(t),
		Discount:  domain.DefaultDiscountPolicy(),
		Benchmark: domain.DefaultBenchmarkPolicy(),
		Workers:   4,
	}
}

func testScenarios() []Scenario {
	return []Scenario{
		{
			Name:      "Series B down round",
			DownRound: &domain.DownRoundEvent{NewFinancingAmount: 5_000_000, NewFinancingPricePerShare: 1.0},
			Mechanism: domain.MechanismWeightedAverageNarrow,
		},
		{
			Name:       "IPO at 100M",
			Conversion: &domain.ConversionScenario{CompanyValuation: 100_000_000, TimeToConversionYears: 3, TriggerType: domain.TriggerIPO},
		},
		{
			Name:  "Fund exit 2.5x",
			Carry: &CarryInputs{HoldingYears: 5, ExitMultiple: 2.5},
			Exits: []domain.DealExit{
				{DealID: "A", InvestedCapital: 10, Proceeds: 30, HoldingYears: 1},
				{DealID: "B", InvestedCapital: 10, Proceeds: 2, HoldingYears: 2},
			},
		},
	}
}

func TestRun_EvaluatesEverySection(t *testing.T) {
	ctx := context.Background()

	result, err := New(testOptions(t)).Run(ctx, testScenarios())
	require.NoError(t, err)
	require.Len(t, result.Results, 3)
	assert.NotEmpty(t, result.RunID)

	down := result.Results[0]
	require.NotNil(t, down.Comparison)
	assert.Len(t, down.Comparison.Results, 4)
	require.NotNil(t, down.Adjustment)
	assert.InDelta(t, 6_000_000, down.Adjustment.AdjustedConversionShares, 1e-3)
	assert.Nil(t, down.Conversion)

	ipo := result.Results[1]
	require.NotNil(t, ipo.Conversion)
	assert.Equal(t, conversion.StrategyConvert, ipo.Conversion.OptimalStrategy)
	assert.Nil(t, ipo.Comparison)

	exit := result.Results[2]
	require.NotNil(t, exit.Carry)
	require.NotNil(t, exit.Waterfall)
	assert.InDelta(t, 1.9328, exit.Waterfall.Clawback, 1e-9)

	for i, r := range result.Results {
		assert.Equal(t, i, r.Position)
		assert.Equal(t, idhash.ScenarioID(r.Name), r.ID)
		got, ok := result.Lookup(r.ID)
		require.True(t, ok)
		assert.Equal(t, r.Name, got.Name)
	}
	_, ok := result.Lookup("missing")
	assert.False(t, ok)
}

func TestRun_OrderIndependentOfWorkers(t *testing.T) {
	ctx := context.Background()

	var scenarios []Scenario
	for i := 0; i < 40; i++ {
		scenarios = append(scenarios, Scenario{
			Name: fmt.Sprintf("valuation %d", i),
			Conversion: &domain.ConversionScenario{
				CompanyValuation:      float64(i) * 5_000_000,
				TimeToConversionYears: float64(i % 5),
				TriggerType:           domain.TriggerAcquisition,
			},
		})
	}

	var baseline []conversion.Evaluation
	for _, workers := range []int{1, 3, 16} {
		opts := testOptions(t)
		opts.Workers = workers
		result, err := New(opts).Run(ctx, scenarios)
		require.NoError(t, err)

		var evs []conversion.Evaluation
		for i, r := range result.Results {
			assert.Equal(t, scenarios[i].Name, r.Name)
			evs = append(evs, *r.Conversion)
		}
		if baseline == nil {
			baseline = evs
			continue
		}
		assert.Equal(t, baseline, evs, "workers=%d", workers)
	}

	// Matches the batch entry point.
	var convs []domain.ConversionScenario
	for _, s := range scenarios {
		convs = append(convs, *s.Conversion)
	}
	direct, err := conversion.EvaluateAllScenarios(*testOptions(t).Conversion, convs, domain.DefaultDiscountPolicy())
	require.NoError(t, err)
	assert.Equal(t, direct, baseline)
}

func TestRun_ValidationIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	runs := memory.NewRunStore()
	opts := testOptions(t)
	opts.RunStore = runs

	scenarios := testScenarios()
	scenarios = append(scenarios,
		Scenario{Name: "IPO at 100M"}, // duplicate identity
		Scenario{Name: "bad price", DownRound: &domain.DownRoundEvent{NewFinancingAmount: 1, NewFinancingPricePerShare: 0}},
		Scenario{Name: "no down round", Mechanism: domain.MechanismFullRatchet},
	)

	result, err := New(opts).Run(ctx, scenarios)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Contains(t, err.Error(), "scenario 3 (IPO at 100M)")
	assert.Contains(t, err.Error(), "scenario 4 (bad price)")
	assert.Contains(t, err.Error(), "scenario 5 (no down round)")

	stored, err := runs.List(ctx, 0, time.Now().UnixMilli()+1)
	require.NoError(t, err)
	assert.Empty(t, stored)
}

func TestValidate(t *testing.T) {
	o := New(testOptions(t))

	assert.NoError(t, o.Validate(testScenarios()))

	err := o.Validate([]Scenario{{Name: ""}, {Name: "x", Carry: &CarryInputs{HoldingYears: -1}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Contains(t, err.Error(), "scenario 0")
	assert.Contains(t, err.Error(), "scenario 1 (x)")
}

func TestRun_MissingConfiguration(t *testing.T) {
	ctx := context.Background()

	opts := testOptions(t)
	opts.Discount = nil
	_, err := New(opts).Run(ctx, testScenarios()[1:2])
	assert.True(t, errors.Is(err, domain.ErrConfiguration))

	opts = testOptions(t)
	opts.CapStructure = nil
	_, err = New(opts).Run(ctx, testScenarios()[:1])
	assert.True(t, errors.Is(err, domain.ErrConfiguration))

	opts = testOptions(t)
	opts.Fund = nil
	_, err = New(opts).Run(ctx, testScenarios()[2:])
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestRun_EngineErrorFailsRun(t *testing.T) {
	opts := testOptions(t)
	opts.Conversion.OriginalInvestment = 0

	// Zero investment passes validation but leaves no conversion shares to divide by.
	_, err := New(opts).Run(context.Background(), testScenarios())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDivisionByZero))
}

func TestRun_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testOptions(t)).Run(ctx, testScenarios())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_FundLevelOutputs(t *testing.T) {
	opts := testOptions(t)
	opts.TermYears = 10
	opts.Peer = &domain.PeerBenchmark{ManagementFeeRate: 0.02, CarryRate: 0.20}

	result, err := New(opts).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result.Results)
	require.Len(t, result.FeeSchedule, 10)
	assert.InDelta(t, 5*2_000_000+5*1_500_000, result.FeeSummary.TotalFees, 1e-6)
	require.NotNil(t, result.Benchmark)
	assert.Equal(t, waterfall.RankingMarket, result.Benchmark.Overall)

	opts.Benchmark = nil
	_, err = New(opts).Run(context.Background(), nil)
	assert.True(t, errors.Is(err, domain.ErrConfiguration))
}

func TestRun_PersistsToStores(t *testing.T) {
	ctx := context.Background()
	runs := memory.NewRunStore()
	results := memory.NewScenarioResultStore()
	fees := memory.NewFeeProjectionStore()
	steps := memory.NewWaterfallStepStore()

	opts := testOptions(t)
	opts.TermYears = 3
	opts.RunStore = runs
	opts.ScenarioStore = results
	opts.FeeStore = fees
	opts.StepStore = steps
	opts.Clock = func() time.Time { return time.UnixMilli(1_700_000_000_000) }

	result, err := New(opts).Run(ctx, testScenarios())
	require.NoError(t, err)

	run, err := runs.GetByID(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000_000), run.CreatedAt)
	assert.Equal(t, 3, run.ScenarioCount)
	assert.Equal(t, domain.WaterfallAmerican, run.WaterfallType)

	recs, err := results.GetByRunID(ctx, result.RunID)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.NotNil(t, recs[0].Mechanism)
	assert.Equal(t, domain.MechanismWeightedAverageNarrow, *recs[0].Mechanism)
	require.NotNil(t, recs[1].OptimalStrategy)
	assert.Equal(t, "CONVERT", *recs[1].OptimalStrategy)
	require.NotNil(t, recs[2].Clawback)
	assert.InDelta(t, 1.9328, *recs[2].Clawback, 1e-9)

	rows, err := fees.GetByRunID(ctx, result.RunID)
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	wf, err := steps.GetByScenario(ctx, result.RunID, result.Results[2].ID)
	require.NoError(t, err)
	require.Len(t, wf, 3)
	assert.Equal(t, "CLAWBACK_PENDING", wf[1].State)
	assert.Equal(t, "WOUND_DOWN", wf[2].State)
	assert.Equal(t, "ACCRUING>HURDLE_MET>CARRY_DISTRIBUTION", wf[0].Path)
}

func TestRun_MetricsAndLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	metrics := observability.NewMetrics(prometheus.NewRegistry(), "test")

	opts := testOptions(t)
	opts.Logger = zap.New(core)
	opts.Metrics = metrics

	_, err := New(opts).Run(context.Background(), testScenarios())
	require.NoError(t, err)

	// Comparison and adjustment both count as anti-dilution calls.
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.EngineCalls.WithLabelValues(observability.EngineAntiDilution, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EngineCalls.WithLabelValues(observability.EngineWaterfall, "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.ScenariosEvaluated))
	assert.Equal(t, 1, logs.FilterMessage("run completed").Len())
}

func TestScenarioRecords_OmitUnrequestedSections(t *testing.T) {
	result, err := New(testOptions(t)).Run(context.Background(), testScenarios()[1:2])
	require.NoError(t, err)

	recs := result.ScenarioRecords()
	require.Len(t, recs, 1)
	assert.Nil(t, recs[0].Mechanism)
	assert.Nil(t, recs[0].NetCarry)
	require.NotNil(t, recs[0].ConversionValue)
	assert.InDelta(t, 20_000_000, *recs[0].ConversionValue, 1e-6)
}

func TestComparisonBestMatchesTable(t *testing.T) {
	result, err := New(testOptions(t)).Run(context.Background(), testScenarios()[:1])
	require.NoError(t, err)

	best := result.Results[0].Comparison.Best()
	assert.Equal(t, domain.MechanismFullRatchet, best.Mechanism)
	assert.Equal(t, antidilution.TierHigh, best.Tier)
}
