// Package orchestrator fans scenario lists through the economics engines.
// It coordinates: validation → parallel evaluation → optional persistence
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fund-economics-lab/internal/antidilution"
	"fund-economics-lab/internal/conversion"
	"fund-economics-lab/internal/domain"
	"fund-economics-lab/internal/idhash"
	"fund-economics-lab/internal/observability"
	"fund-economics-lab/internal/storage"
	"fund-economics-lab/internal/waterfall"
)

// Orchestrator evaluates scenarios against one shared set of inputs.
type Orchestrator struct {
	// Shared inputs
	capStructure *domain.CapitalStructure
	conversion   *domain.ConversionInputs
	fund         *domain.FundEconomics
	discount     *domain.DiscountPolicy
	benchmark    *domain.BenchmarkPolicy
	peer         *domain.PeerBenchmark
	termYears    int
	basis        waterfall.BasisProvider

	// Stores
	runStore      storage.RunStore
	scenarioStore storage.ScenarioResultStore
	feeStore      storage.FeeProjectionStore
	stepStore     storage.WaterfallStepStore

	workers int
	logger  *zap.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// Options for creating Orchestrator.
type Options struct {
	// Shared engine inputs. Each is required only by the scenarios that use it.
	CapStructure *domain.CapitalStructure
	Conversion   *domain.ConversionInputs
	Fund         *domain.FundEconomics
	Discount     *domain.DiscountPolicy
	Benchmark    *domain.BenchmarkPolicy
	Peer         *domain.PeerBenchmark // benchmark is skipped when nil
	TermYears    int                   // fee projection is skipped when zero
	Basis        waterfall.BasisProvider

	// Optional stores. ScenarioStore on PostgreSQL also needs RunStore.
	RunStore      storage.RunStore
	ScenarioStore storage.ScenarioResultStore
	FeeStore      storage.FeeProjectionStore
	StepStore     storage.WaterfallStepStore

	Workers int // defaults to 1
	Logger  *zap.Logger
	Metrics *observability.Metrics
	Clock   func() time.Time
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	o := &Orchestrator{
		capStructure:  opts.CapStructure,
		conversion:    opts.Conversion,
		fund:          opts.Fund,
		discount:      opts.Discount,
		benchmark:     opts.Benchmark,
		peer:          opts.Peer,
		termYears:     opts.TermYears,
		basis:         opts.Basis,
		runStore:      opts.RunStore,
		scenarioStore: opts.ScenarioStore,
		feeStore:      opts.FeeStore,
		stepStore:     opts.StepStore,
		workers:       opts.Workers,
		logger:        opts.Logger,
		metrics:       opts.Metrics,
		now:           opts.Clock,
	}
	if o.workers < 1 {
		o.workers = 1
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// CarryInputs asks for a whole-fund carried interest computation.
type CarryInputs struct {
	HoldingYears float64
	ExitMultiple float64
}

// Scenario is one row of the comparison table. Every section is optional.
type Scenario struct {
	Name string

	// Anti-dilution: the mechanism comparison runs whenever DownRound is set;
	// Mechanism additionally selects the adjustment reported for the row.
	DownRound *domain.DownRoundEvent
	Mechanism domain.ProtectionMechanism

	Conversion *domain.ConversionScenario
	Carry      *CarryInputs
	Exits      []domain.DealExit
}

// ScenarioResult holds the engine outputs of one scenario.
type ScenarioResult struct {
	ID       string
	Position int
	Name     string

	Comparison *antidilution.Comparison
	Adjustment *antidilution.Adjustment
	Conversion *conversion.Evaluation
	Carry      *waterfall.CarryResult
	Waterfall  *waterfall.Result
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	RunID     string
	CreatedAt int64 // Unix milliseconds

	// Results[i] belongs to the i-th submitted scenario.
	Results     []ScenarioResult
	FeeSchedule []waterfall.FeeYear
	FeeSummary  waterfall.FeeSummary
	Benchmark   *waterfall.Benchmark

	index map[string]int
}

// Lookup returns the result for a scenario identity.
func (r *RunResult) Lookup(id string) (*ScenarioResult, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return &r.Results[i], true
}

// Run validates every scenario, evaluates them in parallel, and persists the
// run when stores are configured. No results are returned if any scenario fails.
func (o *Orchestrator) Run(ctx context.Context, scenarios []Scenario) (*RunResult, error) {
	start := o.now()
	result, err := o.run(ctx, scenarios)
	o.metrics.RecordRun(len(scenarios), o.now().Sub(start), err)
	if err != nil {
		o.logger.Warn("run failed", zap.Int("scenarios", len(scenarios)), zap.Error(err))
		return nil, err
	}
	o.logger.Info("run completed",
		zap.String("run_id", result.RunID),
		zap.Int("scenarios", len(result.Results)),
		zap.Duration("elapsed", o.now().Sub(start)),
	)
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, scenarios []Scenario) (*RunResult, error) {
	ids, err := o.validate(scenarios)
	if err != nil {
		return nil, fmt.Errorf("validate scenarios: %w", err)
	}

	result := &RunResult{
		RunID:     uuid.NewString(),
		CreatedAt: o.now().UnixMilli(),
		Results:   make([]ScenarioResult, len(scenarios)),
		index:     make(map[string]int, len(scenarios)),
	}
	log := o.logger.With(zap.String("run_id", result.RunID))
	log.Info("run started", zap.Int("scenarios", len(scenarios)), zap.Int("workers", o.workers))

	if err := o.runFundLevel(result); err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i := range scenarios {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := o.evaluate(scenarios[i])
			if err != nil {
				return fmt.Errorf("scenario %d (%s): %w", i, scenarios[i].Name, err)
			}
			res.ID = ids[i]
			res.Position = i
			result.Results[i] = *res
			log.Debug("scenario evaluated", zap.String("scenario_id", ids[i]), zap.Int("position", i))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		result.index[id] = i
	}

	if err := o.persist(ctx, result); err != nil {
		return nil, fmt.Errorf("persist run %s: %w", result.RunID, err)
	}
	return result, nil
}

// Validate checks scenarios and shared inputs without evaluating anything.
func (o *Orchestrator) Validate(scenarios []Scenario) error {
	_, err := o.validate(scenarios)
	return err
}

// validate checks every scenario before any computation and returns their
// identities. All failures are reported together.
func (o *Orchestrator) validate(scenarios []Scenario) ([]string, error) {
	var errs []error
	ids := make([]string, len(scenarios))
	seen := make(map[string]int, len(scenarios))

	run := &domain.ValidationResult{Valid: true}
	if o.termYears < 0 {
		errs = append(errs, domain.NewError(domain.KindInvalidInput, "termYears", "must be >= 0, got %d", o.termYears))
	}
	if o.termYears > 0 || o.peer != nil {
		run.Merge(o.requireFund())
	}
	if o.peer != nil {
		run.Merge(domain.ValidatePeerBenchmark(*o.peer))
		run.Merge(domain.ValidateBenchmarkPolicy(o.benchmark))
	}
	if err := run.Err(); err != nil {
		errs = append(errs, err)
	}

	for i, sc := range scenarios {
		ids[i] = idhash.ScenarioID(sc.Name)

		r := &domain.ValidationResult{Valid: true}
		if sc.Name == "" {
			errs = append(errs, fmt.Errorf("scenario %d: %w", i,
				domain.NewError(domain.KindInvalidInput, "name", "scenario name is empty")))
		} else if prev, dup := seen[ids[i]]; dup {
			errs = append(errs, fmt.Errorf("scenario %d (%s): %w", i, sc.Name,
				domain.NewError(domain.KindInvalidInput, "name", "duplicate of scenario %d", prev)))
		} else {
			seen[ids[i]] = i
		}

		if sc.DownRound != nil {
			if o.capStructure == nil {
				errs = append(errs, fmt.Errorf("scenario %d (%s): %w", i, sc.Name,
					domain.NewError(domain.KindConfiguration, "capStructure", "down round given without a capital structure")))
			} else {
				r.Merge(domain.ValidateCapitalStructure(*o.capStructure))
			}
			r.Merge(domain.ValidateDownRound(*sc.DownRound))
			if sc.Mechanism != "" {
				r.Merge(domain.ValidateMechanism(sc.Mechanism))
			}
		} else if sc.Mechanism != "" {
			errs = append(errs, fmt.Errorf("scenario %d (%s): %w", i, sc.Name,
				domain.NewError(domain.KindInvalidInput, "mechanism", "mechanism %s given without a down round", sc.Mechanism)))
		}

		if sc.Conversion != nil {
			if o.conversion == nil {
				errs = append(errs, fmt.Errorf("scenario %d (%s): %w", i, sc.Name,
					domain.NewError(domain.KindConfiguration, "conversion", "conversion scenario given without conversion inputs")))
			} else {
				r.Merge(domain.ValidateConversionInputs(*o.conversion))
			}
			r.Merge(domain.ValidateConversionScenario(*sc.Conversion))
			r.Merge(domain.ValidateDiscountPolicy(o.discount))
		}

		if sc.Carry != nil || len(sc.Exits) > 0 {
			r.Merge(o.requireFund())
		}
		if sc.Carry != nil {
			if !(sc.Carry.HoldingYears >= 0) {
				errs = append(errs, fmt.Errorf("scenario %d (%s): %w", i, sc.Name,
					domain.NewError(domain.KindInvalidInput, "holdingYears", "must be >= 0, got %v", sc.Carry.HoldingYears)))
			}
			if !(sc.Carry.ExitMultiple >= 0) {
				errs = append(errs, fmt.Errorf("scenario %d (%s): %w", i, sc.Name,
					domain.NewError(domain.KindDataConsistency, "exitMultiple", "must be >= 0, got %v", sc.Carry.ExitMultiple)))
			}
		}
		if len(sc.Exits) > 0 {
			r.Merge(domain.ValidateDealExits(sc.Exits))
		}

		if err := r.Err(); err != nil {
			errs = append(errs, fmt.Errorf("scenario %d (%s): %w", i, sc.Name, err))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return ids, nil
}

func (o *Orchestrator) requireFund() *domain.ValidationResult {
	if o.fund == nil {
		return &domain.ValidationResult{
			Errors:  []domain.ErrorKind{domain.KindConfiguration},
			Details: []error{domain.NewError(domain.KindConfiguration, "fund", "fund economics are required")},
		}
	}
	return domain.ValidateFundEconomics(*o.fund)
}

// runFundLevel computes the outputs shared by every scenario.
func (o *Orchestrator) runFundLevel(result *RunResult) error {
	if o.termYears > 0 {
		fees, err := waterfall.ProjectManagementFees(*o.fund, o.termYears, o.basis)
		o.metrics.RecordEngineCall(observability.EngineFees, err)
		if err != nil {
			return fmt.Errorf("project management fees: %w", err)
		}
		result.FeeSchedule = fees
		result.FeeSummary = waterfall.SummarizeFees(fees)
	}

	if o.peer != nil {
		b, err := waterfall.BenchmarkVariance(*o.fund, *o.peer, o.benchmark)
		o.metrics.RecordEngineCall(observability.EngineBenchmark, err)
		if err != nil {
			return fmt.Errorf("benchmark fees: %w", err)
		}
		result.Benchmark = b
	}
	return nil
}

// evaluate runs one scenario through the engines it asks for.
func (o *Orchestrator) evaluate(sc Scenario) (*ScenarioResult, error) {
	res := &ScenarioResult{Name: sc.Name}

	if sc.DownRound != nil {
		cmp, err := antidilution.CompareMechanisms(*o.capStructure, *sc.DownRound)
		o.metrics.RecordEngineCall(observability.EngineAntiDilution, err)
		if err != nil {
			return nil, fmt.Errorf("compare mechanisms: %w", err)
		}
		res.Comparison = cmp

		if sc.Mechanism != "" {
			adj, err := antidilution.ComputeAdjustment(*o.capStructure, *sc.DownRound, sc.Mechanism)
			o.metrics.RecordEngineCall(observability.EngineAntiDilution, err)
			if err != nil {
				return nil, fmt.Errorf("compute adjustment: %w", err)
			}
			res.Adjustment = adj
		}
	}

	if sc.Conversion != nil {
		ev, err := conversion.EvaluateScenario(*o.conversion, *sc.Conversion, o.discount)
		o.metrics.RecordEngineCall(observability.EngineConversion, err)
		if err != nil {
			return nil, fmt.Errorf("evaluate conversion: %w", err)
		}
		res.Conversion = ev
	}

	if sc.Carry != nil {
		c, err := waterfall.ComputeCarriedInterest(*o.fund, sc.Carry.HoldingYears, sc.Carry.ExitMultiple)
		o.metrics.RecordEngineCall(observability.EngineCarry, err)
		if err != nil {
			return nil, fmt.Errorf("compute carried interest: %w", err)
		}
		res.Carry = c
	}

	if len(sc.Exits) > 0 {
		w, err := waterfall.RunWaterfall(*o.fund, sc.Exits)
		o.metrics.RecordEngineCall(observability.EngineWaterfall, err)
		if err != nil {
			return nil, fmt.Errorf("run waterfall: %w", err)
		}
		res.Waterfall = w
	}

	return res, nil
}

// persist writes the run to every configured store, run record first.
func (o *Orchestrator) persist(ctx context.Context, result *RunResult) error {
	if o.runStore != nil {
		if err := o.timed("runs", func() error {
			return o.runStore.Insert(ctx, result.RunRecord(o.fund))
		}); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}
	}
	if o.scenarioStore != nil {
		if err := o.timed("scenario_results", func() error {
			return o.scenarioStore.InsertBulk(ctx, result.ScenarioRecords())
		}); err != nil {
			return fmt.Errorf("insert scenario results: %w", err)
		}
	}
	if o.feeStore != nil && len(result.FeeSchedule) > 0 {
		if err := o.timed("fee_projections", func() error {
			return o.feeStore.InsertBulk(ctx, result.FeeRows(o.fund.FeeBasis))
		}); err != nil {
			return fmt.Errorf("insert fee projections: %w", err)
		}
	}
	if o.stepStore != nil {
		if steps := result.StepRows(); len(steps) > 0 {
			if err := o.timed("waterfall_steps", func() error {
				return o.stepStore.InsertBulk(ctx, steps)
			}); err != nil {
				return fmt.Errorf("insert waterfall steps: %w", err)
			}
		}
	}
	return nil
}

func (o *Orchestrator) timed(store string, fn func() error) error {
	start := o.now()
	err := fn()
	o.metrics.RecordStoreWrite(store, o.now().Sub(start), err)
	return err
}
