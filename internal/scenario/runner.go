package scenario

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/lib/tree/walk"
	"github.com/benz9527/xtree/xlog"
)

var ErrExpectation = errors.New("[scenario] expectation mismatch")

// StepResult is the outcome of one step. Err holds the expectation
// mismatch, Violation the broken tree invariants.
type StepResult struct {
	Index       int
	Step        Step
	Got         string
	Len         int64
	Height      int
	BlackHeight int
	Version     uint64
	Err         error
	Violation   error
}

func (r StepResult) Passed() bool {
	return r.Err == nil && r.Violation == nil
}

type Report struct {
	// RunID tells the runs of the same scenario apart in the logs.
	RunID   string
	Name    string
	Kind    Kind
	Steps   []StepResult
	Elapsed time.Duration
}

func (r *Report) Failed() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, s := range r.Steps {
		if !s.Passed() {
			n++
		}
	}
	return n
}

func (r *Report) Passed() bool {
	return r != nil && len(r.Steps) > 0 && r.Failed() == 0
}

// Err combines all the step failures.
func (r *Report) Err() error {
	if r == nil {
		return nil
	}
	var merr error
	for _, s := range r.Steps {
		if s.Err != nil {
			merr = multierr.Append(merr, fmt.Errorf("step %d %s: %w", s.Index, s.Step, s.Err))
		}
		if s.Violation != nil {
			merr = multierr.Append(merr, fmt.Errorf("step %d %s: %w", s.Index, s.Step, s.Violation))
		}
	}
	return merr
}

type runnerOpts struct {
	logger    xlog.XLogger
	statsName string
}

type RunOption func(*runnerOpts)

func WithRunLogger(logger xlog.XLogger) RunOption {
	return func(opts *runnerOpts) {
		opts.logger = logger
	}
}

// WithRunStats publishes the tree metrics of the run under name.
func WithRunStats(name string) RunOption {
	return func(opts *runnerOpts) {
		opts.statsName = name
	}
}

type runner[T infra.OrderedKey] struct {
	tree    tree.RBTree[T]
	cmp     infra.Comparator[T]
	convert func(any) (T, error)
	logger  xlog.XLogger
}

func newRunner[T infra.OrderedKey](s *Scenario, opts *runnerOpts, convert func(any) (T, error)) *runner[T] {
	treeOpts := []tree.RBTreeOpt[T]{
		tree.WithRBTreeLogger[T](opts.logger),
	}
	if s.Desc {
		treeOpts = append(treeOpts, tree.WithRBTreeDesc[T]())
	}
	if s.BorrowPred {
		treeOpts = append(treeOpts, tree.WithRBTreeRemoveBorrowPred[T]())
	}
	if len(opts.statsName) > 0 {
		treeOpts = append(treeOpts, tree.WithRBTreeStats[T](opts.statsName))
	}
	return &runner[T]{
		tree:    tree.NewRBTree[T](treeOpts...),
		cmp:     infra.OrderedKeyComparator[T](s.Desc),
		convert: convert,
		logger:  opts.logger,
	}
}

func (r *runner[T]) values(step Step) ([]T, error) {
	res := make([]T, 0, len(step.Values))
	for _, v := range step.Values {
		val, err := r.convert(v)
		if err != nil {
			return nil, err
		}
		res = append(res, val)
	}
	return res, nil
}

func expectBool(expect string, def bool) (bool, error) {
	switch expect {
	case "":
		return def, nil
	case ExpectOK:
		return true, nil
	case ExpectMissing:
		return false, nil
	default:
	}
	b, err := strconv.ParseBool(expect)
	if err != nil {
		return false, infra.WrapErrorStackWithMessage(ErrInvalidScenario, "expect "+expect)
	}
	return b, nil
}

func mismatch(want, got string) error {
	return fmt.Errorf("%w: want %s, got %s", ErrExpectation, want, got)
}

// sequenceMismatch marks the deleted parts of want with [-...-] and
// the inserted parts of got with {+...+}.
func sequenceMismatch(want, got string) error {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(want, got, false))
	var sb strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			sb.WriteString("[-" + d.Text + "-]")
		case diffmatchpatch.DiffInsert:
			sb.WriteString("{+" + d.Text + "+}")
		default:
			sb.WriteString(d.Text)
		}
	}
	return fmt.Errorf("%w: want %s, got %s, diff %s", ErrExpectation, want, got, sb.String())
}

func (r *runner[T]) insert(step Step, vals []T) (string, error) {
	wantDup := step.Expect == ExpectDuplicate
	if !wantDup && step.Expect != "" && step.Expect != ExpectOK {
		return "", infra.WrapErrorStackWithMessage(ErrInvalidScenario, "expect "+step.Expect)
	}
	var merr error
	dups := 0
	for _, v := range vals {
		var err error
		switch step.Op {
		case OpAdd:
			_, err = r.tree.Add(v)
		case OpInsert:
			err = r.tree.Insert(v)
		default:
			err = r.tree.Insert(v, true)
		}
		if errors.Is(err, tree.ErrDuplicateKey) {
			dups++
			if !wantDup {
				merr = multierr.Append(merr, mismatch(ExpectOK, fmt.Sprintf("duplicate %v", v)))
			}
			continue
		}
		if err != nil {
			merr = multierr.Append(merr, err)
			continue
		}
		if wantDup {
			merr = multierr.Append(merr, mismatch(ExpectDuplicate, fmt.Sprintf("added %v", v)))
		}
	}
	return fmt.Sprintf("%d added, %d duplicate", len(vals)-dups, dups), merr
}

func (r *runner[T]) boolOp(step Step, vals []T, fn func(T) bool) (string, error) {
	want, err := expectBool(step.Expect, true)
	if err != nil {
		return "", err
	}
	var merr error
	hits := 0
	for _, v := range vals {
		got := fn(v)
		if got {
			hits++
		}
		if got != want {
			merr = multierr.Append(merr, mismatch(strconv.FormatBool(want), fmt.Sprintf("%t for %v", got, v)))
		}
	}
	return fmt.Sprintf("%d/%d", hits, len(vals)), merr
}

func (r *runner[T]) extreme(step Step, fn func() (T, error)) (string, error) {
	v, err := fn()
	got := fmt.Sprint(v)
	if errors.Is(err, tree.ErrInvalidOperation) {
		got = ExpectEmpty
	} else if err != nil {
		return "", err
	}
	if step.Expect != "" && step.Expect != got {
		return got, mismatch(step.Expect, got)
	}
	return got, nil
}

func (r *runner[T]) inOrder(step Step, vals []T) (string, error) {
	nodes, err := walk.Collect[tree.RBNode[T]](r.tree.Source(), walk.InOrder, walk.LeftToRight)
	if err != nil {
		return "", err
	}
	got := make([]any, 0, len(nodes))
	for _, n := range nodes {
		got = append(got, n.Val())
	}
	gotStr := joinValues(got)
	if len(step.Values) == 0 {
		return gotStr, nil
	}
	if len(vals) != len(nodes) {
		return gotStr, sequenceMismatch(joinValues(step.Values), gotStr)
	}
	for i, v := range vals {
		if r.cmp(v, nodes[i].Val()) != 0 {
			return gotStr, sequenceMismatch(joinValues(step.Values), gotStr)
		}
	}
	return gotStr, nil
}

func (r *runner[T]) apply(step Step) (string, error) {
	vals, err := r.values(step)
	if err != nil {
		return "", err
	}
	switch step.Op {
	case OpAdd, OpInsert, OpInsertIfAbsent:
		return r.insert(step, vals)
	case OpRemove:
		return r.boolOp(step, vals, r.tree.Remove)
	case OpContains:
		return r.boolOp(step, vals, r.tree.Contains)
	case OpMin:
		return r.extreme(step, r.tree.Min)
	case OpMax:
		return r.extreme(step, r.tree.Max)
	case OpRemoveMin:
		return r.extreme(step, r.tree.RemoveMin)
	case OpRemoveMax:
		return r.extreme(step, r.tree.RemoveMax)
	case OpLen:
		got := strconv.FormatInt(r.tree.Len(), 10)
		if step.Expect != "" && step.Expect != got {
			return got, mismatch(step.Expect, got)
		}
		return got, nil
	case OpInOrder:
		return r.inOrder(step, vals)
	case OpClear:
		r.tree.Clear()
		return "cleared", nil
	default:
	}
	return "", infra.WrapErrorStackWithMessage(ErrInvalidScenario, "unknown op "+string(step.Op))
}

// audit checks every invariant of the tree without mutating it.
func (r *runner[T]) audit() error {
	return multierr.Combine(
		tree.ValidateOrder[T](r.tree, r.cmp),
		tree.RedViolationValidate[T](r.tree),
		tree.BlackViolationValidate[T](r.tree),
	)
}

func (r *runner[T]) run(ctx context.Context, s *Scenario) (*Report, error) {
	report := &Report{
		RunID: uuid.NewString(),
		Name:  s.Name,
		Kind:  s.Kind,
		Steps: make([]StepResult, 0, len(s.Steps)),
	}
	// The shared stats series drop the nodes of a finished run.
	defer r.tree.Release()
	start := time.Now()
	for i, step := range s.Steps {
		if err := ctx.Err(); err != nil {
			return report, infra.WrapErrorStack(err)
		}
		got, err := r.apply(step)
		if errors.Is(err, ErrInvalidScenario) || errors.Is(err, ErrInvalidValue) {
			return report, err
		}
		// A black violation is reported by audit, the height stays 0.
		bh, _ := tree.BlackHeight[T](r.tree)
		res := StepResult{
			Index:       i,
			Step:        step,
			Got:         got,
			Len:         r.tree.Len(),
			Height:      tree.Height[T](r.tree),
			BlackHeight: bh,
			Version:     r.tree.Version(),
			Err:         err,
			Violation:   r.audit(),
		}
		if res.Passed() {
			r.logger.Debug("[scenario] step passed",
				zap.String("scenario", s.Name),
				zap.String("run", report.RunID),
				zap.Int("step", i),
				zap.String("op", string(step.Op)),
				zap.String("got", got),
			)
		} else {
			r.logger.ErrorStack(multierr.Append(res.Err, res.Violation), "[scenario] step failed",
				zap.String("scenario", s.Name),
				zap.String("run", report.RunID),
				zap.Int("step", i),
				zap.String("op", string(step.Op)),
			)
		}
		report.Steps = append(report.Steps, res)
	}
	report.Elapsed = time.Since(start)
	return report, nil
}

// Run applies the scenario to a fresh tree. A malformed scenario is
// returned as an error; failed expectations and invariant violations
// are recorded in the report.
func Run(ctx context.Context, s *Scenario, opts ...RunOption) (*Report, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	ro := &runnerOpts{}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o(ro)
	}
	if ro.logger == nil {
		ro.logger = xlog.NewNopXLogger()
	}
	switch s.Kind {
	case KindString:
		return newRunner[string](s, ro, toString).run(ctx, s)
	default:
	}
	return newRunner[int64](s, ro, toInt64).run(ctx, s)
}
