package scenario

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/google/safeopen"
	"gopkg.in/yaml.v3"

	"github.com/benz9527/xtree/lib/infra"
)

type Op string

const (
	OpAdd            Op = "add"
	OpInsert         Op = "insert"
	OpInsertIfAbsent Op = "insertIfAbsent"
	OpRemove         Op = "remove"
	OpRemoveMin      Op = "removeMin"
	OpRemoveMax      Op = "removeMax"
	OpContains       Op = "contains"
	OpMin            Op = "min"
	OpMax            Op = "max"
	OpLen            Op = "len"
	OpInOrder        Op = "inorder"
	OpClear          Op = "clear"
)

// Expectations shared by several ops. The others are literal values.
const (
	ExpectOK        = "ok"
	ExpectDuplicate = "duplicate"
	ExpectMissing   = "missing"
	ExpectEmpty     = "empty"
)

type Kind string

const (
	KindInt    Kind = "int"
	KindString Kind = "string"
)

var (
	ErrInvalidScenario = errors.New("[scenario] invalid scenario")
	ErrInvalidValue    = errors.New("[scenario] invalid value")
)

// Step is one operation of a scenario. Values are applied in order;
// ops without arguments ignore them, except inorder which compares the
// full in-order sequence against them.
type Step struct {
	Op     Op     `yaml:"op"`
	Values []any  `yaml:"values,omitempty"`
	Expect string `yaml:"expect,omitempty"`
}

func (s Step) String() string {
	builder := strings.Builder{}
	builder.WriteString(string(s.Op))
	if len(s.Values) > 0 {
		builder.WriteString(" ")
		builder.WriteString(joinValues(s.Values))
	}
	return builder.String()
}

// Scenario drives one tree through a list of steps. All the invariants
// are audited after each step.
type Scenario struct {
	Name       string `yaml:"name"`
	Kind       Kind   `yaml:"kind"`
	Desc       bool   `yaml:"desc,omitempty"`
	BorrowPred bool   `yaml:"borrowPred,omitempty"`
	Steps      []Step `yaml:"steps"`
}

func (s *Scenario) Validate() error {
	if s == nil {
		return infra.WrapErrorStackWithMessage(ErrInvalidScenario, "nil scenario")
	}
	switch s.Kind {
	case "":
		s.Kind = KindInt
	case KindInt, KindString:
	default:
		return infra.WrapErrorStackWithMessage(ErrInvalidScenario, "unknown kind "+string(s.Kind))
	}
	if len(s.Steps) == 0 {
		return infra.WrapErrorStackWithMessage(ErrInvalidScenario, "no steps in "+s.Name)
	}
	for i, step := range s.Steps {
		switch step.Op {
		case OpAdd, OpInsert, OpInsertIfAbsent, OpRemove, OpContains:
			if len(step.Values) == 0 {
				return infra.WrapErrorStackWithMessage(ErrInvalidScenario,
					fmt.Sprintf("step %d: %s without values", i, step.Op))
			}
		case OpRemoveMin, OpRemoveMax, OpMin, OpMax, OpLen, OpInOrder, OpClear:
		default:
			return infra.WrapErrorStackWithMessage(ErrInvalidScenario,
				fmt.Sprintf("step %d: unknown op %q", i, step.Op))
		}
	}
	return nil
}

// Parse decodes a YAML scenario and validates it.
func Parse(r io.Reader) (*Scenario, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	s := &Scenario{}
	if err := dec.Decode(s); err != nil {
		return nil, infra.WrapErrorStackWithMessage(errors.Join(ErrInvalidScenario, err), "decode")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads the scenario file name without leaving dir.
func Load(dir, name string) (*Scenario, error) {
	f, err := safeopen.OpenBeneath(dir, name)
	if err != nil {
		return nil, infra.WrapErrorStackWithMessage(err, "open scenario "+name)
	}
	defer func() {
		_ = f.Close()
	}()
	s, err := Parse(f)
	if err != nil {
		return nil, err
	}
	if len(s.Name) == 0 {
		s.Name = name
	}
	return s, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, infra.WrapErrorStackWithMessage(ErrInvalidValue, strconv.FormatUint(n, 10)+" overflows int64")
		}
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		if err != nil {
			return 0, infra.WrapErrorStackWithMessage(ErrInvalidValue, n)
		}
		return i, nil
	default:
	}
	return 0, infra.WrapErrorStackWithMessage(ErrInvalidValue, fmt.Sprintf("%v (%T)", v, v))
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case nil:
		return "", infra.WrapErrorStackWithMessage(ErrInvalidValue, "null")
	default:
	}
	return fmt.Sprint(v), nil
}

func joinValues(values []any) string {
	strs := make([]string, 0, len(values))
	for _, v := range values {
		strs = append(strs, fmt.Sprint(v))
	}
	return strings.Join(strs, ",")
}
