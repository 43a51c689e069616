package result

import (
	"fmt"
	"io"
	"log/slog"

	"bitbucket.org/creachadair/stringset"
	"github.com/aretw0/espalier/pkg/domain"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Result accumulates the parameters and controls promoted out of one
// resolution scope, plus the IDs of parameters that must resolve to a value.
//
// Promotion is idempotent and keyed by pointer identity, not by ID: two
// distinct *domain.Parameter values sharing an ID are both retained.
// A Result is not safe for concurrent mutation.
type Result struct {
	params   *orderedmap.OrderedMap[*domain.Parameter, struct{}]
	controls *orderedmap.OrderedMap[*domain.Control, struct{}]
	required stringset.Set
	logger   *slog.Logger
}

// Option configures a Result.
type Option func(*Result)

// WithLogger sets the logger used for promotion traces.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Result) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates an empty Result.
func New(opts ...Option) *Result {
	r := &Result{
		params:   orderedmap.New[*domain.Parameter, struct{}](),
		controls: orderedmap.New[*domain.Control, struct{}](),
		required: stringset.New(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PromoteParameter adds p to the promoted parameters unless it is already present.
func (r *Result) PromoteParameter(p *domain.Parameter) {
	if p == nil {
		panic("result: PromoteParameter called with nil parameter")
	}
	if _, present := r.params.Set(p, struct{}{}); !present {
		r.logger.Debug("promoting parameter", "param_id", p.ID)
	}
}

// PromoteControl adds c to the promoted controls unless it is already present.
func (r *Result) PromoteControl(c *domain.Control) {
	if c == nil {
		panic("result: PromoteControl called with nil control")
	}
	if _, present := r.controls.Set(c, struct{}{}); !present {
		r.logger.Debug("promoting control", "control_id", c.ID)
	}
}

// RequireParameters marks every given ID as required. IDs are never removed.
func (r *Result) RequireParameters(ids ...string) {
	r.required.Add(ids...)
}

// IsParameterRequired reports whether id has been marked as required.
func (r *Result) IsParameterRequired(id string) bool {
	return r.required.Contains(id)
}

// PromotedParameters returns the promoted parameters in insertion order.
// The slice is a copy; changing it does not affect the Result.
func (r *Result) PromotedParameters() []*domain.Parameter {
	out := make([]*domain.Parameter, 0, r.params.Len())
	for pair := r.params.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// PromotedControls returns the promoted controls in insertion order.
// The slice is a copy; changing it does not affect the Result.
func (r *Result) PromotedControls() []*domain.Control {
	out := make([]*domain.Control, 0, r.controls.Len())
	for pair := r.controls.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// RequiredParameterIDs returns a sorted snapshot of the required parameter IDs.
func (r *Result) RequiredParameterIDs() []string {
	return r.required.Elements()
}

// Len returns the number of promoted parameters and controls.
func (r *Result) Len() (params, controls int) {
	return r.params.Len(), r.controls.Len()
}

// IsEmpty reports whether nothing was promoted. Required IDs are not considered.
func (r *Result) IsEmpty() bool {
	return r.params.Len() == 0 && r.controls.Len() == 0
}

// ApplyTo attaches the promoted entities to dest, in insertion order and after
// any existing entries, and rewrites the parent link of every promoted control:
// nil for a Catalog or Group, dest itself for a Control.
//
// ApplyTo is not idempotent at the destination; applying the same Result twice
// attaches every entity twice. ID collisions with existing entries are not checked.
func (r *Result) ApplyTo(dest domain.Scope) error {
	var parent *domain.Control
	switch d := dest.(type) {
	case *domain.Catalog, *domain.Group:
		if isNilScope(d) {
			return fmt.Errorf("%w: nil %T", domain.ErrUnsupportedScope, d)
		}
	case *domain.Control:
		if d == nil {
			return fmt.Errorf("%w: nil %T", domain.ErrUnsupportedScope, d)
		}
		parent = d
	default:
		return fmt.Errorf("%w: %T", domain.ErrUnsupportedScope, dest)
	}

	for pair := r.params.Oldest(); pair != nil; pair = pair.Next() {
		dest.AddParam(pair.Key)
	}
	for pair := r.controls.Oldest(); pair != nil; pair = pair.Next() {
		dest.AddControl(pair.Key)
		pair.Key.SetParent(parent)
	}

	if !r.IsEmpty() {
		params, controls := r.Len()
		r.logger.Debug("applied promoted entities",
			"scope", dest.ScopeID(),
			"params", params,
			"controls", controls,
		)
	}
	return nil
}

func isNilScope(s domain.Scope) bool {
	switch d := s.(type) {
	case *domain.Catalog:
		return d == nil
	case *domain.Group:
		return d == nil
	}
	return false
}

// Append unions other's promoted entities and required IDs into r and returns r.
// Entities already present in r keep their position; new ones follow in other's order.
func (r *Result) Append(other *Result) *Result {
	if other == nil || other == r {
		return r
	}
	for pair := other.params.Oldest(); pair != nil; pair = pair.Next() {
		r.PromoteParameter(pair.Key)
	}
	for pair := other.controls.Oldest(); pair != nil; pair = pair.Next() {
		r.PromoteControl(pair.Key)
	}
	r.required.Add(other.required.Elements()...)
	return r
}

// Fold merges results left to right into a new Result.
// It is the single-writer reduction for results produced in parallel.
func Fold(results []*Result, opts ...Option) *Result {
	acc := New(opts...)
	for _, r := range results {
		acc.Append(r)
	}
	return acc
}
