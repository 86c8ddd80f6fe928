package chain

import (
	"github.com/hashicorp/go-bexpr"
	"github.com/luxapientia/alphacore-sub000/model"
)

// minerFilterFields is the struct bexpr evaluates its boolean expressions
// against; the bexpr tag names are what an operator writes on the left-hand
// side of a MinerFilterExpr (e.g. "uid > 10 and hotkey matches \"^5\"").
type minerFilterFields struct {
	UID            int64  `bexpr:"uid"`
	NetworkAddress string `bexpr:"network_address"`
	Hotkey         string `bexpr:"hotkey"`
}

// Filter evaluates an operator-supplied boolean expression against one miner
// identity at a time (see Match). An empty expr matches everyone.
type Filter struct {
	expr string
	eval *bexpr.Evaluator
}

// NewFilter compiles expr once so repeated Matches calls don't re-parse it
// every round.
func NewFilter(expr string) (*Filter, error) {
	if expr == "" {
		return &Filter{}, nil
	}
	eval, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, err
	}
	return &Filter{expr: expr, eval: eval}, nil
}

// Match reports whether id passes the filter. A Filter built from an empty
// expression matches everything.
func (f *Filter) Match(id model.MinerIdentity) (bool, error) {
	if f.eval == nil {
		return true, nil
	}
	return f.eval.Evaluate(minerFilterFields{
		UID:            id.UID,
		NetworkAddress: id.NetworkAddress,
		Hotkey:         id.Hotkey,
	})
}
