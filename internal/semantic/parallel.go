package semantic

import (
	"golang.org/x/sync/errgroup"
)

// checkBodies runs pass 2 over every function. Each body is checked by its
// own checker with a private scope stack, diagnostics buffer and result maps,
// so bodies can run concurrently. Results come back indexed like funcs,
// which keeps the merge in declaration order.
func (a *Analyzer) checkBodies(funcs []*FuncInfo) []*bodyResult {
	results := make([]*bodyResult, len(funcs))
	if a.cfg.Jobs < 2 || len(funcs) < 2 {
		for i, fn := range funcs {
			results[i] = a.checkBody(fn)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(a.cfg.Jobs)
	for i, fn := range funcs {
		i, fn := i, fn // per-iteration copies (go 1.21 loop semantics)
		g.Go(func() error {
			results[i] = a.checkBody(fn)
			return nil
		})
	}
	// Checkers report through their buffers; Wait only joins them.
	_ = g.Wait()
	return results
}
