package actions

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/hclsyntax"

	"github.com/hugo-lorenzo-mato/taskflow/internal/core"
	"github.com/hugo-lorenzo-mato/taskflow/internal/logging"
)

func registerBuiltins(r *Registry) {
	r.Register("noop", "does nothing and returns no result", newNoop)
	r.Register("return", "returns params.value", newReturn)
	r.Register("fail", "fails with params.message", newFail)
	r.Register("sleep", "waits for params.duration, honouring cancellation", newSleep)
	r.Register("set", "stores params.value under params.key in the run context", newSet)
	r.Register("copy", "copies run context key params.from to params.to", newCopy)
	r.Register("template", "renders params.template, e.g. \"order ${ctx.order_id}\"", newTemplate)
	r.Register("eval", "evaluates params.expr against the run context, e.g. \"ctx.total > 100\"", newEval)
}

func newNoop(map[string]any) (core.Action, error) {
	return core.ActionFunc(func(context.Context, *core.RunContext) (any, error) {
		return nil, nil
	}), nil
}

func newReturn(params map[string]any) (core.Action, error) {
	value, ok := params["value"]
	if !ok {
		return nil, errors.New(`missing parameter "value"`)
	}
	return core.ActionFunc(func(context.Context, *core.RunContext) (any, error) {
		return value, nil
	}), nil
}

func newFail(params map[string]any) (core.Action, error) {
	message, err := optionalString(params, "message", "task failed")
	if err != nil {
		return nil, err
	}
	return core.ActionFunc(func(context.Context, *core.RunContext) (any, error) {
		return nil, errors.New(message)
	}), nil
}

func newSleep(params map[string]any) (core.Action, error) {
	d, err := requireDuration(params, "duration")
	if err != nil {
		return nil, err
	}
	return core.ActionFunc(func(ctx context.Context, _ *core.RunContext) (any, error) {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-timer.C:
			return d.String(), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}), nil
}

func newSet(params map[string]any) (core.Action, error) {
	key, err := requireString(params, "key")
	if err != nil {
		return nil, err
	}
	value, ok := params["value"]
	if !ok {
		return nil, errors.New(`missing parameter "value"`)
	}
	return core.ActionFunc(func(ctx context.Context, rc *core.RunContext) (any, error) {
		rc.Set(key, value)
		logging.FromContext(ctx).Debug("context value set", "key", key)
		return value, nil
	}), nil
}

func newCopy(params map[string]any) (core.Action, error) {
	from, err := requireString(params, "from")
	if err != nil {
		return nil, err
	}
	to, err := requireString(params, "to")
	if err != nil {
		return nil, err
	}
	return core.ActionFunc(func(_ context.Context, rc *core.RunContext) (any, error) {
		v, ok := rc.Get(from)
		if !ok {
			return nil, fmt.Errorf("run context has no key %q", from)
		}
		rc.Set(to, v)
		return v, nil
	}), nil
}

func newTemplate(params map[string]any) (core.Action, error) {
	src, err := requireString(params, "template")
	if err != nil {
		return nil, err
	}
	expr, err := parseTemplate(src, "template")
	if err != nil {
		return nil, err
	}
	store, err := optionalString(params, "store", "")
	if err != nil {
		return nil, err
	}
	return exprAction(expr, store, func(v any) (any, error) {
		s, ok := v.(string)
		if !ok {
			return fmt.Sprintf("%v", v), nil
		}
		return s, nil
	}), nil
}

func newEval(params map[string]any) (core.Action, error) {
	src, err := requireString(params, "expr")
	if err != nil {
		return nil, err
	}
	expr, err := parseExpression(src, "expr")
	if err != nil {
		return nil, err
	}
	store, err := optionalString(params, "store", "")
	if err != nil {
		return nil, err
	}
	return exprAction(expr, store, nil), nil
}

// exprAction evaluates expr, optionally converts the value, and stores it
// under store when store is set.
func exprAction(expr hclsyntax.Expression, store string, convert func(any) (any, error)) core.Action {
	keys := referencedKeys(expr)
	return core.ActionFunc(func(_ context.Context, rc *core.RunContext) (any, error) {
		var missing []string
		for _, k := range keys {
			if _, ok := rc.Get(k); !ok {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			return nil, fmt.Errorf("run context is missing %s", strings.Join(missing, ", "))
		}

		v, err := evaluate(expr, rc)
		if err != nil {
			return nil, err
		}
		if convert != nil {
			if v, err = convert(v); err != nil {
				return nil, err
			}
		}
		if store != "" {
			rc.Set(store, v)
		}
		return v, nil
	})
}
