package resolver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-viper/mapstructure/v2"

	"github.com/honua-io/honua/internal/config"
	"github.com/honua-io/honua/internal/parser"
)

// ResolutionError reports an unresolved env variable, an undefined or
// transitive variable reference, or a value that cannot be bound to its
// typed spec. Any ResolutionError aborts the load; a partially resolved
// configuration is never handed to callers.
type ResolutionError struct {
	Location string
	Message  string
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	if e.Location == "" {
		return e.Message
	}
	return e.Location + ": " + e.Message
}

// resolver carries the per-load state: the environment snapshot and the
// variable table collected up front.
type resolver struct {
	env  map[string]string
	vars map[string]any
	errs []*ResolutionError
}

// Resolve builds a ResolvedConfig from doc using the given environment
// snapshot. On any resolution error the config is nil and all collected
// errors are returned.
func Resolve(doc *parser.Document, env map[string]string) (*config.ResolvedConfig, []*ResolutionError) {
	r := &resolver{env: env, vars: make(map[string]any)}

	// Variables first, in a single pass; declaration order does not matter
	// because variables may not reference each other.
	for _, b := range doc.BlocksOfKind("variable") {
		r.collectVariable(b)
	}

	cfg := config.New()
	seen := make(map[string]struct{})
	for _, b := range doc.Blocks {
		if b.Kind == "variable" {
			continue
		}
		// Singletons like honua and rate_limit key on the bare kind, so a
		// repeated unlabeled block is a duplicate too.
		key := b.Path()
		if _, dup := seen[key]; dup {
			cfg.Duplicates = append(cfg.Duplicates, config.Duplicate{
				Kind:     b.Kind,
				Label:    b.Label,
				Location: key,
			})
		}
		seen[key] = struct{}{}
		r.bindBlock(cfg, b)
	}

	if len(r.errs) > 0 {
		return nil, r.errs
	}
	return cfg, nil
}

func (r *resolver) errorf(location, format string, args ...any) {
	r.errs = append(r.errs, &ResolutionError{Location: location, Message: fmt.Sprintf(format, args...)})
}

func (r *resolver) collectVariable(b *parser.Block) {
	if b.Label == "" {
		r.errorf("variable", "variable block requires a name label")
		return
	}
	var val parser.Value
	for _, a := range b.Attributes {
		if a.Name == "value" || (a.Name == "default" && val == nil) {
			val = a.Value
		}
	}
	if val == nil {
		r.errorf("variable."+b.Label, "variable %q has no value attribute", b.Label)
		return
	}
	resolved, err := r.resolveValue(val, true)
	if err != nil {
		r.errs = append(r.errs, locate(err, "variable."+b.Label))
		return
	}
	r.vars[b.Label] = resolved
}

// bindBlock resolves one top-level block and stores its typed spec.
func (r *resolver) bindBlock(cfg *config.ResolvedConfig, b *parser.Block) {
	switch b.Kind {
	case "honua":
		r.decode(b, &cfg.Settings)
	case "rate_limit":
		spec := &config.RateLimitSpec{}
		if r.decode(b, spec) {
			cfg.RateLimit = spec
		}
	case "data_source":
		if !r.requireLabel(b) {
			return
		}
		spec := &config.DataSourceSpec{ID: b.Label}
		if r.decode(b, spec) {
			cfg.DataSources[b.Label] = spec
		}
	case "service":
		if !r.requireLabel(b) {
			return
		}
		spec := &config.ServiceSpec{ID: b.Label}
		if r.decode(b, spec) {
			cfg.Services[b.Label] = spec
		}
	case "layer":
		if !r.requireLabel(b) {
			return
		}
		spec := &config.LayerSpec{ID: b.Label}
		if r.decode(b, spec) {
			cfg.Layers[b.Label] = spec
		}
	case "cache":
		if !r.requireLabel(b) {
			return
		}
		spec := &config.CacheSpec{ID: b.Label}
		if r.decode(b, spec) {
			cfg.Caches[b.Label] = spec
		}
	default:
		r.errorf(b.Path(), "unsupported block kind %q", b.Kind)
	}
}

func (r *resolver) requireLabel(b *parser.Block) bool {
	if b.Label == "" {
		r.errorf(b.Kind, "%s block requires an identifier label", b.Kind)
		return false
	}
	return true
}

// decode resolves all attributes and nested blocks of b into a generic map
// and binds it onto the typed spec. Returns false when anything failed.
func (r *resolver) decode(b *parser.Block, target any) bool {
	raw, ok := r.blockToMap(b)
	if !ok {
		return false
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
	})
	if err != nil {
		r.errorf(b.Path(), "internal decoder error: %v", err)
		return false
	}
	if err := dec.Decode(raw); err != nil {
		r.errorf(b.Path(), "invalid attribute value: %v", err)
		return false
	}
	return true
}

func (r *resolver) blockToMap(b *parser.Block) (map[string]any, bool) {
	out := make(map[string]any, len(b.Attributes)+len(b.Blocks))
	ok := true
	for _, a := range b.Attributes {
		v, err := r.resolveValue(a.Value, false)
		if err != nil {
			r.errs = append(r.errs, locate(err, b.Path()+"."+a.Name))
			ok = false
			continue
		}
		out[a.Name] = v
	}
	for _, nested := range b.Blocks {
		if _, dup := out[nested.Kind]; dup {
			r.errorf(b.Path(), "duplicate nested %s block", nested.Kind)
			ok = false
			continue
		}
		m, nestedOK := r.blockToMap(nested)
		if !nestedOK {
			ok = false
			continue
		}
		out[nested.Kind] = m
	}
	return out, ok
}

// resolveValue evaluates one value node. insideVariable forbids var.x
// references, which is what rules out transitive variable chains.
func (r *resolver) resolveValue(v parser.Value, insideVariable bool) (any, error) {
	switch val := v.(type) {
	case *parser.StringVal:
		return val.V, nil
	case *parser.NumberVal:
		return val.V, nil
	case *parser.BoolVal:
		return val.V, nil

	case *parser.ListVal:
		out := make([]any, 0, len(val.Elems))
		for _, e := range val.Elems {
			ev, err := r.resolveValue(e, insideVariable)
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
		return out, nil

	case *parser.CallVal:
		return r.resolveCall(val, insideVariable)

	case *parser.RefVal:
		if val.Parts[0] == "var" {
			if insideVariable {
				return nil, &ResolutionError{
					Message: fmt.Sprintf("variable value must not reference other variables (found var.%s)",
						strings.Join(val.Parts[1:], ".")),
				}
			}
			name := val.Parts[1]
			value, ok := r.vars[name]
			if !ok {
				return nil, &ResolutionError{Message: fmt.Sprintf("undefined variable %q", name)}
			}
			return value, nil
		}
		// Cross-block reference: keep the dotted path. Existence is checked
		// by semantic validation so declaration order never matters.
		return val.Path(), nil

	case *parser.CondVal:
		cond, err := r.resolveValue(val.Cond, insideVariable)
		if err != nil {
			return nil, err
		}
		flag, ok := cond.(bool)
		if !ok {
			return nil, &ResolutionError{Message: "condition of a ?: expression must be a bool"}
		}
		// Only the taken branch is evaluated. References and env() calls in
		// the untaken branch are not required to resolve.
		if flag {
			return r.resolveValue(val.True, insideVariable)
		}
		return r.resolveValue(val.False, insideVariable)

	case *parser.TemplateVal:
		var sb strings.Builder
		for _, p := range val.Parts {
			pv, err := r.resolveValue(p, insideVariable)
			if err != nil {
				return nil, err
			}
			sb.WriteString(stringify(pv))
		}
		return sb.String(), nil

	default:
		return nil, &ResolutionError{Message: fmt.Sprintf("unsupported value node %T", v)}
	}
}

func (r *resolver) resolveCall(call *parser.CallVal, insideVariable bool) (any, error) {
	if call.Name != "env" {
		return nil, &ResolutionError{Message: fmt.Sprintf("unknown function %q", call.Name)}
	}
	if len(call.Args) != 1 {
		return nil, &ResolutionError{Message: "env() takes exactly one string argument"}
	}
	arg, err := r.resolveValue(call.Args[0], insideVariable)
	if err != nil {
		return nil, err
	}
	name, ok := arg.(string)
	if !ok {
		return nil, &ResolutionError{Message: "env() takes exactly one string argument"}
	}
	value, ok := r.env[name]
	if !ok {
		// Never silently defaulted: a missing secret must fail the load.
		return nil, &ResolutionError{Message: fmt.Sprintf("environment variable %q is not set", name)}
	}
	return value, nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func locate(err error, location string) *ResolutionError {
	if re, ok := err.(*ResolutionError); ok {
		if re.Location == "" {
			re.Location = location
		}
		return re
	}
	return &ResolutionError{Location: location, Message: err.Error()}
}
