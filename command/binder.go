package command

import (
	"strconv"

	"github.com/ncatbot/core/errors"
)

// BindingError describes why binding failed, in enough structured detail
// for a help-rendering plugin to act on (§EXT "Command help rendering on
// bind failure": published as the ncatbot.param_bind_failed payload).
type BindingError struct {
	CommandPath    []string
	Prefix         string
	MissingParams  []string
	Err            error
}

func (e *BindingError) Error() string {
	return e.Err.Error()
}

func (e *BindingError) Unwrap() error { return e.Err }

// Bound is the binder's successful result: resolved option flags, option
// group selections, and named/positional parameter values. The engine hands
// Options and Groups to a Spec's Handler via Context, and Values as its args
// map.
type Bound struct {
	Options map[string]bool
	Groups  map[string]string
	Values  map[string]any
}

// SkipPathWords drops the leading n path-word tokens (as counted by the
// resolver) from tokens, returning whatever remains for the binder.
func SkipPathWords(tokens []Token, n int) []Token {
	skipped := 0
	for i, t := range tokens {
		if skipped == n {
			return tokens[i:]
		}
		if t.Kind == Word || t.Kind == Quoted {
			skipped++
		}
	}
	return []Token{{Kind: EOF}}
}

// Bind implements the algorithm in §4.9: partition tokens into options,
// named parameters, and positional elements, then resolve each declared
// option, option group, named parameter, and positional parameter in turn.
func Bind(spec *Spec, tokens []Token) (*Bound, error) {
	optionTokens := map[string]bool{}
	namedTokens := map[string]string{}
	var positional []string

	for _, t := range tokens {
		switch t.Kind {
		case ShortOption, LongOption:
			name := resolveOptionName(spec, t)
			if t.HasValue {
				namedTokens[name] = t.Value
			} else {
				optionTokens[name] = true
			}
		case Word, Quoted:
			positional = append(positional, t.Text)
		case EOF:
		}
	}

	bound := &Bound{
		Options: map[string]bool{},
		Groups:  map[string]string{},
		Values:  map[string]any{},
	}

	for _, opt := range spec.Options {
		bound.Options[opt.Name] = optionTokens[opt.Name]
	}
	for name, set := range optionTokens {
		if _, declared := bound.Options[name]; !declared {
			bound.Options[name] = set
		}
	}

	for _, grp := range spec.OptionGroups {
		set := ""
		count := 0
		for _, member := range grp.Members {
			if optionTokens[member] {
				set = member
				count++
			}
		}
		if count > 1 {
			return nil, &BindingError{
				CommandPath: spec.Path,
				Err:         errors.Newf("option group %q: more than one of %v set", grp.Name, grp.Members),
			}
		}
		if count == 0 {
			set = grp.Default
		}
		bound.Groups[grp.Name] = set
	}

	var missing []string
	posIdx := 0
	for _, p := range spec.Parameters {
		if p.Named {
			raw, present := namedTokens[p.Name]
			if present {
				val, err := convert(raw, p.Kind)
				if err != nil {
					return nil, &BindingError{CommandPath: spec.Path, Err: err}
				}
				if err := validateChoice(val, p.Choices); err != nil {
					return nil, &BindingError{CommandPath: spec.Path, Err: err}
				}
				bound.Values[p.Name] = val
				continue
			}
			if p.Default != nil {
				bound.Values[p.Name] = p.Default
				continue
			}
			if p.Required {
				missing = append(missing, p.Name)
			}
			continue
		}

		if p.Variadic {
			tail := make([]string, 0)
			for posIdx < len(positional) {
				tail = append(tail, positional[posIdx])
				posIdx++
			}
			bound.Values[p.Name] = tail
			continue
		}

		if posIdx < len(positional) {
			raw := positional[posIdx]
			posIdx++
			val, err := convert(raw, p.Kind)
			if err != nil {
				return nil, &BindingError{CommandPath: spec.Path, Err: err}
			}
			if err := validateChoice(val, p.Choices); err != nil {
				return nil, &BindingError{CommandPath: spec.Path, Err: err}
			}
			bound.Values[p.Name] = val
			continue
		}

		if p.Default != nil {
			bound.Values[p.Name] = p.Default
			continue
		}
		if p.Required {
			missing = append(missing, p.Name)
		}
	}

	if len(missing) > 0 {
		return nil, &BindingError{
			CommandPath:   spec.Path,
			MissingParams: missing,
			Err:           errors.Newf("missing required parameter(s): %v", missing),
		}
	}

	return bound, nil
}

// resolveOptionName maps a lexed option token's raw short/long name back to
// the canonical name declared in the spec, falling back to the raw name for
// options not explicitly declared (so unknown "-x" still round-trips into
// the Options map under its own name rather than being silently dropped).
func resolveOptionName(spec *Spec, t Token) string {
	for _, opt := range spec.Options {
		if t.Kind == ShortOption && opt.Short == t.Name {
			return opt.Name
		}
		if t.Kind == LongOption && opt.Long == t.Name {
			return opt.Name
		}
	}
	for _, grp := range spec.OptionGroups {
		for _, m := range grp.Members {
			if t.Kind == LongOption && m == t.Name {
				return m
			}
		}
	}
	return t.Name
}

func convert(raw string, kind ParamKind) (any, error) {
	switch kind {
	case KindString:
		return raw, nil
	case KindInt:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %q as integer", raw)
		}
		return n, nil
	case KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %q as float", raw)
		}
		return f, nil
	case KindBool:
		switch raw {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		default:
			return nil, errors.Newf("parsing %q as boolean: want true/false/1/0", raw)
		}
	default:
		return raw, nil
	}
}

func validateChoice(val any, choices []any) error {
	if len(choices) == 0 {
		return nil
	}
	for _, c := range choices {
		if c == val {
			return nil
		}
	}
	return errors.Newf("value %v is not one of the allowed choices %v", val, choices)
}
