package command

import (
	"github.com/ncatbot/core/filter"
)

// ParamKind is the declared type of a parameter or named value (§4.9).
type ParamKind int

const (
	KindString ParamKind = iota
	KindInt
	KindFloat
	KindBool
)

// ParamSpec declares one positional or named parameter.
type ParamSpec struct {
	Name     string
	Kind     ParamKind
	Named    bool // true if bound by "--name=value" rather than position
	Default  any  // used when absent and not Required
	Required bool
	Choices  []any // validated against if non-empty
	Variadic bool  // only meaningful on the last positional parameter
}

// OptionSpec declares a boolean flag with short and/or long forms.
type OptionSpec struct {
	Name  string // canonical name, used as the bound argument key
	Short string // single-letter form, "" if none
	Long  string // long form, "" if none
}

// OptionGroupSpec declares a set of mutually-exclusive long-form flags.
type OptionGroupSpec struct {
	Name    string
	Members []string // long-option names
	Default string
}

// HandlerFunc is a bound command implementation. args holds the resolved
// parameter values keyed by name; ctx, built by the engine, carries the
// triggering event and the resolved option/group values.
type HandlerFunc func(ctx Context, args map[string]any) error

// Context is the per-invocation context passed to a bound handler: the
// triggering event (an *event.GroupMessage or *event.PrivateMessage) plus
// the resolved option/group values, kept separate from positional/named
// argument values for direct access without a map lookup.
type Context struct {
	Event   any
	Options map[string]bool
	Groups  map[string]string
}

// Spec is one registered command (§3.1 "Command spec").
type Spec struct {
	Path        []string
	Aliases     [][]string
	Prefixes    []string
	Parameters  []ParamSpec
	Options     []OptionSpec
	OptionGroups []OptionGroupSpec
	Handler     HandlerFunc
	Owner       string
	Filter      filter.Filter
}
