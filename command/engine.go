package command

import (
	"context"

	"github.com/ncatbot/core/errors"
	"github.com/ncatbot/core/event"
	"github.com/ncatbot/core/eventbus"
	"github.com/ncatbot/core/filter"
	"github.com/ncatbot/core/logger"
	"github.com/ncatbot/core/rbac"
)

// BindFailedPayload is the exact shape published on
// ncatbot.param_bind_failed (§EXT "Command help rendering on bind
// failure"): a binding error never reaches the handler as an exception, it
// becomes this event instead.
type BindFailedPayload struct {
	CommandPath   []string
	Prefix        string
	MissingParams []string
	BindingError  error
}

// Engine wires the lexer, resolver, binder, and filter chain together and
// subscribes itself to the event bus's message events (§4.1-§4.10 combined
// data flow: "Event bus -> Command engine -> Filter -> Binder -> User
// function").
type Engine struct {
	registry *Registry
	bus      *eventbus.Bus
	rbac     *rbac.Service
}

// New creates a command engine backed by registry, publishing bind-failed
// events on bus and resolving Admin/Root filters against rbacSvc.
func New(registry *Registry, bus *eventbus.Bus, rbacSvc *rbac.Service) *Engine {
	return &Engine{registry: registry, bus: bus, rbac: rbacSvc}
}

// Attach subscribes the engine to group and private message events at a
// high fixed priority so command dispatch runs ahead of general-purpose
// plugin subscribers on the same topics.
func (e *Engine) Attach() error {
	const enginePriority = 1000
	if _, err := e.bus.Subscribe(string(event.TypeGroupMessage), enginePriority, 0, "command-engine", e.onMessage); err != nil {
		return err
	}
	if _, err := e.bus.Subscribe(string(event.TypePrivateMessage), enginePriority, 0, "command-engine", e.onMessage); err != nil {
		return err
	}
	return nil
}

func (e *Engine) onMessage(ctx context.Context, evt any) error {
	text, userID := extractText(evt)
	if text == "" {
		return nil
	}

	idx, err := e.registry.Index()
	if err != nil {
		logger.CommandWarnw("command index build failed", "err", err)
		return nil
	}

	tokens, err := Tokenize(text)
	if err != nil {
		logger.CommandDebugw("lex failure, not a command", "err", err)
		return nil
	}

	res, err := idx.Resolve(tokens)
	if err != nil {
		return err
	}
	if res == nil {
		return nil
	}

	uc := filter.UserContext{UserID: userID, RBAC: e.rbac}
	if res.Spec.Filter != nil && !res.Spec.Filter(evt, uc) {
		logger.CommandDebugw("command denied by filter", "path", res.Spec.Path, "user", userID)
		return nil
	}

	remaining := SkipPathWords(tokens, res.WordsConsumed)
	bound, err := Bind(res.Spec, remaining)
	if err != nil {
		var berr *BindingError
		if errors.As(err, &berr) {
			e.bus.Publish(ctx, string(event.TypeParamBindFailed), BindFailedPayload{
				CommandPath:   res.Spec.Path,
				Prefix:        res.Prefix,
				MissingParams: berr.MissingParams,
				BindingError:  berr,
			}, eventbus.FireAndForget)
			return nil
		}
		return err
	}

	hctx := Context{Event: evt, Options: bound.Options, Groups: bound.Groups}
	if err := res.Spec.Handler(hctx, bound.Values); err != nil {
		return errors.HandlerError(err, "command %v handler failed", res.Spec.Path)
	}
	return nil
}

func extractText(evt any) (text, userID string) {
	switch m := evt.(type) {
	case *event.GroupMessage:
		return m.Message.FirstText(), m.UserID
	case *event.PrivateMessage:
		return m.Message.FirstText(), m.UserID
	default:
		return "", ""
	}
}
