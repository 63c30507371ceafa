// Package hooking lets observers watch what a component does without the
// component knowing about them.
package hooking

// HookPos names a site where hooks can be triggered.
type HookPos struct {
	Name string
}

// HookCtx describes one invocation: who fired it, where, and with what.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   interface{}
	Detail interface{}
}

// Hookable is implemented by anything observers can attach to.
type Hookable interface {
	// AcceptHook adds a hook that runs on every later invocation.
	AcceptHook(hook Hook)

	// Hooks lists the attached hooks.
	Hooks() []Hook
}

// A Hook observes a Hookable.
type Hook interface {
	// Func is called once per invocation, in attachment order.
	Func(ctx HookCtx)
}

// HookFunc adapts an ordinary function to the Hook interface.
type HookFunc func(ctx HookCtx)

// Func calls f(ctx).
func (f HookFunc) Func(ctx HookCtx) {
	f(ctx)
}

// HookableBase implements Hookable. Types embed it and call InvokeHook.
type HookableBase struct {
	hooks []Hook
}

// NewHookableBase returns a base without hooks.
func NewHookableBase() *HookableBase {
	return &HookableBase{hooks: make([]Hook, 0)}
}

// AcceptHook attaches a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.hooks = append(h.hooks, hook)
}

// Hooks returns the registered hooks in registration order.
func (h *HookableBase) Hooks() []Hook {
	return h.hooks
}

// NumHooks returns the number of hooks registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// InvokeHook passes ctx to every attached hook.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
