// Package event defines the uniform result contract for behavior dispatch.
// Every handler returns a Result; dispatch never produces an absent value.
package event

import "strings"

// disposition distinguishes a real handler response from the two sentinel
// outcomes. The zero value is responded, so constructed results are always
// well-formed.
type disposition int

const (
	responded disposition = iota
	ignored
	unhandled
)

// Result is what a handler (and a whole dispatch) produces. Allow carries
// the permission decision, Feedback the narrative text for the player.
// Context and Hints let handlers pass structured data back to the caller.
type Result struct {
	Allow    bool
	Feedback string
	Context  map[string]any
	Hints    []string

	disp disposition
}

// Sentinel results. NoHandler marks a dispatch that found no implementing
// module (the dispatcher pairs it with an error and callers never see it
// alone). IgnoreEvent is an explicit decline: the handler looked and chose
// not to respond.
var (
	NoHandler   = Result{disp: unhandled}
	IgnoreEvent = Result{disp: ignored}
)

// Allow builds a permitting result with the given feedback.
func Allow(feedback string) Result {
	return Result{Allow: true, Feedback: feedback}
}

// Deny builds a refusing result with the given feedback.
func Deny(feedback string) Result {
	return Result{Allow: false, Feedback: feedback}
}

// Responded reports whether a handler actually produced this result
// (as opposed to a sentinel).
func (r Result) Responded() bool { return r.disp == responded }

// Ignored reports whether this is the IgnoreEvent sentinel.
func (r Result) Ignored() bool { return r.disp == ignored }

// Unhandled reports whether this is the NoHandler sentinel.
func (r Result) Unhandled() bool { return r.disp == unhandled }

// WithContext returns a copy of r carrying the given context map.
func (r Result) WithContext(ctx map[string]any) Result {
	r.Context = ctx
	return r
}

// WithHints returns a copy of r carrying the given hints.
func (r Result) WithHints(hints ...string) Result {
	r.Hints = hints
	return r
}

// Combine folds the results of several handlers into one, in handler order:
// Allow is the logical AND over all real responses, feedback lines are
// joined with newlines, hints are appended, and context maps are merged
// with later keys winning. Ignored results contribute nothing. If every
// result was ignored (or the slice is empty), the combined result is the
// IgnoreEvent sentinel.
func Combine(results []Result) Result {
	combined := Result{Allow: true}
	var feedback []string
	answered := false

	for _, r := range results {
		if !r.Responded() {
			continue
		}
		answered = true
		combined.Allow = combined.Allow && r.Allow
		if r.Feedback != "" {
			feedback = append(feedback, r.Feedback)
		}
		combined.Hints = append(combined.Hints, r.Hints...)
		if len(r.Context) > 0 {
			if combined.Context == nil {
				combined.Context = map[string]any{}
			}
			for k, v := range r.Context {
				combined.Context[k] = v
			}
		}
	}

	if !answered {
		return IgnoreEvent
	}
	combined.Feedback = strings.Join(feedback, "\n")
	return combined
}

// Context carries the circumstances of a single dispatch into handlers:
// which verb triggered it, who acted, and what was acted on. Data is a
// free-form bag for event-specific values (damage amounts, directions).
type Context struct {
	Verb   string
	Actor  string
	Object string
	Target string
	Data   map[string]any
}

// Int reads an integer from the context data bag, with a default for
// missing or mistyped values. JSON and Lua numbers arrive as float64 or
// int depending on the path in, so both are accepted.
func (c *Context) Int(key string, def int) int {
	if c == nil || c.Data == nil {
		return def
	}
	switch v := c.Data[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// String reads a string from the context data bag.
func (c *Context) String(key string, def string) string {
	if c == nil || c.Data == nil {
		return def
	}
	if s, ok := c.Data[key].(string); ok {
		return s
	}
	return def
}
