package internal

import (
	"fmt"
	"maps"
	"regexp"
	"strings"
	"sync"
)

var placeholder = regexp.MustCompile(`\{(\w+)\}`)

// defaultSegment matches a single path segment.
const defaultSegment = `[^/]+`

// Route is a registered route with its compiled matcher. Constraints may be
// changed after registration; every change recompiles the matcher before
// Where returns.
type Route struct {
	handler     HandlerFunc
	matcher     *matcher
	constraints map[string]string
	method      string
	template    string
	name        string
	middleware  []string
	params      []string
	mu          sync.RWMutex
}

type matcher struct {
	re     *regexp.Regexp
	groups []int // submatch index per parameter, in template order
}

func newRoute(method, template string, h HandlerFunc, middleware []string, constraints map[string]string) (*Route, error) {
	r := &Route{
		handler:     h,
		method:      strings.ToUpper(method),
		template:    template,
		middleware:  middleware,
		constraints: maps.Clone(constraints),
		params:      paramNames(template),
	}
	if r.constraints == nil {
		r.constraints = make(map[string]string)
	}
	m, err := compile(template, r.constraints)
	if err != nil {
		return nil, err
	}
	r.matcher = m
	return r, nil
}

// Where sets the constraint for a parameter and recompiles the matcher.
// On an invalid pattern the previous constraint and matcher stay in place
// and the returned error wraps ErrInvalidConstraint.
func (r *Route) Where(param, pattern string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := maps.Clone(r.constraints)
	next[param] = pattern
	m, err := compile(r.template, next)
	if err != nil {
		return err
	}
	r.constraints = next
	r.matcher = m
	return nil
}

// Method returns the HTTP method the route answers.
func (r *Route) Method() string { return r.method }

// Template returns the full path template including group prefixes.
func (r *Route) Template() string { return r.template }

// Name returns the route name, if any.
func (r *Route) Name() string { return r.name }

// Params returns parameter names in declaration order.
func (r *Route) Params() []string { return append([]string(nil), r.params...) }

// Middleware returns the effective middleware names, outermost first.
func (r *Route) Middleware() []string { return append([]string(nil), r.middleware...) }

// Constraints returns a copy of the constraint map.
func (r *Route) Constraints() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.constraints)
}

// Pattern returns the compiled regular expression source.
func (r *Route) Pattern() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.matcher.re.String()
}

// Match reports whether path matches the route and returns its parameters.
func (r *Route) Match(path string) (map[string]string, bool) {
	r.mu.RLock()
	m := r.matcher
	r.mu.RUnlock()

	sub := m.re.FindStringSubmatch(path)
	if sub == nil {
		return nil, false
	}
	params := make(map[string]string, len(r.params))
	for i, name := range r.params {
		params[name] = sub[m.groups[i]]
	}
	return params, true
}

func paramNames(template string) []string {
	found := placeholder.FindAllStringSubmatch(template, -1)
	names := make([]string, 0, len(found))
	for _, f := range found {
		names = append(names, f[1])
	}
	return names
}

// compile turns a template such as /movies/{id} into an anchored regular
// expression. Literal text is quoted; each placeholder becomes the named
// group p<index> so that groups inside a constraint cannot shift positions.
func compile(template string, constraints map[string]string) (*matcher, error) {
	var b strings.Builder
	b.WriteByte('^')

	last := 0
	locs := placeholder.FindAllStringSubmatchIndex(template, -1)
	for i, loc := range locs {
		b.WriteString(regexp.QuoteMeta(template[last:loc[0]]))
		name := template[loc[2]:loc[3]]
		body, ok := constraints[name]
		if !ok {
			body = defaultSegment
		}
		fmt.Fprintf(&b, "(?P<p%d>%s)", i, body)
		last = loc[1]
	}
	b.WriteString(regexp.QuoteMeta(template[last:]))
	b.WriteByte('$')

	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConstraint, template, err)
	}

	groups := make([]int, len(locs))
	for i := range locs {
		groups[i] = re.SubexpIndex(fmt.Sprintf("p%d", i))
	}
	return &matcher{re: re, groups: groups}, nil
}
