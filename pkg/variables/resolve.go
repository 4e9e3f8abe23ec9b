package variables

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"seleniumrobot/infoserver/pkg/commons"
)

// DefaultReservationDuration applies when a request does not set one.
const DefaultReservationDuration = 15 * time.Minute

// Request selects the variables a test run receives.
type Request struct {
	// Version is a version id, or a version name when Application is set.
	Version string

	// Application is an application name, used to resolve a version name.
	Application string

	// Environment is an environment id or name.
	Environment string

	// Test is an optional test case id or name.
	Test string

	// Name and Value, when set, keep only matching variables.
	Name  string
	Value string

	// OlderThan keeps only variables with a time to live created more than
	// that many days ago. Variables living forever always match.
	OlderThan int

	// Reserve reserves the returned reservable variables.
	Reserve bool

	// ReservationDuration is how long reserved variables stay reserved.
	ReservationDuration time.Duration
}

// Resolution is the outcome of a resolve call.
type Resolution struct {
	Variables   []Variable
	Application commons.Application
	Version     commons.Version
	Environment commons.Environment
	Test        *commons.TestCase
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithClock sets the clock used for reservations and expiry.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.now = now
	}
}

// WithShuffle sets the shuffle used to pick among variables sharing a name.
func WithShuffle(shuffle func(n int, swap func(i, j int))) ResolverOption {
	return func(r *Resolver) {
		r.shuffle = shuffle
	}
}

// Resolver computes the effective variable set for a version, environment
// and test.
type Resolver struct {
	variables Store
	commons   commons.Store
	now       func() time.Time
	shuffle   func(n int, swap func(i, j int))
	logger    *slog.Logger
}

// NewResolver creates a resolver.
func NewResolver(variables Store, cs commons.Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		variables: variables,
		commons:   cs,
		now:       time.Now,
		shuffle:   rand.Shuffle,
		logger:    slog.Default().With("component", "variables.resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Housekeep releases past reservations and deletes variables whose time to
// live elapsed.
func (r *Resolver) Housekeep(ctx context.Context) error {
	now := r.now()

	released, err := r.variables.ReleaseExpired(ctx, now)
	if err != nil {
		return err
	}
	if released > 0 {
		r.logger.Info("released expired reservations", "count", released)
	}

	deleted, err := r.variables.DeleteExpired(ctx, now)
	if err != nil {
		return err
	}
	if deleted > 0 {
		r.logger.Info("deleted expired variables", "count", deleted)
	}
	return nil
}

// Resolve returns the variables visible for the request, most specific
// scope winning per name. Reservable variables are reserved when
// req.Reserve is set. A *ReservedError is returned when every candidate
// of some name is reserved.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	if strings.TrimSpace(req.Version) == "" {
		return nil, &ValidationError{Field: "version", Message: "version parameter is mandatory"}
	}
	if strings.TrimSpace(req.Environment) == "" {
		return nil, &ValidationError{Field: "environment", Message: "environment parameter is mandatory"}
	}

	if err := r.Housekeep(ctx); err != nil {
		return nil, err
	}

	res, err := r.lookupScope(ctx, req)
	if err != nil {
		return nil, err
	}

	tree, err := commons.EnvironmentTree(ctx, r.commons, res.Environment)
	if err != nil {
		return nil, err
	}

	all, err := r.variables.List(ctx)
	if err != nil {
		return nil, err
	}

	now := r.now()
	candidates := candidateSet(all, now, req.OlderThan)

	var testID *int64
	if res.Test != nil {
		testID = &res.Test.ID
	}
	merged := mergeScopes(candidates, res.Application.ID, res.Version.ID, tree, testID)

	merged = filterByNameValue(merged, req.Name, req.Value)
	names := distinctNames(merged)

	free := make([]Variable, 0, len(merged))
	for _, v := range merged {
		if !v.Reserved() {
			free = append(free, v)
		}
	}
	unique := r.pickOnePerName(free)

	if missing := missingNames(names, unique); len(missing) > 0 {
		return nil, &ReservedError{Names: missing}
	}

	if req.Reserve {
		if err := r.reserve(ctx, unique, req, res, now); err != nil {
			return nil, err
		}
	}

	linked, err := r.linkedVariables(ctx, candidates, res.Application, tree)
	if err != nil {
		return nil, err
	}

	res.Variables = append(unique, linked...)
	return res, nil
}

func (r *Resolver) lookupScope(ctx context.Context, req Request) (*Resolution, error) {
	version, err := commons.FindVersion(ctx, r.commons, req.Version, req.Application)
	if err != nil {
		return nil, err
	}
	app, err := r.commons.GetApplication(ctx, version.Application)
	if err != nil {
		return nil, err
	}
	env, err := commons.FindEnvironment(ctx, r.commons, req.Environment)
	if err != nil {
		return nil, err
	}

	res := &Resolution{
		Application: *app,
		Version:     *version,
		Environment: *env,
	}

	if req.Test != "" {
		tc, err := commons.FindTestCase(ctx, r.commons, req.Test)
		if err != nil {
			return nil, err
		}
		res.Test = tc
	}
	return res, nil
}

func (r *Resolver) reserve(ctx context.Context, vars []Variable, req Request, res *Resolution, now time.Time) error {
	duration := req.ReservationDuration
	if duration <= 0 {
		duration = DefaultReservationDuration
	}
	until := now.Add(duration).UTC().Truncate(time.Microsecond)

	var ids []int64
	for _, v := range vars {
		if v.Reservable {
			ids = append(ids, v.ID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	conflicts, err := r.variables.Reserve(ctx, ids, until)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		lost := make(map[int64]bool, len(conflicts))
		for _, id := range conflicts {
			lost[id] = true
		}
		var names []string
		for _, v := range vars {
			if lost[v.ID] {
				names = append(names, v.Name)
			}
		}
		sort.Strings(names)
		return &ReservedError{Names: names}
	}

	testName := ""
	if res.Test != nil {
		testName = res.Test.Name
	}
	for i := range vars {
		if !vars[i].Reservable {
			continue
		}
		release := until
		vars[i].ReleaseDate = &release
		r.logger.Info("reserved variable",
			"variable_id", vars[i].ID,
			"name", vars[i].Name,
			"application", res.Application.Name,
			"version", res.Version.Name,
			"environment", res.Environment.Name,
			"test", testName,
			"release_date", release,
		)
	}
	return nil
}

// linkedVariables returns the non-reservable application and
// application+environment variables of each linked application, renamed
// "<application>.<name>". Ids are zeroed as the entries are not addressable.
func (r *Resolver) linkedVariables(ctx context.Context, candidates []Variable, app commons.Application, tree []commons.Environment) ([]Variable, error) {
	linkedApps, err := commons.LinkedApplications(ctx, r.commons, app)
	if err != nil {
		return nil, err
	}

	if len(linkedApps) == 0 {
		return nil, nil
	}

	nonReservable := make([]Variable, 0, len(candidates))
	for _, v := range candidates {
		if !v.Reservable {
			nonReservable = append(nonReservable, v)
		}
	}

	var out []Variable
	for _, linked := range linkedApps {
		m := newMerger()
		m.update(selectScope(nonReservable, scope{app: &linked.ID}))
		for _, env := range tree {
			m.update(selectScope(nonReservable, scope{app: &linked.ID, env: &env.ID}))
		}

		for _, v := range m.list() {
			c := v.Clone()
			c.ID = 0
			c.Name = linked.Name + "." + v.Name
			c.Tests = nil
			c.ReleaseDate = nil
			out = append(out, c)
		}
	}
	return out, nil
}

// pickOnePerName keeps one variable per name, chosen at random among
// duplicates, and returns them ordered by id.
func (r *Resolver) pickOnePerName(vars []Variable) []Variable {
	shuffled := append([]Variable(nil), vars...)
	r.shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	seen := make(map[string]bool, len(shuffled))
	unique := make([]Variable, 0, len(shuffled))
	for _, v := range shuffled {
		if !seen[v.Name] {
			seen[v.Name] = true
			unique = append(unique, v)
		}
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].ID < unique[j].ID })
	return unique
}

func candidateSet(all []Variable, now time.Time, olderThan int) []Variable {
	cutoff := now.Add(-days(olderThan))
	out := make([]Variable, 0, len(all))
	for _, v := range all {
		if v.TimeToLive <= 0 || v.CreationDate.Before(cutoff) {
			out = append(out, v)
		}
	}
	return out
}

// mergeScopes applies the scope tiers from least to most specific. A tier
// replaces every earlier variable sharing a name with one of its own.
func mergeScopes(candidates []Variable, appID, versionID int64, tree []commons.Environment, testID *int64) []Variable {
	app := &appID
	version := &versionID

	m := newMerger()
	m.update(selectScope(candidates, scope{}))
	m.update(selectScope(candidates, scope{app: app}))
	m.update(selectScope(candidates, scope{app: app, version: version}))
	for _, env := range tree {
		m.update(selectScope(candidates, scope{env: &env.ID}))
	}
	if testID != nil {
		m.update(selectScope(candidates, scope{app: app, test: testID}))
	}
	for _, env := range tree {
		m.update(selectScope(candidates, scope{app: app, env: &env.ID}))
	}
	for _, env := range tree {
		m.update(selectScope(candidates, scope{app: app, version: version, env: &env.ID}))
	}
	if testID != nil {
		for _, env := range tree {
			m.update(selectScope(candidates, scope{app: app, env: &env.ID, test: testID}))
		}
		for _, env := range tree {
			m.update(selectScope(candidates, scope{app: app, version: version, env: &env.ID, test: testID}))
		}
	}
	return m.list()
}

// scope is an exact match on the scope columns. A nil field requires the
// variable column to be unset; a nil test requires no attached test case.
type scope struct {
	app     *int64
	version *int64
	env     *int64
	test    *int64
}

func (s scope) matches(v *Variable) bool {
	if !sameID(v.Application, s.app) || !sameID(v.Version, s.version) || !sameID(v.Environment, s.env) {
		return false
	}
	if s.test == nil {
		return len(v.Tests) == 0
	}
	return v.HasTest(*s.test)
}

func sameID(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func selectScope(vars []Variable, s scope) []Variable {
	var out []Variable
	for i := range vars {
		if s.matches(&vars[i]) {
			out = append(out, vars[i])
		}
	}
	return out
}

type merger struct {
	order  []string
	byName map[string][]Variable
}

func newMerger() *merger {
	return &merger{byName: make(map[string][]Variable)}
}

func (m *merger) update(tier []Variable) {
	replaced := make(map[string]bool)
	for _, v := range tier {
		if !replaced[v.Name] {
			replaced[v.Name] = true
			if _, ok := m.byName[v.Name]; !ok {
				m.order = append(m.order, v.Name)
			}
			m.byName[v.Name] = nil
		}
		m.byName[v.Name] = append(m.byName[v.Name], v)
	}
}

func (m *merger) list() []Variable {
	var out []Variable
	for _, name := range m.order {
		out = append(out, m.byName[name]...)
	}
	return out
}

func filterByNameValue(vars []Variable, name, value string) []Variable {
	if name == "" && value == "" {
		return vars
	}
	out := make([]Variable, 0, len(vars))
	for _, v := range vars {
		if name != "" && v.Name != name {
			continue
		}
		if value != "" && v.Value != value {
			continue
		}
		out = append(out, v)
	}
	return out
}

func distinctNames(vars []Variable) []string {
	seen := make(map[string]bool)
	var names []string
	for _, v := range vars {
		if !seen[v.Name] {
			seen[v.Name] = true
			names = append(names, v.Name)
		}
	}
	return names
}

func missingNames(names []string, kept []Variable) []string {
	present := make(map[string]bool, len(kept))
	for _, v := range kept {
		present[v.Name] = true
	}
	var missing []string
	for _, n := range names {
		if !present[n] {
			missing = append(missing, n)
		}
	}
	sort.Strings(missing)
	return missing
}
