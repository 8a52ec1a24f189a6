// Package research runs the employee-discovery pipeline: pick the roles
// worth contacting for a company of this size, search for matching
// profiles, pull profile details, validate current employment, and
// persist everyone who passes.
package research

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"time"

	"github.com/solvire/fartemis/pkg/candidate"
	"github.com/solvire/fartemis/pkg/linkurl"
	"github.com/solvire/fartemis/pkg/store"
	"github.com/solvire/fartemis/pkg/voyager"
)

// State is a pipeline phase, recorded on the report as the run advances.
type State string

// Pipeline states, in run order.
const (
	StateInit          State = "INIT"
	StateRoleSelection State = "ROLE_SELECTION"
	StateSearching     State = "SEARCHING"
	StateFetching      State = "FETCHING"
	StateValidating    State = "VALIDATING"
	StatePersisting    State = "PERSISTING"
	StateDone          State = "DONE"
)

// Searcher runs one raw search query. *search.Aggregator satisfies this.
type Searcher interface {
	SearchQuery(ctx context.Context, query string) ([]candidate.SearchHit, error)
}

// DetailProvider resolves a profile handle or URN to full profile detail.
// *voyager.Client satisfies this.
type DetailProvider interface {
	GetProfile(ctx context.Context, id string) (*voyager.ProfileDetail, error)
}

// NameChange records a person whose stored last name no longer matches
// the profile, keyed by a stable URN.
type NameChange struct {
	URN      string `json:"urn"`
	Stored   string `json:"stored"`
	Observed string `json:"observed"`
}

// Report summarizes one pipeline run.
type Report struct {
	Company        string               `json:"company"`
	Size           SizeCategory         `json:"size"`
	State          State                `json:"state"`
	Queries        int                  `json:"queries"`
	Hits           int                  `json:"hits"`
	Candidates     int                  `json:"candidates"`
	Validated      int                  `json:"validated"`
	Discarded      int                  `json:"discarded"`
	Created        int                  `json:"created"`
	Updated        int                  `json:"updated"`
	DiscardReasons map[string]int       `json:"discard_reasons,omitempty"`
	NameChanges    []NameChange         `json:"name_changes,omitempty"`
	Employees      []candidate.Employee `json:"employees"`
}

// Pipeline is the employee-discovery state machine. A single provider or
// candidate failure is logged and skipped; only a total inability to
// proceed aborts the run.
type Pipeline struct {
	cfg      Config
	searcher Searcher
	details  DetailProvider
	store    store.Store
	logger   *slog.Logger
	sleep    func(time.Duration)
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConfig overrides the default thresholds and role tables.
func WithConfig(cfg Config) Option {
	return func(p *Pipeline) { p.cfg = cfg }
}

// WithDetailProvider sets the profile-detail source. Without one, hits
// are validated from search metadata only.
func WithDetailProvider(d DetailProvider) Option {
	return func(p *Pipeline) { p.details = d }
}

// WithStore sets the persistence backend. Without one, the run is a dry
// run that still produces a full report.
func WithStore(s store.Store) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithSleep replaces the courtesy-delay sleeper. Tests pass a no-op.
func WithSleep(sleep func(time.Duration)) Option {
	return func(p *Pipeline) { p.sleep = sleep }
}

// New creates a Pipeline around a searcher.
func New(searcher Searcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		cfg:      DefaultConfig(),
		searcher: searcher,
		logger:   slog.Default(),
		sleep:    time.Sleep,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// found is a profile hit waiting for detail fetch, tagged with the
// keyword that surfaced it.
type found struct {
	hit     candidate.SearchHit
	keyword string
}

// Run executes the full pipeline for one company.
func (p *Pipeline) Run(ctx context.Context, company Company) (*Report, error) {
	report := &Report{
		Company:        company.Name,
		State:          StateInit,
		DiscardReasons: make(map[string]int),
		Employees:      []candidate.Employee{},
	}
	if strings.TrimSpace(company.Name) == "" {
		return report, fmt.Errorf("company name required: %w", candidate.ErrNoTarget)
	}

	p.transition(report, StateRoleSelection)
	cat := p.cfg.sizeCategory(company)
	report.Size = cat
	roles := p.cfg.activeRoles(cat)
	p.logger.Info("selected target roles", "company", company.Name, "size", cat, "roles", len(roles))

	p.transition(report, StateSearching)
	profiles, snippetHits, err := p.searchRoles(ctx, company, roles, report)
	if err != nil {
		return report, err
	}
	report.Candidates = len(profiles)
	if len(profiles) == 0 && len(snippetHits) == 0 {
		p.logger.Info("no search results found", "company", company.Name)
		p.transition(report, StateDone)
		return report, nil
	}

	p.transition(report, StateFetching)
	details := p.fetchDetails(ctx, profiles, report)

	p.transition(report, StateValidating)
	searched := roleKeywords(roles)
	var validated []candidate.Employee
	for _, d := range details {
		emp, reason := p.validate(d.detail, d.found, company, searched)
		if reason != "" {
			report.Discarded++
			report.DiscardReasons[reason]++
			p.logger.Debug("candidate discarded", "url", d.found.hit.URL, "reason", reason)
			continue
		}
		report.Validated++
		validated = append(validated, emp)
	}
	for _, emp := range snippetHits {
		role, ok := p.cfg.mapRole(emp.JobTitle)
		if !ok {
			report.Discarded++
			report.DiscardReasons["snippet_role_mismatch"]++
			continue
		}
		emp.MappedRole = role.Key
		emp.Influence = role.Influence
		report.Validated++
		validated = append(validated, emp)
	}

	p.transition(report, StatePersisting)
	report.Employees = DedupEmployees(validated)
	sortEmployees(report.Employees)
	if p.store != nil {
		for _, emp := range report.Employees {
			if err := p.persist(ctx, emp, company.Name, report); err != nil {
				p.logger.Warn("persist failed", "person", emp.NameKey(), "error", err)
				report.DiscardReasons["persist_failed"]++
			}
		}
	}

	p.transition(report, StateDone)
	p.logger.Info("research run complete",
		"company", company.Name,
		"candidates", report.Candidates,
		"validated", report.Validated,
		"discarded", report.Discarded,
		"created", report.Created,
		"updated", report.Updated)
	return report, nil
}

// searchRoles fans queries out per role keyword. Profile hits are
// collected by clean URL; non-profile hits are mined for snippet names.
func (p *Pipeline) searchRoles(ctx context.Context, company Company, roles []RoleTarget, report *Report) ([]found, []candidate.Employee, error) {
	seen := make(map[string]found)
	var order []string
	var snippetHits []candidate.Employee
	for _, role := range roles {
		for _, kw := range role.Keywords {
			query := fmt.Sprintf("%q %q site:linkedin.com/in/", kw, company.Name)
			report.Queries++
			hits, err := p.searcher.SearchQuery(ctx, query)
			if err != nil {
				if errors.Is(err, candidate.ErrNoProviders) {
					return nil, nil, err
				}
				p.logger.Warn("search query failed", "query", query, "error", err)
				continue
			}
			report.Hits += len(hits)
			for _, hit := range hits {
				if linkurl.IsProfileURL(hit.URL) {
					key := linkurl.CleanProfileURL(hit.URL)
					if _, ok := seen[key]; !ok {
						seen[key] = found{hit: hit, keyword: kw}
						order = append(order, key)
					}
					continue
				}
				snippetHits = append(snippetHits, EmployeesFromSnippet(hit.Title+" "+hit.Snippet, company.Name)...)
			}
		}
	}
	out := make([]found, 0, len(order))
	for _, key := range order {
		out = append(out, seen[key])
	}
	return out, snippetHits, nil
}

// fetched pairs a search hit with its profile detail, which stays nil
// when no detail provider is configured.
type fetched struct {
	found  found
	detail *voyager.ProfileDetail
}

// fetchDetails pulls profile detail for each candidate with a randomized
// courtesy delay between requests. Fetch failures fall back to
// search-metadata validation rather than discarding the candidate.
func (p *Pipeline) fetchDetails(ctx context.Context, profiles []found, report *Report) []fetched {
	out := make([]fetched, 0, len(profiles))
	for i, f := range profiles {
		if p.details == nil {
			out = append(out, fetched{found: f})
			continue
		}
		if i > 0 {
			p.sleep(p.courtesyDelay())
		}
		detail, err := p.details.GetProfile(ctx, f.hit.URL)
		if err != nil {
			p.logger.Warn("profile detail fetch failed", "url", f.hit.URL, "error", err)
			report.DiscardReasons["detail_fetch_failed"]++
			out = append(out, fetched{found: f})
			continue
		}
		out = append(out, fetched{found: f, detail: detail})
	}
	return out
}

func (p *Pipeline) courtesyDelay() time.Duration {
	min, max := p.cfg.MinFetchDelay, p.cfg.MaxFetchDelay
	if max <= min {
		return min
	}
	return min + rand.N(max-min)
}

// validate checks a candidate against the target company and the role
// keywords this run actually searched, returning the employee record or
// a discard reason.
func (p *Pipeline) validate(detail *voyager.ProfileDetail, f found, company Company, searched []string) (candidate.Employee, string) {
	if detail == nil {
		return p.validateFromHit(f, company, searched)
	}

	exp, ok := currentEmployer(detail)
	if !ok {
		return candidate.Employee{}, "no_experience"
	}
	if !p.cfg.CompanyMatches(exp.CompanyName, company.Name) {
		return candidate.Employee{}, "company_mismatch"
	}
	title := exp.Title
	if title == "" {
		title = detail.Headline
	}
	if !titleMatchesAny(title, searched) {
		return candidate.Employee{}, "title_mismatch"
	}
	role, ok := p.cfg.mapRole(title)
	if !ok {
		return candidate.Employee{}, "title_mismatch"
	}
	url := f.hit.URL
	if detail.PublicIdentifier != "" {
		url = linkurl.CanonicalBase + detail.PublicIdentifier
	}
	return candidate.Employee{
		FirstName:   detail.FirstName,
		LastName:    detail.LastName,
		JobTitle:    title,
		CompanyName: company.Name,
		LinkedInURL: linkurl.CleanProfileURL(url),
		LinkedInURN: detail.EntityURN,
		MappedRole:  role.Key,
		Influence:   role.Influence,
		Confidence:  1.0,
		Source:      "profile_detail",
	}, ""
}

// validateFromHit validates on search metadata alone: the company must
// appear in the title or snippet, and the hit's role keyword stands in
// for the unverified title.
func (p *Pipeline) validateFromHit(f found, company Company, searched []string) (candidate.Employee, string) {
	text := f.hit.Title + " " + f.hit.Snippet
	if !strings.Contains(strings.ToLower(text), strings.ToLower(company.Name)) &&
		!p.cfg.CompanyMatches(text, company.Name) {
		return candidate.Employee{}, "company_mismatch"
	}
	if !titleMatchesAny(text, searched) {
		return candidate.Employee{}, "title_mismatch"
	}
	role, ok := p.cfg.mapRole(text)
	if !ok {
		return candidate.Employee{}, "title_mismatch"
	}
	first, last := nameFromHit(f.hit.Title)
	return candidate.Employee{
		FirstName:   first,
		LastName:    last,
		JobTitle:    f.keyword,
		CompanyName: company.Name,
		LinkedInURL: linkurl.CleanProfileURL(f.hit.URL),
		MappedRole:  role.Key,
		Influence:   role.Influence,
		Confidence:  0.6,
		Source:      "search_hit",
	}, ""
}

// nameFromHit takes the leading "Jane Doe" out of a result title shaped
// like "Jane Doe - CTO - Acme | LinkedIn".
func nameFromHit(title string) (first, last string) {
	head := title
	for _, sep := range []string{" - ", " | ", " – ", ","} {
		if before, _, ok := strings.Cut(head, sep); ok {
			head = before
		}
	}
	head = strings.TrimSpace(head)
	if !plausibleName(head) {
		return "", ""
	}
	first, last, _ = splitName(head)
	return first, last
}

// roleKeywords flattens the searched keywords of the active roles.
func roleKeywords(roles []RoleTarget) []string {
	var kws []string
	for _, role := range roles {
		kws = append(kws, role.Keywords...)
	}
	return kws
}

// currentEmployer picks the position to validate against: the first
// entry without an end date, falling back to the most recent entry.
func currentEmployer(d *voyager.ProfileDetail) (voyager.Experience, bool) {
	if len(d.Experience) == 0 {
		return voyager.Experience{}, false
	}
	for _, exp := range d.Experience {
		if exp.Current {
			return exp, true
		}
	}
	return d.Experience[0], true
}

// DedupEmployees merges duplicate discoveries, matching by URN first,
// then normalized profile URL, then name. The higher-confidence record
// wins and absorbs the other's non-empty fields.
func DedupEmployees(in []candidate.Employee) []candidate.Employee {
	var out []candidate.Employee
	byURN := make(map[string]int)
	byURL := make(map[string]int)
	byName := make(map[string]int)

	find := func(e candidate.Employee) (int, bool) {
		if e.LinkedInURN != "" {
			if i, ok := byURN[e.LinkedInURN]; ok {
				return i, true
			}
		}
		if e.LinkedInURL != "" {
			if i, ok := byURL[linkurl.Normalize(e.LinkedInURL)]; ok {
				return i, true
			}
		}
		if e.FirstName != "" && e.LastName != "" {
			if i, ok := byName[e.NameKey()]; ok {
				return i, true
			}
		}
		return 0, false
	}
	index := func(i int) {
		e := out[i]
		if e.LinkedInURN != "" {
			byURN[e.LinkedInURN] = i
		}
		if e.LinkedInURL != "" {
			byURL[linkurl.Normalize(e.LinkedInURL)] = i
		}
		if e.FirstName != "" && e.LastName != "" {
			byName[e.NameKey()] = i
		}
	}

	for _, e := range in {
		if i, ok := find(e); ok {
			out[i] = mergeEmployees(out[i], e)
			index(i)
			continue
		}
		out = append(out, e)
		index(len(out) - 1)
	}
	return out
}

// mergeEmployees keeps the higher-confidence record and fills its gaps
// from the other. Influence keeps the maximum of the two.
func mergeEmployees(a, b candidate.Employee) candidate.Employee {
	winner, loser := a, b
	if b.Confidence > a.Confidence {
		winner, loser = b, a
	}
	if winner.JobTitle == "" {
		winner.JobTitle = loser.JobTitle
	}
	if winner.LinkedInURL == "" {
		winner.LinkedInURL = loser.LinkedInURL
	}
	if winner.LinkedInURN == "" {
		winner.LinkedInURN = loser.LinkedInURN
	}
	if winner.Email == "" {
		winner.Email = loser.Email
	}
	if winner.MappedRole == "" {
		winner.MappedRole = loser.MappedRole
		winner.Influence = loser.Influence
	}
	if loser.Influence > winner.Influence {
		winner.Influence = loser.Influence
	}
	return winner
}

// persist writes one employee through the store, preserving any worked
// relationship status and flagging apparent name changes.
func (p *Pipeline) persist(ctx context.Context, emp candidate.Employee, company string, report *Report) error {
	email := store.PlaceholderEmail(emp.FirstName, emp.LastName, company)
	id, created, err := p.store.FindOrCreatePerson(ctx, store.PersonKey{
		URN:       emp.LinkedInURN,
		URL:       emp.LinkedInURL,
		FirstName: emp.FirstName,
		LastName:  emp.LastName,
	}, store.Person{
		FirstName:   emp.FirstName,
		LastName:    emp.LastName,
		LinkedInURL: emp.LinkedInURL,
		LinkedInURN: emp.LinkedInURN,
		Email:       email,
	})
	if err != nil {
		return err
	}
	if created {
		report.Created++
		if err := p.store.UpsertContactMethod(ctx, id, "email", email); err != nil {
			return err
		}
	} else {
		report.Updated++
		p.checkNameChange(ctx, id, emp, report)
	}
	if emp.LinkedInURL != "" {
		title := strings.TrimSpace(emp.FirstName + " " + emp.LastName)
		if err := p.store.UpsertSourceLink(ctx, id, emp.LinkedInURL, title, emp.Confidence); err != nil {
			return err
		}
	}
	return p.store.UpsertCompanyAssociation(ctx, id, company, store.Association{
		JobTitle:  emp.JobTitle,
		Role:      emp.MappedRole,
		Influence: emp.Influence,
		Status:    store.StatusToContact,
	})
}

// checkNameChange flags a stored person whose last name differs from the
// freshly observed profile. Only URN-backed matches are trustworthy
// enough to call a name change rather than a collision.
func (p *Pipeline) checkNameChange(ctx context.Context, id store.PersonID, emp candidate.Employee, report *Report) {
	if emp.LinkedInURN == "" || emp.LastName == "" {
		return
	}
	existing, err := p.store.GetPerson(ctx, id)
	if err != nil || existing.LinkedInURN != emp.LinkedInURN {
		return
	}
	if existing.LastName != "" && !strings.EqualFold(existing.LastName, emp.LastName) {
		p.logger.Info("possible name change detected",
			"urn", emp.LinkedInURN, "stored", existing.LastName, "observed", emp.LastName)
		report.NameChanges = append(report.NameChanges, NameChange{
			URN:      emp.LinkedInURN,
			Stored:   existing.LastName,
			Observed: emp.LastName,
		})
	}
}

func (p *Pipeline) transition(report *Report, next State) {
	p.logger.Debug("pipeline state", "from", report.State, "to", next)
	report.State = next
}

// sortEmployees orders a report's employees by influence then name for
// stable output.
func sortEmployees(emps []candidate.Employee) {
	sort.SliceStable(emps, func(i, j int) bool {
		if emps[i].Influence != emps[j].Influence {
			return emps[i].Influence > emps[j].Influence
		}
		return emps[i].NameKey() < emps[j].NameKey()
	})
}
