package types

import (
	"sort"
	"strings"
	"time"
)

// Repository represents an indexed Home Assistant configuration repository
type Repository struct {
	ID          int64
	Name        string
	Owner       string
	Description string
	URL         string // Unique identifier for the repository
	Stars       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Automation represents a single automation extracted from a repository.
// An automation always belongs to exactly one repository.
type Automation struct {
	ID             int64
	RepositoryID   int64
	Alias          string // Unique within the owning repository
	Description    string
	TriggerTypes   []string // e.g. "state", "time", "webhook"
	ActionCalls    []string // e.g. "light.turn_on", "notify.mobile_app"
	BlueprintPath  string   // Empty when the automation is not blueprint-based
	SourceFilePath string
	GitHubURL      string
	StartLine      int
	EndLine        int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ActionDomains returns the deduplicated, sorted set of service domains the
// automation calls. The domain is the part of an action call before the first
// dot ("light.turn_on" -> "light").
func (a *Automation) ActionDomains() []string {
	seen := make(map[string]struct{}, len(a.ActionCalls))
	for _, call := range a.ActionCalls {
		domain := call
		if i := strings.IndexByte(call, '.'); i >= 0 {
			domain = call[:i]
		}
		domain = strings.TrimSpace(domain)
		if domain == "" {
			continue
		}
		seen[domain] = struct{}{}
	}
	domains := make([]string, 0, len(seen))
	for d := range seen {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}

// HasTrigger reports whether the automation uses the given trigger type.
func (a *Automation) HasTrigger(triggerType string) bool {
	for _, t := range a.TriggerTypes {
		if t == triggerType {
			return true
		}
	}
	return false
}

// HasActionDomain reports whether any action call belongs to the given domain.
func (a *Automation) HasActionDomain(domain string) bool {
	prefix := domain + "."
	for _, call := range a.ActionCalls {
		if call == domain || strings.HasPrefix(call, prefix) {
			return true
		}
	}
	return false
}

// Validate checks automation integrity before persisting
func (a *Automation) Validate() error {
	if a.RepositoryID == 0 {
		return ErrOrphanAutomation
	}
	if strings.TrimSpace(a.Alias) == "" {
		return ErrEmptyAlias
	}
	return nil
}

// SearchQuery is a structured search request: a free-text term, optional
// filters, and offset pagination.
type SearchQuery struct {
	Term               string
	TriggerFilter      string
	ActionDomainFilter string
	BlueprintOnly      bool
	Page               int // 1-based
	PerPage            int
}

const (
	DefaultPerPage = 50
	MaxPerPage     = 200
	MaxTermLength  = 256
)

// Normalize fills in pagination defaults and canonicalizes the term so that
// equivalent queries produce identical cache keys.
func (q *SearchQuery) Normalize() {
	q.Term = strings.ToLower(strings.TrimSpace(q.Term))
	q.TriggerFilter = strings.ToLower(strings.TrimSpace(q.TriggerFilter))
	q.ActionDomainFilter = strings.ToLower(strings.TrimSpace(q.ActionDomainFilter))
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage <= 0 {
		q.PerPage = DefaultPerPage
	}
	if q.PerPage > MaxPerPage {
		q.PerPage = MaxPerPage
	}
}

// Validate rejects malformed query input. Normalize should be called first.
func (q *SearchQuery) Validate() error {
	if len(q.Term) > MaxTermLength {
		return ErrTermTooLong
	}
	if strings.ContainsRune(q.Term, 0) {
		return ErrInvalidTerm
	}
	return nil
}

// Offset returns the SQL offset for the current page.
func (q *SearchQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// SearchHit is one automation in a result page, joined with its repository.
type SearchHit struct {
	Automation Automation
	Repository Repository
}

// SearchPage is one page of search results with the total match count.
type SearchPage struct {
	Hits    []SearchHit
	Total   int
	Page    int
	PerPage int
}

// Dimension identifies a facet grouping axis
type Dimension string

const (
	DimRepository   Dimension = "repository"
	DimTriggerType  Dimension = "trigger_type"
	DimActionDomain Dimension = "action_domain"
	DimBlueprint    Dimension = "blueprint"
)

// AllDimensions lists every supported facet dimension.
var AllDimensions = []Dimension{DimRepository, DimTriggerType, DimActionDomain, DimBlueprint}

// ParseDimension converts a string to a known Dimension.
func ParseDimension(s string) (Dimension, error) {
	d := Dimension(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllDimensions {
		if d == known {
			return d, nil
		}
	}
	return "", ErrUnknownDimension
}

// FacetBucket is a (dimension, value, count) triple computed from the current
// matched set. Buckets are transient: recomputed per query or served from cache.
type FacetBucket struct {
	Dimension Dimension `json:"dimension" msgpack:"dimension"`
	Value     string    `json:"value" msgpack:"value"`
	Count     int       `json:"count" msgpack:"count"`
}

// Statistics summarizes the indexed corpus
type Statistics struct {
	TotalRepositories int `json:"total_repositories" msgpack:"total_repositories"`
	TotalAutomations  int `json:"total_automations" msgpack:"total_automations"`
	TotalBlueprints   int `json:"total_blueprints" msgpack:"total_blueprints"`
	TriggerTypes      int `json:"trigger_types" msgpack:"trigger_types"`
	ActionDomains     int `json:"action_domains" msgpack:"action_domains"`
}
