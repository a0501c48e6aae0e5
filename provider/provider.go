// Package provider is the data provider facade of the diagram: one method
// per graph-exploration operation, each composing a query from the dialect,
// sending it to the endpoint and normalizing the response.
//
// A Provider holds only its configuration. Every call is independent, and
// calls may run concurrently. On failure an operation returns the typed
// error of the stage that failed (see the errors package) and no records.
package provider

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"time"

	"github.com/anhcx0209/ontodia-search/dialect"
	"github.com/anhcx0209/ontodia-search/errors"
	"github.com/anhcx0209/ontodia-search/metric"
	"github.com/anhcx0209/ontodia-search/model"
	"github.com/anhcx0209/ontodia-search/normalize"
	"github.com/anhcx0209/ontodia-search/query"
	"github.com/anhcx0209/ontodia-search/transport"
	"github.com/anhcx0209/ontodia-search/vocabulary"
)

// Operation names used in logs and metrics.
const (
	OpConcepts       = "concepts"
	OpClassTree      = "classTree"
	OpClassInfo      = "classInfo"
	OpPropertyInfo   = "propertyInfo"
	OpLinkTypes      = "linkTypes"
	OpLinkTypesInfo  = "linkTypesInfo"
	OpElementInfo    = "elementInfo"
	OpLinksInfo      = "linksInfo"
	OpLinkTypesOf    = "linkTypesOf"
	OpLinkElements   = "linkElements"
	OpFilter         = "filter"
	OpFilterExtended = "filterExtended"
	OpElementTriples = "elementTriples"
	OpConstruct      = "construct"
	OpElementImages  = "elementImages"
)

// Elements is an ordered element mapping keyed by IRI.
type Elements = model.Dict[*model.Element]

// DataProvider is the operation surface consumed by the diagram.
type DataProvider interface {
	Concepts(ctx context.Context) (*Elements, error)
	ClassTree(ctx context.Context) ([]*model.ClassNode, error)
	ClassInfo(ctx context.Context, classIDs []string) ([]*model.ClassNode, error)
	PropertyInfo(ctx context.Context, propertyIDs []string) (*model.Dict[*model.Property], error)
	LinkTypes(ctx context.Context) ([]*model.LinkType, error)
	LinkTypesInfo(ctx context.Context, linkTypeIDs []string) ([]*model.LinkType, error)
	ElementInfo(ctx context.Context, elementIDs []string) (*Elements, error)
	LinksInfo(ctx context.Context, elementIDs, linkTypeIDs []string) ([]model.Link, error)
	LinkTypesOf(ctx context.Context, elementID string) ([]model.LinkCount, error)
	LinkElements(ctx context.Context, req LinkElementsRequest) (*Elements, error)
	Filter(ctx context.Context, req model.FilterRequest) (*Elements, error)
	FilterExtended(ctx context.Context, req model.FilterRequest) (*Elements, error)
	ElementTriples(ctx context.Context, elementIDs []string) ([]model.Triple, error)
	Construct(ctx context.Context, sparql string) ([]model.Triple, error)
}

// LinkElementsRequest selects elements linked to one element.
type LinkElementsRequest struct {
	ElementID string              `json:"elementId"`
	LinkID    string              `json:"linkId,omitempty"`
	Direction model.LinkDirection `json:"direction,omitempty"`
	Limit     int                 `json:"limit"`
	Offset    int                 `json:"offset"`
}

// ImageResolver returns image URLs keyed by element id for a batch of
// elements. Ids missing from elements are ignored.
type ImageResolver func(ctx context.Context, elements *Elements) (map[string]string, error)

// Executor sends one query and returns the response body.
type Executor interface {
	Stream(ctx context.Context, endpoint, query string, method transport.Method, format transport.Format) (io.ReadCloser, error)
}

// Config is the construction-time configuration of a Provider.
type Config struct {
	// EndpointURL is the SPARQL endpoint. Required.
	EndpointURL string

	// Method defaults to GET.
	Method transport.Method

	// ImagePropertyIRIs are link types whose objects are element images.
	// Ignored when ImageResolver is set.
	ImagePropertyIRIs []string
	ImageResolver     ImageResolver

	// LabelProperty replaces the dialect's data label property.
	LabelProperty string

	// Settings defaults to dialect.Default().
	Settings *dialect.Settings

	// SearchSettings supplies FilterExtended's search-mode clauses.
	// Defaults to Settings.
	SearchSettings *dialect.Settings

	// ConceptClassIRI is the class listed by Concepts. Defaults to
	// skos:Concept.
	ConceptClassIRI string
}

// Dependencies are the collaborators of a Provider. All are optional.
type Dependencies struct {
	Executor Executor
	Logger   *slog.Logger
	Metrics  *metric.Metrics
}

// Provider implements DataProvider against one SPARQL endpoint.
type Provider struct {
	endpoint     string
	method       transport.Method
	settings     dialect.Settings
	search       dialect.Settings
	conceptClass string
	imageProps   []string
	resolveImgs  ImageResolver

	exec    Executor
	logger  *slog.Logger
	metrics *metric.Metrics
}

var _ DataProvider = (*Provider)(nil)

// New validates cfg and builds a Provider.
func New(cfg Config, deps Dependencies) (*Provider, error) {
	if cfg.EndpointURL == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Provider", "New", "endpoint URL is required")
	}
	if u, err := url.Parse(cfg.EndpointURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Provider", "New", "endpoint URL must be absolute")
	}

	method := cfg.Method
	if method == "" {
		method = transport.MethodGet
	}
	if method != transport.MethodGet && method != transport.MethodPost {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Provider", "New", "unsupported query method "+string(method))
	}

	settings := dialect.Default()
	if cfg.Settings != nil {
		settings = *cfg.Settings
	}
	if cfg.LabelProperty != "" {
		settings = dialect.Compose(settings, dialect.Overrides{DataLabelProperty: &cfg.LabelProperty})
	}
	if err := dialect.Validate(settings); err != nil {
		return nil, errors.WrapInvalid(err, "Provider", "New", "validate dialect "+settings.Name)
	}

	search := settings
	if cfg.SearchSettings != nil {
		search = *cfg.SearchSettings
		if err := dialect.Validate(search); err != nil {
			return nil, errors.WrapInvalid(err, "Provider", "New", "validate search dialect "+search.Name)
		}
	}

	conceptClass := cfg.ConceptClassIRI
	if conceptClass == "" {
		conceptClass = vocabulary.SkosConcept
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	exec := deps.Executor
	if exec == nil {
		exec = transport.NewClient(transport.WithLogger(logger), transport.WithMetrics(deps.Metrics))
	}

	return &Provider{
		endpoint:     cfg.EndpointURL,
		method:       method,
		settings:     settings,
		search:       search,
		conceptClass: conceptClass,
		imageProps:   append([]string(nil), cfg.ImagePropertyIRIs...),
		resolveImgs:  cfg.ImageResolver,
		exec:         exec,
		logger:       logger.With("component", "provider", "dialect", settings.Name),
		metrics:      deps.Metrics,
	}, nil
}

// Settings returns the resolved dialect, label override applied.
func (p *Provider) Settings() dialect.Settings {
	return p.settings
}

// Concepts lists instances of the configured concept class.
func (p *Provider) Concepts(ctx context.Context) (*Elements, error) {
	return selectRecords(ctx, p, OpConcepts,
		func() (string, error) { return query.Concepts(p.settings, p.conceptClass) },
		normalize.Elements)
}

// ClassTree returns the class hierarchy roots.
func (p *Provider) ClassTree(ctx context.Context) ([]*model.ClassNode, error) {
	return selectRecords(ctx, p, OpClassTree,
		func() (string, error) { return query.ClassTree(p.settings) },
		normalize.ClassTree)
}

// ClassInfo returns labels of the given classes.
func (p *Provider) ClassInfo(ctx context.Context, classIDs []string) ([]*model.ClassNode, error) {
	if len(classIDs) == 0 {
		return []*model.ClassNode{}, nil
	}
	return selectRecords(ctx, p, OpClassInfo,
		func() (string, error) { return query.ClassInfo(p.settings, classIDs) },
		normalize.ClassInfo)
}

// PropertyInfo returns labels of the given datatype properties.
func (p *Provider) PropertyInfo(ctx context.Context, propertyIDs []string) (*model.Dict[*model.Property], error) {
	if len(propertyIDs) == 0 {
		return model.NewDict[*model.Property](0), nil
	}
	return selectRecords(ctx, p, OpPropertyInfo,
		func() (string, error) { return query.PropertyInfo(p.settings, propertyIDs) },
		normalize.PropertyInfo)
}

// LinkTypes lists the link types of the dataset.
func (p *Provider) LinkTypes(ctx context.Context) ([]*model.LinkType, error) {
	return selectRecords(ctx, p, OpLinkTypes,
		func() (string, error) { return query.LinkTypes(p.settings) },
		normalize.LinkTypes)
}

// LinkTypesInfo returns labels of the given link types.
func (p *Provider) LinkTypesInfo(ctx context.Context, linkTypeIDs []string) ([]*model.LinkType, error) {
	if len(linkTypeIDs) == 0 {
		return []*model.LinkType{}, nil
	}
	return selectRecords(ctx, p, OpLinkTypesInfo,
		func() (string, error) { return query.LinkTypesInfo(p.settings, linkTypeIDs) },
		normalize.LinkTypesInfo)
}

// ElementInfo returns classes, labels, properties and images of elements.
// Ids the endpoint knows nothing about are omitted.
func (p *Provider) ElementInfo(ctx context.Context, elementIDs []string) (*Elements, error) {
	if len(elementIDs) == 0 {
		return model.NewDict[*model.Element](0), nil
	}
	elements, err := selectRecords(ctx, p, OpElementInfo,
		func() (string, error) { return query.ElementInfo(p.settings, elementIDs) },
		normalize.Elements)
	if err != nil {
		return nil, err
	}
	p.enrich(ctx, elements)
	return elements, nil
}

// LinksInfo returns links among the elements, optionally restricted to
// the given link types.
func (p *Provider) LinksInfo(ctx context.Context, elementIDs, linkTypeIDs []string) ([]model.Link, error) {
	if len(elementIDs) == 0 {
		return []model.Link{}, nil
	}
	return selectRecords(ctx, p, OpLinksInfo,
		func() (string, error) { return query.LinksInfo(p.settings, elementIDs, linkTypeIDs) },
		normalize.Links)
}

// LinkTypesOf counts links of one element per link type and direction.
func (p *Provider) LinkTypesOf(ctx context.Context, elementID string) ([]model.LinkCount, error) {
	return selectRecords(ctx, p, OpLinkTypesOf,
		func() (string, error) { return query.LinkTypesOf(p.settings, elementID) },
		normalize.LinkCounts)
}

// LinkElements pages through elements linked to req.ElementID. It is a
// reference-element filter with no text or type.
func (p *Provider) LinkElements(ctx context.Context, req LinkElementsRequest) (*Elements, error) {
	return p.filter(ctx, OpLinkElements, model.FilterRequest{
		RefElementID:     req.ElementID,
		RefElementLinkID: req.LinkID,
		Direction:        req.Direction,
		Limit:            req.Limit,
		Offset:           req.Offset,
	}, false)
}

// Filter runs one page of a filtered element search with the dialect's
// generic full-text clause.
func (p *Provider) Filter(ctx context.Context, req model.FilterRequest) (*Elements, error) {
	return p.filter(ctx, OpFilter, req, false)
}

// FilterExtended is Filter with the full-text clause chosen by
// req.SearchMode from the search dialect.
func (p *Provider) FilterExtended(ctx context.Context, req model.FilterRequest) (*Elements, error) {
	return p.filter(ctx, OpFilterExtended, req, true)
}

func (p *Provider) filter(ctx context.Context, op string, req model.FilterRequest, extended bool) (*Elements, error) {
	elements, err := selectRecords(ctx, p, op,
		func() (string, error) {
			if extended {
				return query.FilterExtended(p.settings, p.search, req)
			}
			return query.Filter(p.settings, req)
		},
		normalize.Elements)
	if err != nil {
		return nil, err
	}
	p.enrich(ctx, elements)
	return elements, nil
}

// ElementTriples returns every statement about the given elements.
func (p *Provider) ElementTriples(ctx context.Context, elementIDs []string) ([]model.Triple, error) {
	if len(elementIDs) == 0 {
		return []model.Triple{}, nil
	}
	return constructTriples(ctx, p, OpElementTriples,
		func() (string, error) { return query.ElementTriples(p.settings, elementIDs) })
}

// Construct runs a caller-supplied CONSTRUCT or DESCRIBE query, prefixed
// with the dialect's default prefixes.
func (p *Provider) Construct(ctx context.Context, sparql string) ([]model.Triple, error) {
	return constructTriples(ctx, p, OpConstruct,
		func() (string, error) {
			if sparql == "" {
				return "", errors.NewComposition(OpConstruct, errors.ErrInvalidData, "empty query")
			}
			return p.settings.DefaultPrefix + sparql, nil
		})
}

// selectRecords runs compose, executes the query for SPARQL JSON results and
// normalizes them with decode.
func selectRecords[T any](
	ctx context.Context, p *Provider, op string,
	compose func() (string, error), decode func(*normalize.Response) T,
) (T, error) {
	var zero T
	start := time.Now()

	resp, err := p.bindings(ctx, compose)
	p.observe(op, start, err)
	if err != nil {
		return zero, err
	}
	return decode(resp), nil
}

func (p *Provider) bindings(ctx context.Context, compose func() (string, error)) (*normalize.Response, error) {
	q, err := compose()
	if err != nil {
		return nil, err
	}
	body, err := p.exec.Stream(ctx, p.endpoint, q, p.method, transport.FormatBindings)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return normalize.DecodeBindings(body)
}

func constructTriples(ctx context.Context, p *Provider, op string, compose func() (string, error)) ([]model.Triple, error) {
	start := time.Now()
	triples, err := func() ([]model.Triple, error) {
		q, err := compose()
		if err != nil {
			return nil, err
		}
		body, err := p.exec.Stream(ctx, p.endpoint, q, p.method, transport.FormatTurtle)
		if err != nil {
			return nil, err
		}
		defer body.Close()
		return normalize.DecodeTurtle(body)
	}()
	p.observe(op, start, err)
	return triples, err
}

func (p *Provider) observe(op string, start time.Time, err error) {
	duration := time.Since(start)
	p.metrics.RecordQuery(op, duration, err)
	if err != nil {
		p.logger.Debug("operation failed",
			"operation", op, "kind", errors.KindOf(err), "duration", duration, "error", err)
		return
	}
	p.logger.Debug("operation completed", "operation", op, "duration", duration)
}
