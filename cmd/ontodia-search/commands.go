package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/anhcx0209/ontodia-search/errors"
	"github.com/anhcx0209/ontodia-search/model"
	"github.com/anhcx0209/ontodia-search/pkg/retry"
	"github.com/anhcx0209/ontodia-search/provider"
	"github.com/anhcx0209/ontodia-search/search"
	"github.com/anhcx0209/ontodia-search/transport"
)

type dialectSummary struct {
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	SearchModes []model.SearchMode `json:"searchModes"`
}

func (c *cli) dialectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dialects [name]",
		Short: "List dialects, or print one resolved dialect",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			reg, err := c.dialects()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				s, err := reg.Resolve(args[0])
				if err != nil {
					return err
				}
				return c.printJSON(s)
			}
			names := reg.Names()
			out := make([]dialectSummary, 0, len(names))
			for _, name := range names {
				s, err := reg.Resolve(name)
				if err != nil {
					return err
				}
				out = append(out, dialectSummary{Name: s.Name, Description: s.Description, SearchModes: s.Modes()})
			}
			return c.printJSON(out)
		},
	}
}

// providerRun builds a provider for one command invocation.
func (c *cli) providerRun(run func(ctx context.Context, p *provider.Provider, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		reg, err := c.dialects()
		if err != nil {
			return err
		}
		p, err := c.newProvider(reg, nil)
		if err != nil {
			return err
		}
		return run(cmd.Context(), p, args)
	}
}

func (c *cli) conceptsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "concepts",
		Short: "List instances of the concept class",
		Args:  cobra.NoArgs,
		RunE: c.providerRun(func(ctx context.Context, p *provider.Provider, _ []string) error {
			return call(ctx, c, provider.OpConcepts, p.Concepts)
		}),
	}
}

func (c *cli) classTreeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "class-tree",
		Short: "Print the class hierarchy with instance counts",
		Args:  cobra.NoArgs,
		RunE: c.providerRun(func(ctx context.Context, p *provider.Provider, _ []string) error {
			return call(ctx, c, provider.OpClassTree, p.ClassTree)
		}),
	}
}

func (c *cli) classInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "class-info IRI...",
		Short: "Print labels and counts of classes",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.providerRun(func(ctx context.Context, p *provider.Provider, args []string) error {
			return call(ctx, c, provider.OpClassInfo, func(ctx context.Context) ([]*model.ClassNode, error) {
				return p.ClassInfo(ctx, splitIDs(args))
			})
		}),
	}
}

func (c *cli) propertyInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "property-info IRI...",
		Short: "Print labels of datatype properties",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.providerRun(func(ctx context.Context, p *provider.Provider, args []string) error {
			return call(ctx, c, provider.OpPropertyInfo, func(ctx context.Context) (*model.Dict[*model.Property], error) {
				return p.PropertyInfo(ctx, splitIDs(args))
			})
		}),
	}
}

func (c *cli) linkTypesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link-types",
		Short: "List link types with usage counts",
		Args:  cobra.NoArgs,
		RunE: c.providerRun(func(ctx context.Context, p *provider.Provider, _ []string) error {
			return call(ctx, c, provider.OpLinkTypes, p.LinkTypes)
		}),
	}
}

func (c *cli) linkTypesInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link-types-info IRI...",
		Short: "Print labels and counts of link types",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.providerRun(func(ctx context.Context, p *provider.Provider, args []string) error {
			return call(ctx, c, provider.OpLinkTypesInfo, func(ctx context.Context) ([]*model.LinkType, error) {
				return p.LinkTypesInfo(ctx, splitIDs(args))
			})
		}),
	}
}

func (c *cli) elementInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "element-info IRI...",
		Short: "Print types, labels, properties and images of elements",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.providerRun(func(ctx context.Context, p *provider.Provider, args []string) error {
			return call(ctx, c, provider.OpElementInfo, func(ctx context.Context) (*provider.Elements, error) {
				return p.ElementInfo(ctx, splitIDs(args))
			})
		}),
	}
}

func (c *cli) linksInfoCmd() *cobra.Command {
	var elements, types []string
	cmd := &cobra.Command{
		Use:   "links-info",
		Short: "Print links between elements, restricted to link types",
		Args:  cobra.NoArgs,
		RunE: c.providerRun(func(ctx context.Context, p *provider.Provider, _ []string) error {
			return call(ctx, c, provider.OpLinksInfo, func(ctx context.Context) ([]model.Link, error) {
				return p.LinksInfo(ctx, splitIDs(elements), splitIDs(types))
			})
		}),
	}
	cmd.Flags().StringSliceVar(&elements, "elements", nil, "Element IRIs")
	cmd.Flags().StringSliceVar(&types, "types", nil, "Link type IRIs")
	_ = cmd.MarkFlagRequired("elements")
	return cmd
}

func (c *cli) linkTypesOfCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "link-types-of IRI",
		Short: "Count the link types attached to one element",
		Args:  cobra.ExactArgs(1),
		RunE: c.providerRun(func(ctx context.Context, p *provider.Provider, args []string) error {
			return call(ctx, c, provider.OpLinkTypesOf, func(ctx context.Context) ([]model.LinkCount, error) {
				return p.LinkTypesOf(ctx, args[0])
			})
		}),
	}
}

func (c *cli) linkElementsCmd() *cobra.Command {
	var req provider.LinkElementsRequest
	var direction string
	cmd := &cobra.Command{
		Use:   "link-elements IRI",
		Short: "List elements linked to one element",
		Args:  cobra.ExactArgs(1),
		RunE: c.providerRun(func(ctx context.Context, p *provider.Provider, args []string) error {
			req.ElementID = args[0]
			req.Direction = model.LinkDirection(direction)
			return call(ctx, c, provider.OpLinkElements, func(ctx context.Context) (*provider.Elements, error) {
				return p.LinkElements(ctx, req)
			})
		}),
	}
	cmd.Flags().StringVar(&req.LinkID, "link", "", "Link type IRI")
	cmd.Flags().StringVar(&direction, "direction", "", "Link direction: in or out")
	cmd.Flags().IntVar(&req.Limit, "limit", model.DefaultPageSize, "Page size")
	cmd.Flags().IntVar(&req.Offset, "offset", 0, "Page offset")
	return cmd
}

// retryingSearcher retries each page of a search session.
type retryingSearcher struct {
	cli      *cli
	searcher search.Searcher
}

func (s retryingSearcher) FilterExtended(ctx context.Context, req model.FilterRequest) (*search.Elements, error) {
	return retry.DoWithResult(ctx, s.cli.retryConfig(provider.OpFilterExtended), func() (*search.Elements, error) {
		return s.searcher.FilterExtended(ctx, req)
	})
}

type pageResponse struct {
	Items              *search.Elements `json:"items"`
	MoreItemsAvailable bool             `json:"moreItemsAvailable"`
}

func (c *cli) filterCmd() *cobra.Command {
	var req model.FilterRequest
	var direction, mode string
	var pages int
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Search elements by text, type or reference element",
		Args:  cobra.NoArgs,
		RunE: c.providerRun(func(ctx context.Context, p *provider.Provider, _ []string) error {
			if pages < 1 {
				return errors.WrapInvalid(errors.ErrInvalidPaging, "cli", "filter", "--pages must be positive")
			}
			req.Direction = model.LinkDirection(direction)
			req.SearchMode = model.SearchMode(mode)
			searcher := retryingSearcher{cli: c, searcher: p}

			// A session always starts at offset zero.
			if pages == 1 {
				items, err := searcher.FilterExtended(ctx, req)
				if err != nil {
					return err
				}
				return c.printJSON(pageResponse{Items: items, MoreItemsAvailable: req.MoreAvailable(items.Len())})
			}

			session := search.NewSession(searcher,
				search.WithPageSize(req.PageSize()),
				search.WithLogger(c.logger))
			res, err := session.Query(ctx, req)
			for i := 1; err == nil && i < pages && res.MoreItemsAvailable; i++ {
				res, err = session.LoadMore(ctx)
			}
			if err != nil {
				return err
			}
			return c.printJSON(pageResponse{Items: res.Items, MoreItemsAvailable: res.MoreItemsAvailable})
		}),
	}
	f := cmd.Flags()
	f.StringVar(&req.Text, "text", "", "Text to match against labels")
	f.StringVar(&req.ElementTypeID, "type", "", "Class IRI the elements must belong to")
	f.StringVar(&req.RefElementID, "ref", "", "Reference element IRI")
	f.StringVar(&req.RefElementLinkID, "ref-link", "", "Link type to the reference element")
	f.StringVar(&direction, "direction", "", "Link direction to the reference element: in or out")
	f.StringVar(&mode, "mode", "", "Search mode: exact, contains, fuzzy, boolean")
	f.StringVar(&req.LanguageCode, "lang", "", "Preferred label language")
	f.IntVar(&req.Limit, "limit", model.DefaultPageSize, "Page size")
	f.IntVar(&req.Offset, "offset", 0, "Page offset")
	f.IntVar(&pages, "pages", 1, "Number of pages to load")
	return cmd
}

func (c *cli) triplesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "triples IRI...",
		Short: "Print the triples describing elements",
		Args:  cobra.MinimumNArgs(1),
		RunE: c.providerRun(func(ctx context.Context, p *provider.Provider, args []string) error {
			return call(ctx, c, provider.OpElementTriples, func(ctx context.Context) ([]model.Triple, error) {
				return p.ElementTriples(ctx, splitIDs(args))
			})
		}),
	}
}

func (c *cli) constructCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "construct QUERY",
		Short: "Run a CONSTRUCT query and print the resulting triples",
		Args:  cobra.ExactArgs(1),
		RunE: c.providerRun(func(ctx context.Context, p *provider.Provider, args []string) error {
			return call(ctx, c, provider.OpConstruct, func(ctx context.Context) ([]model.Triple, error) {
				return p.Construct(ctx, args[0])
			})
		}),
	}
}

func (c *cli) queryCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "query QUERY",
		Short: "Send a raw query and print the endpoint response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.cfg.Validate(); err != nil {
				return err
			}
			f := transport.Format(format)
			if f != transport.FormatBindings && f != transport.FormatTurtle {
				return errors.WrapInvalid(errors.ErrInvalidConfig, "cli", "query", "unsupported format "+format)
			}
			method, err := transport.ParseMethod(c.cfg.Method)
			if err != nil {
				return err
			}
			client, err := c.newClient(nil)
			if err != nil {
				return err
			}
			body, err := retry.DoWithResult(cmd.Context(), c.retryConfig("query"), func() ([]byte, error) {
				return client.Execute(cmd.Context(), c.cfg.Endpoint, args[0], method, f)
			})
			if err != nil {
				return err
			}
			_, err = c.stdout.Write(body)
			return err
		},
	}
	cmd.Flags().StringVar(&format, "format", string(transport.FormatBindings), "Response format: bindings or turtle")
	return cmd
}
