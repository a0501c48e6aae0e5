package provider

import (
	"context"
	"time"

	"github.com/anhcx0209/ontodia-search/normalize"
	"github.com/anhcx0209/ontodia-search/query"
)

// Enrichment sources in logs and metrics.
const (
	ImageSourceResolver = "resolver"
	ImageSourceQuery    = "query"
)

// enrich sets element images from the resolver if one is configured, else
// from the image properties. Failures leave the elements without images.
func (p *Provider) enrich(ctx context.Context, elements *Elements) {
	if elements.Len() == 0 {
		return
	}

	switch {
	case p.resolveImgs != nil:
		images, err := p.resolveImgs(ctx, elements)
		if err != nil {
			p.degraded(ImageSourceResolver, elements.Len(), err)
			return
		}
		normalize.MergeImages(elements, images)

	case len(p.imageProps) > 0:
		start := time.Now()
		resp, err := p.bindings(ctx, func() (string, error) {
			return query.ElementImages(p.settings, elements.Keys(), p.imageProps)
		})
		p.observe(OpElementImages, start, err)
		if err != nil {
			p.degraded(ImageSourceQuery, elements.Len(), err)
			return
		}
		normalize.MergeImages(elements, normalize.Images(resp))
	}
}

func (p *Provider) degraded(source string, elements int, err error) {
	p.metrics.RecordEnrichmentDegraded(source)
	p.logger.Warn("image enrichment failed, returning elements without images",
		"source", source, "elements", elements, "error", err)
}
