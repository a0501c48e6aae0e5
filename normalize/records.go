package normalize

import (
	"github.com/anhcx0209/ontodia-search/model"
)

// Variable names used by the composed queries.
const (
	VarClass     = "class"
	VarLabel     = "label"
	VarParent    = "parent"
	VarInstCount = "instcount"
	VarProp      = "prop"
	VarLink      = "link"
	VarInst      = "inst"
	VarPropType  = "propType"
	VarPropValue = "propValue"
	VarSource    = "source"
	VarType      = "type"
	VarTarget    = "target"
	VarOutCount  = "outCount"
	VarInCount   = "inCount"
	VarImage     = "image"
)

// ClassInfo folds class rows into one node per class, in first-seen order.
// Nodes are not linked into a tree; see ClassTree.
func ClassInfo(resp *Response) []*model.ClassNode {
	return classNodes(resp).Values()
}

func classNodes(resp *Response) *model.Dict[*model.ClassNode] {
	rows := resp.Rows()
	nodes := model.NewDict[*model.ClassNode](len(rows))
	for _, row := range rows {
		id := row.Value(VarClass)
		if id == "" {
			continue
		}
		node, ok := nodes.Get(id)
		if !ok {
			node = &model.ClassNode{ID: id}
			nodes.Set(id, node)
		}
		if t, ok := row.Get(VarLabel); ok {
			node.AddLabel(localized(t))
		}
		if node.ParentID == "" {
			if p := row.Value(VarParent); p != "" && p != id {
				node.ParentID = p
			}
		}
		if node.Count == nil {
			node.Count = count(row.Get(VarInstCount))
		}
	}
	return nodes
}

// PropertyInfo folds property rows by id.
func PropertyInfo(resp *Response) *model.Dict[*model.Property] {
	rows := resp.Rows()
	props := model.NewDict[*model.Property](len(rows))
	for _, row := range rows {
		id := row.Value(VarProp)
		if id == "" {
			continue
		}
		p, ok := props.Get(id)
		if !ok {
			p = &model.Property{ID: id}
			props.Set(id, p)
		}
		if t, ok := row.Get(VarLabel); ok {
			p.AddLabel(localized(t))
		}
	}
	return props
}

// LinkTypes folds link type rows by id, keeping the first reported count.
func LinkTypes(resp *Response) []*model.LinkType {
	rows := resp.Rows()
	types := model.NewDict[*model.LinkType](len(rows))
	for _, row := range rows {
		id := row.Value(VarLink)
		if id == "" {
			continue
		}
		lt, ok := types.Get(id)
		if !ok {
			lt = &model.LinkType{ID: id}
			types.Set(id, lt)
		}
		if t, ok := row.Get(VarLabel); ok {
			lt.AddLabel(localized(t))
		}
		if lt.Count == nil {
			lt.Count = count(row.Get(VarInstCount))
		}
	}
	return types.Values()
}

// LinkTypesInfo is LinkTypes for the link types info query.
func LinkTypesInfo(resp *Response) []*model.LinkType {
	return LinkTypes(resp)
}

// Elements folds element rows by ?inst: every ?class becomes a type, every
// ?label a label and every ?propType/?propValue pair a property value.
// Element info, concepts and filter results share this shape.
func Elements(resp *Response) *model.Dict[*model.Element] {
	rows := resp.Rows()
	elements := model.NewDict[*model.Element](len(rows))
	for _, row := range rows {
		id := row.Value(VarInst)
		if id == "" {
			continue
		}
		el, ok := elements.Get(id)
		if !ok {
			el = model.NewElement(id)
			elements.Set(id, el)
		}
		if c := row.Value(VarClass); c != "" {
			el.AddType(c)
		}
		if t, ok := row.Get(VarLabel); ok {
			el.AddLabel(localized(t))
		}
		prop := row.Value(VarPropType)
		if v, ok := row.Get(VarPropValue); ok && prop != "" {
			el.AddProperty(prop, model.PropertyValue{Value: v.Value, Lang: v.Lang, Datatype: v.Datatype})
		}
	}
	return elements
}

// Links returns the distinct links in the response, in row order.
func Links(resp *Response) []model.Link {
	rows := resp.Rows()
	links := make([]model.Link, 0, len(rows))
	seen := make(map[model.Link]bool, len(rows))
	for _, row := range rows {
		l := model.Link{
			SourceID: row.Value(VarSource),
			TypeID:   row.Value(VarType),
			TargetID: row.Value(VarTarget),
		}
		if l.SourceID == "" || l.TypeID == "" || l.TargetID == "" || seen[l] {
			continue
		}
		seen[l] = true
		links = append(links, l)
	}
	return links
}

// LinkCounts reads per link type in/out statistics for one element.
func LinkCounts(resp *Response) []model.LinkCount {
	rows := resp.Rows()
	counts := make([]model.LinkCount, 0, len(rows))
	for _, row := range rows {
		id := row.Value(VarLink)
		if id == "" {
			continue
		}
		counts = append(counts, model.LinkCount{
			ID:       id,
			OutCount: integer(row[VarOutCount]),
			InCount:  integer(row[VarInCount]),
		})
	}
	return counts
}

// Images maps element ids to the first image reported for them.
func Images(resp *Response) map[string]string {
	images := make(map[string]string)
	for _, row := range resp.Rows() {
		id, img := row.Value(VarInst), row.Value(VarImage)
		if id == "" || img == "" {
			continue
		}
		if _, ok := images[id]; !ok {
			images[id] = img
		}
	}
	return images
}

// MergeImages sets the image of each element named in images. Ids that are
// not in elements are ignored.
func MergeImages(elements *model.Dict[*model.Element], images map[string]string) {
	for id, img := range images {
		if el, ok := elements.Get(id); ok && img != "" {
			el.Image = img
		}
	}
}
