package model

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDict_OrderAndMerge(t *testing.T) {
	d := NewDict[int](0)
	d.Set("b", 1)
	d.Set("a", 2)
	d.Set("b", 3)

	assert.Equal(t, []string{"b", "a"}, d.Keys())
	assert.Equal(t, []int{3, 2}, d.Values())
	assert.Equal(t, 2, d.Len())

	v, ok := d.Get("b")
	require.True(t, ok)
	assert.Equal(t, 3, v)
	assert.False(t, d.Has("c"))
}

func TestDict_ZeroValueAndNil(t *testing.T) {
	var d Dict[string]
	d.Set("x", "y")
	assert.Equal(t, 1, d.Len())

	var nilDict *Dict[string]
	assert.Equal(t, 0, nilDict.Len())
	assert.Nil(t, nilDict.Keys())

	data, err := json.Marshal(nilDict)
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestDict_JSONKeepsOrder(t *testing.T) {
	d := NewDict[*Element](2)
	d.Set("http://ex/z", NewElement("http://ex/z"))
	d.Set("http://ex/a", NewElement("http://ex/a"))

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"http://ex/z":{"id":"http://ex/z","types":[]},"http://ex/a":{"id":"http://ex/a","types":[]}}`, string(data))
	assert.Less(t, strings.Index(string(data), "ex/z"), strings.Index(string(data), "ex/a"))

	var back Dict[*Element]
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, []string{"http://ex/z", "http://ex/a"}, back.Keys())

	assert.Error(t, json.Unmarshal([]byte(`[1]`), &back))
}

func TestDict_Range(t *testing.T) {
	d := NewDict[int](3)
	d.Set("a", 1)
	d.Set("b", 2)
	d.Set("c", 3)

	var seen []string
	d.Range(func(k string, _ int) bool {
		seen = append(seen, k)
		return k != "b"
	})
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestElement_AddDeduplicates(t *testing.T) {
	e := NewElement("http://ex/1")
	e.AddType("http://ex/C1")
	e.AddType("http://ex/C1")
	e.AddLabel(LocalizedString{Text: "Foo"})
	e.AddLabel(LocalizedString{Text: "Foo"})
	e.AddLabel(LocalizedString{Text: "Foo", Lang: "en"})
	e.AddProperty("http://ex/p", PropertyValue{Value: "1"})
	e.AddProperty("http://ex/p", PropertyValue{Value: "1"})

	assert.Equal(t, []string{"http://ex/C1"}, e.Types)
	assert.Len(t, e.Labels, 2)
	assert.Len(t, e.Properties["http://ex/p"], 1)
}

func TestElement_DisplayLabel(t *testing.T) {
	e := NewElement("http://ex/things#widget")
	assert.Equal(t, "widget", e.DisplayLabel("en"))

	e.AddLabel(LocalizedString{Text: "Gerät", Lang: "de"})
	assert.Equal(t, "Gerät", e.DisplayLabel("en"))

	e.AddLabel(LocalizedString{Text: "Widget"})
	assert.Equal(t, "Widget", e.DisplayLabel("en"))

	e.AddLabel(LocalizedString{Text: "Widget (en)", Lang: "en"})
	assert.Equal(t, "Widget (en)", e.DisplayLabel("en"))
	assert.Equal(t, "Gerät", e.DisplayLabel("de"))
}

func TestElement_JSONOmitsAbsentFields(t *testing.T) {
	data, err := json.Marshal(NewElement("http://ex/1"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"http://ex/1","types":[]}`, string(data))
}

func TestFilterRequest_Paging(t *testing.T) {
	r := FilterRequest{Text: "foo"}
	assert.Equal(t, DefaultPageSize, r.PageSize())
	assert.True(t, r.MoreAvailable(100))
	assert.False(t, r.MoreAvailable(99))

	next := r.Next()
	assert.Equal(t, 100, next.Limit)
	assert.Equal(t, 100, next.Offset)
	assert.Equal(t, 200, next.Next().Offset)

	small := FilterRequest{Limit: 10, Offset: 5}
	assert.Equal(t, 15, small.Next().Offset)
}

func TestFilterRequest_Empty(t *testing.T) {
	assert.True(t, FilterRequest{Limit: 10}.Empty())
	assert.False(t, FilterRequest{ElementTypeID: "http://ex/C"}.Empty())
	assert.False(t, FilterRequest{RefElementLinkID: "http://ex/p"}.Empty())
}

func TestLinkDirection_Valid(t *testing.T) {
	assert.True(t, DirectionAny.Valid())
	assert.True(t, DirectionIn.Valid())
	assert.True(t, DirectionOut.Valid())
	assert.False(t, LinkDirection("sideways").Valid())
}
