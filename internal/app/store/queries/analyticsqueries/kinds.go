// internal/app/store/queries/analyticsqueries/kinds.go
package analyticsqueries

import (
	"sort"
	"time"

	"github.com/dalemusser/listinghub/internal/app/store/catalog"
	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"github.com/dalemusser/listinghub/internal/domain/models"
)

// Kind names a metric that the named queries know how to compute.
type Kind string

const (
	PropertyViews        Kind = "property_views"
	BlogViews            Kind = "blog_views"
	AgentViews           Kind = "agent_views"
	PageViews            Kind = "page_views"
	Searches             Kind = "searches"
	MostViewedProperties Kind = "most_viewed_properties"
	MostViewedBlogs      Kind = "most_viewed_blogs"
)

// kindDef describes where a metric's numbers come from. Event-sourced kinds
// count analytics events of one type grouped by groupPath; document-sourced
// kinds rank documents in collection by their views counter.
type kindDef struct {
	eventType string
	groupPath string
	entityKey bool // groupPath holds an ObjectID

	collection string // enrichment source, or the ranked collection
	labelField string
}

func (d kindDef) eventSourced() bool { return d.eventType != "" }

var registry = map[Kind]kindDef{
	PropertyViews: {eventType: models.EventPropertyView, groupPath: "entity_id", entityKey: true, collection: catalog.Properties, labelField: "title"},
	BlogViews:     {eventType: models.EventBlogView, groupPath: "entity_id", entityKey: true, collection: catalog.Blogs, labelField: "title"},
	AgentViews:    {eventType: models.EventAgentView, groupPath: "entity_id", entityKey: true, collection: catalog.Agents, labelField: "name"},
	PageViews:     {eventType: models.EventPageView, groupPath: "page"},
	Searches:      {eventType: models.EventSearch, groupPath: "query"},

	MostViewedProperties: {collection: catalog.Properties, labelField: "title"},
	MostViewedBlogs:      {collection: catalog.Blogs, labelField: "title"},
}

// Kinds lists every registered metric kind in name order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func lookupKind(k Kind) (kindDef, error) {
	d, ok := registry[k]
	if !ok {
		return kindDef{}, filters.Invalid("metric", string(k), "unknown metric")
	}
	return d, nil
}

func lookupEventKind(k Kind, op string) (kindDef, error) {
	d, err := lookupKind(k)
	if err != nil {
		return kindDef{}, err
	}
	if !d.eventSourced() {
		return kindDef{}, filters.Invalid("metric", string(k), "not available for "+op)
	}
	return d, nil
}

// Period tokens accepted by ResolvePeriod.
const (
	Period7d  = "7d"
	Period30d = "30d"
	Period90d = "90d"
	Period1y  = "1y"

	DefaultPeriod = Period30d
)

// Window is a resolved reporting period. Both ends are inclusive.
type Window struct {
	Period string    `json:"period"`
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
}

// ResolvePeriod turns a period token into the window ending at now.
// Unknown tokens resolve as DefaultPeriod.
func ResolvePeriod(token string, now time.Time) Window {
	now = now.UTC()
	switch token {
	case Period7d:
		return Window{Period: token, Start: now.AddDate(0, 0, -7), End: now}
	case Period90d:
		return Window{Period: token, Start: now.AddDate(0, 0, -90), End: now}
	case Period1y:
		return Window{Period: token, Start: now.AddDate(-1, 0, 0), End: now}
	default:
		return Window{Period: DefaultPeriod, Start: now.AddDate(0, 0, -30), End: now}
	}
}
