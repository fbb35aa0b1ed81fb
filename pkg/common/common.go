package common

import "time"

// EntityType is the closed set of type tags an entity can carry.
type EntityType string

const (
	TypePerson       EntityType = "person"
	TypeOrganization EntityType = "organization"
	TypeLocation     EntityType = "location"
	TypeEvent        EntityType = "event"
	TypeOther        EntityType = "other"
)

// TypePriority is the fixed tie-break order used when a plurality vote over
// entity types ends in a draw. Lower index wins.
var TypePriority = []EntityType{
	TypePerson,
	TypeOrganization,
	TypeLocation,
	TypeEvent,
	TypeOther,
}

// ParseEntityType maps a raw tag onto the closed EntityType set. Unknown tags
// fall back to TypeOther so upstream collectors cannot poison the enum.
func ParseEntityType(raw string) EntityType {
	switch EntityType(raw) {
	case TypePerson, TypeOrganization, TypeLocation, TypeEvent:
		return EntityType(raw)
	default:
		return TypeOther
	}
}

// Known metadata keys. The metadata map is free-form on the wire but readers
// should only rely on this documented set.
const (
	MetaExternalID  = "external_id"
	MetaAliases     = "aliases"
	MetaDescription = "description"
	MetaSourceFeed  = "source_feed"
)

// Entity is a node in the graph: a person, organization, location, event or
// other concept observed in source content. Identity is immutable once
// created; metadata and aliases may change across observations.
type Entity struct {
	ID        string            `json:"id"`
	Scope     string            `json:"scope"`
	Name      string            `json:"name"`
	Type      EntityType        `json:"type"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	FirstSeen time.Time         `json:"first_seen"`
	LastSeen  time.Time         `json:"last_seen"`
}

// Relationship is a typed edge between two entities in the same scope. The
// (scope, source, target, type) tuple is unique; re-observation strengthens
// the existing edge instead of duplicating it.
type Relationship struct {
	ID            string    `json:"id"`
	Scope         string    `json:"scope"`
	SourceID      string    `json:"source"`
	TargetID      string    `json:"target"`
	Type          string    `json:"type"`
	Confidence    float64   `json:"confidence"`
	Weight        float64   `json:"weight"`
	Observations  int       `json:"observations"`
	FirstObserved time.Time `json:"first_observed"`
	LastObserved  time.Time `json:"last_observed"`
}

// ContentItem is a unit of source content (an article, post, transcript
// chunk) together with the entities mentioned in it. Discovery consumes
// these to infer co-occurrence edges.
type ContentItem struct {
	ID        string    `json:"id"`
	Scope     string    `json:"scope"`
	EntityIDs []string  `json:"entity_ids"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Node is the node-link view of an entity handed to visualization clients.
// Position and cluster assignment are optional, filled in when the caller
// asked for layout or clustering.
type Node struct {
	ID        string     `json:"id"`
	Label     string     `json:"label"`
	Type      EntityType `json:"type"`
	X         *float64   `json:"x,omitempty"`
	Y         *float64   `json:"y,omitempty"`
	ClusterID string     `json:"cluster_id,omitempty"`
}

// Edge is the node-link view of a relationship.
type Edge struct {
	Source     string  `json:"source"`
	Target     string  `json:"target"`
	Type       string  `json:"type"`
	Weight     float64 `json:"weight"`
	Confidence float64 `json:"confidence"`
}

// NodeLink is the full graph view returned by the query surface. Partial is
// set when an expensive sub-computation was skipped or cut short by budget.
type NodeLink struct {
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`
	Partial bool   `json:"partial,omitempty"`
}

// Score is one entry of a centrality ranking.
type Score struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}
