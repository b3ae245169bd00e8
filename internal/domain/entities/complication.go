package entities

// Complication is a condition associated with a diagnosis or surgery.
//
// Catalog rows only carry ID and Name. Complications produced by the cascade
// are tagged with the source they were looked up from; the tag is not part of
// the complication's identity.
type Complication struct {
	ID         string     `json:"id" yaml:"id" db:"id"`
	Name       string     `json:"name" yaml:"name" db:"name"`
	SourceType SourceType `json:"source_type,omitempty" yaml:"-" db:"-"`
	SourceID   string     `json:"source_id,omitempty" yaml:"-" db:"-"`
	SourceName string     `json:"source_name,omitempty" yaml:"-" db:"-"`
}

// WithSource returns a copy of c tagged with its originating selection
func (c Complication) WithSource(sourceType SourceType, sourceID, sourceName string) Complication {
	c.SourceType = sourceType
	c.SourceID = sourceID
	c.SourceName = sourceName
	return c
}
