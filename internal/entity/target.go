package entity

// TargetRecord is the external entity a transaction is recorded against.
// The engine treats it as an opaque bag of named fields; transactor
// plugins may mirror state onto it (running balance, last-transaction
// reference) during execution.
type TargetRecord struct {
	// EntityType identifies the kind of record (e.g. "account").
	EntityType string

	// ID identifies the record within its entity type.
	ID string

	// Bundle optionally sub-classifies the record within its entity type.
	Bundle string

	// Name is a human-readable label.
	Name string

	// Fields holds the record's named values. Decimal values are kept as
	// exact decimal strings.
	Fields map[string]string
}

// Field returns a field value, "" if unset.
func (r *TargetRecord) Field(name string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[name]
}

// SetField sets a field value, allocating the map on first use.
func (r *TargetRecord) SetField(name, value string) {
	if r.Fields == nil {
		r.Fields = make(map[string]string)
	}
	r.Fields[name] = value
}
