package entity

// TransactionType binds a target entity type to a transactor plugin and
// carries the settings map the plugin uses to locate its fields (logical
// name -> concrete field name).
//
// Types are administrator-managed configuration, referenced by many
// transactions. Deleting a type that is in use is refused by the store.
type TransactionType struct {
	// ID is the machine name of the type (e.g. "credit").
	ID string

	// Label is the human-readable name (e.g. "Credit").
	Label string

	// TargetEntityType is the entity type transactions of this type are
	// recorded against. Binding a target of any other type fails fast.
	TargetEntityType string

	// Transactor is the plugin id resolved through the registry
	// (e.g. "generic", "balance").
	Transactor string

	// Settings maps logical plugin field names to concrete field names
	// on the transaction and target records.
	Settings map[string]string

	// Bundles optionally restricts the target bundles this type accepts.
	// Empty means no restriction.
	Bundles []string
}

// Setting returns a settings value, "" if unset.
func (t *TransactionType) Setting(name string) string {
	if t.Settings == nil {
		return ""
	}
	return t.Settings[name]
}

// AcceptsBundle reports whether the type accepts a target bundle.
// An empty restriction list accepts everything.
func (t *TransactionType) AcceptsBundle(bundle string) bool {
	if len(t.Bundles) == 0 {
		return true
	}
	for _, b := range t.Bundles {
		if b == bundle {
			return true
		}
	}
	return false
}

// Operation is a named, reusable description/detail template bound to a
// transaction type. When a transaction references an operation, the
// operation's templates override the transactor's default text. Templates
// use [transaction:*] and [target:*] tokens.
type Operation struct {
	// ID is the operation code transactions reference.
	ID string

	// TransactionType is the owning type id.
	TransactionType string

	// Description is the description template.
	Description string

	// Details is the ordered list of detail templates.
	Details []string
}
