package domain

import "fmt"

// Entity names a record type held by the store.
type Entity string

const (
	EntityDestination Entity = "destination"
	EntitySight       Entity = "sight"
)

// DeleteRule says what happens to owned children when their parent is deleted.
type DeleteRule string

const (
	// DeleteCascade deletes every owned child together with the parent.
	DeleteCascade DeleteRule = "cascade"
	// DeleteNullify detaches the children; they survive without an owner.
	DeleteNullify DeleteRule = "nullify"
	// DeleteDeny refuses to delete a parent that still owns children.
	DeleteDeny DeleteRule = "deny"
)

// OwnershipRule binds a child entity type to a delete rule.
type OwnershipRule struct {
	Child Entity
	Rule  DeleteRule
}

// OwnershipRules maps a parent entity type to the rules for the children it owns.
// Entity types with no entry own nothing; there is no implicit default rule.
type OwnershipRules map[Entity][]OwnershipRule

// DefaultOwnershipRules is the table used by the store: a Destination cascades to its Sights.
func DefaultOwnershipRules() OwnershipRules {
	return OwnershipRules{
		EntityDestination: {
			{Child: EntitySight, Rule: DeleteCascade},
		},
	}
}

// For returns the rules applying to children of parent.
func (r OwnershipRules) For(parent Entity) []OwnershipRule {
	return r[parent]
}

// RuleFor returns the delete rule between parent and child, if one is declared.
func (r OwnershipRules) RuleFor(parent, child Entity) (DeleteRule, bool) {
	for _, rule := range r[parent] {
		if rule.Child == child {
			return rule.Rule, true
		}
	}
	return "", false
}

// Validate rejects unknown delete rules.
func (r OwnershipRules) Validate() error {
	for parent, rules := range r {
		for _, rule := range rules {
			switch rule.Rule {
			case DeleteCascade, DeleteNullify, DeleteDeny:
			default:
				return fmt.Errorf("ownership %s -> %s: unknown delete rule %q", parent, rule.Child, rule.Rule)
			}
		}
	}
	return nil
}
