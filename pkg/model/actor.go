package model

const (
	RoleAdmin   = "Admin"
	RoleManager = "Manager"
)

// ActorContext carries the acting user's role and assigned property into
// every scoped operation. Managers are pinned to a single property; admins
// may act across properties and pick one per request.
type ActorContext struct {
	Role     string
	Property Property
}

func AdminActor() ActorContext {
	return ActorContext{Role: RoleAdmin}
}

func ManagerActor(property Property) ActorContext {
	return ActorContext{Role: RoleManager, Property: property}
}

// ScopeProperty resolves the property an operation runs under. Managers are
// always scoped to their own property regardless of what was requested;
// admins get the requested property, which may be empty (all properties).
func (a ActorContext) ScopeProperty(requested Property) Property {
	if a.Role == RoleManager && a.Property != "" {
		return a.Property
	}
	return requested
}

// CanAccess reports whether the actor may touch an entity belonging to the
// given property.
func (a ActorContext) CanAccess(property Property) bool {
	if a.Role == RoleManager && a.Property != "" {
		return a.Property == property
	}
	return true
}
