// Package rbac holds the static role/resource/action permission matrix.
// The check is a pure function of the request's role; row-level ownership
// (a patient reaching only their own records) is enforced separately in the
// services.
package rbac

// Resource types subject to permission checks.
const (
	ResourcePatient   = "patient"
	ResourceVisit     = "visit"
	ResourceInsurance = "insurance"
	ResourceUser      = "user"
)

// Actions on resources.
const (
	ActionView   = "view"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// permissions maps (role, resource) to the set of allowed actions.
// No role may delete anything in the current scope.
var permissions = map[string]map[string][]string{
	"staff": {
		ResourcePatient:   {ActionView, ActionCreate, ActionUpdate},
		ResourceVisit:     {ActionView, ActionCreate, ActionUpdate},
		ResourceInsurance: {ActionView, ActionUpdate},
		ResourceUser:      {ActionView},
	},
	"patient": {
		ResourcePatient:   {ActionView},
		ResourceVisit:     {ActionView, ActionCreate},
		ResourceInsurance: {ActionView, ActionUpdate},
	},
}

// CheckPermission reports whether role may perform action on resourceType.
// Unknown roles, resources and actions all deny.
func CheckPermission(role, resourceType, action string) bool {
	byResource, ok := permissions[role]
	if !ok {
		return false
	}
	actions, ok := byResource[resourceType]
	if !ok {
		return false
	}
	for _, allowed := range actions {
		if allowed == action {
			return true
		}
	}
	return false
}
