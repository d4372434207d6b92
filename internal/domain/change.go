package domain

// Action is the kind of mutation a Change describes.
type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Change is published by the store for every mutation.
// ParentID is set for sight changes and names the owning destination.
type Change struct {
	Entity   Entity
	Action   Action
	ID       string
	ParentID string
}
