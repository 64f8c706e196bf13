package dtypes

// Action classifies an entry in a change-set. CREATE, REPLACE and DELETE
// capture whole-attribute changes; MODIFY records that a nested container
// (LangString, set) mutated in place.
type Action string

const (
	ActionCreate  Action = "create"
	ActionReplace Action = "replace"
	ActionDelete  Action = "delete"
	ActionModify  Action = "modify"
)

func (a Action) String() string { return string(a) }
