// Package formstate models the sign-in/sign-up form state as a pure
// reducer: a new state value is produced from the previous state and an
// action, and the previous value is never mutated.
package formstate

// Form field names accepted by ActionSetField.
const (
	FieldDisplayName = "displayName"
	FieldEmail       = "email"
	FieldPassword    = "password"
)

// Action types.
const (
	ActionInitForm = "INITIALIZE_FORM_DATA"
	ActionSetField = "CHANGE_ACCOUNT_FORM_VALUE"
)

// FormData holds the user-editable form fields.
type FormData struct {
	DisplayName string
	Email       string
	Password    string
}

// UIState tracks which form is shown and its activity flags.
type UIState struct {
	Form    string // "signin" or "signup"
	Active  bool
	Loading bool
}

// State is the full account form state. It is a plain value: copying it
// copies everything.
type State struct {
	Form FormData
	UI   UIState
}

// Action is a form state transition request. Name and Value are only
// meaningful for ActionSetField.
type Action struct {
	Type  string
	Name  string
	Value string
}

// DefaultState returns the state the form mounts with.
func DefaultState() State {
	return State{
		Form: FormData{},
		UI:   UIState{Form: "signin"},
	}
}

// Reduce applies one action to the state and returns the next state.
// Unrecognized actions are the identity transition. Reduce is
// deterministic and free of side effects.
func Reduce(state State, action Action) State {
	switch action.Type {
	case ActionInitForm:
		state.Form = FormData{}
		return state
	case ActionSetField:
		switch action.Name {
		case FieldDisplayName:
			state.Form.DisplayName = action.Value
		case FieldEmail:
			state.Form.Email = action.Value
		case FieldPassword:
			state.Form.Password = action.Value
		}
		return state
	default:
		return state
	}
}
