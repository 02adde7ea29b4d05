package models

// ToolMode is the activation mode of a tool inside a tool group.
type ToolMode string

const (
	ToolActive   ToolMode = "Active"
	ToolPassive  ToolMode = "Passive"
	ToolEnabled  ToolMode = "Enabled"
	ToolDisabled ToolMode = "Disabled"
)

// ParseToolMode maps a configured mode name onto a ToolMode.
func ParseToolMode(s string) (ToolMode, bool) {
	switch ToolMode(s) {
	case ToolActive, ToolPassive, ToolEnabled, ToolDisabled:
		return ToolMode(s), true
	}
	return "", false
}

// MouseButton identifies a mouse button binding.
type MouseButton int

const (
	MousePrimary   MouseButton = 1
	MouseSecondary MouseButton = 2
	MouseAuxiliary MouseButton = 4
)

// Binding is one input binding of an active tool.
type Binding struct {
	MouseButton MouseButton `yaml:"mouseButton"`
}

// PrimaryBinding is the binding every "set tool active" command uses.
var PrimaryBinding = Binding{MouseButton: MousePrimary}
