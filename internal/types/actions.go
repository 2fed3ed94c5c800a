package types

// Category names a registry in the HMI config and a command target class
type Category string

const (
	CategoryMode     Category = "mode"
	CategoryLaunch   Category = "launch"
	CategoryMap      Category = "map"
	CategoryVehicle  Category = "vehicle"
	CategoryHardware Category = "hardware"
	CategoryTool     Category = "tool"
	CategoryModule   Category = "module"
)

// Action is a named HMI trigger, as sent by the UI or over the action list
type Action string

const (
	ActionSetupMode     Action = "setup-mode"
	ActionResetMode     Action = "reset-mode"
	ActionEnterAutoMode Action = "enter-auto-mode"
	ActionDisengage     Action = "disengage"
	ActionChangeMode    Action = "change-mode"
	ActionChangeLaunch  Action = "change-launch"
	ActionChangeMap     Action = "change-map"
	ActionChangeVehicle Action = "change-vehicle"
	ActionStartModule   Action = "start-module"
	ActionStopModule    Action = "stop-module"
	ActionRecordAudio   Action = "record-audio"
	ActionPullOver      Action = "pull-over"
	ActionEstopAck      Action = "estop-ack"
)

// PadAction is a control-pad command sent to the vehicle interface
type PadAction string

const (
	PadReset    PadAction = "reset"
	PadReady    PadAction = "ready"
	PadStart    PadAction = "start"
	PadStop     PadAction = "stop"
	PadPullOver PadAction = "pull-over"
	PadEstopAck PadAction = "estop-ack"
)
