package websocket

import "time"

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Periodic device readings
	MessageTypeDeviceState MessageType = "device_state"

	// A reconfiguration was applied
	MessageTypeConfigApplied MessageType = "config_applied"

	// System lifecycle changes
	MessageTypeSystemStatus MessageType = "system_status"
)

// Message represents a WebSocket message
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// DeviceState is one device's reading inside a device_state push.
type DeviceState struct {
	ID  string         `json:"id"`
	Val map[string]any `json:"val"`
}

// ConfigAppliedData summarizes a reconfiguration result.
type ConfigAppliedData struct {
	Devices int `json:"devices"`
	Rules   int `json:"rules"`
	Dropped int `json:"dropped"`
}

// NewMessage creates a new message with current timestamp
func NewMessage(msgType MessageType, data interface{}) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func NewDeviceStateMessage(states []DeviceState) Message {
	return NewMessage(MessageTypeDeviceState, states)
}

func NewConfigAppliedMessage(devices, rules, dropped int) Message {
	return NewMessage(MessageTypeConfigApplied, ConfigAppliedData{
		Devices: devices,
		Rules:   rules,
		Dropped: dropped,
	})
}

func NewSystemStatusMessage(state string) Message {
	return NewMessage(MessageTypeSystemStatus, map[string]string{"state": state})
}
