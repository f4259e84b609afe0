package models

import "time"

// LiveLinkDevice is a registered OBD2 dongle bound to a vehicle. Devices
// authenticate on the WebSocket gateway and MQTT topics with DeviceID+Token.
type LiveLinkDevice struct {
	ID        int64     `db:"id" json:"id"`
	DeviceID  string    `db:"device_id" json:"device_id"`
	Token     string    `db:"token" json:"-"`
	VehicleID int64     `db:"vehicle_id" json:"vehicle_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TelemetryReading is one raw OBD2 parameter sample. Values arrive in metric
// units; Unit is the free-form source unit string and may be empty for
// unitless quantities like RPM or percentage.
type TelemetryReading struct {
	ID         int64     `db:"id" json:"id"`
	VehicleID  int64     `db:"vehicle_id" json:"vehicle_id"`
	ParamKey   string    `db:"param_key" json:"param_key"`
	Value      float64   `db:"value" json:"value"`
	Unit       string    `db:"unit" json:"unit"`
	RecordedAt time.Time `db:"recorded_at" json:"recorded_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
