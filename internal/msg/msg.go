// Package msg defines the inbound command message types accepted by the
// control container. Messages are immutable once constructed; ownership
// moves to the controller's command buffer on arrival.
package msg

import "time"

// Vector3 is a 3-axis vector of scalar velocities.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Twist is a 6-DOF velocity command: linear and angular axis velocities.
type Twist struct {
	Linear  Vector3 `json:"linear"`
	Angular Vector3 `json:"angular"`
}

// TwistStamped is a twist with the instant it was produced. The stamp is
// what the staleness interlock compares against, not the arrival time.
type TwistStamped struct {
	Stamp time.Time `json:"stamp"`
	Twist Twist     `json:"twist"`
}

// GripperVelocity is a scalar gripper velocity command. It travels on its
// own channel, independent of the twist stream.
type GripperVelocity struct {
	Value float64 `json:"value"`
}
