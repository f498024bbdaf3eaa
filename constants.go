package main

import "time"

const (
	writeWait         = 10 * time.Second
	tickRate          = 15 // ticks per second
	heartbeatInterval = 2 * time.Second
	disconnectAfter   = 3 * heartbeatInterval

	worldWidth = 120.0
	worldDepth = 120.0

	obstacleCount = 10

	// targetMoveSpeed is the observer-driven probe speed in units/second.
	targetMoveSpeed = 5.0

	// Moving targets advertise themselves: one footstep broadcast per
	// interval while the probe has movement intent.
	footstepIntervalTicks = 15
	footstepRadius        = 8.0

	// autoWaypointCount and autoWaypointRadius shape the patrol route
	// generated for agents spawned without one.
	autoWaypointCount   = 4
	autoWaypointRadius  = 20.0
	autoWaypointRetries = 8
)
