package main

// AgentSnapshot is the per-agent slice of a state broadcast.
type AgentSnapshot struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Z        float64 `json:"z"`
	State    string  `json:"state"`
	Weak     bool    `json:"weak"`
	GroupID  string  `json:"groupId,omitempty"`
	IsLeader bool    `json:"isLeader,omitempty"`
}

// GroupSnapshot is the per-group slice of a state broadcast.
type GroupSnapshot struct {
	ID      string   `json:"id"`
	Mode    string   `json:"mode"`
	Leader  string   `json:"leader,omitempty"`
	Members []string `json:"members"`
	Loose   bool     `json:"loose"`
}

// TargetSnapshot mirrors the probe position, when one is attached.
type TargetSnapshot struct {
	ID string  `json:"id"`
	X  float64 `json:"x"`
	Z  float64 `json:"z"`
}

// ObstacleSnapshot is the static obstacle layout sent on join and in state.
type ObstacleSnapshot struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Z     float64 `json:"z"`
	Width float64 `json:"width"`
	Depth float64 `json:"depth"`
}

type joinResponse struct {
	ID        string             `json:"id"`
	Controls  bool               `json:"controlsTarget"`
	Agents    []AgentSnapshot    `json:"agents"`
	Groups    []GroupSnapshot    `json:"groups"`
	Obstacles []ObstacleSnapshot `json:"obstacles"`
	Width     float64            `json:"width"`
	Depth     float64            `json:"depth"`
}

type stateMessage struct {
	Type       string          `json:"type"`
	Tick       uint64          `json:"t"`
	Agents     []AgentSnapshot `json:"agents"`
	Groups     []GroupSnapshot `json:"groups"`
	Target     *TargetSnapshot `json:"target,omitempty"`
	ServerTime int64           `json:"serverTime"`
}

type clientMessage struct {
	Type     string  `json:"type"`
	DX       float64 `json:"dx"`
	DZ       float64 `json:"dz"`
	X        float64 `json:"x"`
	Z        float64 `json:"z"`
	Radius   float64 `json:"radius"`
	Category string  `json:"category"`
	SentAt   int64   `json:"sentAt"`
}

type heartbeatMessage struct {
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
	RTTMillis  int64  `json:"rtt"`
}

type diagnosticsObserver struct {
	ID             string `json:"id"`
	ControlsTarget bool   `json:"controlsTarget"`
	LastHeartbeat  int64  `json:"lastHeartbeat"`
	RTTMillis      int64  `json:"rttMillis"`
}
