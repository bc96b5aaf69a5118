package state

import (
	"time"

	"RevealBoard/internal/geom"
)

// Stroke is one painted line segment as published to observers.
type Stroke struct {
	Session string     `json:"session"`
	Run     int        `json:"run"`
	Seq     uint64     `json:"seq"`
	X0      float64    `json:"x0"`
	Y0      float64    `json:"y0"`
	X1      float64    `json:"x1"`
	Y1      float64    `json:"y1"`
	Width   float64    `json:"width"`
	Color   geom.Color `json:"color"`
	Time    time.Time  `json:"time"`
}

// Restart describes a new run: a fresh source image on a cleared stroke path.
type Restart struct {
	Session string    `json:"session"`
	Run     int       `json:"run"`
	Image   int       `json:"image"`
	Width   int       `json:"width"`
	Height  int       `json:"height"`
	Time    time.Time `json:"time"`
}

// Status is a point-in-time summary of an engine.
type Status struct {
	Session string `json:"session"`
	Phase   string `json:"phase"`
	Run     int    `json:"run"`
	Image   int    `json:"image"`
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Strokes uint64 `json:"strokes"`
	Loaded  int    `json:"loaded"`
	Images  int    `json:"images"`
}
