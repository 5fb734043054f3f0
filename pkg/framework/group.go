// Package framework attributes stack frames to the framework that produced
// them and groups consecutive frames from the same framework.
//
// Attribution is a pluggable strategy: anything implementing Classifier can
// be used. PackageClassifier is the default, matching the package a frame's
// file belongs to against an ordered rule list.
package framework

import "github.com/vango-dev/overlay/pkg/stackframe"

// Framework identifies where a frame originates.
type Framework string

const (
	// User marks frames from application code.
	User Framework = "user"

	React Framework = "react"
	Next  Framework = "next"
)

// IsUser reports whether f is application code.
func (f Framework) IsUser() bool {
	return f == User || f == ""
}

// Label returns the display name of the framework.
func (f Framework) Label() string {
	switch f {
	case React:
		return "React"
	case Next:
		return "Next.js"
	case User, "":
		return "User code"
	default:
		return string(f)
	}
}

// Classifier determines the framework a frame originates from.
type Classifier interface {
	Classify(f stackframe.Frame) Framework
}

// ClassifierFunc adapts a function to the Classifier interface.
type ClassifierFunc func(f stackframe.Frame) Framework

// Classify implements Classifier.
func (fn ClassifierFunc) Classify(f stackframe.Frame) Framework {
	return fn(f)
}

// Group is a run of consecutive frames attributed to the same framework.
type Group struct {
	Framework Framework
	Frames    []stackframe.Frame
}

// GroupFrames partitions frames into runs of the same framework. It never
// reorders: concatenating the groups' frames yields the input sequence.
// A nil classifier attributes every frame to User.
func GroupFrames(frames []stackframe.Frame, c Classifier) []Group {
	groups := make([]Group, 0)
	for _, f := range frames {
		fw := User
		if c != nil {
			fw = c.Classify(f)
			if fw == "" {
				fw = User
			}
		}

		if n := len(groups); n > 0 && groups[n-1].Framework == fw {
			groups[n-1].Frames = append(groups[n-1].Frames, f)
			continue
		}
		groups = append(groups, Group{Framework: fw, Frames: []stackframe.Frame{f}})
	}
	return groups
}

// Flatten concatenates the frames of groups in order.
func Flatten(groups []Group) []stackframe.Frame {
	var out []stackframe.Frame
	for _, g := range groups {
		out = append(out, g.Frames...)
	}
	return out
}

// Count returns the number of frames across groups.
func Count(groups []Group) int {
	n := 0
	for _, g := range groups {
		n += len(g.Frames)
	}
	return n
}
