package stackframe

// IsFirstParty reports whether f can anchor a report: it is expanded and has
// both a source-mapped location and a code snippet.
func IsFirstParty(f Frame) bool {
	return f.Expanded && f.HasCodeFrame()
}

// FirstPartyIndex returns the index of the first first-party frame, or -1.
// The first match in slice order wins.
func FirstPartyIndex(frames []Frame) int {
	for i, f := range frames {
		if IsFirstParty(f) {
			return i
		}
	}
	return -1
}

// Partition splits a filtered frame sequence around its anchor.
//
// Leading ++ [First] ++ CallStack (skipping First when nil) reconstructs the
// sequence it was built from.
type Partition struct {
	// Leading holds the frames before the anchor. Empty without an anchor.
	Leading []Frame

	// First is the anchor frame, or nil when no frame qualifies.
	First *Frame

	// CallStack holds the frames after the anchor, or every frame when
	// there is no anchor.
	CallStack []Frame
}

// HasAnchor reports whether a first-party frame was found.
func (p Partition) HasAnchor() bool {
	return p.First != nil
}

// Frames reassembles the partition into a single sequence.
func (p Partition) Frames() []Frame {
	out := make([]Frame, 0, len(p.Leading)+len(p.CallStack)+1)
	out = append(out, p.Leading...)
	if p.First != nil {
		out = append(out, *p.First)
	}
	return append(out, p.CallStack...)
}

// Split partitions frames around the first first-party frame. frames should
// already be filtered. The returned slices do not alias frames.
func Split(frames []Frame) Partition {
	i := FirstPartyIndex(frames)
	if i < 0 {
		return Partition{
			Leading:   []Frame{},
			CallStack: append([]Frame{}, frames...),
		}
	}

	first := frames[i]
	return Partition{
		Leading:   append([]Frame{}, frames[:i]...),
		First:     &first,
		CallStack: append([]Frame{}, frames[i+1:]...),
	}
}

// Visible returns the frames shown for the given toggle state: a frame is
// shown when it is individually expanded or when showAll is set.
func Visible(frames []Frame, showAll bool) []Frame {
	out := make([]Frame, 0, len(frames))
	for _, f := range frames {
		if f.Expanded || showAll {
			out = append(out, f)
		}
	}
	return out
}
