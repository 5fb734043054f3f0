package stackframe

const (
	// AnonymousFile is the file name runtimes report for frames with no
	// known source location.
	AnonymousFile = "<anonymous>"

	// UnknownMethod is the method name runtimes report for unnamed symbols.
	UnknownMethod = "<unknown>"
)

// noiseMethods are methods that, in an anonymous file, belong to the
// runtime's own error formatting rather than to the failing program.
var noiseMethods = map[string]bool{
	"stringify":   true,
	UnknownMethod: true,
}

// IsNoise reports whether f was injected by the runtime's error formatting
// machinery: an anonymous file with a stringify helper or unknown symbol.
func IsNoise(f Frame) bool {
	return f.Source.File == AnonymousFile && noiseMethods[f.Source.MethodName]
}

// Filter returns the frames that are not noise, in their original order.
// The input is not modified. An empty result is valid.
func Filter(frames []Frame) []Frame {
	out := make([]Frame, 0, len(frames))
	for _, f := range frames {
		if !IsNoise(f) {
			out = append(out, f)
		}
	}
	return out
}
