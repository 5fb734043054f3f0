package framework

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vango-dev/overlay/pkg/stackframe"
)

const (
	nodeModules   = "node_modules/"
	compiledInfix = "dist/compiled/"
)

// Rule attributes frames whose package matches Packages to Framework.
type Rule struct {
	Framework Framework
	Packages  *regexp.Regexp
}

// NewRule compiles a package pattern. The pattern must match the whole
// package name.
func NewRule(fw Framework, pattern string) (Rule, error) {
	if fw == "" {
		return Rule{}, fmt.Errorf("framework rule %q: empty framework name", pattern)
	}
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return Rule{}, fmt.Errorf("framework rule %q: %w", fw, err)
	}
	return Rule{Framework: fw, Packages: re}, nil
}

// MustRule is like NewRule but panics on error.
func MustRule(fw Framework, pattern string) Rule {
	r, err := NewRule(fw, pattern)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultRules returns the built-in rules for React and Next.js.
func DefaultRules() []Rule {
	return []Rule{
		MustRule(React, `react|react-dom|react-is|react-refresh|react-server-dom-webpack|react-server-dom-turbopack|scheduler`),
		MustRule(Next, `next`),
	}
}

// PackageClassifier attributes frames by the package their file belongs to.
// Rules are tried in order; the first match wins. Frames outside any
// package, or in a package no rule matches, are User frames.
type PackageClassifier struct {
	rules []Rule
}

// NewPackageClassifier creates a classifier with the given rules.
func NewPackageClassifier(rules ...Rule) *PackageClassifier {
	return &PackageClassifier{rules: append([]Rule(nil), rules...)}
}

// Default returns a classifier using DefaultRules.
func Default() *PackageClassifier {
	return NewPackageClassifier(DefaultRules()...)
}

// Rules returns a copy of the classifier's rules.
func (c *PackageClassifier) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// Classify implements Classifier.
func (c *PackageClassifier) Classify(f stackframe.Frame) Framework {
	pkg := PackageOf(f)
	if pkg == "" {
		return User
	}
	for _, r := range c.rules {
		if r.Packages.MatchString(pkg) {
			return r.Framework
		}
	}
	return User
}

// PackageOf returns the package a frame belongs to: the SourcePackage hint
// when set, otherwise the package derived from the runtime file path, then
// from the source-mapped one.
func PackageOf(f stackframe.Frame) string {
	if f.SourcePackage != "" {
		return f.SourcePackage
	}
	if pkg := packageFromPath(f.Source.File); pkg != "" {
		return pkg
	}
	if f.Original != nil {
		return packageFromPath(f.Original.File)
	}
	return ""
}

// packageFromPath extracts the package name following the last
// node_modules segment. Packages vendored by a framework under
// dist/compiled (e.g. next/dist/compiled/react-dom) resolve to the vendored
// package.
func packageFromPath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	i := strings.LastIndex(path, nodeModules)
	if i < 0 {
		return ""
	}
	rest := path[i+len(nodeModules):]

	pkg, rest := leadingPackage(rest)
	if pkg == "" {
		return ""
	}
	if strings.HasPrefix(rest, compiledInfix) {
		if vendored, _ := leadingPackage(rest[len(compiledInfix):]); vendored != "" {
			return vendored
		}
	}
	return pkg
}

// leadingPackage splits "pkg/rest" or "@scope/pkg/rest" into the package
// name and the remainder after it.
func leadingPackage(path string) (string, string) {
	parts := strings.SplitN(path, "/", 3)
	if len(parts) == 0 || parts[0] == "" {
		return "", ""
	}
	if strings.HasPrefix(parts[0], "@") {
		if len(parts) < 2 || parts[1] == "" {
			return "", ""
		}
		rest := ""
		if len(parts) == 3 {
			rest = parts[2]
		}
		return parts[0] + "/" + parts[1], rest
	}
	if len(parts) == 1 {
		// A bare file directly under node_modules is not a package.
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], "/")
}
