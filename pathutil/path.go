// Package pathutil normalises and validates the absolute and relative path
// strings used throughout the session object manager. Paths are repository
// paths, not filesystem or URL paths: segments are separated by '/', the
// root is "/", and a segment may carry a "prefix:" namespace portion
// (e.g. "/jcr:content/nt:resource").
package pathutil

import (
	"strings"

	"github.com/sharedcode/som"
)

// Separator is the path segment separator.
const Separator = "/"

// IsAbsolute reports whether p begins with the root separator.
func IsAbsolute(p string) bool {
	return strings.HasPrefix(p, Separator)
}

// Clean eliminates "." and ".." segments and collapses repeated separators,
// the same way as path.Clean: a ".." that would walk above the root of an
// absolute path is dropped ("/a/../../b" becomes "/b"), while leading ".."
// segments of a relative path are kept. An empty path cleans to "/".
//
// The segment-scan loop is adapted from the URL path cleaner used elsewhere
// in the stack: single forward pass, backtrack the write cursor on "..".
func Clean(p string) string {
	if p == "" {
		return Separator
	}

	absolute := IsAbsolute(p)
	segments := strings.Split(p, Separator)
	out := make([]string, 0, len(segments))
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 && out[len(out)-1] != ".." {
				out = out[:len(out)-1]
			} else if !absolute {
				out = append(out, seg)
			}
		default:
			out = append(out, seg)
		}
	}

	joined := strings.Join(out, Separator)
	if absolute {
		return Separator + joined
	}
	if joined == "" {
		return "."
	}
	return joined
}

// Resolve concatenates a relative path onto a context path and normalises
// the result, per spec's "relative paths are resolved against a context
// path by concatenation plus './..' normalisation".
func Resolve(contextPath, relativePath string) string {
	if IsAbsolute(relativePath) {
		return Clean(relativePath)
	}
	if contextPath == "" {
		contextPath = Separator
	}
	if strings.HasSuffix(contextPath, Separator) {
		return Clean(contextPath + relativePath)
	}
	return Clean(contextPath + Separator + relativePath)
}

// Parent returns the parent path of p ("/" if p is the root or a top level
// child of it).
func Parent(p string) string {
	p = Clean(p)
	if p == Separator {
		return Separator
	}
	idx := strings.LastIndex(p, Separator)
	if idx <= 0 {
		return Separator
	}
	return p[:idx]
}

// Name returns the last segment of p, including any "prefix:" portion.
func Name(p string) string {
	p = Clean(p)
	if p == Separator {
		return ""
	}
	idx := strings.LastIndex(p, Separator)
	return p[idx+1:]
}

// IsAncestor reports whether ancestor is a strict ancestor of p, i.e. p is
// ancestor itself followed by at least one more segment.
func IsAncestor(ancestor, p string) bool {
	ancestor = Clean(ancestor)
	p = Clean(p)
	if ancestor == Separator {
		return p != Separator
	}
	return strings.HasPrefix(p, ancestor+Separator)
}

// IsSelfOrDescendant reports whether p equals ancestor or is strictly below it.
func IsSelfOrDescendant(ancestor, p string) bool {
	ancestor = Clean(ancestor)
	p = Clean(p)
	return p == ancestor || IsAncestor(ancestor, p)
}

// Rebase rewrites a path so that the oldPrefix ancestor segment is replaced
// by newPrefix; p must equal oldPrefix or have it as a strict ancestor.
// Used by move rewriting in both directions (forward rewrite on moveNode,
// backward rewrite in getFetchPath).
func Rebase(p, oldPrefix, newPrefix string) string {
	p = Clean(p)
	oldPrefix = Clean(oldPrefix)
	newPrefix = Clean(newPrefix)
	if p == oldPrefix {
		return newPrefix
	}
	suffix := strings.TrimPrefix(p, oldPrefix+Separator)
	if newPrefix == Separator {
		return Separator + suffix
	}
	return newPrefix + Separator + suffix
}

// Validate checks that p is a well formed absolute or relative path: no
// empty segments other than a lone root, and every non-empty segment with a
// "prefix:" portion has a non-empty prefix and local name.
func Validate(p string) error {
	if p == "" {
		return som.NewError(som.PathNotFound, p, nil)
	}
	if p == Separator {
		return nil
	}
	segments := strings.Split(strings.TrimPrefix(p, Separator), Separator)
	for _, seg := range segments {
		if seg == "" {
			return som.NewError(som.ValueFormat, p, nil)
		}
		if seg == "." || seg == ".." {
			continue
		}
		if idx := strings.Index(seg, ":"); idx == 0 || idx == len(seg)-1 {
			return som.NewError(som.ValueFormat, seg, nil)
		}
	}
	return nil
}

// Prefix returns the "prefix:" portion of a name segment and whether one is
// present.
func Prefix(segment string) (string, bool) {
	idx := strings.Index(segment, ":")
	if idx <= 0 {
		return "", false
	}
	return segment[:idx], true
}
