package uri

import (
	"httpjar/lib/pointer"
	"strings"

	"github.com/pkg/errors"
)

var ErrRelativeBase = errors.New("base URI cannot be relative ref")

// RefResolver resolves references against a fixed base URI.
type RefResolver struct {
	base URI
}

func NewRefResolver(base URI) (*RefResolver, error) {
	if base.IsRelativeRef() {
		return nil, ErrRelativeBase
	}
	return &RefResolver{base: base.Clone()}, nil
}

// ResolveString parses ref and resolves it against the base URI.
// Fragment of the base is inherited when ref has none.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-10.2.2
func (rr *RefResolver) ResolveString(ref string) (URI, error) {
	parsed, err := Parse(ref)
	if err != nil {
		return URI{}, errors.Wrap(err, "parsing reference")
	}

	out := rr.Resolve(parsed)
	if out.Fragment == nil {
		out.Fragment = pointer.Clone(rr.base.Fragment)
	}
	return out, nil
}

// Resolve transforms ref into a target URI.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.2
func (rr *RefResolver) Resolve(ref URI) URI {
	out := ref.Clone()

	switch {
	case out.Scheme != "":
	case out.Authority != nil:
		out.Scheme = rr.base.Scheme
	default:
		base := rr.base.Clone()
		out.Scheme, out.Authority = base.Scheme, base.Authority

		switch {
		case out.Path == "":
			out.Path = base.Path
			if out.Query == nil {
				out.Query = base.Query
			}
		case !strings.HasPrefix(out.Path, "/"):
			out.Path = mergePath(base, out.Path)
		}
	}

	out.Path = removeDotSegments(out.Path)
	return out
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.3
func mergePath(base URI, ref string) string {
	if base.Authority != nil && base.Path == "" {
		return "/" + ref
	}

	i := strings.LastIndexByte(base.Path, '/')
	return base.Path[:i+1] + ref
}

// removeDotSegments interprets "." and ".." segments of an absolute or merged path.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.4
func removeDotSegments(path string) string {
	if path == "" {
		return ""
	}

	segments := strings.Split(path, "/")
	out := make([]string, 0, len(segments))
	for i, seg := range segments {
		last := i == len(segments)-1

		switch seg {
		case ".":
		case "..":
			// The leading empty segment of an absolute path is the root.
			if n := len(out); n > 1 || (n == 1 && out[0] != "") {
				out = out[:n-1]
			}
		default:
			out = append(out, seg)
			continue
		}

		// A trailing dot segment leaves a directory.
		if last {
			out = append(out, "")
		}
	}

	return strings.Join(out, "/")
}
