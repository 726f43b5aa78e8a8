package prop

import (
	"fmt"
	"io"
	"strings"

	"usrphost-go/errcode"
)

// Path is a sequence of keys descending through linked nodes.
type Path []Key

// P builds a path.
func P(keys ...Key) Path { return Path(keys) }

// Append returns a new path with keys added.
func (p Path) Append(keys ...Key) Path {
	out := make(Path, 0, len(p)+len(keys))
	out = append(out, p...)
	return append(out, keys...)
}

func (p Path) String() string {
	parts := make([]string, len(p))
	for i, k := range p {
		parts[i] = k.String()
	}
	return "/" + strings.Join(parts, "/")
}

// Walk resolves every key of path to a linked node and returns the last one.
// An empty path returns root.
func Walk(root Node, path Path) (Node, error) {
	n := root
	for i, k := range path {
		v, err := n.Get(k)
		if err != nil {
			return nil, err
		}
		next, ok := v.Any().(Node)
		if !ok {
			return nil, errcode.Addressingf("path %s: %s holds %s, not a node", path[:i+1], k, dynName(v.Any()))
		}
		n = next
	}
	return n, nil
}

// GetPath resolves the intermediates of path and reads its final key.
func GetPath(root Node, path Path) (Value, error) {
	if len(path) == 0 {
		return Value{}, errcode.Addressingf("empty path")
	}
	n, err := Walk(root, path[:len(path)-1])
	if err != nil {
		return Value{}, err
	}
	return n.Get(path[len(path)-1])
}

// SetPath resolves the intermediates of path and writes its final key.
func SetPath(root Node, path Path, v Value) error {
	if len(path) == 0 {
		return errcode.Addressingf("empty path")
	}
	n, err := Walk(root, path[:len(path)-1])
	if err != nil {
		return err
	}
	return n.Set(path[len(path)-1], v)
}

// Read gets the value at path and interprets it as T.
func Read[T any](root Node, path ...Key) (T, error) {
	v, err := GetPath(root, path)
	if err != nil {
		var zero T
		return zero, err
	}
	x, err := As[T](v)
	if err != nil {
		return x, fmt.Errorf("%s: %w", Path(path), err)
	}
	return x, nil
}

// Write sets the value at path.
func Write[T any](root Node, v T, path ...Key) error {
	return SetPath(root, path, V(v))
}

// Dump writes an indented listing of every key reachable from root through
// nodes that implement Lister. Leaves are printed with their current value;
// unreadable leaves print their error code.
func Dump(w io.Writer, root Node) error {
	return dump(w, root, 0, map[Node]bool{})
}

func dump(w io.Writer, n Node, depth int, seen map[Node]bool) error {
	l, ok := n.(Lister)
	if !ok {
		return nil
	}
	if seen[n] {
		return nil
	}
	seen[n] = true
	indent := strings.Repeat("  ", depth)
	for _, k := range l.Keys() {
		v, err := n.Get(k)
		if err != nil {
			if _, err := fmt.Fprintf(w, "%s%s: <%s>\n", indent, k, errcode.Of(err)); err != nil {
				return err
			}
			continue
		}
		if child, ok := v.Any().(Node); ok {
			if _, err := fmt.Fprintf(w, "%s%s:\n", indent, k); err != nil {
				return err
			}
			if err := dump(w, child, depth+1, seen); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%s%s: %v\n", indent, k, v.Any()); err != nil {
			return err
		}
	}
	return nil
}
