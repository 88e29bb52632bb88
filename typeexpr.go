// FILE: lixenwraith/props/typeexpr.go
package props

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

var containers = map[string]Container{
	string(AtomicReference): AtomicReference,
	string(List):            List,
	string(Collection):      Collection,
	string(Set):             Set,
	string(HashSet):         HashSet,
	string(LinkedList):      LinkedList,
	string(ArrayList):       ArrayList,
	string(TreeSet):         TreeSet,
	string(Map):             Map,
	string(HashMap):         HashMap,
	string(TreeMap):         TreeMap,
}

// ParseType resolves a type expression into a spec.
//
//	int, duration, decimal     scalar by registered name
//	[]int                      array of a scalar
//	list<int>, tree-set<uuid>  one-parameter container
//	tree-map<string,int>       two-parameter container
func (r *Registry) ParseType(expr string) (TypeSpec, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return TypeSpec{}, fmt.Errorf("empty type expression")
	}

	if elem, ok := strings.CutPrefix(expr, "[]"); ok {
		t, err := r.typeByName(elem)
		if err != nil {
			return TypeSpec{}, err
		}
		return TypeSpec{Type: reflect.SliceOf(t)}, nil
	}

	open := strings.IndexByte(expr, '<')
	if open < 0 {
		t, err := r.typeByName(expr)
		if err != nil {
			return TypeSpec{}, err
		}
		return TypeSpec{Type: t}, nil
	}
	if !strings.HasSuffix(expr, ">") {
		return TypeSpec{}, fmt.Errorf("malformed type expression %q", expr)
	}

	name := strings.TrimSpace(expr[:open])
	container, ok := containers[strings.ToLower(name)]
	if !ok {
		return TypeSpec{}, fmt.Errorf("unknown container %q", name)
	}

	var params []reflect.Type
	for _, p := range strings.Split(expr[open+1:len(expr)-1], ",") {
		t, err := r.typeByName(p)
		if err != nil {
			return TypeSpec{}, err
		}
		params = append(params, t)
	}
	return TypeSpec{Container: container, Params: params}, nil
}

func (r *Registry) typeByName(name string) (reflect.Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if t, ok := r.names[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("unknown type %q", name)
}

// TypeNames returns every scalar name usable in type expressions.
func (r *Registry) TypeNames() []string {
	return slices.Sorted(maps.Keys(r.names))
}
