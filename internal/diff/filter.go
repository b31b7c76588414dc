package diff

import "github.com/pgschema/fkdiff/ir"

// Filter decides whether an object takes part in a comparison.
//
// Include is called once per candidate table, column and foreign key on each
// side, before any pairing happens. obj is the candidate, name its raw name,
// reflected tells which side it belongs to and compareTo is the same-named
// object on the other side, or nil. Returning false hides the object on that
// side only.
//
// Implementations must be pure functions of their arguments: they must not
// mutate the objects they are shown. Nothing enforces this.
type Filter interface {
	Include(obj ir.Object, name string, typ ir.ObjectType, reflected bool, compareTo ir.Object) (bool, error)
}

// FilterFunc adapts a function to the Filter interface
type FilterFunc func(obj ir.Object, name string, typ ir.ObjectType, reflected bool, compareTo ir.Object) (bool, error)

// Include calls f
func (f FilterFunc) Include(obj ir.Object, name string, typ ir.ObjectType, reflected bool, compareTo ir.Object) (bool, error) {
	return f(obj, name, typ, reflected, compareTo)
}

// Chain combines filters; an object is included only if every filter includes it.
// Evaluation stops at the first exclusion or error.
func Chain(filters ...Filter) Filter {
	return FilterFunc(func(obj ir.Object, name string, typ ir.ObjectType, reflected bool, compareTo ir.Object) (bool, error) {
		for _, f := range filters {
			if f == nil {
				continue
			}
			include, err := f.Include(obj, name, typ, reflected, compareTo)
			if err != nil || !include {
				return include, err
			}
		}
		return true, nil
	})
}

// runFilter applies the filter, wrapping predicate failures
func runFilter(f Filter, obj ir.Object, reflected bool, compareTo ir.Object) (bool, error) {
	if f == nil {
		return true, nil
	}
	include, err := f.Include(obj, obj.GetObjectName(), obj.GetObjectType(), reflected, compareTo)
	if err != nil {
		return false, &FilterError{
			ObjectType: obj.GetObjectType(),
			Name:       obj.GetObjectName(),
			Reflected:  reflected,
			Err:        err,
		}
	}
	return include, nil
}
