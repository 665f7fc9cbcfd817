// Copyright 2024 Francis Michael Stephens. All rights reserved.  Use of this
// source code is governed by an MIT license that can be found in the LICENSE
// file.

package lease

import (
	"fmt"
	"reflect"
	"strconv"
)

// residentFieldPaths collects the field path of every Go-managed pointer
// found inside a candidate resident type, so a rejection can name exactly
// where the violation is instead of just the offending type.
type residentFieldPaths struct {
	paths []string
}

func (p *residentFieldPaths) addPath(path string) {
	p.paths = append(p.paths, path)
}

func (p *residentFieldPaths) Len() int {
	return len(p.paths)
}

func (p *residentFieldPaths) String() string {
	if p.Len() == 0 {
		return ""
	}

	result := ""
	for _, path := range p.paths {
		result += path + ","
	}
	// Quietly strip off the trailing ,
	return result[:len(result)-1]
}

// checkResidentSafe rejects any O that embeds a Go-managed pointer
// (pointer, slice, string, map, chan, func, interface, or unsafe.Pointer)
// anywhere in its field graph. A resident lives in a Hold-allocated block
// that may be mmap'd off the Go heap and is never visited by the garbage
// collector's scanner, so a managed pointer stored there would either
// become a dangling reference once its pointee is collected, or keep an
// otherwise-dead object alive forever with nothing scanning to report it.
func checkResidentSafe[O any]() error {
	t := reflect.TypeFor[O]()
	paths := &residentFieldPaths{}
	findManagedPointers(t, "", paths)
	if paths.Len() != 0 {
		return fmt.Errorf("lease: resident type %s is not safe to store off-heap, found Go-managed pointer(s): %s", t, paths)
	}
	return nil
}

func findManagedPointers(t reflect.Type, path string, paths *residentFieldPaths) {
	switch t.Kind() {
	case reflect.Bool:

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:

	case reflect.Float32, reflect.Float64:

	case reflect.Complex64, reflect.Complex128:

	case reflect.Array:
		size := strconv.Itoa(t.Len())
		findManagedPointers(t.Elem(), path+"["+size+"]", paths)

	case reflect.Chan:
		paths.addPath(path + "<" + t.String() + ">")

	case reflect.Func:
		paths.addPath(path + "<" + t.String() + ">")

	case reflect.Interface:
		paths.addPath(path + "<" + t.String() + ">")

	case reflect.Map:
		paths.addPath(path + "<" + t.String() + ">")

	case reflect.Pointer:
		paths.addPath(path + "<" + t.String() + ">")

	case reflect.Slice:
		paths.addPath(path + "<" + t.String() + ">")

	case reflect.String:
		paths.addPath(path + "<" + t.String() + ">")

	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			sV := t.Field(i)
			findManagedPointers(sV.Type, path+"("+t.String()+")"+sV.Name, paths)
		}

	case reflect.UnsafePointer:
		paths.addPath(path + "<" + t.String() + ">")

	default:
		paths.addPath(path + "<" + t.String() + ">")
	}
}
