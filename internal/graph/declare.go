package graph

import (
	"reflect"

	"github.com/google/uuid"
)

// IDConstraint lists the Go types usable as resource identities
type IDConstraint interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~string | uuid.UUID
}

// Identifiable is the capability every resource model has: a readable and
// writable identity of type ID.
type Identifiable[ID IDConstraint] interface {
	GetID() ID
	SetID(ID)
}

var uuidType = reflect.TypeOf((*uuid.UUID)(nil)).Elem()

// Declare completes a declaration for the model type M, filling Type, Name
// and IDType from M and its identity type. Fields already set in d win.
//
//	graph.Declare[*Person, int](graph.ModelDeclaration{...})
func Declare[M Identifiable[ID], ID IDConstraint](d ModelDeclaration) ModelDeclaration {
	t := reflect.TypeOf((*M)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if d.Type == "" {
		d.Type = TypeID(t.String())
	}
	if d.Name == "" {
		d.Name = t.Name()
	}
	if d.IDType == IDUnknown {
		d.IDType = idTypeOf(reflect.TypeOf((*ID)(nil)).Elem())
	}
	if d.Source == "" {
		d.Source = "declare"
	}
	return d
}

// TypeOf returns the TypeID Declare assigns to model type M
func TypeOf[M any]() TypeID {
	t := reflect.TypeOf((*M)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return TypeID(t.String())
}

func idTypeOf(t reflect.Type) IDType {
	if t == uuidType {
		return IDUUID
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int32, reflect.Int64, reflect.Uint, reflect.Uint32, reflect.Uint64:
		return IDInt
	case reflect.String:
		return IDString
	default:
		return IDUnknown
	}
}
