// Copyright (C) 2019-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package model

// CrdtKind tags which merge strategy metadata.CrdtType selects.
type CrdtKind uint8

const (
	CrdtCounter CrdtKind = iota
	CrdtLwwRegister
	CrdtRga
	CrdtUnorderedMap
	CrdtUnorderedSet
	CrdtVector
	CrdtCustom
)

func (k CrdtKind) String() string {
	switch k {
	case CrdtCounter:
		return "Counter"
	case CrdtLwwRegister:
		return "LwwRegister"
	case CrdtRga:
		return "Rga"
	case CrdtUnorderedMap:
		return "UnorderedMap"
	case CrdtUnorderedSet:
		return "UnorderedSet"
	case CrdtVector:
		return "Vector"
	case CrdtCustom:
		return "Custom"
	default:
		return "Unknown"
	}
}

// CrdtType is a tag-only union: a fixed small set of built-in kinds
// plus a Custom escape hatch identified by a type name that the WASM
// merge callback resolves.
type CrdtType struct {
	Kind     CrdtKind
	TypeName string // only meaningful when Kind == CrdtCustom
}

// Equal compares two CrdtType values structurally.
func (c CrdtType) Equal(other CrdtType) bool {
	if c.Kind != other.Kind {
		return false
	}
	return c.Kind != CrdtCustom || c.TypeName == other.TypeName
}
