package types

import (
	"fmt"
)

/*
SignedID pairs a global degree-of-freedom id with an orientation flip flag.

Providers with orientation-sensitive spaces (tangential/normal-continuous
vector bases) report a dof with Flipped=true when the element's local
orientation inverts the dof's effective sign.
*/
type SignedID struct {
	ID      int
	Flipped bool
}

// Sign returns +1.0, or -1.0 when the id is flipped
func (s SignedID) Sign() float64 {
	if s.Flipped {
		return -1.
	}
	return 1.
}

/*
EncodeSigned packs a SignedID into the single-integer convention used by
incidence tables: non-negative values are unflipped ids, negative values
store a flipped id as -1-id. DecodeSigned inverts the packing.
*/
func EncodeSigned(s SignedID) (packed int) {
	if s.Flipped {
		return -1 - s.ID
	}
	return s.ID
}

func DecodeSigned(packed int) (s SignedID) {
	if packed < 0 {
		return SignedID{ID: -1 - packed, Flipped: true}
	}
	return SignedID{ID: packed}
}

// Ordering selects the memory layout of vector-valued (vdim > 1) fields
type Ordering uint8

const (
	ByNodes Ordering = iota // all dofs of component 0, then component 1, ...
	ByVDim                  // all components of dof 0, then dof 1, ...
)

func (o Ordering) String() string {
	switch o {
	case ByNodes:
		return "ByNodes"
	case ByVDim:
		return "ByVDim"
	}
	return fmt.Sprintf("Ordering(%d)", uint8(o))
}

// FaceType selects which mesh faces a face restriction covers
type FaceType uint8

const (
	Interior FaceType = iota
	Boundary
)

func (ft FaceType) String() string {
	switch ft {
	case Interior:
		return "Interior"
	case Boundary:
		return "Boundary"
	}
	return fmt.Sprintf("FaceType(%d)", uint8(ft))
}

// BasisType identifies the supported nodal tensor-product basis families
type BasisType uint8

const (
	GaussLobatto BasisType = iota
	Bernstein
)

func (bt BasisType) String() string {
	switch bt {
	case GaussLobatto:
		return "GaussLobatto"
	case Bernstein:
		return "Bernstein"
	}
	return fmt.Sprintf("BasisType(%d)", uint8(bt))
}

// SentinelNoNeighbor marks the second side of a boundary face. It is never
// a valid dof id - consumers must treat it as a zero contribution.
const SentinelNoNeighbor = -1

/*
FaceSide describes one side of a mesh face: the adjacent element, which of
that element's local faces this is, and the relative orientation code.

For boundary faces the second side has Elem = SentinelNoNeighbor.
Orientation codes are restricted to a discrete set: {0,1} in 2D (identity
or reversal of the 1D face index), {0..7} in 3D (the dihedral group of the
face square).
*/
type FaceSide struct {
	Elem        int
	FaceID      int
	Orientation int
}

// Face is the two-sided face descriptor delivered by an incidence provider
type Face struct {
	Side1, Side2 FaceSide
}

// IsBoundary reports whether the face has no second neighbor
func (f Face) IsBoundary() bool {
	return f.Side2.Elem == SentinelNoNeighbor
}

// MaxOrientation2D and MaxOrientation3D bound the supported orientation codes
const (
	MaxOrientation2D = 2
	MaxOrientation3D = 8
)

// CheckOrientation panics when an orientation code falls outside the
// supported permutation table for the given dimension
func CheckOrientation(dim, orientation int) {
	var limit int
	switch dim {
	case 1:
		limit = 1
	case 2:
		limit = MaxOrientation2D
	case 3:
		limit = MaxOrientation3D
	default:
		panic(fmt.Errorf("unsupported dimension %d", dim))
	}
	if orientation < 0 || orientation >= limit {
		panic(fmt.Errorf("orientation code %d outside supported table for dimension %d", orientation, dim))
	}
}
