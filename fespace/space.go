// Package fespace supplies the incidence side of a discretized field: which
// global degrees of freedom each element touches, how faces join elements,
// and the geometric factors on faces. Restrictions consume a Space; they
// never look at mesh topology directly.
package fespace

import (
	"github.com/notargets/gofea/types"
)

/*
FaceGeometry carries the geometric factors of one face at its quadrature
nodes: the physical unit normal (pointing out of side 1) and the face
Jacobian determinant, both sampled at the Gauss-Lobatto face nodes.
*/
type FaceGeometry struct {
	Normals []float64 // nqp x dim, packed q*dim + d
	DetJ    []float64 // nqp
}

/*
Space is the incidence provider contract. All elements are assumed uniform:
same polynomial order, same basis, same dof count. A Space is immutable
once constructed; restrictions built from it remain valid until the mesh
or space changes, at which point they must be rebuilt.
*/
type Space interface {
	Dim() int
	Order() int // polynomial order; 1D nodes per direction = Order+1
	NumElements() int
	NumDofs() int // global scalar dof count
	VDim() int
	Ordering() types.Ordering
	Basis() types.BasisType
	IsTensorProduct() bool
	IsConforming() bool

	// ElementDofs returns the signed global ids touched by an element, in
	// the element's native dof order, length DofsPerElement.
	ElementDofs(elem int) []types.SignedID

	// LexDofMap returns the signed permutation taking lexicographic local
	// dof index to native local dof index, or nil when native order is
	// already lexicographic.
	LexDofMap() []types.SignedID

	// Faces returns the face descriptors of the requested type.
	Faces(ft types.FaceType) []types.Face

	// NodeCoords returns the physical coordinates of an element's nodes in
	// lexicographic order, packed node*Dim + d.
	NodeCoords(elem int) []float64

	// FaceGeometricFactors returns per-face geometry for the requested
	// face type, aligned with Faces(ft).
	FaceGeometricFactors(ft types.FaceType) []FaceGeometry
}

// DofsPerElement returns the tensor-product dof count of sp's elements
func DofsPerElement(sp Space) (nd int) {
	nd = 1
	for d := 0; d < sp.Dim(); d++ {
		nd *= sp.Order() + 1
	}
	return
}

// DofsPerFace returns the trace dof count of one face of sp's elements
func DofsPerFace(sp Space) (nd int) {
	nd = 1
	for d := 0; d < sp.Dim()-1; d++ {
		nd *= sp.Order() + 1
	}
	return
}
