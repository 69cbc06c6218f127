// Package restriction maps between the global numbering of a discretized
// field and per-element / per-face local layouts, and exposes the index
// structures the sparse assembly engine consumes.
package restriction

import (
	"fmt"

	"github.com/notargets/gofea/utils"
)

/*
FaceDofs returns the element-local lexicographic dof indices of one face,
in the face's canonical tensor-product order.

Face id conventions for the reference element:

	1D: 0=west(x=0) 1=east(x=1)
	2D: 0=south(y=0) 1=east(x=1) 2=north(y=1) 3=west(x=0)
	3D: 0=bottom(z=0) 1=south(y=0) 2=east(x=1) 3=north(y=1) 4=west(x=0) 5=top(z=1)
*/
func FaceDofs(dim, faceID, dof1d int) (faceMap utils.Index) {
	var (
		end = dof1d - 1
	)
	switch dim {
	case 1:
		faceMap = utils.NewIndex(1)
		switch faceID {
		case 0:
			faceMap[0] = 0
		case 1:
			faceMap[0] = end
		default:
			panic(fmt.Errorf("invalid 1D face id %d", faceID))
		}
	case 2:
		faceMap = utils.NewIndex(dof1d)
		for i := 0; i < dof1d; i++ {
			switch faceID {
			case 0: // south
				faceMap[i] = i
			case 1: // east
				faceMap[i] = end + i*dof1d
			case 2: // north
				faceMap[i] = end*dof1d + i
			case 3: // west
				faceMap[i] = i * dof1d
			default:
				panic(fmt.Errorf("invalid 2D face id %d", faceID))
			}
		}
	case 3:
		faceMap = utils.NewIndex(dof1d * dof1d)
		for j := 0; j < dof1d; j++ {
			for i := 0; i < dof1d; i++ {
				switch faceID {
				case 0: // bottom
					faceMap[i+j*dof1d] = i + j*dof1d
				case 1: // south
					faceMap[i+j*dof1d] = i + j*dof1d*dof1d
				case 2: // east
					faceMap[i+j*dof1d] = end + i*dof1d + j*dof1d*dof1d
				case 3: // north
					faceMap[i+j*dof1d] = end*dof1d + i + j*dof1d*dof1d
				case 4: // west
					faceMap[i+j*dof1d] = i*dof1d + j*dof1d*dof1d
				case 5: // top
					faceMap[i+j*dof1d] = end*dof1d*dof1d + i + j*dof1d
				default:
					panic(fmt.Errorf("invalid 3D face id %d", faceID))
				}
			}
		}
	default:
		panic(fmt.Errorf("unsupported dimension %d", dim))
	}
	return
}

func toLexOrdering2D(faceID, size1d, i int) int {
	if faceID == 2 || faceID == 3 {
		return size1d - 1 - i
	}
	return i
}

func toLexOrdering3D(faceID, size1d, i, j int) int {
	switch {
	case faceID == 1 || faceID == 2 || faceID == 5:
		return i + j*size1d
	case faceID == 3 || faceID == 4:
		return (size1d - 1 - i) + j*size1d
	default: // faceID == 0
		return i + (size1d-1-j)*size1d
	}
}

// ToLexOrdering converts a face point index from the face's natural
// traversal to the canonical lexicographic face order. Quadrature-point
// consumers of two-sided restrictions use it to line up their tables.
func ToLexOrdering(dim, faceID, size1d, index int) int {
	switch dim {
	case 1:
		return 0
	case 2:
		return toLexOrdering2D(faceID, size1d, index)
	case 3:
		return toLexOrdering3D(faceID, size1d, index%size1d, index/size1d)
	default:
		panic(fmt.Errorf("unsupported dimension %d", dim))
	}
}

func permuteFace2D(faceID1, faceID2, orientation, size1d, index int) int {
	var (
		newIndex = index
	)
	// Convert from lex ordering on side 1
	if faceID1 == 2 || faceID1 == 3 {
		newIndex = size1d - 1 - newIndex
	}
	if orientation == 1 {
		newIndex = size1d - 1 - newIndex
	}
	return toLexOrdering2D(faceID2, size1d, newIndex)
}

func permuteFace3D(faceID1, faceID2, orientation, size1d, index int) int {
	var (
		i, j       = index % size1d, index / size1d
		newI, newJ int
	)
	// Convert from lex ordering on side 1
	if faceID1 == 3 || faceID1 == 4 {
		i = size1d - 1 - i
	} else if faceID1 == 0 {
		j = size1d - 1 - j
	}
	// The eight dihedral transforms of the face square
	switch orientation {
	case 0:
		newI, newJ = i, j
	case 1:
		newI, newJ = j, i
	case 2:
		newI, newJ = j, size1d-1-i
	case 3:
		newI, newJ = size1d-1-i, j
	case 4:
		newI, newJ = size1d-1-i, size1d-1-j
	case 5:
		newI, newJ = size1d-1-j, size1d-1-i
	case 6:
		newI, newJ = size1d-1-j, i
	case 7:
		newI, newJ = i, size1d-1-j
	default:
		panic(fmt.Errorf("orientation code %d outside supported table", orientation))
	}
	return toLexOrdering3D(faceID2, size1d, newI, newJ)
}

/*
PermuteFace maps a canonical-order face dof index on side 1 to the
corresponding index in side 2's independently enumerated order, given the
two local face ids and the relative orientation code.
*/
func PermuteFace(dim, faceID1, faceID2, orientation, size1d, index int) int {
	switch dim {
	case 1:
		return 0
	case 2:
		return permuteFace2D(faceID1, faceID2, orientation, size1d, index)
	case 3:
		return permuteFace3D(faceID1, faceID2, orientation, size1d, index)
	default:
		panic(fmt.Errorf("unsupported dimension %d", dim))
	}
}

/*
NormalStencil returns, for each face dof p and stencil point s, the
element-local lexicographic dof index of the s-th node along the inward
line through p, packed p*dof1d+s. The s=0 entry is the face node itself,
so the stencil supports both trace evaluation and the normal-direction
derivative of the 1D boundary stencil.
*/
func NormalStencil(dim, faceID, dof1d int) (stencil utils.Index) {
	var (
		end = dof1d - 1
	)
	if dim != 2 {
		panic(fmt.Errorf("normal stencils are 2D only, have dimension %d", dim))
	}
	stencil = utils.NewIndex(dof1d * dof1d)
	for p := 0; p < dof1d; p++ {
		for s := 0; s < dof1d; s++ {
			switch faceID {
			case 0: // south, inward is +y
				stencil[dof1d*p+s] = p + s*dof1d
			case 1: // east, inward is -x
				stencil[dof1d*p+s] = (end - s) + p*dof1d
			case 2: // north, inward is -y
				stencil[dof1d*p+s] = p + (end-s)*dof1d
			case 3: // west, inward is +x
				stencil[dof1d*p+s] = s + p*dof1d
			default:
				panic(fmt.Errorf("invalid 2D face id %d", faceID))
			}
		}
	}
	return
}

/*
TangentStencil returns, for each face dof p and stencil point s, the
element-local dof index of the s-th node along the face itself, packed
p*dof1d+s. In 2D the tangent line coincides with the face for every p.
*/
func TangentStencil(dim, faceID, dof1d int) (stencil utils.Index) {
	var (
		end = dof1d - 1
	)
	if dim != 2 {
		panic(fmt.Errorf("tangent stencils are 2D only, have dimension %d", dim))
	}
	stencil = utils.NewIndex(dof1d * dof1d)
	for p := 0; p < dof1d; p++ {
		for s := 0; s < dof1d; s++ {
			switch faceID {
			case 0: // south
				stencil[dof1d*p+s] = s
			case 1: // east
				stencil[dof1d*p+s] = end + s*dof1d
			case 2: // north
				stencil[dof1d*p+s] = end*dof1d + s
			case 3: // west
				stencil[dof1d*p+s] = s * dof1d
			default:
				panic(fmt.Errorf("invalid 2D face id %d", faceID))
			}
		}
	}
	return
}
