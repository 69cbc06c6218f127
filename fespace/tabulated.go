package fespace

import (
	"fmt"

	"github.com/notargets/gofea/types"
)

/*
Tabulated adapts raw provider tables to the Space contract. It is the
bridge for meshes produced elsewhere: the incidence table arrives in the
packed signed-integer convention (id, or -1-id when flipped) and is decoded
once at construction.
*/
type Tabulated struct {
	DimN          int
	OrderN        int
	VDimN         int
	Ord           types.Ordering
	Bas           types.BasisType
	NDofs         int
	TensorProduct bool
	Conforming    bool

	Incidence [][]types.SignedID
	DofMap    []types.SignedID
	FacesInt  []types.Face
	FacesBdr  []types.Face
	Coords    [][]float64
	GeomInt   []FaceGeometry
	GeomBdr   []FaceGeometry
}

/*
NewTabulated validates and decodes raw tables. incidence is one row per
element, each entry packed signed; dofMap is a packed signed
local-to-lexicographic permutation, nil when native order is already
lexicographic.
*/
func NewTabulated(dim, order, vdim, ndofs int, ordering types.Ordering,
	basis types.BasisType, incidence [][]int, dofMap []int) (ts *Tabulated, err error) {
	if dim < 1 || dim > 3 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	if len(incidence) == 0 {
		return nil, fmt.Errorf("empty incidence table")
	}
	nd := 1
	for d := 0; d < dim; d++ {
		nd *= order + 1
	}
	ts = &Tabulated{
		DimN:          dim,
		OrderN:        order,
		VDimN:         vdim,
		Ord:           ordering,
		Bas:           basis,
		NDofs:         ndofs,
		TensorProduct: true,
		Conforming:    true,
	}
	ts.Incidence = make([][]types.SignedID, len(incidence))
	for e, row := range incidence {
		if len(row) != nd {
			return nil, fmt.Errorf("element %d has %d dofs, expected %d", e, len(row), nd)
		}
		srow := make([]types.SignedID, nd)
		for d, packed := range row {
			s := types.DecodeSigned(packed)
			if s.ID >= ndofs {
				return nil, fmt.Errorf("element %d references dof %d outside [0,%d)", e, s.ID, ndofs)
			}
			srow[d] = s
		}
		ts.Incidence[e] = srow
	}
	if dofMap != nil {
		if len(dofMap) != nd {
			return nil, fmt.Errorf("dof map length %d, expected %d", len(dofMap), nd)
		}
		ts.DofMap = make([]types.SignedID, nd)
		for d, packed := range dofMap {
			ts.DofMap[d] = types.DecodeSigned(packed)
		}
	}
	return ts, nil
}

// AddFaces attaches face descriptors; geometry entries may be nil when no
// normal/tangential restriction will be built from this space
func (ts *Tabulated) AddFaces(ft types.FaceType, faces []types.Face, geom []FaceGeometry) {
	if ft == types.Interior {
		ts.FacesInt, ts.GeomInt = faces, geom
		return
	}
	ts.FacesBdr, ts.GeomBdr = faces, geom
}

// AddCoords attaches per-element lexicographic node coordinates
func (ts *Tabulated) AddCoords(coords [][]float64) { ts.Coords = coords }

func (ts *Tabulated) Dim() int                    { return ts.DimN }
func (ts *Tabulated) Order() int                  { return ts.OrderN }
func (ts *Tabulated) NumElements() int            { return len(ts.Incidence) }
func (ts *Tabulated) NumDofs() int                { return ts.NDofs }
func (ts *Tabulated) VDim() int                   { return ts.VDimN }
func (ts *Tabulated) Ordering() types.Ordering    { return ts.Ord }
func (ts *Tabulated) Basis() types.BasisType      { return ts.Bas }
func (ts *Tabulated) IsTensorProduct() bool       { return ts.TensorProduct }
func (ts *Tabulated) IsConforming() bool          { return ts.Conforming }
func (ts *Tabulated) LexDofMap() []types.SignedID { return ts.DofMap }

func (ts *Tabulated) ElementDofs(elem int) []types.SignedID { return ts.Incidence[elem] }

func (ts *Tabulated) Faces(ft types.FaceType) []types.Face {
	if ft == types.Interior {
		return ts.FacesInt
	}
	return ts.FacesBdr
}

func (ts *Tabulated) NodeCoords(elem int) []float64 {
	if ts.Coords == nil {
		return nil
	}
	return ts.Coords[elem]
}

func (ts *Tabulated) FaceGeometricFactors(ft types.FaceType) []FaceGeometry {
	if ft == types.Interior {
		return ts.GeomInt
	}
	return ts.GeomBdr
}
