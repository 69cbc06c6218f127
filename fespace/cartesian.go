package fespace

import (
	"fmt"

	"github.com/notargets/gofea/types"
)

/*
Cartesian is a conforming tensor-product space on a uniform axis-aligned
mesh of segments (1D), quads (2D) or hexes (3D), with a Gauss-Lobatto nodal
basis and H1-continuous global dof numbering. It exists so that the
restriction and assembly machinery has a real provider to run against; any
mesh library exposing the Space contract works the same way.

Native local dof order is lexicographic, so LexDofMap returns nil.
*/
type Cartesian struct {
	dim      int
	order    int
	vdim     int
	ordering types.Ordering
	basis    types.BasisType
	nelem    [3]int   // elements per direction; 1 for unused dims
	length   [3]float64
	ndofs    int
	nodes1d  []float64 // Gauss-Lobatto nodes on [0,1]

	elemDofs      [][]types.SignedID
	interiorFaces []types.Face
	boundaryFaces []types.Face
	interiorGeom  []FaceGeometry
	boundaryGeom  []FaceGeometry
}

// NewCartesian1D builds kx segments of total length lx
func NewCartesian1D(kx int, lx float64, order, vdim int, ordering types.Ordering) (*Cartesian, error) {
	return newCartesian(1, [3]int{kx, 1, 1}, [3]float64{lx, 1, 1}, order, vdim, ordering)
}

// NewCartesian2D builds a kx x ky quad mesh on [0,lx] x [0,ly]
func NewCartesian2D(kx, ky int, lx, ly float64, order, vdim int, ordering types.Ordering) (*Cartesian, error) {
	return newCartesian(2, [3]int{kx, ky, 1}, [3]float64{lx, ly, 1}, order, vdim, ordering)
}

// NewCartesian3D builds a kx x ky x kz hex mesh on [0,lx] x [0,ly] x [0,lz]
func NewCartesian3D(kx, ky, kz int, lx, ly, lz float64, order, vdim int, ordering types.Ordering) (*Cartesian, error) {
	return newCartesian(3, [3]int{kx, ky, kz}, [3]float64{lx, ly, lz}, order, vdim, ordering)
}

func newCartesian(dim int, nelem [3]int, length [3]float64, order, vdim int,
	ordering types.Ordering) (cs *Cartesian, err error) {
	if order < 1 {
		return nil, fmt.Errorf("invalid polynomial order %d", order)
	}
	if vdim < 1 {
		return nil, fmt.Errorf("invalid vector dimension %d", vdim)
	}
	for d := 0; d < dim; d++ {
		if nelem[d] < 1 {
			return nil, fmt.Errorf("invalid element count %d in direction %d", nelem[d], d)
		}
		if length[d] <= 0 {
			return nil, fmt.Errorf("invalid mesh extent %g in direction %d", length[d], d)
		}
	}
	cs = &Cartesian{
		dim:      dim,
		order:    order,
		vdim:     vdim,
		ordering: ordering,
		basis:    types.GaussLobatto,
		nelem:    nelem,
		length:   length,
		nodes1d:  GaussLobattoNodes(order),
	}
	cs.buildDofs()
	cs.buildFaces()
	return cs, nil
}

func (cs *Cartesian) Dim() int                 { return cs.dim }
func (cs *Cartesian) Order() int               { return cs.order }
func (cs *Cartesian) VDim() int                { return cs.vdim }
func (cs *Cartesian) Ordering() types.Ordering { return cs.ordering }
func (cs *Cartesian) Basis() types.BasisType   { return cs.basis }
func (cs *Cartesian) IsTensorProduct() bool    { return true }
func (cs *Cartesian) IsConforming() bool       { return true }
func (cs *Cartesian) NumDofs() int             { return cs.ndofs }
func (cs *Cartesian) LexDofMap() []types.SignedID { return nil }

func (cs *Cartesian) NumElements() (ne int) {
	ne = 1
	for d := 0; d < cs.dim; d++ {
		ne *= cs.nelem[d]
	}
	return
}

func (cs *Cartesian) ElementDofs(elem int) []types.SignedID {
	return cs.elemDofs[elem]
}

func (cs *Cartesian) Faces(ft types.FaceType) []types.Face {
	if ft == types.Interior {
		return cs.interiorFaces
	}
	return cs.boundaryFaces
}

func (cs *Cartesian) FaceGeometricFactors(ft types.FaceType) []FaceGeometry {
	if ft == types.Interior {
		return cs.interiorGeom
	}
	return cs.boundaryGeom
}

// nodesPerDir returns the global node count along one direction
func (cs *Cartesian) nodesPerDir(d int) int {
	return cs.nelem[d]*cs.order + 1
}

func (cs *Cartesian) elemIndex(ex, ey, ez int) int {
	return ex + cs.nelem[0]*(ey+cs.nelem[1]*ez)
}

func (cs *Cartesian) buildDofs() {
	var (
		p1   = cs.order + 1
		nx   = cs.nodesPerDir(0)
		ny   = 1
		nz   = 1
	)
	if cs.dim > 1 {
		ny = cs.nodesPerDir(1)
	}
	if cs.dim > 2 {
		nz = cs.nodesPerDir(2)
	}
	cs.ndofs = nx * ny * nz
	cs.elemDofs = make([][]types.SignedID, cs.NumElements())
	for ez := 0; ez < cs.nelem[2]; ez++ {
		for ey := 0; ey < cs.nelem[1]; ey++ {
			for ex := 0; ex < cs.nelem[0]; ex++ {
				e := cs.elemIndex(ex, ey, ez)
				dofs := make([]types.SignedID, 0, p1*p1*p1)
				kmax, jmax := p1, p1
				if cs.dim < 3 {
					kmax = 1
				}
				if cs.dim < 2 {
					jmax = 1
				}
				for k := 0; k < kmax; k++ {
					for j := 0; j < jmax; j++ {
						for i := 0; i < p1; i++ {
							gx := ex*cs.order + i
							gy := ey*cs.order + j
							gz := ez*cs.order + k
							gid := gx + nx*(gy+ny*gz)
							dofs = append(dofs, types.SignedID{ID: gid})
						}
					}
				}
				cs.elemDofs[e] = dofs
			}
		}
	}
}

// Face id conventions match the tensor-product face maps in the
// restriction package: 2D 0=S 1=E 2=N 3=W; 3D 0=bottom 1=south 2=east
// 3=north 4=west 5=top.
func (cs *Cartesian) buildFaces() {
	switch cs.dim {
	case 1:
		cs.buildFaces1D()
	case 2:
		cs.buildFaces2D()
	case 3:
		cs.buildFaces3D()
	}
}

func (cs *Cartesian) buildFaces1D() {
	var (
		kx = cs.nelem[0]
	)
	for ex := 0; ex < kx-1; ex++ {
		cs.interiorFaces = append(cs.interiorFaces, types.Face{
			Side1: types.FaceSide{Elem: ex, FaceID: 1},
			Side2: types.FaceSide{Elem: ex + 1, FaceID: 0},
		})
		cs.interiorGeom = append(cs.interiorGeom, FaceGeometry{
			Normals: []float64{1.}, DetJ: []float64{1.},
		})
	}
	for _, bc := range [][2]int{{0, 0}, {kx - 1, 1}} {
		nrm := -1.
		if bc[1] == 1 {
			nrm = 1.
		}
		cs.boundaryFaces = append(cs.boundaryFaces, types.Face{
			Side1: types.FaceSide{Elem: bc[0], FaceID: bc[1]},
			Side2: types.FaceSide{Elem: types.SentinelNoNeighbor},
		})
		cs.boundaryGeom = append(cs.boundaryGeom, FaceGeometry{
			Normals: []float64{nrm}, DetJ: []float64{1.},
		})
	}
}

func (cs *Cartesian) faceGeom2D(nrm [2]float64, detJ float64) (fg FaceGeometry) {
	var (
		nqp = cs.order + 1
	)
	fg.Normals = make([]float64, 2*nqp)
	fg.DetJ = make([]float64, nqp)
	for q := 0; q < nqp; q++ {
		fg.Normals[2*q] = nrm[0]
		fg.Normals[2*q+1] = nrm[1]
		fg.DetJ[q] = detJ
	}
	return
}

func (cs *Cartesian) buildFaces2D() {
	var (
		kx, ky = cs.nelem[0], cs.nelem[1]
		hx     = cs.length[0] / float64(kx)
		hy     = cs.length[1] / float64(ky)
	)
	// Interior faces: the shared edge is traversed in opposite directions
	// by its two elements, hence orientation code 1 on side 2.
	for ey := 0; ey < ky; ey++ {
		for ex := 0; ex < kx-1; ex++ {
			cs.interiorFaces = append(cs.interiorFaces, types.Face{
				Side1: types.FaceSide{Elem: cs.elemIndex(ex, ey, 0), FaceID: 1},
				Side2: types.FaceSide{Elem: cs.elemIndex(ex+1, ey, 0), FaceID: 3, Orientation: 1},
			})
			cs.interiorGeom = append(cs.interiorGeom, cs.faceGeom2D([2]float64{1, 0}, hy))
		}
	}
	for ey := 0; ey < ky-1; ey++ {
		for ex := 0; ex < kx; ex++ {
			cs.interiorFaces = append(cs.interiorFaces, types.Face{
				Side1: types.FaceSide{Elem: cs.elemIndex(ex, ey, 0), FaceID: 2},
				Side2: types.FaceSide{Elem: cs.elemIndex(ex, ey+1, 0), FaceID: 0, Orientation: 1},
			})
			cs.interiorGeom = append(cs.interiorGeom, cs.faceGeom2D([2]float64{0, 1}, hx))
		}
	}
	addB := func(e, fid int, nrm [2]float64, detJ float64) {
		cs.boundaryFaces = append(cs.boundaryFaces, types.Face{
			Side1: types.FaceSide{Elem: e, FaceID: fid},
			Side2: types.FaceSide{Elem: types.SentinelNoNeighbor},
		})
		cs.boundaryGeom = append(cs.boundaryGeom, cs.faceGeom2D(nrm, detJ))
	}
	for ex := 0; ex < kx; ex++ {
		addB(cs.elemIndex(ex, 0, 0), 0, [2]float64{0, -1}, hx)
		addB(cs.elemIndex(ex, ky-1, 0), 2, [2]float64{0, 1}, hx)
	}
	for ey := 0; ey < ky; ey++ {
		addB(cs.elemIndex(0, ey, 0), 3, [2]float64{-1, 0}, hy)
		addB(cs.elemIndex(kx-1, ey, 0), 1, [2]float64{1, 0}, hy)
	}
}

func (cs *Cartesian) faceGeom3D(nrm [3]float64, detJ float64) (fg FaceGeometry) {
	var (
		nqp = (cs.order + 1) * (cs.order + 1)
	)
	fg.Normals = make([]float64, 3*nqp)
	fg.DetJ = make([]float64, nqp)
	for q := 0; q < nqp; q++ {
		fg.Normals[3*q] = nrm[0]
		fg.Normals[3*q+1] = nrm[1]
		fg.Normals[3*q+2] = nrm[2]
		fg.DetJ[q] = detJ
	}
	return
}

func (cs *Cartesian) buildFaces3D() {
	var (
		kx, ky, kz = cs.nelem[0], cs.nelem[1], cs.nelem[2]
		hx         = cs.length[0] / float64(kx)
		hy         = cs.length[1] / float64(ky)
		hz         = cs.length[2] / float64(kz)
	)
	// Orientation codes below are the dihedral transforms that identify
	// side 1's canonical face traversal with side 2's for axis-aligned
	// hex pairings: a reflection for x and y neighbors, a j-flip for z.
	for ez := 0; ez < kz; ez++ {
		for ey := 0; ey < ky; ey++ {
			for ex := 0; ex < kx-1; ex++ {
				cs.interiorFaces = append(cs.interiorFaces, types.Face{
					Side1: types.FaceSide{Elem: cs.elemIndex(ex, ey, ez), FaceID: 2},
					Side2: types.FaceSide{Elem: cs.elemIndex(ex+1, ey, ez), FaceID: 4, Orientation: 3},
				})
				cs.interiorGeom = append(cs.interiorGeom, cs.faceGeom3D([3]float64{1, 0, 0}, hy*hz))
			}
		}
	}
	for ez := 0; ez < kz; ez++ {
		for ey := 0; ey < ky-1; ey++ {
			for ex := 0; ex < kx; ex++ {
				cs.interiorFaces = append(cs.interiorFaces, types.Face{
					Side1: types.FaceSide{Elem: cs.elemIndex(ex, ey, ez), FaceID: 3},
					Side2: types.FaceSide{Elem: cs.elemIndex(ex, ey+1, ez), FaceID: 1, Orientation: 3},
				})
				cs.interiorGeom = append(cs.interiorGeom, cs.faceGeom3D([3]float64{0, 1, 0}, hx*hz))
			}
		}
	}
	for ez := 0; ez < kz-1; ez++ {
		for ey := 0; ey < ky; ey++ {
			for ex := 0; ex < kx; ex++ {
				cs.interiorFaces = append(cs.interiorFaces, types.Face{
					Side1: types.FaceSide{Elem: cs.elemIndex(ex, ey, ez), FaceID: 5},
					Side2: types.FaceSide{Elem: cs.elemIndex(ex, ey, ez+1), FaceID: 0, Orientation: 7},
				})
				cs.interiorGeom = append(cs.interiorGeom, cs.faceGeom3D([3]float64{0, 0, 1}, hx*hy))
			}
		}
	}
	addB := func(e, fid int, nrm [3]float64, detJ float64) {
		cs.boundaryFaces = append(cs.boundaryFaces, types.Face{
			Side1: types.FaceSide{Elem: e, FaceID: fid},
			Side2: types.FaceSide{Elem: types.SentinelNoNeighbor},
		})
		cs.boundaryGeom = append(cs.boundaryGeom, cs.faceGeom3D(nrm, detJ))
	}
	for ey := 0; ey < ky; ey++ {
		for ex := 0; ex < kx; ex++ {
			addB(cs.elemIndex(ex, ey, 0), 0, [3]float64{0, 0, -1}, hx*hy)
			addB(cs.elemIndex(ex, ey, kz-1), 5, [3]float64{0, 0, 1}, hx*hy)
		}
	}
	for ez := 0; ez < kz; ez++ {
		for ex := 0; ex < kx; ex++ {
			addB(cs.elemIndex(ex, 0, ez), 1, [3]float64{0, -1, 0}, hx*hz)
			addB(cs.elemIndex(ex, ky-1, ez), 3, [3]float64{0, 1, 0}, hx*hz)
		}
	}
	for ez := 0; ez < kz; ez++ {
		for ey := 0; ey < ky; ey++ {
			addB(cs.elemIndex(0, ey, ez), 4, [3]float64{-1, 0, 0}, hy*hz)
			addB(cs.elemIndex(kx-1, ey, ez), 2, [3]float64{1, 0, 0}, hy*hz)
		}
	}
}

func (cs *Cartesian) NodeCoords(elem int) (X []float64) {
	var (
		p1 = cs.order + 1
		ex = elem % cs.nelem[0]
		ey = (elem / cs.nelem[0]) % cs.nelem[1]
		ez = elem / (cs.nelem[0] * cs.nelem[1])
		h  [3]float64
		e0 = [3]int{ex, ey, ez}
	)
	for d := 0; d < cs.dim; d++ {
		h[d] = cs.length[d] / float64(cs.nelem[d])
	}
	kmax, jmax := p1, p1
	if cs.dim < 3 {
		kmax = 1
	}
	if cs.dim < 2 {
		jmax = 1
	}
	X = make([]float64, 0, p1*jmax*kmax*cs.dim)
	for k := 0; k < kmax; k++ {
		for j := 0; j < jmax; j++ {
			for i := 0; i < p1; i++ {
				ref := [3]float64{cs.nodes1d[i], 0, 0}
				if cs.dim > 1 {
					ref[1] = cs.nodes1d[j]
				}
				if cs.dim > 2 {
					ref[2] = cs.nodes1d[k]
				}
				for d := 0; d < cs.dim; d++ {
					X = append(X, (float64(e0[d])+ref[d])*h[d])
				}
			}
		}
	}
	return
}
