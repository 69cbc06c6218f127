package restriction

import (
	"testing"

	"github.com/notargets/gofea/utils"
	"github.com/stretchr/testify/assert"
)

func TestFaceDofs(t *testing.T) {
	{ // 1D endpoints
		assert.Equal(t, utils.Index{0}, FaceDofs(1, 0, 4))
		assert.Equal(t, utils.Index{3}, FaceDofs(1, 1, 4))
	}
	{ // 2D quadratic element, all four edges
		assert.Equal(t, utils.Index{0, 1, 2}, FaceDofs(2, 0, 3)) // south
		assert.Equal(t, utils.Index{2, 5, 8}, FaceDofs(2, 1, 3)) // east
		assert.Equal(t, utils.Index{6, 7, 8}, FaceDofs(2, 2, 3)) // north
		assert.Equal(t, utils.Index{0, 3, 6}, FaceDofs(2, 3, 3)) // west
	}
	{ // 3D linear element, all six faces
		assert.Equal(t, utils.Index{0, 1, 2, 3}, FaceDofs(3, 0, 2)) // bottom
		assert.Equal(t, utils.Index{0, 1, 4, 5}, FaceDofs(3, 1, 2)) // south
		assert.Equal(t, utils.Index{1, 3, 5, 7}, FaceDofs(3, 2, 2)) // east
		assert.Equal(t, utils.Index{2, 3, 6, 7}, FaceDofs(3, 3, 2)) // north
		assert.Equal(t, utils.Index{0, 2, 4, 6}, FaceDofs(3, 4, 2)) // west
		assert.Equal(t, utils.Index{4, 5, 6, 7}, FaceDofs(3, 5, 2)) // top
	}
	{ // invalid ids and dimensions are fatal
		assert.Panics(t, func() { FaceDofs(2, 4, 3) })
		assert.Panics(t, func() { FaceDofs(1, 2, 3) })
		assert.Panics(t, func() { FaceDofs(3, 6, 2) })
		assert.Panics(t, func() { FaceDofs(4, 0, 2) })
	}
}

func TestToLexOrdering(t *testing.T) {
	{ // 2D: south/east traverse in lex order, north/west reversed
		for i := 0; i < 3; i++ {
			assert.Equal(t, i, ToLexOrdering(2, 0, 3, i))
			assert.Equal(t, i, ToLexOrdering(2, 1, 3, i))
			assert.Equal(t, 2-i, ToLexOrdering(2, 2, 3, i))
			assert.Equal(t, 2-i, ToLexOrdering(2, 3, 3, i))
		}
	}
	{ // each face map is a bijection on the face point set
		for dim, nfid := range map[int]int{2: 4, 3: 6} {
			size := 3
			npts := size
			if dim == 3 {
				npts = size * size
			}
			for fid := 0; fid < nfid; fid++ {
				seen := make([]bool, npts)
				for i := 0; i < npts; i++ {
					p := ToLexOrdering(dim, fid, size, i)
					assert.True(t, p >= 0 && p < npts)
					assert.False(t, seen[p])
					seen[p] = true
				}
			}
		}
	}
}

func TestPermuteFace(t *testing.T) {
	{ // 2D reversal between two south faces
		for i := 0; i < 3; i++ {
			assert.Equal(t, i, PermuteFace(2, 0, 0, 0, 3, i))
			assert.Equal(t, 2-i, PermuteFace(2, 0, 0, 1, 3, i))
		}
	}
	{ // east-west pairing with orientation 1 is the identity match
		for i := 0; i < 2; i++ {
			assert.Equal(t, i, PermuteFace(2, 1, 3, 1, 2, i))
		}
	}
	{ // every (face pair, orientation) is a bijection, 2D
		for fid1 := 0; fid1 < 4; fid1++ {
			for fid2 := 0; fid2 < 4; fid2++ {
				for or := 0; or < 2; or++ {
					seen := make([]bool, 3)
					for i := 0; i < 3; i++ {
						p := PermuteFace(2, fid1, fid2, or, 3, i)
						assert.True(t, p >= 0 && p < 3)
						assert.False(t, seen[p])
						seen[p] = true
					}
				}
			}
		}
	}
	{ // every (face pair, orientation) is a bijection, 3D
		for fid1 := 0; fid1 < 6; fid1++ {
			for fid2 := 0; fid2 < 6; fid2++ {
				for or := 0; or < 8; or++ {
					seen := make([]bool, 9)
					for i := 0; i < 9; i++ {
						p := PermuteFace(3, fid1, fid2, or, 3, i)
						assert.True(t, p >= 0 && p < 9)
						assert.False(t, seen[p])
						seen[p] = true
					}
				}
			}
		}
	}
	{ // unsupported orientation codes are fatal
		assert.Panics(t, func() { PermuteFace(3, 0, 0, 8, 3, 0) })
	}
}

func TestFaceStencils(t *testing.T) {
	{ // normal stencil runs from the face node inward
		assert.Equal(t, utils.Index{0, 2, 1, 3}, NormalStencil(2, 0, 2))          // south, +y
		assert.Equal(t, utils.Index{2, 1, 0, 5, 4, 3, 8, 7, 6}, NormalStencil(2, 1, 3)) // east, -x
		assert.Equal(t, utils.Index{0, 1, 2, 3}, NormalStencil(2, 3, 2))          // west, +x
	}
	{ // tangent stencil runs along the face for every anchor
		assert.Equal(t, utils.Index{0, 1, 0, 1}, TangentStencil(2, 0, 2))
		assert.Equal(t, utils.Index{0, 3, 6, 0, 3, 6, 0, 3, 6}, TangentStencil(2, 3, 3))
	}
	{ // first normal stencil entry is the face node itself
		for fid := 0; fid < 4; fid++ {
			fd := FaceDofs(2, fid, 3)
			ns := NormalStencil(2, fid, 3)
			for p := 0; p < 3; p++ {
				assert.Equal(t, fd[p], ns[3*p])
			}
		}
	}
	{ // 3D is rejected until the second tangent direction exists
		assert.Panics(t, func() { NormalStencil(3, 0, 2) })
		assert.Panics(t, func() { TangentStencil(3, 0, 2) })
	}
}
