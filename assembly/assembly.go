/*
Package assembly materializes global sparse matrices from per-element and
per-face dense blocks, using the index structures of a restriction. The
build is two-phase: a symbolic pass counts nonzeros per row, then a
numeric pass fills column indices and values into slots handed out by
atomic per-row cursors, so both phases run over unordered parallel
contributors without locks.

A global (row, col) pair touched by several elements is materialized
exactly once: the contributor with the numerically smallest element id
among those sharing both dofs owns the entry and sums the others'
values into it. That tie-break is independent of execution order, which
makes the assembled structure and values deterministic.
*/
package assembly

import (
	"fmt"
	"sort"
	"sync/atomic"

	"github.com/notargets/gofea/restriction"
	"github.com/notargets/gofea/types"
	"github.com/notargets/gofea/utils"
)

// contributor is one element's view of a shared global dof: which element,
// where the dof sits in that element's block, and its orientation sign
type contributor struct {
	elt, pos int
	flipped  bool
}

// contributorsOf appends the elements referencing global dof gid to buf,
// growing it as needed. The group indices were written in ascending
// element order, so the result is sorted by elt.
func contributorsOf(er *restriction.ElementRestriction, gid int, buf []contributor) []contributor {
	buf = buf[:0]
	for k := er.Offsets[gid]; k < er.Offsets[gid+1]; k++ {
		inst := er.Indices[k]
		buf = append(buf, contributor{
			elt:     inst.ID / er.Dof,
			pos:     inst.ID % er.Dof,
			flipped: inst.Flipped,
		})
	}
	return buf
}

// minSharedElt returns the smallest element id present in both contributor
// lists. Both lists are nonempty by construction; two dofs of the same
// element always share at least that element.
func minSharedElt(iElts, jElts []contributor) (min int) {
	min = -1
	for _, ci := range iElts {
		for _, cj := range jElts {
			if ci.elt == cj.elt && (min < 0 || ci.elt < min) {
				min = ci.elt
			}
		}
	}
	if min < 0 {
		panic(fmt.Errorf("contributor lists share no element"))
	}
	return
}

/*
FillRowSizes is the symbolic phase for an element restriction: it counts
the nonzeros each global row will hold and returns the prefix-summed row
pointer array of length vdim*ndofs+1. A (row, col) pair reachable from
several elements is counted only by the contributor minSharedElt selects.
*/
func FillRowSizes(er *restriction.ElementRestriction) (rowPtr utils.Index) {
	var (
		nRows  = er.GlobalSize()
		counts = make([]int32, nRows)
		pm     = utils.NewPartitionMap(0, er.Ne)
	)
	pm.RunParallel(func(eMin, eMax int) {
		var iElts, jElts []contributor
		for e := eMin; e < eMax; e++ {
			for i := 0; i < er.Dof; i++ {
				iGid := er.ScatterIDs[er.Dof*e+i].ID
				iElts = contributorsOf(er, iGid, iElts)
				for j := 0; j < er.Dof; j++ {
					jGid := er.ScatterIDs[er.Dof*e+j].ID
					jNb := er.Offsets[jGid+1] - er.Offsets[jGid]
					if len(iElts) > 1 && jNb > 1 {
						jElts = contributorsOf(er, jGid, jElts)
						if minSharedElt(iElts, jElts) != e {
							continue
						}
					}
					for c := 0; c < er.VDim; c++ {
						row := restriction.GlobalIndex(iGid, c, er.Ndofs, er.VDim, er.ByVDim)
						atomic.AddInt32(&counts[row], 1)
					}
				}
			}
		}
	})
	rowPtr = utils.NewIndex(nRows + 1)
	for i, n := range counts {
		rowPtr[i+1] = int(n)
	}
	utils.PrefixSum(rowPtr)
	return
}

/*
FillColumnsAndValues is the numeric phase: it re-walks the element/dof
pairs of FillRowSizes and writes column indices and values. blocks holds
one dense matrix per element, entry (i, j) of element e at
blocks[i + dof*(j + dof*e)], in the same lexicographic local order the
restriction scatters into. Each component of a vector field receives the
same scalar block. Rows come back sorted by column.
*/
func FillColumnsAndValues(er *restriction.ElementRestriction, blocks []float64,
	rowPtr utils.Index) (colInd utils.Index, data []float64) {
	var (
		ed   = er.Dof
		nnz  = rowPtr[len(rowPtr)-1]
		pm   = utils.NewPartitionMap(0, er.Ne)
		curs = newRowCursors(rowPtr)
	)
	if len(blocks) != ed*ed*er.Ne {
		panic(fmt.Errorf("element blocks length %d, want %d x %d x %d elements",
			len(blocks), ed, ed, er.Ne))
	}
	colInd = utils.NewIndex(nnz)
	data = make([]float64, nnz)
	pm.RunParallel(func(eMin, eMax int) {
		var iElts, jElts []contributor
		for e := eMin; e < eMax; e++ {
			for i := 0; i < er.Dof; i++ {
				iSid := er.ScatterIDs[er.Dof*e+i]
				iElts = contributorsOf(er, iSid.ID, iElts)
				for j := 0; j < er.Dof; j++ {
					jSid := er.ScatterIDs[er.Dof*e+j]
					jNb := er.Offsets[jSid.ID+1] - er.Offsets[jSid.ID]
					var val float64
					if len(iElts) > 1 && jNb > 1 {
						jElts = contributorsOf(er, jSid.ID, jElts)
						if minSharedElt(iElts, jElts) != e {
							continue
						}
						// sum every element sharing both dofs
						for _, ci := range iElts {
							for _, cj := range jElts {
								if ci.elt != cj.elt {
									continue
								}
								v := blocks[ci.pos+ed*(cj.pos+ed*ci.elt)]
								if ci.flipped != cj.flipped {
									v = -v
								}
								val += v
							}
						}
					} else {
						val = blocks[i+ed*(j+ed*e)]
						if iSid.Flipped != jSid.Flipped {
							val = -val
						}
					}
					for c := 0; c < er.VDim; c++ {
						row := restriction.GlobalIndex(iSid.ID, c, er.Ndofs, er.VDim, er.ByVDim)
						col := restriction.GlobalIndex(jSid.ID, c, er.Ndofs, er.VDim, er.ByVDim)
						slot := curs.next(row)
						colInd[slot] = col
						data[slot] = val
					}
				}
			}
		}
	})
	sortRows(rowPtr, colInd, data)
	return
}

// AssembleElementCSR runs both phases over an element restriction and
// wraps the result
func AssembleElementCSR(er *restriction.ElementRestriction, blocks []float64) utils.CSR {
	rowPtr := FillRowSizes(er)
	colInd, data := FillColumnsAndValues(er, blocks, rowPtr)
	n := er.GlobalSize()
	return utils.NewCSRRaw(n, n, rowPtr, colInd, data)
}

/*
AssembleBlockCSR is the fast path for a discontinuous space: no dof is
shared, so every scalar row holds exactly Dof entries and the block
matrices land unchanged on the block diagonal.
*/
func AssembleBlockCSR(br *restriction.BlockRestriction, blocks []float64) utils.CSR {
	var (
		ed    = br.Dof
		nRows = br.GlobalSize()
	)
	if len(blocks) != ed*ed*br.Ne {
		panic(fmt.Errorf("element blocks length %d, want %d x %d x %d elements",
			len(blocks), ed, ed, br.Ne))
	}
	rowPtr := utils.NewIndex(nRows + 1)
	for i := 0; i < br.Ndofs; i++ {
		for c := 0; c < br.VDim; c++ {
			rowPtr[restriction.GlobalIndex(i, c, br.Ndofs, br.VDim, br.ByVDim)+1] = ed
		}
	}
	utils.PrefixSum(rowPtr)
	colInd := utils.NewIndex(rowPtr[nRows])
	data := make([]float64, rowPtr[nRows])
	pm := utils.NewPartitionMap(0, br.Ndofs)
	pm.RunParallel(func(kMin, kMax int) {
		for gid := kMin; gid < kMax; gid++ {
			e, i := gid/ed, gid%ed
			for c := 0; c < br.VDim; c++ {
				row := restriction.GlobalIndex(gid, c, br.Ndofs, br.VDim, br.ByVDim)
				slot := rowPtr[row]
				for j := 0; j < ed; j++ {
					colInd[slot+j] = restriction.GlobalIndex(e*ed+j, c, br.Ndofs, br.VDim, br.ByVDim)
					data[slot+j] = blocks[i+ed*(j+ed*e)]
				}
			}
		}
	})
	sortRows(rowPtr, colInd, data)
	return utils.NewCSRRaw(nRows, nRows, rowPtr, colInd, data)
}

/*
AssembleFaceCoupledCSR assembles a DG operator on a discontinuous space:
per-element blocks on the block diagonal plus the cross-element coupling
blocks of the interior faces. faceBlocks holds, per face, two dense
matrices in face-dof order: side 0 couples row dofs on side 2 with column
dofs on side 1, side 1 the reverse, at
faceBlocks[i + dof*(j + dof*(side + 2*f))]. Boundary faces in tr carry
the no-neighbor sentinel and contribute nothing. The face diagonal
contributions are expected to be folded into elemBlocks beforehand with
AddFaceMatricesToElementMatrices.
*/
func AssembleFaceCoupledCSR(br *restriction.BlockRestriction,
	tr *restriction.TwoSidedFaceRestriction, elemBlocks, faceBlocks []float64) utils.CSR {
	var (
		ed    = br.Dof
		fd    = tr.Dof
		nRows = br.GlobalSize()
	)
	if tr.Ndofs != br.Ndofs {
		panic(fmt.Errorf("restrictions disagree on global size: %d vs %d", tr.Ndofs, br.Ndofs))
	}
	if len(elemBlocks) != ed*ed*br.Ne || len(faceBlocks) != fd*fd*2*tr.Nf {
		panic(fmt.Errorf("block sizes mismatch: element %d (want %d), face %d (want %d)",
			len(elemBlocks), ed*ed*br.Ne, len(faceBlocks), fd*fd*2*tr.Nf))
	}
	// Symbolic: Dof per row from the element diagonal, plus one coupling
	// column per opposite-side face dof
	counts := make([]int32, nRows)
	for i := 0; i < br.Ndofs; i++ {
		for c := 0; c < br.VDim; c++ {
			counts[restriction.GlobalIndex(i, c, br.Ndofs, br.VDim, br.ByVDim)] = int32(ed)
		}
	}
	pmFace := utils.NewPartitionMap(0, tr.NfDofs)
	pmFace.RunParallel(func(kMin, kMax int) {
		for i := kMin; i < kMax; i++ {
			s2 := tr.ScatterIDs2[i]
			if s2.ID == types.SentinelNoNeighbor {
				continue
			}
			s1 := tr.ScatterIDs1[i]
			for c := 0; c < br.VDim; c++ {
				atomic.AddInt32(&counts[restriction.GlobalIndex(s1.ID, c, br.Ndofs, br.VDim, br.ByVDim)], int32(fd))
				atomic.AddInt32(&counts[restriction.GlobalIndex(s2.ID, c, br.Ndofs, br.VDim, br.ByVDim)], int32(fd))
			}
		}
	})
	rowPtr := utils.NewIndex(nRows + 1)
	for i, n := range counts {
		rowPtr[i+1] = int(n)
	}
	utils.PrefixSum(rowPtr)
	colInd := utils.NewIndex(rowPtr[nRows])
	data := make([]float64, rowPtr[nRows])
	curs := newRowCursors(rowPtr)
	// Numeric: block diagonal first
	pmElem := utils.NewPartitionMap(0, br.Ndofs)
	pmElem.RunParallel(func(kMin, kMax int) {
		for gid := kMin; gid < kMax; gid++ {
			e, i := gid/ed, gid%ed
			for c := 0; c < br.VDim; c++ {
				row := restriction.GlobalIndex(gid, c, br.Ndofs, br.VDim, br.ByVDim)
				for j := 0; j < ed; j++ {
					slot := curs.next(row)
					colInd[slot] = restriction.GlobalIndex(e*ed+j, c, br.Ndofs, br.VDim, br.ByVDim)
					data[slot] = elemBlocks[i+ed*(j+ed*e)]
				}
			}
		}
	})
	// Cross-element coupling, one row segment per face dof and side
	pmFace.RunParallel(func(kMin, kMax int) {
		for idx := kMin; idx < kMax; idx++ {
			if tr.ScatterIDs2[idx].ID == types.SentinelNoNeighbor {
				continue
			}
			f, iF := idx/fd, idx%fd
			for side := 0; side < 2; side++ {
				rowIDs, colIDs := tr.ScatterIDs2, tr.ScatterIDs1
				if side == 1 {
					rowIDs, colIDs = tr.ScatterIDs1, tr.ScatterIDs2
				}
				ri := rowIDs[idx]
				for c := 0; c < br.VDim; c++ {
					row := restriction.GlobalIndex(ri.ID, c, br.Ndofs, br.VDim, br.ByVDim)
					for jF := 0; jF < fd; jF++ {
						cj := colIDs[f*fd+jF]
						val := faceBlocks[iF+fd*(jF+fd*(side+2*f))]
						if ri.Flipped != cj.Flipped {
							val = -val
						}
						slot := curs.next(row)
						colInd[slot] = restriction.GlobalIndex(cj.ID, c, br.Ndofs, br.VDim, br.ByVDim)
						data[slot] = val
					}
				}
			}
		}
	})
	sortRows(rowPtr, colInd, data)
	return utils.NewCSRRaw(nRows, nRows, rowPtr, colInd, data)
}

// rowCursors hands out write slots per row; next is safe across goroutines
type rowCursors struct {
	c []int32
}

func newRowCursors(rowPtr utils.Index) *rowCursors {
	rc := &rowCursors{c: make([]int32, len(rowPtr)-1)}
	for i := range rc.c {
		rc.c[i] = int32(rowPtr[i])
	}
	return rc
}

func (rc *rowCursors) next(row int) int {
	return int(atomic.AddInt32(&rc.c[row], 1)) - 1
}

// sortRows orders each row segment by column so the output is canonical
// regardless of which goroutine claimed which slot
func sortRows(rowPtr, colInd utils.Index, data []float64) {
	pm := utils.NewPartitionMap(0, len(rowPtr)-1)
	pm.RunParallel(func(kMin, kMax int) {
		for r := kMin; r < kMax; r++ {
			lo, hi := rowPtr[r], rowPtr[r+1]
			seg := rowSegment{cols: colInd[lo:hi], vals: data[lo:hi]}
			sort.Sort(seg)
		}
	})
}

type rowSegment struct {
	cols utils.Index
	vals []float64
}

func (s rowSegment) Len() int           { return len(s.cols) }
func (s rowSegment) Less(i, j int) bool { return s.cols[i] < s.cols[j] }
func (s rowSegment) Swap(i, j int) {
	s.cols[i], s.cols[j] = s.cols[j], s.cols[i]
	s.vals[i], s.vals[j] = s.vals[j], s.vals[i]
}
