/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"math"
	"time"

	"github.com/notargets/gofea/InputParameters"
	"github.com/notargets/gofea/assembly"
	"github.com/notargets/gofea/fespace"
	"github.com/notargets/gofea/restriction"
	"github.com/notargets/gofea/types"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
)

// AssembleCmd represents the assemble command
var AssembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Build restrictions over a Cartesian test space and assemble a sparse operator",
	Long: `
Builds the element and face restrictions of a tensor-product nodal space
on a uniform quad mesh, assembles a synthetic operator into CSR form and
reports sizes and timings,

gofea assemble -k 64 -n 3`,
	Run: func(cmd *cobra.Command, args []string) {
		ap := processAssembleInput(cmd)
		prof, _ := cmd.Flags().GetBool("profile")
		if prof {
			defer profile.Start(profile.CPUProfile).Stop()
		}
		RunAssemble(ap)
	},
}

func init() {
	rootCmd.AddCommand(AssembleCmd)
	AssembleCmd.Flags().IntP("kx", "k", 16, "Number of elements in X")
	AssembleCmd.Flags().IntP("ky", "y", 16, "Number of elements in Y")
	AssembleCmd.Flags().Float64("lx", 1., "Mesh extent in X")
	AssembleCmd.Flags().Float64("ly", 1., "Mesh extent in Y")
	AssembleCmd.Flags().IntP("n", "n", 2, "polynomial degree")
	AssembleCmd.Flags().IntP("vdim", "v", 1, "vector dimension of the field")
	AssembleCmd.Flags().String("ordering", "ByNodes", "component ordering: ByNodes or ByVDim")
	AssembleCmd.Flags().BoolP("faceCoupling", "f", false, "also assemble a face-coupled DG operator on a block-numbered chain")
	AssembleCmd.Flags().StringP("inputParametersFile", "I", "", "YAML file overriding the mesh and space parameters")
	AssembleCmd.Flags().Bool("profile", false, "write a CPU profile of the assembly")
}

func processAssembleInput(cmd *cobra.Command) (ap *InputParameters.AssemblyParameters) {
	ap = &InputParameters.AssemblyParameters{Title: "assemble"}
	ap.Kx, _ = cmd.Flags().GetInt("kx")
	ap.Ky, _ = cmd.Flags().GetInt("ky")
	ap.Lx, _ = cmd.Flags().GetFloat64("lx")
	ap.Ly, _ = cmd.Flags().GetFloat64("ly")
	ap.PolynomialOrder, _ = cmd.Flags().GetInt("n")
	ap.VDim, _ = cmd.Flags().GetInt("vdim")
	ap.Ordering, _ = cmd.Flags().GetString("ordering")
	ap.FaceCoupling, _ = cmd.Flags().GetBool("faceCoupling")
	if fileName, _ := cmd.Flags().GetString("inputParametersFile"); len(fileName) != 0 {
		data, err := ioutil.ReadFile(fileName)
		if err != nil {
			panic(err)
		}
		if err = ap.Parse(data); err != nil {
			panic(err)
		}
	}
	ap.Print()
	return
}

func RunAssemble(ap *InputParameters.AssemblyParameters) {
	var (
		ordering = types.ByNodes
	)
	if ap.Ordering == "ByVDim" {
		ordering = types.ByVDim
	}
	sp, err := fespace.NewCartesian2D(ap.Kx, ap.Ky, ap.Lx, ap.Ly,
		ap.PolynomialOrder, ap.VDim, ordering)
	if err != nil {
		panic(err)
	}
	fmt.Printf("space: %d elements, %d scalar dofs, %d dofs/element\n",
		sp.NumElements(), sp.NumDofs(), fespace.DofsPerElement(sp))

	start := time.Now()
	er := restriction.NewElementRestriction(sp)
	fmt.Printf("element restriction built in %v\n", time.Since(start))

	blocks := syntheticElementBlocks(er.Ne, er.Dof)
	start = time.Now()
	A := assembly.AssembleElementCSR(er, blocks)
	rows, _ := A.Dims()
	fmt.Printf("assembled %d x %d operator, nnz %d, in %v\n",
		rows, rows, A.NNZ(), time.Since(start))

	start = time.Now()
	fr := restriction.NewFaceRestriction(sp, types.Boundary)
	tr := restriction.NewTwoSidedFaceRestriction(sp, types.Interior)
	nt := restriction.NewNormalTangentFaceRestriction(sp, types.Interior)
	fmt.Printf("face restrictions built in %v (boundary %d faces, interior %d faces)\n",
		time.Since(start), fr.Nf, tr.Nf)

	// Round trip through every restriction as a smoke check
	var (
		u     = make([]float64, er.GlobalSize())
		elemL = make([]float64, er.LocalSize())
		faceL = make([]float64, fr.LocalSize())
		twoL  = make([]float64, tr.LocalSize())
		ntL   = make([]float64, nt.LocalSize())
	)
	for i := range u {
		u[i] = math.Sin(float64(i))
	}
	start = time.Now()
	er.Scatter(u, elemL)
	fr.Scatter(u, faceL)
	tr.Scatter(u, twoL)
	nt.Scatter(u, ntL)
	fmt.Printf("scatter round trip in %v\n", time.Since(start))

	if ap.FaceCoupling {
		RunFaceCoupled(ap.Kx, ap.PolynomialOrder)
	}
}

// RunFaceCoupled assembles a DG operator on a block-numbered 1D chain:
// per-element blocks plus the cross-element coupling of each interior face
func RunFaceCoupled(k, order int) {
	var (
		ed        = order + 1
		incidence = make([][]int, k)
		faces     = make([]types.Face, 0, k-1)
	)
	for e := 0; e < k; e++ {
		row := make([]int, ed)
		for d := 0; d < ed; d++ {
			row[d] = e*ed + d
		}
		incidence[e] = row
	}
	for e := 0; e < k-1; e++ {
		faces = append(faces, types.Face{
			Side1: types.FaceSide{Elem: e, FaceID: 1},
			Side2: types.FaceSide{Elem: e + 1, FaceID: 0},
		})
	}
	ts, err := fespace.NewTabulated(1, order, 1, k*ed, types.ByNodes,
		types.GaussLobatto, incidence, nil)
	if err != nil {
		panic(err)
	}
	ts.AddFaces(types.Interior, faces, nil)

	var (
		br         = restriction.NewBlockRestriction(ts)
		tr         = restriction.NewTwoSidedFaceRestriction(ts, types.Interior)
		elemBlocks = syntheticElementBlocks(br.Ne, br.Dof)
		faceBlocks = make([]float64, tr.Dof*tr.Dof*2*tr.Nf)
	)
	for i := range faceBlocks {
		faceBlocks[i] = 0.5
	}
	start := time.Now()
	A := assembly.AssembleFaceCoupledCSR(br, tr, elemBlocks, faceBlocks)
	rows, _ := A.Dims()
	fmt.Printf("face-coupled %d x %d operator, nnz %d, in %v\n",
		rows, rows, A.NNZ(), time.Since(start))
}

// syntheticElementBlocks builds deterministic diagonally dominant element
// matrices so assembly timings do not depend on a random source
func syntheticElementBlocks(ne, ed int) (blocks []float64) {
	blocks = make([]float64, ed*ed*ne)
	for e := 0; e < ne; e++ {
		for i := 0; i < ed; i++ {
			for j := 0; j < ed; j++ {
				v := 1. / float64(1+abs(i-j))
				if i == j {
					v += float64(ed)
				}
				blocks[i+ed*(j+ed*e)] = v
			}
		}
	}
	return
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
