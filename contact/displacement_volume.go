package contact

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/notargets/gocontact/geometry"
)

/*
CreateDeformedSegmentVolume returns the swept volume of a local facet under the displacement u: the facet vertices
followed by the same vertices moved by u, in matching order. A facet that does not move gives a degenerate volume.
*/
func CreateDeformedSegmentVolume(mesh Mesh, facet int, u Function, gdim int) (pts []r3.Vec, err error) {
	if facet < 0 || facet >= mesh.NumFacets() {
		return nil, fmt.Errorf("%w: facet %d, mesh has %d facets", ErrFacetOutOfRange, facet, mesh.NumFacets())
	}
	if gdim != mesh.GeometricDimension() {
		return nil, fmt.Errorf("%w: facet %d swept in %dD, mesh is %dD",
			ErrDimensionMismatch, facet, gdim, mesh.GeometricDimension())
	}
	var (
		verts = mesh.FacetVertices(facet)
		nv    = geometry.VerticesPerFacet(mesh.TopologicalDimension())
	)
	if 2*len(verts) != nv {
		return nil, fmt.Errorf("%w: facet %d has %d vertices, expected %d",
			ErrDimensionMismatch, facet, len(verts), nv/2)
	}
	pts = make([]r3.Vec, nv)
	for i, v := range verts {
		var (
			x = mesh.VertexCoordinates(v)
			d = u.VertexDisplacement(v)
		)
		if gdim == 2 && d.Z != 0 {
			return nil, fmt.Errorf("%w: displacement of facet %d has a z component in a 2D mesh",
				ErrDimensionMismatch, facet)
		}
		pts[i] = x
		pts[i+len(verts)] = r3.Add(x, d)
	}
	return
}

// CreateDisplacementVolumeMesh sweeps every listed local facet, slots are keyed by global facet index
func CreateDisplacementVolumeMesh(mesh Mesh, facets []int, u Function) (sm *geometry.SweptMesh, err error) {
	gdim := mesh.GeometricDimension()
	if sm, err = geometry.NewSweptMesh(gdim, mesh.TopologicalDimension()); err != nil {
		return nil, err
	}
	for _, f := range facets {
		var pts []r3.Vec
		if pts, err = CreateDeformedSegmentVolume(mesh, f, u, gdim); err != nil {
			return nil, err
		}
		if _, err = sm.AddVolume(mesh.GlobalFacetIndex(f), pts); err != nil {
			return nil, err
		}
	}
	return
}

/*
CreateCommunicatedPrismMesh rebuilds the swept volume of a facet owned by another rank from its raw coordinates,
gdim values per point. The result holds a single slot and only lives for the exact tests against it.
*/
func CreateCommunicatedPrismMesh(gdim, tdim int, coords []float64, globalFacet int) (sm *geometry.SweptMesh, err error) {
	if sm, err = geometry.NewSweptMesh(gdim, tdim); err != nil {
		return nil, err
	}
	nv := geometry.VerticesPerFacet(tdim)
	if len(coords) != gdim*nv {
		return nil, fmt.Errorf("%w: facet %d received %d coordinates, expected %d",
			ErrDimensionMismatch, globalFacet, len(coords), gdim*nv)
	}
	pts := make([]r3.Vec, nv)
	for i := range pts {
		pts[i] = geometry.VecFromSlice(coords[i*gdim : (i+1)*gdim])
	}
	_, err = sm.AddVolume(globalFacet, pts)
	return
}

// flattenVolume packs swept points as gdim values per point
func flattenVolume(pts []r3.Vec, gdim int) (coords []float64) {
	coords = make([]float64, 0, gdim*len(pts))
	for _, p := range pts {
		coords = append(coords, geometry.VecToSlice(p, gdim)...)
	}
	return
}
