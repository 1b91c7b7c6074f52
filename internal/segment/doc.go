// Package segment labels an intensity grid into connected regions of equal
// value using stack-based region growing (flood fill).
//
// # Algorithm
//
// The grid is scanned in row-major order. Every unlabeled pixel starts a new
// region with the next label (1, 2, 3, ...). Its coordinates are pushed on an
// explicit growth stack, and the stack is drained before the scan resumes:
// each popped pixel examines its 8 neighbors, and any unlabeled neighbor with
// exactly the same value as the popped pixel joins the region and is pushed.
//
// Because equality is transitive, each region is a maximal 8-connected set of
// pixels that share one value. Labels are assigned in order of first
// encounter in the scan, so the labeling is deterministic for a given input.
//
// # Progress
//
// A RegionGrower is a progress.Task. Its size is Width*Height. The position
// advances by one per scanned cell and is set to the size on completion.
//
// # Input
//
// The grower consumes a raster.Scalar that must not be modified during the
// run. Thresholding, morphology or color conversion happen before the grower
// sees the grid (see the imaging package).
package segment
