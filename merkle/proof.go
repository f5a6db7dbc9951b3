package merkle

import (
	"github.com/Omecx/YieldSyncx/common"
	"github.com/Omecx/YieldSyncx/yserrors"
)

// Proof is the ordered list of sibling digests for one leaf, shortest layer
// first. Layers where the leaf's ancestor was promoted unpaired contribute no
// entry: the builder carried the digest up unchanged, so the verifier's fold
// needs no placeholder for them.
type Proof []common.Hash

// Proof collects the sibling digest at each layer for the leaf at index i by
// walking the layers bottom-up. The sibling index at every level is idx^1;
// an out-of-bounds sibling means the ancestor was the promoted last element
// of an odd layer and no entry is emitted.
func (t *Tree) Proof(i int) (Proof, error) {
	if i < 0 || i >= t.LeafCount() {
		return nil, yserrors.ErrMIndexOutOfRange
	}

	proof := make(Proof, 0, t.Depth())
	idx := i
	for _, layer := range t.layers[:len(t.layers)-1] {
		sibling := idx ^ 1
		if sibling < len(layer) {
			proof = append(proof, layer[sibling])
		}
		idx /= 2
	}
	return proof, nil
}

// AllProofs generates proofs for every leaf in one pass over the layers.
// Identical in content to calling Proof for each index.
func (t *Tree) AllProofs() []Proof {
	n := t.LeafCount()
	proofs := make([]Proof, n)
	for i := range proofs {
		proofs[i] = make(Proof, 0, t.Depth())
	}
	for level, layer := range t.layers[:len(t.layers)-1] {
		for i := 0; i < n; i++ {
			sibling := (i >> uint(level)) ^ 1
			if sibling < len(layer) {
				proofs[i] = append(proofs[i], layer[sibling])
			}
		}
	}
	return proofs
}

// VerifyProof recomputes the root from a leaf and its proof with the same
// sorted-pair hash the builder uses, and compares against the expected root.
// Usable standalone against a previously anchored root, without rebuilding
// the tree. A false result is a business outcome, not an error.
func VerifyProof(leaf common.Hash, proof Proof, root common.Hash) bool {
	acc := leaf
	for _, sibling := range proof {
		acc = PairHash(acc, sibling)
	}
	return acc == root
}
