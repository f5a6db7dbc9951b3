package merkle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Round-trip inclusion: every leaf of every tree verifies against the root.
func TestRoundTripInclusion(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 8, 13, 64, 65} {
		leaves := testLeaves(n)
		tree, err := BuildTree(leaves)
		require.NoError(t, err)

		proofs := tree.AllProofs()
		require.Len(t, proofs, n)
		for i, leaf := range leaves {
			assert.True(t, VerifyProof(leaf, proofs[i], tree.Root()), "n=%d leaf=%d", n, i)
		}
	}
}

// One-shot and per-leaf proof generation must produce identical content.
func TestAllProofsMatchesPerLeaf(t *testing.T) {
	for _, n := range []int{1, 2, 5, 9, 31} {
		tree, err := BuildTree(testLeaves(n))
		require.NoError(t, err)

		all := tree.AllProofs()
		for i := 0; i < n; i++ {
			single, err := tree.Proof(i)
			require.NoError(t, err)
			assert.Equal(t, single, all[i], "n=%d leaf=%d", n, i)
		}
	}
}

// Power-of-two trees have uniform proof length ceil(log2(n)).
func TestProofLengthPowerOfTwo(t *testing.T) {
	for n, depth := range map[int]int{2: 1, 4: 2, 8: 3, 16: 4} {
		tree, err := BuildTree(testLeaves(n))
		require.NoError(t, err)
		for _, proof := range tree.AllProofs() {
			assert.Len(t, proof, depth, "n=%d", n)
		}
	}
}

// Flipping any single bit in the leaf, a proof element, or the root must make
// verification fail.
func TestTamperDetection(t *testing.T) {
	leaves := testLeaves(6)
	tree, err := BuildTree(leaves)
	require.NoError(t, err)
	root := tree.Root()

	proof, err := tree.Proof(3)
	require.NoError(t, err)
	require.True(t, VerifyProof(leaves[3], proof, root))

	flipBit := func(h [32]byte, bit int) [32]byte {
		h[bit/8] ^= 1 << uint(bit%8)
		return h
	}

	for bit := 0; bit < 256; bit += 37 {
		badLeaf := flipBit(leaves[3], bit)
		assert.False(t, VerifyProof(badLeaf, proof, root), "leaf bit %d", bit)

		badRoot := flipBit(root, bit)
		assert.False(t, VerifyProof(leaves[3], proof, badRoot), "root bit %d", bit)

		for pi := range proof {
			badProof := make(Proof, len(proof))
			copy(badProof, proof)
			badProof[pi] = flipBit(proof[pi], bit)
			assert.False(t, VerifyProof(leaves[3], badProof, root), "proof[%d] bit %d", pi, bit)
		}
	}
}
