package merkle

import (
	"bytes"

	"github.com/Omecx/YieldSyncx/common"
	"github.com/Omecx/YieldSyncx/yserrors"
)

// Tree is a layered Merkle tree over ordered leaves. Layer 0 is the leaves;
// each layer above pairs adjacent digests left to right, promoting the last
// element of an odd layer unchanged. The last layer always has exactly one
// element, the root. Trees are immutable once built.
type Tree struct {
	layers [][]common.Hash
}

// PairHash hashes two digests with the contract's fixed pairwise primitive:
// the pair is sorted ascending as raw bytes before hashing, so
// PairHash(a, b) == PairHash(b, a) and verifiers need no position bits.
func PairHash(a, b common.Hash) common.Hash {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return common.Keccak256Concat(a.Bytes(), b.Bytes())
}

// BuildTree constructs the layered tree from the given leaves. The leaf order
// is preserved; no sorting of leaves happens here (only the pairwise hash
// inputs are sorted). An unpaired tail element carries up to the next layer
// as is, mirroring the verifier's fold, which consumes no proof entry at
// levels where the ancestor had no sibling. A single leaf is its own root.
func BuildTree(leaves []common.Hash) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, yserrors.ErrMEmptyInput
	}

	layer := make([]common.Hash, len(leaves))
	copy(layer, leaves)
	layers := [][]common.Hash{layer}

	for len(layer) > 1 {
		next := make([]common.Hash, 0, (len(layer)+1)/2)
		for i := 0; i < len(layer); i += 2 {
			if i+1 < len(layer) {
				next = append(next, PairHash(layer[i], layer[i+1]))
			} else {
				next = append(next, layer[i])
			}
		}
		layers = append(layers, next)
		layer = next
	}

	return &Tree{layers: layers}, nil
}

// Root returns the tree root.
func (t *Tree) Root() common.Hash {
	top := t.layers[len(t.layers)-1]
	return top[0]
}

// Depth returns the number of layers above the leaves.
func (t *Tree) Depth() int {
	return len(t.layers) - 1
}

// LeafCount returns the number of leaves the tree was built from.
func (t *Tree) LeafCount() int {
	return len(t.layers[0])
}

// Layers returns the tree layers, leaves first. The returned slices are the
// tree's own storage and must not be mutated.
func (t *Tree) Layers() [][]common.Hash {
	return t.layers
}
