package common

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
)

func TestSignAnchor(t *testing.T) {
	privateKeyHex := "4c0883a69102937d6231471b5dbb6204fe5129617082790e20c3a52a9e7efed2"
	root := Keccak256([]byte("batch root"))

	digest, signature, err := SignAnchor(privateKeyHex, root, 0, 99)
	assert.NoError(t, err, "Error during SignAnchor")
	assert.Equal(t, AnchorDigest(root, 0, 99), digest)

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	assert.NoError(t, err, "Error converting private key")

	err = VerifyAnchorSignature(&privateKey.PublicKey, digest, signature)
	assert.NoError(t, err, "Signature verification failed")

	// A different range must not verify against the same signature.
	otherDigest := AnchorDigest(root, 0, 100)
	err = VerifyAnchorSignature(&privateKey.PublicKey, otherDigest, signature)
	assert.Error(t, err)
}
