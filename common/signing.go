package common

import (
	"bytes"
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// AnchorDigest binds a batch root to its on-chain record range. The digest is
// what the operator signs when submitting a batch anchor, using the standard
// Ethereum signed-message prefix so contract-side recovery matches.
func AnchorDigest(root Hash, fromIndex, toIndex uint64) Hash {
	packed := Keccak256Concat(root.Bytes(), Uint64ToBytes(fromIndex), Uint64ToBytes(toIndex))
	message := append([]byte("\x19Ethereum Signed Message:\n32"), packed.Bytes()...)
	return Keccak256(message)
}

// SignAnchor signs the anchor digest for (root, fromIndex, toIndex) with the
// operator's private key in hex format. It returns the digest and the 65-byte
// signature.
func SignAnchor(privateKeyHex string, root Hash, fromIndex, toIndex uint64) (Hash, []byte, error) {
	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return Hash{}, nil, fmt.Errorf("error converting private key: %v", err)
	}

	digest := AnchorDigest(root, fromIndex, toIndex)
	signature, err := crypto.Sign(digest.Bytes(), privateKey)
	if err != nil {
		return Hash{}, nil, fmt.Errorf("error signing anchor digest: %v", err)
	}
	return digest, signature, nil
}

// VerifyAnchorSignature verifies a batch anchor signature against the expected
// operator public key. Returns an error if the signature is invalid or was
// produced by a different key.
func VerifyAnchorSignature(publicKey *ecdsa.PublicKey, digest Hash, signature []byte) error {
	recoveredPubKey, err := crypto.SigToPub(digest.Bytes(), signature)
	if err != nil {
		return errors.New("error recovering public key from signature")
	}

	sigPublicKeyBytes := crypto.FromECDSAPub(recoveredPubKey)
	publicKeyBytes := crypto.FromECDSAPub(publicKey)
	if !bytes.Equal(sigPublicKeyBytes, publicKeyBytes) {
		return errors.New("public key does not match")
	}

	signatureNoRecoverID := signature[:len(signature)-1] // remove recovery id
	if !crypto.VerifySignature(publicKeyBytes, digest.Bytes(), signatureNoRecoverID) {
		return errors.New("signature verification failed")
	}
	return nil
}
