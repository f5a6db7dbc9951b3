package yserrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetErrorName(t *testing.T) {
	tests := []struct {
		err  error
		name string
	}{
		{ErrMEmptyInput, "EmptyInput"},
		{ErrMInvalidInput, "InvalidInput"},
		{ErrMIndexOutOfRange, "IndexOutOfRange"},
		{ErrMProofMismatch, "ProofMismatch"},
		{ErrCUnknownRoot, "UnknownRoot"},
		{ErrCBadSignature, "BadSignature"},
		{ErrPNotFound, "NotFound"},
		{errors.New("plain error"), "plain error"},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, GetErrorName(tt.err))
	}
}
