package paillier

import "errors"

var (
	// ErrInvalidArgument is returned when a plaintext, nonce, ciphertext or
	// key size is outside the range accepted by the scheme.
	ErrInvalidArgument = errors.New("paillier: invalid argument")
	// ErrIncompatibleKey is returned when values produced under different
	// moduli are combined or decrypted together.
	ErrIncompatibleKey = errors.New("paillier: incompatible public keys")
	// ErrArithmetic is returned when a modular inverse does not exist.
	ErrArithmetic = errors.New("paillier: arithmetic failure")
	// ErrKeyGeneration is returned when no suitable prime pair was found.
	ErrKeyGeneration = errors.New("paillier: key generation failed")
)
