// Copyright 2026 The aiida-shell Authors
// SPDX-License-Identifier: MIT

package artifact

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// Hash is a 32-byte BLAKE3 digest. All artifact content hashes (file
// and folder) are this size.
type Hash [32]byte

// domainKey is a 32-byte key for BLAKE3 keyed hashing. Domain
// separation ensures that the same input bytes produce different
// hashes in different contexts, preventing cross-domain collisions.
type domainKey [32]byte

// Domain separation keys. These are fixed constants - changing them
// invalidates all existing hashes in that domain. The byte values are
// the ASCII encoding of the domain name, zero-padded to 32 bytes, so
// the keys are inspectable in hex dumps without sacrificing any
// cryptographic property.
var (
	fileDomainKey = domainKey{
		'a', 'i', 'i', 'd', 'a', '.', 's', 'h', 'e', 'l', 'l', '.',
		'f', 'i', 'l', 'e', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}

	folderDomainKey = domainKey{
		'a', 'i', 'i', 'd', 'a', '.', 's', 'h', 'e', 'l', 'l', '.',
		'f', 'o', 'l', 'd', 'e', 'r', 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	}
)

// HashFile computes the file-domain BLAKE3 keyed hash of the given
// content. This is the digest recorded in completion records for
// single-file result artifacts.
func HashFile(content []byte) Hash {
	return keyedHash(fileDomainKey, content)
}

// HashFolder computes the folder-domain hash of a folder tree. Each
// entry contributes the file-domain hash of "path\x00content"; the
// folder hash is the Merkle root of those entry hashes, rehashed in
// the folder domain. Entry order is significant - a Folder preserves
// insertion order, so the same logical tree always produces the same
// digest.
func HashFolder(folder *Folder) Hash {
	if len(folder.Files) == 0 {
		return keyedHash(folderDomainKey, nil)
	}

	hashes := make([]Hash, len(folder.Files))
	for i, file := range folder.Files {
		entry := make([]byte, 0, len(file.Path)+1+len(file.Content))
		entry = append(entry, file.Path...)
		entry = append(entry, 0)
		entry = append(entry, file.Content...)
		hashes[i] = keyedHash(fileDomainKey, entry)
	}

	root := MerkleRoot(folderDomainKey, hashes)
	return keyedHash(folderDomainKey, root[:])
}

// MerkleRoot computes a binary Merkle tree over the given hashes and
// returns the root. The tree is constructed bottom-up: adjacent pairs
// are concatenated and hashed with the domain key. If a level has an
// odd number of nodes, the last node is promoted to the next level
// without hashing (it is NOT duplicated - duplicating would mean two
// different inputs produce the same root when one is a prefix of the
// other).
//
// Panics if hashes is empty.
func MerkleRoot(key domainKey, hashes []Hash) Hash {
	if len(hashes) == 0 {
		panic("artifact.MerkleRoot: empty hash list")
	}
	if len(hashes) == 1 {
		return hashes[0]
	}

	// Pre-create a single keyed hasher and reuse it via Reset() for
	// each pair. Reset() preserves the key; it returns the hasher to
	// its initial keyed state.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("artifact: BLAKE3 keyed hash initialization failed: " + err.Error())
	}

	var combined [64]byte

	hashPair := func(left, right Hash) Hash {
		copy(combined[:32], left[:])
		copy(combined[32:], right[:])
		hasher.Reset()
		hasher.Write(combined[:])
		var result Hash
		copy(result[:], hasher.Sum(nil))
		return result
	}

	// Work on a copy to avoid mutating the caller's slice.
	level := make([]Hash, len(hashes))
	copy(level, hashes)

	for len(level) > 1 {
		nextLength := (len(level) + 1) / 2
		next := make([]Hash, nextLength)

		for i := 0; i < len(level)-1; i += 2 {
			next[i/2] = hashPair(level[i], level[i+1])
		}

		// Odd node: promote without hashing.
		if len(level)%2 == 1 {
			next[nextLength-1] = level[len(level)-1]
		}

		level = next
	}

	return level[0]
}

// FormatHash returns the hex-encoded string representation of a hash.
// This is the canonical format used in completion records, logs, and
// CLI output.
func FormatHash(hash Hash) string {
	return hex.EncodeToString(hash[:])
}

// ParseHash parses a 64-character hex string into a Hash.
func ParseHash(hexString string) (Hash, error) {
	var hash Hash
	decoded, err := hex.DecodeString(hexString)
	if err != nil {
		return hash, fmt.Errorf("parsing artifact hash: %w", err)
	}
	if len(decoded) != 32 {
		return hash, fmt.Errorf("artifact hash is %d bytes, want 32", len(decoded))
	}
	copy(hash[:], decoded)
	return hash, nil
}

// keyedHash computes the BLAKE3 keyed hash with the given domain key.
func keyedHash(key domainKey, data []byte) Hash {
	// NewKeyed requires exactly 32 bytes, which domainKey guarantees.
	hasher, err := blake3.NewKeyed(key[:])
	if err != nil {
		panic("artifact: BLAKE3 keyed hash initialization failed: " + err.Error())
	}
	hasher.Write(data)
	var hash Hash
	copy(hash[:], hasher.Sum(nil))
	return hash
}
