package cyclonedx

import "fmt"

// HashAlgorithm is a hash algorithm tag from the CycloneDX hash-alg
// enumeration.
type HashAlgorithm string

const (
	HashAlgoMD5        HashAlgorithm = "MD5"
	HashAlgoSHA1       HashAlgorithm = "SHA-1"
	HashAlgoSHA256     HashAlgorithm = "SHA-256"
	HashAlgoSHA384     HashAlgorithm = "SHA-384"
	HashAlgoSHA512     HashAlgorithm = "SHA-512"
	HashAlgoSHA3_256   HashAlgorithm = "SHA3-256"
	HashAlgoSHA3_384   HashAlgorithm = "SHA3-384"
	HashAlgoSHA3_512   HashAlgorithm = "SHA3-512"
	HashAlgoBlake2b256 HashAlgorithm = "BLAKE2b-256"
	HashAlgoBlake2b384 HashAlgorithm = "BLAKE2b-384"
	HashAlgoBlake2b512 HashAlgorithm = "BLAKE2b-512"
	HashAlgoBlake3     HashAlgorithm = "BLAKE3"
)

// hexLengths maps each algorithm to its digest size in hex characters.
// BLAKE3 is unbounded in principle but fixed at 256 bits on the wire.
var hexLengths = map[HashAlgorithm]int{
	HashAlgoMD5:        32,
	HashAlgoSHA1:       40,
	HashAlgoSHA256:     64,
	HashAlgoSHA384:     96,
	HashAlgoSHA512:     128,
	HashAlgoSHA3_256:   64,
	HashAlgoSHA3_384:   96,
	HashAlgoSHA3_512:   128,
	HashAlgoBlake2b256: 64,
	HashAlgoBlake2b384: 96,
	HashAlgoBlake2b512: 128,
	HashAlgoBlake3:     64,
}

// Hash pairs an algorithm tag with a lowercase hex digest of the matching
// length.
type Hash struct {
	Algorithm HashAlgorithm `json:"alg" xml:"alg,attr"`
	Value     string        `json:"content" xml:",chardata"`
}

// NewHash validates algorithm and digest content and returns a Hash.
// Construction never partially succeeds: any violation returns a nil Hash and
// a *FormatError naming the rule.
func NewHash(alg HashAlgorithm, content string) (*Hash, error) {
	want, ok := hexLengths[alg]
	if !ok {
		return nil, &FormatError{Value: string(alg), Rule: "unknown hash algorithm"}
	}
	if len(content) != want {
		return nil, &FormatError{
			Value: content,
			Rule:  fmt.Sprintf("hash length mismatch for %s: want %d hex characters, got %d", alg, want, len(content)),
		}
	}
	for i := 0; i < len(content); i++ {
		c := content[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return nil, &FormatError{Value: content, Rule: "hash content must be lowercase hexadecimal"}
		}
	}
	return &Hash{Algorithm: alg, Value: content}, nil
}

// check re-runs the construction rules, for use by the validation engine on
// hashes that arrived through the codec rather than NewHash.
func (h *Hash) check() error {
	_, err := NewHash(h.Algorithm, h.Value)
	return err
}
