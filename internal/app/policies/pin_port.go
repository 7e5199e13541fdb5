package policies

// PinIssuer mints single-use handover PINs and keeps only a hash at rest.
type PinIssuer interface {
	Generate() (string, error)
	Hash(pin string) (string, error)
	Compare(hash, pin string) bool
}
