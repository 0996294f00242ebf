package object

import "fmt"

// VerifySummary reports the outcome of Store.VerifyAll.
type VerifySummary struct {
	Objects int
}

// Verify re-hashes the stored envelope and checks that it matches id. Reads
// do not do this unless the store was built WithVerifyOnRead. Objects of
// unknown type are still verified; only their content hash matters here.
func (s *Store) Verify(id ID) error {
	encoded, err := s.readEncoded(id)
	if err != nil {
		return err
	}
	if _, err := Decode(encoded); err != nil {
		return wrapMalformed("verify", id, err)
	}
	if actual := HashEncoded(encoded); actual != id {
		return integrityError(id, actual)
	}
	return nil
}

// VerifyAll verifies every stored object and stops at the first failure.
func (s *Store) VerifyAll() (*VerifySummary, error) {
	ids, err := s.List()
	if err != nil {
		return nil, err
	}
	report := &VerifySummary{}
	for _, id := range ids {
		if err := s.Verify(id); err != nil {
			return nil, err
		}
		report.Objects++
	}
	return report, nil
}

func integrityError(id, actual ID) error {
	return &Error{Kind: ErrIntegrity, Op: "verify", ID: id, Err: fmt.Errorf("computed %s", actual)}
}
