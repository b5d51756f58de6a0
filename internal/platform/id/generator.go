package id

import (
	"fmt"

	"github.com/google/uuid"
)

// Generator creates opaque IDs for sessions, posts and claim tokens.
type Generator interface {
	NewID() (string, error)
}

type UUIDGenerator struct{}

func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

func (g *UUIDGenerator) NewID() (string, error) {
	v, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	return v.String(), nil
}

// Sequence returns fixed ids in order, then fails. Used by tests.
type Sequence struct {
	IDs  []string
	next int
}

func (s *Sequence) NewID() (string, error) {
	if s.next >= len(s.IDs) {
		return "", fmt.Errorf("id sequence exhausted")
	}
	v := s.IDs[s.next]
	s.next++
	return v, nil
}
