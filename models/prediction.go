package models

import "time"

type Kind string

const (
	KindConsistency Kind = "vectara"
	KindGibberish   Kind = "gibberish"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Record is the persisted shape shared by both prediction kinds. The store
// assigns the identifier and timestamp through Stamp at write time.
type Record interface {
	TableName() string
	Kind() Kind
	Stamp(id string, ts time.Time)
	Identity() (string, time.Time)
}

// ParseKind accepts the route names used by the API.
func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindConsistency, "consistency":
		return KindConsistency, true
	case KindGibberish:
		return KindGibberish, true
	}
	return "", false
}
