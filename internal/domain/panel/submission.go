package panel

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Well-known submission field names
const (
	FieldCreatedBy = "created_by"
	FieldUpdatedBy = "updated_by"
	FieldStatus    = "status"
)

// StatusDraft is the status new records start in
const StatusDraft = "draft"

// Submission is the field mapping of a single form submission.
// It lives for one request and is discarded after persistence.
type Submission map[string]any

// Clone returns a shallow copy of the submission. A nil submission clones to an empty one.
func (s Submission) Clone() Submission {
	out := make(Submission, len(s)+4)
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Has reports whether the key is present
func (s Submission) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// String returns the value at key when it is a string
func (s Submission) String(key string) (string, bool) {
	v, ok := s[key].(string)
	return v, ok
}

// Decimal returns the value at key as a decimal. Strings and JSON numbers are parsed.
func (s Submission) Decimal(key string) (decimal.Decimal, bool) {
	switch v := s[key].(type) {
	case decimal.Decimal:
		return v, true
	case json.Number:
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	}
	return decimal.Zero, false
}

// Mutator augments a submission before it is persisted.
// Implementations must not modify their input, must only add or overwrite keys,
// and must not depend on the prior value of a key they write beyond
// normalizing its representation.
type Mutator func(fields Submission, actor uuid.UUID) Submission

// Apply runs the mutator on a copy of fields. A nil mutator returns the copy unchanged.
func (m Mutator) Apply(fields Submission, actor uuid.UUID) Submission {
	if m == nil {
		return fields.Clone()
	}
	return m(fields.Clone(), actor)
}

// Chain composes mutators left to right
func Chain(mutators ...Mutator) Mutator {
	return func(fields Submission, actor uuid.UUID) Submission {
		out := fields.Clone()
		for _, m := range mutators {
			if m == nil {
				continue
			}
			out = m(out, actor)
		}
		return out
	}
}

// Set returns a mutator that writes a fixed value to key
func Set(key string, value any) Mutator {
	return func(fields Submission, _ uuid.UUID) Submission {
		out := fields.Clone()
		out[key] = value
		return out
	}
}

// StampActor returns a mutator that writes the actor ID to key
func StampActor(key string) Mutator {
	return func(fields Submission, actor uuid.UUID) Submission {
		out := fields.Clone()
		out[key] = actor.String()
		return out
	}
}

// StampCreatedBy writes the actor to created_by
func StampCreatedBy() Mutator {
	return StampActor(FieldCreatedBy)
}

// StampUpdatedBy writes the actor to updated_by
func StampUpdatedBy() Mutator {
	return StampActor(FieldUpdatedBy)
}

// DefaultStatus writes status unconditionally. Records always start in the given status.
func DefaultStatus(status string) Mutator {
	return Set(FieldStatus, status)
}

// ZeroFields writes a numeric zero to every key
func ZeroFields(keys ...string) Mutator {
	return func(fields Submission, _ uuid.UUID) Submission {
		out := fields.Clone()
		for _, k := range keys {
			out[k] = amount(decimal.Zero)
		}
		return out
	}
}

// NormalizeDecimals rewrites every present key that holds a decimal value,
// quoted or not, as an exact JSON number. Unparseable values are left alone.
func NormalizeDecimals(keys ...string) Mutator {
	return func(fields Submission, _ uuid.UUID) Submission {
		out := fields.Clone()
		for _, k := range keys {
			if d, ok := out.Decimal(k); ok {
				out[k] = amount(d)
			}
		}
		return out
	}
}

// amount encodes a decimal as a JSON number without losing precision
func amount(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
