package kb

import "fmt"

// Policy is the conflict rule applied when a claim is written to an entity that
// may already carry claims for the same property.
type Policy int

const (
	// ForceAppend adds the claim unconditionally.
	ForceAppend Policy = iota
	// AppendOrReplace adds the claim alongside existing values. An exact
	// duplicate (same value and qualifiers) is replaced by itself, so it is a
	// no-op.
	AppendOrReplace
	// ReplaceAll removes every existing claim on the property first.
	ReplaceAll
)

func (p Policy) String() string {
	switch p {
	case ForceAppend:
		return "FORCE_APPEND"
	case AppendOrReplace:
		return "APPEND_OR_REPLACE"
	case ReplaceAll:
		return "REPLACE_ALL"
	default:
		return fmt.Sprintf("Policy(%d)", int(p))
	}
}

// ClaimEdit pairs a claim with the policy used to write it.
type ClaimEdit struct {
	Claim  Claim
	Policy Policy
}

func Replace(c Claim) ClaimEdit { return ClaimEdit{Claim: c, Policy: ReplaceAll} }

func Append(c Claim) ClaimEdit { return ClaimEdit{Claim: c, Policy: AppendOrReplace} }

// Changes lists what ApplyEdits did to an entity, in the form the remote API
// expects: claims to write (new or updated, updated ones keep their ID) and
// claim IDs to remove.
type Changes struct {
	Upserts []Claim
	Removed []string
}

// Empty reports whether the edits left the entity unchanged.
func (c Changes) Empty() bool {
	return len(c.Upserts) == 0 && len(c.Removed) == 0
}

// ApplyEdits mutates e in place according to each edit's policy. newID assigns
// IDs to added claims.
func ApplyEdits(e *Entity, newID func() string, edits ...ClaimEdit) Changes {
	if e.Claims == nil {
		e.Claims = make(map[string][]Claim)
	}
	var changes Changes
	for _, edit := range edits {
		claim := edit.Claim.clone()
		prop := claim.Property
		existing := e.Claims[prop]

		switch edit.Policy {
		case ReplaceAll:
			if len(existing) == 1 && existing[0].Value.Equal(claim.Value) && existing[0].SameQualifiers(claim) {
				continue
			}
			for _, old := range existing {
				if old.ID != "" {
					changes.Removed = append(changes.Removed, old.ID)
				}
			}
			claim.ID = newID()
			e.Claims[prop] = []Claim{claim}
			changes.Upserts = append(changes.Upserts, claim)

		case AppendOrReplace:
			duplicate := false
			for _, old := range existing {
				if old.Value.Equal(claim.Value) && old.SameQualifiers(claim) {
					duplicate = true
					break
				}
			}
			if duplicate {
				continue
			}
			claim.ID = newID()
			e.Claims[prop] = append(existing, claim)
			changes.Upserts = append(changes.Upserts, claim)

		default:
			claim.ID = newID()
			e.Claims[prop] = append(existing, claim)
			changes.Upserts = append(changes.Upserts, claim)
		}
	}
	return changes
}
