package expectations

import (
	"fmt"
	"strings"
)

// ValidationsURNPrefix is the fixed prefix of evaluation parameter URNs
// that reference previously produced validation values.
const ValidationsURNPrefix = "urn:great_expectations:validations:"

// BranchKind is whether a URN denotes a result or a details value.
type BranchKind string

const (
	BranchResult  BranchKind = "result"
	BranchDetails BranchKind = "details"
)

// ParsedURN is the structured form of an evaluation parameter URN.
//
// Recognized shapes, after the fixed prefix:
//
//	<asset> : expectations : <kind> : result|details : <key>
//	<asset> : expectations : <kind> : columns : <column> : result|details : <key>
type ParsedURN struct {
	Raw        string
	AssetName  string
	Kind       string
	Branch     BranchKind
	ColumnName string
	LeafKey    string
}

// MalformedURNError reports a URN that does not match a recognized shape.
type MalformedURNError struct {
	URN    string
	Reason string
}

func (e *MalformedURNError) Error() string {
	return fmt.Sprintf("malformed evaluation parameter urn %q: %s", e.URN, e.Reason)
}

// ParseURN parses and validates an evaluation parameter URN. It is pure
// parsing: no index or store is consulted. Malformed input returns a
// *MalformedURNError carrying the offending text.
func ParseURN(text string) (*ParsedURN, error) {
	if !strings.HasPrefix(text, ValidationsURNPrefix) {
		return nil, &MalformedURNError{URN: text, Reason: "missing " + strings.TrimSuffix(ValidationsURNPrefix, ":") + " prefix"}
	}

	parts := strings.Split(strings.TrimPrefix(text, ValidationsURNPrefix), ":")
	if len(parts) < 5 {
		return nil, &MalformedURNError{URN: text, Reason: "not enough segments"}
	}

	p := &ParsedURN{
		Raw:       text,
		AssetName: parts[0],
		Kind:      parts[2],
	}

	switch parts[3] {
	case string(BranchResult), string(BranchDetails):
		p.Branch = BranchKind(parts[3])
		p.LeafKey = parts[4]
	case "columns":
		if len(parts) < 7 {
			return nil, &MalformedURNError{URN: text, Reason: "not enough segments for a column-scoped urn"}
		}
		p.ColumnName = parts[4]
		switch parts[5] {
		case string(BranchResult), string(BranchDetails):
			p.Branch = BranchKind(parts[5])
		default:
			return nil, &MalformedURNError{URN: text, Reason: fmt.Sprintf("unrecognized branch keyword %q", parts[5])}
		}
		p.LeafKey = parts[6]
	default:
		return nil, &MalformedURNError{URN: text, Reason: fmt.Sprintf("unrecognized branch keyword %q", parts[3])}
	}

	return p, nil
}

// leafKey returns the final colon-delimited segment of a URN, which names the
// result or details key to extract.
func leafKey(urn string) string {
	return urn[strings.LastIndex(urn, ":")+1:]
}
