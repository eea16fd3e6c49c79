package event

import "fmt"

// ID identifies a single captured event. IDs are assigned monotonically at
// capture time, starting at 1; the relative order of two ids therefore
// reflects evaluation order.
type ID int64

// RootParent is the sentinel parent of top-level events.
const RootParent ID = 0

// Kind classifies what an event records.
type Kind int

const (
	// KindCallEntry marks the entry of a traced call. The payload carries
	// the annotation label of the called function.
	KindCallEntry Kind = iota
	// KindCallResult marks that the call it is parented under was forced
	// to a value; its children describe that value.
	KindCallResult
	// KindConsApp records a constructor application; children are the
	// observed fields.
	KindConsApp
	// KindFragment carries an opaque rendered piece of a value,
	// e.g. "Cons 3" or "True".
	KindFragment
)

var kindNames = map[Kind]string{
	KindCallEntry:  "enter",
	KindCallResult: "result",
	KindConsApp:    "cons",
	KindFragment:   "fragment",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind maps the wire name of a kind back to its value.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", s)
}

// Event is one atomic record of the evaluation trace. Events are write-once:
// the pipeline only indexes them and never mutates a record after ingestion.
type Event struct {
	ID        ID       `json:"id"`
	Parent    ID       `json:"parent"`
	Kind      Kind     `json:"-"`
	Payload   string   `json:"payload,omitempty"`
	CallStack []string `json:"stack,omitempty"`
}

// IsRoot reports whether the event starts a new tree.
func (e *Event) IsRoot() bool {
	return e.Parent == RootParent
}

func (e *Event) String() string {
	return fmt.Sprintf("event %d (%s, parent %d, %q)", e.ID, e.Kind, e.Parent, e.Payload)
}
