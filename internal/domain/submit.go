package domain

// SubmitStatus is the non-error outcome of handing an item to a sink.
type SubmitStatus int

const (
	// SubmitOK means a new row was stored.
	SubmitOK SubmitStatus = iota + 1
	// SubmitDuplicate means the fingerprint was already stored; nothing changed.
	SubmitDuplicate
)

func (s SubmitStatus) String() string {
	switch s {
	case SubmitOK:
		return "ok"
	case SubmitDuplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// ParseSubmitStatus maps the sink wire value back to a status.
func ParseSubmitStatus(s string) (SubmitStatus, bool) {
	switch s {
	case "ok":
		return SubmitOK, true
	case "duplicate":
		return SubmitDuplicate, true
	default:
		return 0, false
	}
}
