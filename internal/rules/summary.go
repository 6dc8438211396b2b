package rules

// Detail describes one notification decision made during an evaluator run.
// Subject identifies the unit that was evaluated: a category name, a
// streak length, a date.
type Detail struct {
	UserID  string `json:"user_id"`
	Type    string `json:"type,omitempty"`
	Subject string `json:"subject,omitempty"`
	Sent    bool   `json:"sent"`
	Reason  string `json:"reason,omitempty"`
}

// Summary reports the outcome of one evaluator run. It is returned for the
// caller's logging and never drives control flow.
type Summary struct {
	Sent    int      `json:"sent"`
	Details []Detail `json:"details"`
}

func (s *Summary) add(d Detail) {
	if d.Sent {
		s.Sent++
	}
	s.Details = append(s.Details, d)
}
