package models

// HistoryRecord is one past casting in a user's log. Records are stored
// oldest to newest, capped at a fixed retention count.
type HistoryRecord struct {
	Timestamp             string `json:"timestamp"`
	Question              string `json:"question"`
	HexagramOriginal      int    `json:"hexagram_original"`
	HexagramChanged       int    `json:"hexagram_changed"`
	Moving                [6]int `json:"moving"`
	ResultSummary         string `json:"result_summary"`
	InterpretationSummary string `json:"interpretation_summary"`
}
