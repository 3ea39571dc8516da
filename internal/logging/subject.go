package logging

import "strings"

// FormatSubject builds the job/operation subject string used in console output.
func FormatSubject(jobID, operation string) string {
	jobID = strings.TrimSpace(jobID)
	operation = strings.TrimSpace(operation)
	switch {
	case jobID != "" && operation != "":
		return "job " + shortJobID(jobID) + " · " + operation
	case jobID != "":
		return "job " + shortJobID(jobID)
	default:
		return operation
	}
}

// shortJobID trims uuid-style identifiers to their first group for readability.
func shortJobID(id string) string {
	if idx := strings.IndexByte(id, '-'); idx >= 8 {
		return id[:idx]
	}
	return id
}
