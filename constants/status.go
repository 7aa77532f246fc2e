package constants

// AnalysisStatus is the terminal state of a pipeline run.
type AnalysisStatus string

// Stable values (store these exact strings in history rows).
const (
	StatusSingleChunk AnalysisStatus = "SINGLE_CHUNK" // whole text fit the context budget
	StatusMerged      AnalysisStatus = "MERGED"       // chunked analysis, results merged
	StatusFailed      AnalysisStatus = "FAILED"       // terminal failure, record is empty
)
