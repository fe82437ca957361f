package domain

// RunSummary is what one pipeline invocation reports back to the caller.
type RunSummary struct {
	FilesProcessed int
	Successes      int
	Partials       int
	Errors         int
}
