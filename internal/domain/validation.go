package domain

// ValidationResult is the outcome of the domain-agnostic and schema checks
// for one detected file. A schema-valid file with zero data rows is a
// legitimate empty batch, not a defect.
type ValidationResult struct {
	Valid     bool
	Reasons   []string
	Encoding  string
	Separator rune
	RowCount  int
}
