// Package customer defines the customer record model and the validation
// rules records must pass before submission to ShowAds.
package customer

// RawRecord is one unvalidated row from the input file, exactly as read.
type RawRecord struct {
	Line     int // 1-based line number in the source, for error reporting
	Name     string
	Age      string
	Cookie   string
	BannerID string
}

// Customer is a validated record ready for submission. Instances are only
// produced by Validator.Validate, so holding a Customer means every field
// already passed the acceptance rules.
type Customer struct {
	Name     string
	Age      int
	Cookie   string
	BannerID int
}

// Rejection records why a row was excluded from the run.
type Rejection struct {
	Line   int
	Reason string
}
