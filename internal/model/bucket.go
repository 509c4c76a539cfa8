package model

// Bucket is the severity class a finding is reported under.
// The bucket is decided by the check that produced the finding, not by the
// finding itself, which is why Finding carries no severity field.
//
// Design decision: We use iota-based constants rather than strings so that
// buckets order naturally (Suggestion < Warning < Critical) for sorting and
// priority ranking. String() provides the wire name.
type Bucket int

const (
	// BucketSuggestion holds advisory findings that cannot be confirmed
	// without runtime inspection. Suggestions never debit the score and are
	// not counted in totalIssues.
	BucketSuggestion Bucket = iota

	// BucketWarning holds findings that degrade accessibility but do not
	// block assistive technology outright.
	BucketWarning

	// BucketCritical holds findings that block or seriously mislead
	// assistive technology users.
	BucketCritical
)

// String returns the lowercase wire name of the bucket.
func (b Bucket) String() string {
	switch b {
	case BucketSuggestion:
		return "suggestion"
	case BucketWarning:
		return "warning"
	case BucketCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// ParseBucket converts a wire name back into a Bucket.
// The second return value is false for unrecognised names.
func ParseBucket(s string) (Bucket, bool) {
	switch s {
	case "suggestion", "suggestions":
		return BucketSuggestion, true
	case "warning", "warnings":
		return BucketWarning, true
	case "critical":
		return BucketCritical, true
	default:
		return BucketSuggestion, false
	}
}
