package constants

// DocStatus is the lifecycle status of one document within a run.
type DocStatus string

// Stable values (written to reports and cached outputs).
const (
	DocStatusFetched     DocStatus = "FETCHED"     // metadata and PDF bytes available
	DocStatusExtracted   DocStatus = "EXTRACTED"   // layout blocks produced for every page
	DocStatusTranslated  DocStatus = "TRANSLATED"  // text blocks, title and abstract translated
	DocStatusClassified  DocStatus = "CLASSIFIED"  // tags assigned
	DocStatusReassembled DocStatus = "REASSEMBLED" // terminal success
	DocStatusFailed      DocStatus = "FAILED"      // terminal failure
)

// Terminal reports whether no further transition is allowed out of s.
func (s DocStatus) Terminal() bool {
	return s == DocStatusReassembled || s == DocStatusFailed
}
