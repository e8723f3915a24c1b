package journalpost

// Metadata keys used in tilleggsopplysninger. Flag keys hold "true"/"false";
// the others are chunked codec prefixes.
const (
	// KeyReturnLog is the codec prefix for the return-log entries.
	KeyReturnLog = "retur"

	// KeyDistributedAddress is the codec prefix for the address the last
	// distribution resolved to.
	KeyDistributedAddress = "distribuertAdresse"

	// KeyFollowUpTask is the codec prefix for a pending follow-up task
	// descriptor.
	KeyFollowUpTask = "oppfoelgingsoppgave"

	// KeyDistributionOrdered flags that a distribution has been ordered.
	KeyDistributionOrdered = "distribusjonBestilt"

	// KeyDispatchReceipt holds the dispatch system's tracking id so repeated
	// distribute calls can answer idempotently.
	KeyDispatchReceipt = "distribusjonBestillingsId"

	// KeyRedistributionOrdered flags that a corrected re-distribution has
	// already been ordered for the current return cycle.
	KeyRedistributionOrdered = "nyDistribusjonBestilt"

	// KeyOriginalOrdered flags that the paper original has been ordered from
	// the scanning provider.
	KeyOriginalOrdered = "originalBestilt"

	// KeyLocalPrint flags that the document was printed and handled locally
	// instead of going through the dispatch system.
	KeyLocalPrint = "lokalUtskrift"

	// KeyJournalizedBy records the caseworker ident that finalized the
	// document.
	KeyJournalizedBy = "journalfoertAv"
)
