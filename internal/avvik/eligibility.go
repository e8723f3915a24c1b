package avvik

import "dokflyt/internal/journalpost"

// themePaternity carries the extra paternity-excluded deviation.
const themePaternity = "FAR"

// EligibleKinds computes the deviation kinds currently valid for a
// journalpost, as a pure function of status, type, channel, theme, return
// count, and metadata flags. The dispatcher rejects any request whose kind is
// not in this set.
func EligibleKinds(jp *journalpost.Journalpost) []Kind {
	if jp.Status == journalpost.StatusMisregistered {
		return nil
	}

	var kinds []Kind
	switch jp.Type {
	case journalpost.TypeIncoming:
		kinds = incomingKinds(jp)
	case journalpost.TypeOutgoing:
		kinds = outgoingKinds(jp)
	}
	return kinds
}

func incomingKinds(jp *journalpost.Journalpost) []Kind {
	var kinds []Kind
	if jp.IsJournalized() {
		kinds = append(kinds, KindChangeTheme, KindCopyFromOtherTheme)
	} else {
		kinds = append(kinds, KindTransferUnit, KindWithdrawDocument, KindChangeTheme)
	}

	if jp.Channel == journalpost.ChannelScanned {
		kinds = append(kinds, KindOrderSplit, KindOrderRescan)
		if !jp.IsJournalized() && !jp.Metadata.HasFlag(journalpost.KeyOriginalOrdered) {
			kinds = append(kinds, KindOrderOriginal)
		}
	}

	if jp.Theme == themePaternity {
		kinds = append(kinds, KindPaternityExcluded)
	}
	return kinds
}

func outgoingKinds(jp *journalpost.Journalpost) []Kind {
	switch jp.Status {
	case journalpost.StatusFinalized:
		return []Kind{KindNoAddress, KindMisregisterCase}
	case journalpost.StatusDispatched:
		kinds := []Kind{KindMisregisterCase, KindRegisterReturn}
		if jp.ReturnCount > 0 && !jp.Metadata.HasFlag(journalpost.KeyRedistributionOrdered) {
			kinds = append(kinds, KindOrderNewDistribution)
		}
		return kinds
	}
	return nil
}

func eligible(kinds []Kind, k Kind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}
