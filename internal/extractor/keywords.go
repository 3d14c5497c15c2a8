package extractor

import (
	"strings"

	"github.com/jobtrail/jobtrail/internal/model"
)

// Phrase lists for rule-based status inference. Used to fill in a status
// the generation capability missed, and as the degraded path when the
// capability is unavailable entirely.
var (
	rejectionPhrases = []string{
		"we regret to inform",
		"unfortunately",
		"not moving forward",
		"decided not to move forward",
		"not to proceed with your application",
		"pursue other candidates",
		"other candidates whose qualifications",
		"position has been filled",
	}

	offerPhrases = []string{
		"pleased to offer you",
		"excited to offer you",
		"offer letter",
		"extend an offer",
		"offer of employment",
	}

	interviewPhrases = []string{
		"schedule an interview",
		"schedule your interview",
		"interview invitation",
		"phone screen",
		"phone interview",
		"technical interview",
		"next round",
		"meet the team",
		"availability for a call",
	}

	appliedPhrases = []string{
		"thank you for applying",
		"thanks for applying",
		"application received",
		"we received your application",
		"we have received your application",
		"your application has been received",
		"application was sent",
		"successfully submitted",
	}
)

// InferStatus detects an application status from templated phrases in the
// message text. Rejections and offers are checked before interviews:
// rejection emails routinely mention the interview they followed.
func InferStatus(text string) model.ApplicationStatus {
	text = strings.ToLower(text)

	for _, phrase := range rejectionPhrases {
		if strings.Contains(text, phrase) {
			return model.StatusRejected
		}
	}
	for _, phrase := range offerPhrases {
		if strings.Contains(text, phrase) {
			return model.StatusOffer
		}
	}
	for _, phrase := range interviewPhrases {
		if strings.Contains(text, phrase) {
			return model.StatusInterview
		}
	}
	for _, phrase := range appliedPhrases {
		if strings.Contains(text, phrase) {
			return model.StatusApplied
		}
	}

	return model.StatusUnknown
}
