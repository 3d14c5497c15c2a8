package classifier

import "strings"

// Strong signals are phrases that by themselves mark a message as
// job-related with high confidence. They override the statistical model:
// application trackers use templated language that even a thin training
// set should never miss.
var strongSubjectPhrases = []string{
	"your application",
	"application received",
	"application update",
	"application status",
	"thank you for applying",
	"thanks for applying",
	"interview invitation",
	"interview confirmation",
	"offer letter",
	"we received your application",
}

var strongBodyPhrases = []string{
	"thank you for applying",
	"thanks for applying",
	"we received your application",
	"we have received your application",
	"your application has been received",
	"your application was sent to",
	"your candidacy",
	"move forward with your application",
	"schedule your interview",
	"pleased to offer you",
	"we regret to inform you",
	"decided not to move forward",
	"pursue other candidates",
}

// HasStrongSignal reports whether a subject or body carries one of the
// templated application-tracker phrases.
func HasStrongSignal(subject, body string) bool {
	subject = strings.ToLower(subject)
	for _, phrase := range strongSubjectPhrases {
		if strings.Contains(subject, phrase) {
			return true
		}
	}
	body = strings.ToLower(body)
	for _, phrase := range strongBodyPhrases {
		if strings.Contains(body, phrase) {
			return true
		}
	}
	return false
}
