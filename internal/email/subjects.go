package email

const subjectQuoteSentFmt = "Your quote %s is ready"
