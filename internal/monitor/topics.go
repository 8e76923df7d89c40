package monitor

const (
	TopicConnStatus = "conn.status"
	TopicFrameIn    = "frame.in"
	TopicFrameOut   = "frame.out"
	TopicFix        = "nav.fix"
	TopicSurveyIn   = "svin.status"
)
