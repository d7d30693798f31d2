package sofalive

// Provider status.type values.
const (
	statusNotStarted = "notstarted"
	statusInProgress = "inprogress"
	statusFinished   = "finished"
	statusPostponed  = "postponed"
	statusCanceled   = "canceled"
)

// Provider status.description values seen for in-progress football events.
const (
	descFirstHalf  = "1st half"
	descHalftime   = "halftime"
	descSecondHalf = "2nd half"
	descExtraTime  = "extra time"
	descOvertime   = "overtime"
)
