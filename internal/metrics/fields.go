package metrics

// Attribute keys shared by the otel instruments.
const (
	AttrProvider = "provider"
	AttrMethod   = "method"
	AttrPath     = "path"
	AttrStatus   = "status"
	AttrKey      = "key"
	AttrMatchID  = "match_id"
	AttrMsgType  = "message_type"
)
