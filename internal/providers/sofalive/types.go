package sofalive

// Wire types for the public live-score provider. Field names follow the
// provider's JSON; mapping into domain vocabulary lives in mapper.go.

type eventsResponse struct {
	Events []liveEvent `json:"events"`
}

type eventResponse struct {
	Event liveEvent `json:"event"`
}

type liveEvent struct {
	ID        int64       `json:"id"`
	HomeTeam  competitor  `json:"homeTeam"`
	AwayTeam  competitor  `json:"awayTeam"`
	League    tournament  `json:"tournament"`
	Status    eventStatus `json:"status"`
	HomeScore scoreValue  `json:"homeScore"`
	AwayScore scoreValue  `json:"awayScore"`
	Time      eventTime   `json:"time"`
}

type competitor struct {
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
}

type tournament struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type eventStatus struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

type scoreValue struct {
	Current int `json:"current"`
}

type eventTime struct {
	// Played is elapsed seconds in the current match; 0 or absent when the
	// provider reports no running clock for this event.
	Played int `json:"played"`
}
