package timeouts

import "time"

const (
	Probe         = 300 * time.Millisecond
	PagesProbe    = 5 * time.Second
	NotifyRequest = 10 * time.Second
	SecondShort   = 2 * time.Second
	SecondDefault = 10 * time.Second
)
