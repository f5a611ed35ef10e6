package tle

import "time"

// ElementSet is one satellite's two-line element set as published by the source.
type ElementSet struct {
	CatalogNumber int
	Name          string
	Line1         string
	Line2         string
	Epoch         time.Time // decoded from line 1; zero if the field is unreadable
}

// Text renders the element lines the way the /tle endpoint reports them.
func (e ElementSet) Text() string {
	return e.Line1 + "\r\n" + e.Line2
}
