// Package site renders the static index.html that lists every published
// calendar, and reads such a page back to verify its links.
package site
