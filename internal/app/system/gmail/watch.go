// Package gmail holds the read-only Gmail watch diagnostics used by the
// gmailwatch operator command.
//
// A "watch" is Gmail's push-notification registration: Gmail publishes
// mailbox change events to a Cloud Pub/Sub topic until the registration
// expires (at most seven days after it was created). This package checks
// stored account state against what a working watch needs; it never calls
// the Gmail API and never renews anything.
package gmail

import (
	"fmt"
	"regexp"
	"time"

	"github.com/dalemusser/inboxhub/internal/domain/models"
)

// Scopes the app requests during sign-in. Watch diagnostics additionally
// expect the readonly Gmail grant to have been made.
var Scopes = []string{
	"openid",
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// GmailReadonlyScope is the grant a functioning watch depends on.
const GmailReadonlyScope = "https://www.googleapis.com/auth/gmail.readonly"

var topicRe = regexp.MustCompile(`^projects/([^/]+)/topics/([^/]+)$`)

// ParseTopic validates a Pub/Sub topic name of the form
// projects/<project>/topics/<name> and returns its parts.
func ParseTopic(topic string) (project, name string, err error) {
	m := topicRe.FindStringSubmatch(topic)
	if m == nil {
		return "", "", fmt.Errorf("gmail: topic %q is not of the form projects/<id>/topics/<name>", topic)
	}
	return m[1], m[2], nil
}

// ExpiringSoonWindow is how close to expiry a watch is flagged as needing
// renewal before it lapses.
const ExpiringSoonWindow = 48 * time.Hour

// Finding is one problem detected on one account's watch state.
type Finding struct {
	Email  string
	Detail string
}

// Diagnose checks the watch state of every user that has watching enabled
// and returns one finding per problem. A user with a healthy watch
// contributes no findings. now is injected for testability.
func Diagnose(users []models.User, now time.Time) []Finding {
	var findings []Finding

	add := func(u models.User, format string, args ...any) {
		findings = append(findings, Finding{
			Email:  u.Email,
			Detail: fmt.Sprintf(format, args...),
		})
	}

	for _, u := range users {
		if !u.GmailWatchEnabled {
			continue
		}

		if u.RefreshToken == "" {
			add(u, "no refresh token stored; watch cannot be renewed when it expires")
		}

		switch {
		case u.GmailWatchExpiration == 0:
			add(u, "watch enabled but no expiration recorded; registration likely never completed")
		default:
			exp := time.UnixMilli(u.GmailWatchExpiration)
			if exp.Before(now) {
				add(u, "watch expired %s ago", now.Sub(exp).Round(time.Minute))
			} else if exp.Sub(now) < ExpiringSoonWindow {
				add(u, "watch expires in %s", exp.Sub(now).Round(time.Minute))
			}
		}

		if u.GmailHistoryID == "" {
			add(u, "no history id recorded; incoming notifications cannot be resolved to changes")
		}
	}

	return findings
}
