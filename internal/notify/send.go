package notify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/router"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
)

// ErrMissingCredentials is returned at send time when SMTP delivery has no
// user or password.
var ErrMissingCredentials = errors.New("mail credentials not found in environment")

// Target holds a fully resolved notification target ready to send.
type Target struct {
	ServiceName string
	URL         string
	Params      map[string]string
}

// Email is a simplified SMTP definition used to build an smtp:// target.
type Email struct {
	User      string
	Password  string
	Sender    string
	Recipient string
	Host      string
	Port      int
}

// Shoutrrr delivers reports to a single shoutrrr target. It makes exactly
// one delivery attempt per Notify call.
type Shoutrrr struct {
	target Target
	err    error
}

// FromURL returns a notifier for any shoutrrr service URL.
func FromURL(rawURL string, params map[string]string) *Shoutrrr {
	t := Target{URL: rawURL, Params: params}
	if u, err := url.Parse(rawURL); err == nil {
		t.ServiceName = u.Scheme
	}
	return &Shoutrrr{target: t}
}

// FromEmail returns an SMTP notifier. Missing credentials do not fail here;
// they fail the send, so a misconfigured mailer still lets the checks run.
func FromEmail(e Email) *Shoutrrr {
	t, err := EmailTarget(e)
	return &Shoutrrr{target: t, err: err}
}

// Target returns the resolved target.
func (s *Shoutrrr) Target() Target { return s.target }

// Notify sends r once.
func (s *Shoutrrr) Notify(ctx context.Context, r Report) error {
	if s.err != nil {
		return s.err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("sending to %s: %w", s.target.ServiceName, err)
	}
	return Send(s.target, r)
}

// Validate checks that the target URL can build a sender without sending.
func (s *Shoutrrr) Validate() error {
	if s.err != nil {
		return s.err
	}
	return Validate(s.target)
}

// EmailTarget builds an smtp:// target from mail credentials. Port 465 uses
// implicit TLS. Spaces are stripped from the password since app passwords
// are usually copied in groups of four.
func EmailTarget(e Email) (Target, error) {
	user := strings.TrimSpace(e.User)
	pass := strings.ReplaceAll(strings.TrimSpace(e.Password), " ", "")
	if user == "" || pass == "" {
		return Target{ServiceName: "smtp"}, ErrMissingCredentials
	}

	sender := e.Sender
	if sender == "" {
		sender = user
	}
	recipient := e.Recipient
	if recipient == "" {
		recipient = user
	}

	encryption := "Auto"
	if e.Port == 465 {
		encryption = "ImplicitTLS"
	}

	q := url.Values{}
	q.Set("fromaddress", sender)
	q.Set("toaddresses", recipient)
	q.Set("auth", "Plain")
	q.Set("encryption", encryption)

	u := url.URL{
		Scheme:   "smtp",
		User:     url.UserPassword(user, pass),
		Host:     net.JoinHostPort(e.Host, strconv.Itoa(e.Port)),
		Path:     "/",
		RawQuery: q.Encode(),
	}

	return Target{ServiceName: "smtp", URL: u.String()}, nil
}

// Send delivers a report to a single target via Shoutrrr.
func Send(t Target, r Report) error {
	sender, err := newSender(t)
	if err != nil {
		return err
	}

	body, params := message(t.ServiceName, r)
	errs := sender.Send(body, &params)
	for _, e := range errs {
		if e != nil {
			return fmt.Errorf("sending to %s: %w", t.ServiceName, e)
		}
	}

	return nil
}

// Validate builds the sender for t without sending anything.
func Validate(t Target) error {
	_, err := newSender(t)
	return err
}

func newSender(t Target) (*router.ServiceRouter, error) {
	rawURL, err := applyParams(t.URL, t.Params)
	if err != nil {
		return nil, fmt.Errorf("building url for %s: %w", t.ServiceName, err)
	}
	sender, err := shoutrrr.CreateSender(rawURL)
	if err != nil {
		return nil, fmt.Errorf("creating sender for %s: %w", t.ServiceName, err)
	}
	return sender, nil
}

// untitled services have no subject or title field.
var untitled = map[string]bool{
	"rocketchat": true,
	"googlechat": true,
	"hangouts":   true,
	"signal":     true,
	"wecom":      true,
	"pagerduty":  true,
	"mqtt":       true,
	"notifiarr":  true,
	"logger":     true,
}

// subjectParam names the per-send parameter that carries the report subject,
// or "" when the service has none.
func subjectParam(service string) string {
	switch {
	case service == "smtp":
		return "subject"
	case service == "zulip":
		return "topic"
	case untitled[service]:
		return ""
	}
	return "title"
}

// message returns the text and params for one send. Services without a
// subject field get the subject as the first line of the text.
func message(service string, r Report) (string, types.Params) {
	key := subjectParam(service)
	if key == "" {
		return r.Subject + "\n\n" + r.Body, types.Params{}
	}
	return r.Body, types.Params{key: r.Subject}
}

// applyParams merges params into the URL query string. Existing keys are
// overwritten.
func applyParams(rawURL string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
