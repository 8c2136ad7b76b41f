package templates

import (
	"time"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithPostURL(url string) Option { return func(d *EmailData) { d.PostURL = url } }

func newData(typ, appName, name, email, forumURL string, opts ...Option) EmailData {
	d := EmailData{
		Name:     name,
		Email:    email,
		Type:     typ,
		AppName:  appName,
		ForumURL: forumURL,
	}
	for _, o := range opts {
		o(&d)
	}
	return d
}

func NewWelcomeData(appName, name, email, forumURL string, opts ...Option) EmailData {
	return newData(Welcome, appName, name, email, forumURL, opts...)
}

// NewPostReplyData notifies name that replyBy answered one of their posts.
func NewPostReplyData(appName, name, email, forumURL, replyBy, replyText string, opts ...Option) EmailData {
	d := newData(PostReply, appName, name, email, forumURL, opts...)
	d.ReplyBy = replyBy
	if r := []rune(replyText); len(r) > 280 {
		replyText = string(r[:280]) + "…"
	}
	d.ReplyText = replyText
	return d
}
