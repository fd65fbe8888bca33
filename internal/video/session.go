// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package video

import (
	"context"
	"fmt"
	"strings"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/model"
	"github.com/jeranaias/ragdesk/internal/util"
)

// Generator is the part of the API client a video screen needs.
type Generator interface {
	Checker
	GenerateVideo(ctx context.Context, configID, query string) (*api.VideoGeneration, error)
}

var _ Generator = (*api.Client)(nil)

// Session is the transcript of requests to one video assistant. Like a chat
// session it is owned by one goroutine; Generate may run elsewhere.
type Session struct {
	configID   string
	transcript *model.Transcript
	inFlight   bool
	draft      string
	err        error
	gen        util.Generation
}

// NewSession creates a session for a video assistant.
func NewSession(configID string) *Session {
	s := &Session{configID: configID, transcript: model.NewTranscript()}
	s.gen.Next()
	return s
}

// ConfigID returns the assistant id.
func (s *Session) ConfigID() string { return s.configID }

// Transcript returns the requests and results so far.
func (s *Session) Transcript() *model.Transcript { return s.transcript }

// InFlight reports whether a render is outstanding.
func (s *Session) InFlight() bool { return s.inFlight }

// Err returns the last error.
func (s *Session) Err() error { return s.err }

// TakeDraft returns the query of a failed request, once.
func (s *Session) TakeDraft() string {
	d := s.draft
	s.draft = ""
	return d
}

// Bind switches to another assistant, dropping outstanding work.
func (s *Session) Bind(configID string) {
	if configID == s.configID {
		return
	}
	s.configID = configID
	s.transcript.Clear()
	s.inFlight = false
	s.draft = ""
	s.err = nil
	s.gen.Next()
}

// Request is a submitted query.
type Request struct {
	ConfigID string
	Query    string
	Stamp    uint64
}

// Outcome is a settled request.
type Outcome struct {
	Request
	Generation *api.VideoGeneration
	Err        error
}

// Submit records the query and a placeholder. Empty queries and queries
// while a render is outstanding are ignored.
func (s *Session) Submit(query string) (Request, bool) {
	q := util.NormalizeInput(query)
	if q == "" || s.inFlight {
		return Request{}, false
	}
	if _, ok := s.transcript.AppendPending(q); !ok {
		return Request{}, false
	}
	s.inFlight = true
	s.err = nil
	return Request{ConfigID: s.configID, Query: q, Stamp: s.gen.Current()}, true
}

// Generate asks for the render and, when the server's own wait timed out,
// polls the task with p. It blocks.
func Generate(ctx context.Context, g Generator, p *Poller, r Request) Outcome {
	out := Outcome{Request: r}
	out.Generation, out.Err = g.GenerateVideo(ctx, r.ConfigID, r.Query)
	if out.Err != nil || p == nil {
		return out
	}
	if out.Generation.Result.Status == api.VideoTimeout && out.Generation.Result.TaskID != "" {
		res, err := p.Wait(ctx, out.Generation.Result.TaskID)
		if res != nil {
			out.Generation.Result = *res
		}
		if err != nil {
			out.Err = err
		}
	}
	return out
}

// Settle applies an outcome; stale outcomes are dropped and Settle returns
// false. Server-side failures are shown as assistant messages, transport
// failures roll the request back.
func (s *Session) Settle(o Outcome) bool {
	if !s.gen.IsCurrent(o.Stamp) || o.ConfigID != s.configID {
		return false
	}
	s.inFlight = false
	if o.Err != nil && o.Generation == nil {
		text, _ := s.transcript.RollbackPending()
		if text == "" {
			text = o.Query
		}
		s.draft = text
		s.err = o.Err
		return true
	}
	s.err = o.Err
	s.transcript.ResolvePending(Message(o.Generation))
	return true
}

// Message renders a generation as a transcript message. A successful render
// carries the video as an attachment.
func Message(g *api.VideoGeneration) *model.Message {
	if g == nil {
		return model.NewAssistantMessage("No result.", nil)
	}
	res := g.Result
	var media []model.Attachment
	if res.Status == api.VideoSuccess && res.VideoURL != "" {
		media = []model.Attachment{{URL: res.VideoURL, Kind: model.AttachmentVideo}}
	}
	return model.NewAssistantMessage(Describe(g), media)
}

// Describe summarises a generation for display.
func Describe(g *api.VideoGeneration) string {
	res := g.Result
	var b strings.Builder
	switch res.Status {
	case api.VideoSuccess:
		b.WriteString("Video ready.")
	case api.VideoFailed:
		b.WriteString("Video generation failed")
		if reason := firstNonEmpty(res.Reason, res.Message); reason != "" {
			fmt.Fprintf(&b, ": %s", reason)
		}
		b.WriteString(".")
	case api.VideoTimeout:
		b.WriteString("Video is still rendering")
		if res.TaskID != "" {
			fmt.Fprintf(&b, " (task %s)", res.TaskID)
		}
		b.WriteString(".")
	default:
		b.WriteString("Video generation error")
		if reason := firstNonEmpty(res.Message, res.Reason); reason != "" {
			fmt.Fprintf(&b, ": %s", reason)
		}
		b.WriteString(".")
	}
	if g.FinalPrompt != "" {
		fmt.Fprintf(&b, "\n\nPrompt: %s", g.FinalPrompt)
	}
	if g.ContextDocsFound > 0 {
		fmt.Fprintf(&b, "\nContext documents: %d", g.ContextDocsFound)
	}
	return b.String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
