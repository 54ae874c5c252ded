package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/Yates-Labs/auditbot/internal/logger"
	"github.com/sirupsen/logrus"
)

// Attachment references audio that already lives in object storage.
type Attachment struct {
	URI      string
	MIMEType string
}

// AudioAttachment references an uploaded call recording.
func AudioAttachment(uri string) *Attachment {
	return &Attachment{URI: uri, MIMEType: AudioMIMEType}
}

// Gateway issues single-shot requests and never returns an error: every
// failure is folded into a Failed result carrying the purpose template.
type Gateway struct {
	model    Model
	profiles Profiles
	log      *logger.Logger
}

// New creates a gateway over model. A nil logger discards output.
func New(model Model, profiles Profiles, log *logger.Logger) *Gateway {
	if log == nil {
		log = logger.Discard()
	}
	return &Gateway{
		model:    model,
		profiles: profiles,
		log:      log,
	}
}

// Profiles returns the configured profiles.
func (g *Gateway) Profiles() Profiles {
	return g.profiles
}

// Complete sends prompt, plus the optional attachment, using the profile for
// purpose. Text-only and text-plus-audio are the two supported shapes.
func (g *Gateway) Complete(ctx context.Context, purpose Purpose, prompt string, attachment *Attachment) Result {
	template := FailureTemplate(purpose)

	if g.model == nil {
		return Failed(fmt.Errorf("%w: no model configured", ErrInvalidConfig), template)
	}
	if prompt == "" {
		return Failed(ErrEmptyPrompt, template)
	}

	profile := g.profiles.For(purpose)
	req := Request{
		Model:   profile.Model,
		Parts:   []Part{TextPart(prompt)},
		Options: profile.Options,
	}
	if attachment != nil && attachment.URI != "" {
		mime := attachment.MIMEType
		if mime == "" {
			mime = AudioMIMEType
		}
		req.Parts = append(req.Parts, FilePart(attachment.URI, mime))
	}

	fields := logrus.Fields{
		"provider": g.model.Provider(),
		"model":    profile.Model,
		"purpose":  string(purpose),
	}

	start := time.Now()
	resp, err := g.model.Generate(ctx, req)
	latency := time.Since(start)
	if err != nil {
		g.log.WithFields(fields).WithField("latency_ms", latency.Milliseconds()).
			WithError(err).Warn("generation failed")
		return Failed(err, template)
	}
	if resp == nil || resp.Text == "" {
		return Failed(ErrEmptyResponse, template)
	}

	md := resp.Metadata
	if md.Provider == "" {
		md.Provider = g.model.Provider()
	}
	if md.Model == "" {
		md.Model = profile.Model
	}
	md.LatencyMS = latency.Milliseconds()

	g.log.WithFields(fields).WithFields(logrus.Fields{
		"latency_ms":    md.LatencyMS,
		"input_tokens":  md.InputTokens,
		"output_tokens": md.OutputTokens,
	}).Debug("generation completed")

	return Ok(resp.Text, md)
}
